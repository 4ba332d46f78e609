package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

// GeofenceRepository reads the configured geofence zones.
type GeofenceRepository struct {
	db *sqlx.DB
}

// NewGeofenceRepository constructs the repository.
func NewGeofenceRepository(db *sqlx.DB) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

// ListActive returns active zones in insertion order, so containment ties
// resolve deterministically to the earliest zone.
func (r *GeofenceRepository) ListActive(ctx context.Context) ([]models.GeofenceZone, error) {
	query := `SELECT id, name, latitude, longitude, radius_meters, active, created_at
FROM geofence_zones WHERE active = TRUE ORDER BY created_at ASC`
	var zones []models.GeofenceZone
	if err := r.db.SelectContext(ctx, &zones, query); err != nil {
		return nil, fmt.Errorf("list geofence zones: %w", err)
	}
	return zones, nil
}
