package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

const earthRadiusMeters = 6371000

const geofenceCacheKey = "attendance:geofence:zones"

type geofenceZoneLister interface {
	ListActive(ctx context.Context) ([]models.GeofenceZone, error)
}

type lookupCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// GeofenceService resolves coordinates against the configured zones.
type GeofenceService struct {
	repo     geofenceZoneLister
	cache    lookupCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewGeofenceService constructs the service. Cache is optional.
func NewGeofenceService(repo geofenceZoneLister, cache lookupCache, cacheTTL time.Duration, logger *zap.Logger) *GeofenceService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeofenceService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Locate returns the first active zone containing the point, in zone
// insertion order, or nil when no zone contains it.
func (s *GeofenceService) Locate(ctx context.Context, lat, lon float64) (*models.GeofenceZone, error) {
	zones, err := s.zones(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load geofence zones")
	}
	for i := range zones {
		zone := &zones[i]
		distance := haversineMeters(lat, lon, zone.Latitude, zone.Longitude)
		if distance <= zone.RadiusMeters {
			return zone, nil
		}
	}
	return nil, nil
}

func (s *GeofenceService) zones(ctx context.Context) ([]models.GeofenceZone, error) {
	if s.cache != nil {
		var cached []models.GeofenceZone
		if err := s.cache.Get(ctx, geofenceCacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	zones, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, geofenceCacheKey, zones, s.cacheTTL); err != nil {
			s.logger.Sugar().Warnw("failed to cache geofence zones", "error", err)
		}
	}
	return zones, nil
}

// haversineMeters computes the great-circle distance between two points.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
