package models

import "time"

// GeofenceZone is a circular approved check-in location.
type GeofenceZone struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	RadiusMeters float64   `db:"radius_meters" json:"radius_meters"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Location log event types.
const (
	LocationEventCheckIn  = "check_in"
	LocationEventCheckOut = "check_out"
)

// LocationLog records the coordinates supplied with a check-in/out.
type LocationLog struct {
	ID           string    `db:"id" json:"id"`
	AttendanceID string    `db:"attendance_id" json:"attendance_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	Event        string    `db:"event" json:"event"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	ZoneID       *string   `db:"zone_id" json:"zone_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
