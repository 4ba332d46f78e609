package models

import "time"

// AttendanceStatus represents the derived status of an attendance record.
type AttendanceStatus string

const (
	AttendanceStatusPresent        AttendanceStatus = "present"
	AttendanceStatusLate           AttendanceStatus = "late"
	AttendanceStatusAbsent         AttendanceStatus = "absent"
	AttendanceStatusEarlyDeparture AttendanceStatus = "early_departure"
	AttendanceStatusOnLeave        AttendanceStatus = "on_leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent,
		AttendanceStatusEarlyDeparture, AttendanceStatusOnLeave:
		return true
	default:
		return false
	}
}

// SystemLocationMarker tags records synthesized by the backfill scheduler.
const SystemLocationMarker = "auto-system"

// AttendanceRecord is the canonical per-employee, per-date attendance row.
// The (employee_id, date) pair is unique at the storage layer.
type AttendanceRecord struct {
	ID                    string           `db:"id" json:"id"`
	EmployeeID            string           `db:"employee_id" json:"employee_id"`
	Date                  time.Time        `db:"date" json:"date"`
	CheckIn               *time.Time       `db:"check_in" json:"check_in,omitempty"`
	CheckOut              *time.Time       `db:"check_out" json:"check_out,omitempty"`
	WorkingMinutes        int              `db:"working_minutes" json:"working_minutes"`
	BreakMinutes          int              `db:"break_minutes" json:"break_minutes"`
	OvertimeMinutes       int              `db:"overtime_minutes" json:"overtime_minutes"`
	Status                AttendanceStatus `db:"status" json:"status"`
	IsLate                bool             `db:"is_late" json:"is_late"`
	LateMinutes           int              `db:"late_minutes" json:"late_minutes"`
	IsEarlyDeparture      bool             `db:"is_early_departure" json:"is_early_departure"`
	EarlyDepartureMinutes int              `db:"early_departure_minutes" json:"early_departure_minutes"`
	Location              *string          `db:"location" json:"location,omitempty"`
	Notes                 NoteLog          `db:"notes" json:"notes,omitempty"`
	IsManualEntry         bool             `db:"is_manual_entry" json:"is_manual_entry"`
	ApprovedBy            *string          `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt            *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter defines listing query filters.
type AttendanceFilter struct {
	EmployeeID string
	Status     *AttendanceStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
