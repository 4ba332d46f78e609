package models

import "time"

// Employee is the directory view consumed by the reconciliation engine.
type Employee struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Department *string   `db:"department" json:"department,omitempty"`
	Active     bool      `db:"active" json:"active"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ShiftAssignment is an effective-dated shift window for an employee.
// Times of day are stored as minutes from midnight.
type ShiftAssignment struct {
	ID                    string     `db:"id" json:"id"`
	EmployeeID            string     `db:"employee_id" json:"employee_id"`
	StartMinute           int        `db:"start_minute" json:"start_minute"`
	EndMinute             int        `db:"end_minute" json:"end_minute"`
	GraceMinutes          int        `db:"grace_minutes" json:"grace_minutes"`
	EarlyDepartureMinutes int        `db:"early_departure_minutes" json:"early_departure_minutes"`
	OvertimeAfterMinutes  int        `db:"overtime_after_minutes" json:"overtime_after_minutes"`
	EffectiveFrom         time.Time  `db:"effective_from" json:"effective_from"`
	EffectiveTo           *time.Time `db:"effective_to" json:"effective_to,omitempty"`
}

// StartOn anchors the shift start to the given calendar date.
func (s ShiftAssignment) StartOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, s.StartMinute, 0, 0, date.Location())
}

// EndOn anchors the shift end to the given calendar date.
func (s ShiftAssignment) EndOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, s.EndMinute, 0, 0, date.Location())
}
