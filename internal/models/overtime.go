package models

import "time"

// OvertimeEntry tracks minutes worked beyond the expected checkout, kept
// separate from ordinary working minutes.
type OvertimeEntry struct {
	ID           string    `db:"id" json:"id"`
	AttendanceID string    `db:"attendance_id" json:"attendance_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	Date         time.Time `db:"date" json:"date"`
	Minutes      int       `db:"minutes" json:"minutes"`
	Multiplier   float64   `db:"multiplier" json:"multiplier"`
	Approved     bool      `db:"approved" json:"approved"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceBreak is a single tagged break taken during a work session.
type AttendanceBreak struct {
	ID           string    `db:"id" json:"id"`
	AttendanceID string    `db:"attendance_id" json:"attendance_id"`
	BreakType    string    `db:"break_type" json:"break_type"`
	Minutes      int       `db:"minutes" json:"minutes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
