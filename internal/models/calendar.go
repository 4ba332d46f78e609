package models

import "time"

// Holiday is a declared non-working calendar date.
type Holiday struct {
	ID   string    `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Date time.Time `db:"date" json:"date"`
}

// LeaveStatus values for leave applications.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// LeaveApplication is an employee leave interval; only approved
// applications shield dates from auto-marking.
type LeaveApplication struct {
	ID         string      `db:"id" json:"id"`
	EmployeeID string      `db:"employee_id" json:"employee_id"`
	LeaveType  string      `db:"leave_type" json:"leave_type"`
	StartDate  time.Time   `db:"start_date" json:"start_date"`
	EndDate    time.Time   `db:"end_date" json:"end_date"`
	Status     LeaveStatus `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
