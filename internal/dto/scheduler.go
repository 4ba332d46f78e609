package dto

import "time"

// BackfillRunRequest triggers an administrative backfill over an explicit
// date range, optionally limited to a set of employees.
type BackfillRunRequest struct {
	From        time.Time `json:"from" validate:"required"`
	To          time.Time `json:"to" validate:"required"`
	EmployeeIDs []string  `json:"employeeIds"`
}

// EmployeeBackfillResult summarises one employee's backfill pass.
type EmployeeBackfillResult struct {
	EmployeeID        string `json:"employeeId"`
	Processed         int    `json:"processed"`
	AlreadyExists     int    `json:"alreadyExists"`
	SkippedNonWorking int    `json:"skippedNonWorking"`
	SkippedLeave      int    `json:"skippedLeave"`
	Error             string `json:"error,omitempty"`
}

// BackfillSummary aggregates a scheduler run.
type BackfillSummary struct {
	Processed         int                      `json:"processed"`
	AlreadyExists     int                      `json:"alreadyExists"`
	SkippedNonWorking int                      `json:"skippedNonWorking"`
	SkippedLeave      int                      `json:"skippedLeave"`
	Failed            int                      `json:"failed"`
	StartedAt         time.Time                `json:"startedAt"`
	FinishedAt        time.Time                `json:"finishedAt"`
	Employees         []EmployeeBackfillResult `json:"employees"`
}
