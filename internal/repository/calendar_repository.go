package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

// CalendarRepository reads declared holidays and approved leave intervals.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// HolidayDates returns all declared holiday dates within a calendar year.
func (r *CalendarRepository) HolidayDates(ctx context.Context, year int) ([]time.Time, error) {
	query := `SELECT date FROM holidays WHERE EXTRACT(YEAR FROM date) = $1 ORDER BY date ASC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, year); err != nil {
		return nil, fmt.Errorf("holiday dates: %w", err)
	}
	return dates, nil
}

// HasApprovedLeave reports whether the employee has an approved leave
// application whose interval contains the date.
func (r *CalendarRepository) HasApprovedLeave(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	query := `SELECT EXISTS(
SELECT 1 FROM leave_applications
WHERE employee_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, employeeID, models.LeaveStatusApproved, date); err != nil {
		return false, fmt.Errorf("approved leave lookup: %w", err)
	}
	return exists, nil
}

// ApprovedLeaves returns approved leave applications overlapping [from, to]
// for the employee, ordered by start date.
func (r *CalendarRepository) ApprovedLeaves(ctx context.Context, employeeID string, from, to time.Time) ([]models.LeaveApplication, error) {
	query := `SELECT id, employee_id, leave_type, start_date, end_date, status, created_at
FROM leave_applications
WHERE employee_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $4
ORDER BY start_date ASC`
	var rows []models.LeaveApplication
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, models.LeaveStatusApproved, to, from); err != nil {
		return nil, fmt.Errorf("approved leaves: %w", err)
	}
	return rows, nil
}
