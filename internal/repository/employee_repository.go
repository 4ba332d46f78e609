package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

// EmployeeRepository is the read-only employee directory consumed by the
// reconciliation engine and the backfill scheduler.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID loads an employee.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `SELECT id, full_name, email, department, active, joined_at, created_at, updated_at
FROM employees WHERE id = $1 LIMIT 1`
	var emp models.Employee
	if err := r.db.GetContext(ctx, &emp, query, id); err != nil {
		return nil, err
	}
	return &emp, nil
}

// Exists reports whether the employee id resolves.
func (r *EmployeeRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("employee exists: %w", err)
	}
	return exists, nil
}

// ListActive pages through active employees ordered by creation.
func (r *EmployeeRepository) ListActive(ctx context.Context, limit, offset int) ([]models.Employee, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	query := `SELECT id, full_name, email, department, active, joined_at, created_at, updated_at
FROM employees WHERE active = TRUE ORDER BY created_at ASC LIMIT $1 OFFSET $2`
	var rows []models.Employee
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return rows, nil
}

// ActiveShift resolves the shift assignment effective for the employee on
// the given date, or nil when none applies.
func (r *EmployeeRepository) ActiveShift(ctx context.Context, employeeID string, date time.Time) (*models.ShiftAssignment, error) {
	query := `SELECT id, employee_id, start_minute, end_minute, grace_minutes, early_departure_minutes, overtime_after_minutes, effective_from, effective_to
FROM shift_assignments
WHERE employee_id = $1 AND effective_from <= $2 AND (effective_to IS NULL OR effective_to >= $2)
ORDER BY effective_from DESC
LIMIT 1`
	var shift models.ShiftAssignment
	if err := r.db.GetContext(ctx, &shift, query, employeeID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("active shift: %w", err)
	}
	return &shift, nil
}
