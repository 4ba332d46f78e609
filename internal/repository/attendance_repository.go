package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

// ErrDuplicateRecord reports that a record for the (employee, date) pair
// already exists. The unique constraint is the backstop for concurrent
// writers that both pass the application-level existence check.
var ErrDuplicateRecord = errors.New("attendance record already exists for employee and date")

const attendanceColumns = `id, employee_id, date, check_in, check_out, working_minutes, break_minutes, overtime_minutes,
status, is_late, late_minutes, is_early_departure, early_departure_minutes, location, notes, is_manual_entry,
approved_by, approved_at, created_at, updated_at`

// AttendanceWrite bundles an attendance mutation with its dependent rows
// and audit entry so the repository can apply them in one transaction.
type AttendanceWrite struct {
	Record      *models.AttendanceRecord
	Audit       *models.AuditLog
	Break       *models.AttendanceBreak
	LocationLog *models.LocationLog

	// OvertimeMinutes, when set, synchronizes the overtime entry for the
	// record: positive upserts, zero removes.
	OvertimeMinutes    *int
	OvertimeMultiplier float64
}

// AttendanceRepository handles persistence for attendance records and
// their dependent break, location-log and overtime rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByID loads a record by primary key.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1 LIMIT 1`, attendanceColumns)
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByEmployeeDate loads the record for an (employee, date) pair.
func (r *AttendanceRepository) FindByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE employee_id = $1 AND date = $2 LIMIT 1`, attendanceColumns)
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, employeeID, date); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert creates a new record together with its dependent rows and audit
// entry. Returns ErrDuplicateRecord when the (employee, date) key is taken.
func (r *AttendanceRepository) Insert(ctx context.Context, write AttendanceWrite) (*models.AttendanceRecord, error) {
	rec := write.Record
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO attendance_records (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
ON CONFLICT (employee_id, date) DO NOTHING
RETURNING %s`, attendanceColumns, attendanceColumns)
	var stored models.AttendanceRecord
	err = tx.GetContext(ctx, &stored, query,
		rec.ID, rec.EmployeeID, rec.Date, rec.CheckIn, rec.CheckOut, rec.WorkingMinutes, rec.BreakMinutes, rec.OvertimeMinutes,
		rec.Status, rec.IsLate, rec.LateMinutes, rec.IsEarlyDeparture, rec.EarlyDepartureMinutes, rec.Location, rec.Notes, rec.IsManualEntry,
		rec.ApprovedBy, rec.ApprovedAt, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}

	if err := r.applyDependents(ctx, tx, &stored, write); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance insert: %w", err)
	}
	commit = true
	return &stored, nil
}

// Update rewrites a record row together with its dependent rows and audit
// entry in one transaction.
func (r *AttendanceRepository) Update(ctx context.Context, write AttendanceWrite) (*models.AttendanceRecord, error) {
	rec := write.Record
	rec.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance update: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`UPDATE attendance_records SET
check_in = $2, check_out = $3, working_minutes = $4, break_minutes = $5, overtime_minutes = $6,
status = $7, is_late = $8, late_minutes = $9, is_early_departure = $10, early_departure_minutes = $11,
location = $12, notes = $13, is_manual_entry = $14, approved_by = $15, approved_at = $16, updated_at = $17
WHERE id = $1
RETURNING %s`, attendanceColumns)
	var stored models.AttendanceRecord
	err = tx.GetContext(ctx, &stored, query,
		rec.ID, rec.CheckIn, rec.CheckOut, rec.WorkingMinutes, rec.BreakMinutes, rec.OvertimeMinutes,
		rec.Status, rec.IsLate, rec.LateMinutes, rec.IsEarlyDeparture, rec.EarlyDepartureMinutes,
		rec.Location, rec.Notes, rec.IsManualEntry, rec.ApprovedBy, rec.ApprovedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update attendance record: %w", err)
	}

	if err := r.applyDependents(ctx, tx, &stored, write); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance update: %w", err)
	}
	commit = true
	return &stored, nil
}

// DeleteCascade writes the audit snapshot, removes dependent break,
// location-log and overtime rows, then deletes the record itself.
func (r *AttendanceRepository) DeleteCascade(ctx context.Context, record *models.AttendanceRecord, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance delete: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	if audit != nil {
		if err := CreateAuditIn(ctx, tx, audit); err != nil {
			return err
		}
	}
	for _, stmt := range []string{
		`DELETE FROM attendance_breaks WHERE attendance_id = $1`,
		`DELETE FROM location_logs WHERE attendance_id = $1`,
		`DELETE FROM overtime_entries WHERE attendance_id = $1`,
		`DELETE FROM attendance_records WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, record.ID); err != nil {
			return fmt.Errorf("cascade delete attendance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance delete: %w", err)
	}
	commit = true
	return nil
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"date":       "date",
		"status":     "status",
		"created_at": "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		attendanceColumns, whereClause, sortColumn, order, size, offset)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return rows, total, nil
}

// ExistingDates returns the dates in [from, to] that already have a record
// for the employee. Used by the backfill scheduler to keep reruns cheap.
func (r *AttendanceRepository) ExistingDates(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	query := `SELECT date FROM attendance_records WHERE employee_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("existing attendance dates: %w", err)
	}
	return dates, nil
}

// CountAbsences counts absent-status records for an employee in [from, to].
func (r *AttendanceRepository) CountAbsences(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM attendance_records WHERE employee_id = $1 AND status = $2 AND date >= $3 AND date <= $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, employeeID, models.AttendanceStatusAbsent, from, to); err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	return count, nil
}

func (r *AttendanceRepository) applyDependents(ctx context.Context, tx *sqlx.Tx, stored *models.AttendanceRecord, write AttendanceWrite) error {
	now := time.Now().UTC()

	if write.Break != nil {
		br := write.Break
		if br.ID == "" {
			br.ID = uuid.NewString()
		}
		br.AttendanceID = stored.ID
		br.CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attendance_breaks (id, attendance_id, break_type, minutes, created_at) VALUES ($1, $2, $3, $4, $5)`,
			br.ID, br.AttendanceID, br.BreakType, br.Minutes, br.CreatedAt); err != nil {
			return fmt.Errorf("insert attendance break: %w", err)
		}
	}

	if write.LocationLog != nil {
		loc := write.LocationLog
		if loc.ID == "" {
			loc.ID = uuid.NewString()
		}
		loc.AttendanceID = stored.ID
		loc.EmployeeID = stored.EmployeeID
		loc.CreatedAt = now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO location_logs (id, attendance_id, employee_id, event, latitude, longitude, zone_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			loc.ID, loc.AttendanceID, loc.EmployeeID, loc.Event, loc.Latitude, loc.Longitude, loc.ZoneID, loc.CreatedAt); err != nil {
			return fmt.Errorf("insert location log: %w", err)
		}
	}

	if write.OvertimeMinutes != nil {
		minutes := *write.OvertimeMinutes
		if minutes > 0 {
			multiplier := write.OvertimeMultiplier
			if multiplier <= 0 {
				multiplier = 1.5
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO overtime_entries (id, attendance_id, employee_id, date, minutes, multiplier, approved, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
ON CONFLICT (attendance_id) DO UPDATE SET minutes = EXCLUDED.minutes, updated_at = EXCLUDED.updated_at`,
				uuid.NewString(), stored.ID, stored.EmployeeID, stored.Date, minutes, multiplier, now); err != nil {
				return fmt.Errorf("sync overtime entry: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `DELETE FROM overtime_entries WHERE attendance_id = $1`, stored.ID); err != nil {
				return fmt.Errorf("remove overtime entry: %w", err)
			}
		}
	}

	if write.Audit != nil {
		write.Audit.ResourceID = &stored.ID
		if err := CreateAuditIn(ctx, tx, write.Audit); err != nil {
			return err
		}
	}
	return nil
}
