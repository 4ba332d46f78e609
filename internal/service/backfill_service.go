package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/dto"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/repository"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/config"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

type backfillStore interface {
	ExistingDates(ctx context.Context, employeeID string, from, to time.Time) ([]time.Time, error)
	Insert(ctx context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error)
}

type backfillDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Employee, error)
}

type workingDayGate interface {
	IsWorkingDay(ctx context.Context, date time.Time) (bool, error)
}

type leaveIntervalReader interface {
	ApprovedLeaves(ctx context.Context, employeeID string, from, to time.Time) ([]models.LeaveApplication, error)
}

type windowResolver interface {
	DefaultWindow(date time.Time) (time.Time, time.Time)
}

type backfillMetrics interface {
	RecordBackfillOutcome(outcome string, count int)
}

// BackfillService fills attendance gaps for past working days. Every pass
// is idempotent: existing records, weekends, holidays and approved leave
// days are skipped, everything else is marked present with the default
// working window.
type BackfillService struct {
	store     backfillStore
	employees backfillDirectory
	calendar  workingDayGate
	leaves    leaveIntervalReader
	windows   windowResolver
	metrics   backfillMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.BackfillConfig
	loc       *time.Location
	now       func() time.Time
}

// NewBackfillService constructs the scheduler.
func NewBackfillService(
	store backfillStore,
	employees backfillDirectory,
	calendar workingDayGate,
	leaves leaveIntervalReader,
	windows windowResolver,
	metrics backfillMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.BackfillConfig,
	loc *time.Location,
) *BackfillService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if cfg.EmployeePageSize <= 0 {
		cfg.EmployeePageSize = 200
	}
	if cfg.DailyInterval <= 0 {
		cfg.DailyInterval = 24 * time.Hour
	}
	if cfg.GraceRunDelay <= 0 {
		cfg.GraceRunDelay = time.Hour
	}
	return &BackfillService{
		store:     store,
		employees: employees,
		calendar:  calendar,
		leaves:    leaves,
		windows:   windows,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		loc:       loc,
		now:       time.Now,
	}
}

// Start launches the scheduler loop when enabled. The loop stops when the
// context is cancelled.
func (s *BackfillService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("backfill scheduler disabled")
		return
	}
	go s.loop(ctx)
}

func (s *BackfillService) loop(ctx context.Context) {
	if s.cfg.RunFullOnStart {
		if summary, err := s.RunFull(ctx); err != nil {
			s.logger.Sugar().Errorw("startup backfill failed", "error", err)
		} else {
			s.logSummary("startup", summary)
		}
	}

	graceTimer := time.NewTimer(s.untilGraceRun())
	defer graceTimer.Stop()
	ticker := time.NewTicker(s.cfg.DailyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backfill scheduler stopped")
			return
		case <-ticker.C:
			if summary, err := s.RunDaily(ctx); err != nil {
				s.logger.Sugar().Errorw("daily backfill failed", "error", err)
			} else {
				s.logSummary("daily", summary)
			}
		case <-graceTimer.C:
			if summary, err := s.RunDaily(ctx); err != nil {
				s.logger.Sugar().Errorw("grace backfill failed", "error", err)
			} else {
				s.logSummary("grace", summary)
			}
			graceTimer.Reset(s.untilGraceRun())
		}
	}
}

// untilGraceRun returns the wait until shortly after the next midnight,
// once the previous day is final.
func (s *BackfillService) untilGraceRun() time.Duration {
	now := s.now().In(s.loc)
	next := dateOnly(now, s.loc).AddDate(0, 0, 1).Add(s.cfg.GraceRunDelay)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunFull backfills every active employee from their joining date up to
// yesterday.
func (s *BackfillService) RunFull(ctx context.Context) (*dto.BackfillSummary, error) {
	yesterday := s.yesterday()
	return s.run(ctx, func(emp models.Employee) (time.Time, time.Time) {
		return dateOnly(emp.JoinedAt, s.loc), yesterday
	}, nil)
}

// RunDaily backfills only yesterday for every active employee.
func (s *BackfillService) RunDaily(ctx context.Context) (*dto.BackfillSummary, error) {
	yesterday := s.yesterday()
	return s.run(ctx, func(emp models.Employee) (time.Time, time.Time) {
		from := yesterday
		if joined := dateOnly(emp.JoinedAt, s.loc); joined.After(from) {
			from = joined
		}
		return from, yesterday
	}, nil)
}

// RunRange backfills an explicit date range, optionally limited to a set
// of employees. Days after yesterday are never touched.
func (s *BackfillService) RunRange(ctx context.Context, req dto.BackfillRunRequest) (*dto.BackfillSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	from := dateOnly(req.From, s.loc)
	to := dateOnly(req.To, s.loc)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end must not precede range start")
	}
	if yesterday := s.yesterday(); to.After(yesterday) {
		to = yesterday
	}

	rangeFor := func(emp models.Employee) (time.Time, time.Time) {
		start := from
		if joined := dateOnly(emp.JoinedAt, s.loc); joined.After(start) {
			start = joined
		}
		return start, to
	}
	return s.run(ctx, rangeFor, req.EmployeeIDs)
}

// run drives one backfill pass over the selected employees.
func (s *BackfillService) run(ctx context.Context, rangeFor func(models.Employee) (time.Time, time.Time), employeeIDs []string) (*dto.BackfillSummary, error) {
	summary := &dto.BackfillSummary{StartedAt: s.now()}

	process := func(emp models.Employee) {
		from, to := rangeFor(emp)
		if from.After(to) {
			return
		}
		result, err := s.backfillEmployee(ctx, emp.ID, from, to)
		if err != nil {
			result.Error = err.Error()
			summary.Failed++
			s.logger.Sugar().Errorw("employee backfill failed", "employee_id", emp.ID, "error", err)
		}
		summary.Processed += result.Processed
		summary.AlreadyExists += result.AlreadyExists
		summary.SkippedNonWorking += result.SkippedNonWorking
		summary.SkippedLeave += result.SkippedLeave
		summary.Employees = append(summary.Employees, result)
		if s.metrics != nil {
			s.metrics.RecordBackfillOutcome("processed", result.Processed)
			s.metrics.RecordBackfillOutcome("already_exists", result.AlreadyExists)
			s.metrics.RecordBackfillOutcome("skipped_non_working", result.SkippedNonWorking)
			s.metrics.RecordBackfillOutcome("skipped_leave", result.SkippedLeave)
		}
	}

	if len(employeeIDs) > 0 {
		for _, id := range employeeIDs {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			emp, err := s.employees.FindByID(ctx, id)
			if err != nil {
				msg := "employee lookup failed: " + err.Error()
				if errors.Is(err, sql.ErrNoRows) {
					msg = "employee not found"
				}
				summary.Failed++
				summary.Employees = append(summary.Employees, dto.EmployeeBackfillResult{EmployeeID: id, Error: msg})
				continue
			}
			process(*emp)
		}
	} else {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			page, err := s.employees.ListActive(ctx, s.cfg.EmployeePageSize, offset)
			if err != nil {
				return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
			}
			for _, emp := range page {
				process(emp)
			}
			if len(page) < s.cfg.EmployeePageSize {
				break
			}
			offset += len(page)
		}
	}

	summary.FinishedAt = s.now()
	return summary, nil
}

func (s *BackfillService) backfillEmployee(ctx context.Context, employeeID string, from, to time.Time) (dto.EmployeeBackfillResult, error) {
	result := dto.EmployeeBackfillResult{EmployeeID: employeeID}

	existing, err := s.store.ExistingDates(ctx, employeeID, from, to)
	if err != nil {
		return result, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		// Stored dates scan back as UTC midnight; format them as-is so the
		// key matches the local iteration dates on west-of-UTC deployments.
		taken[d.Format(dateKeyLayout)] = struct{}{}
	}

	leaves, err := s.leaves.ApprovedLeaves(ctx, employeeID, from, to)
	if err != nil {
		return result, err
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		working, err := s.calendar.IsWorkingDay(ctx, d)
		if err != nil {
			return result, err
		}
		if !working {
			result.SkippedNonWorking++
			continue
		}
		if _, ok := taken[d.Format(dateKeyLayout)]; ok {
			result.AlreadyExists++
			continue
		}
		if coveredByLeave(leaves, d) {
			result.SkippedLeave++
			continue
		}
		if err := s.synthesize(ctx, employeeID, d); err != nil {
			if errors.Is(err, repository.ErrDuplicateRecord) {
				result.AlreadyExists++
				continue
			}
			return result, err
		}
		result.Processed++
	}
	return result, nil
}

// synthesize inserts an auto-marked present record for one working day.
func (s *BackfillService) synthesize(ctx context.Context, employeeID string, date time.Time) error {
	start, end := s.windows.DefaultWindow(date)
	checkIn, checkOut := start, end
	location := models.SystemLocationMarker

	rec := &models.AttendanceRecord{
		EmployeeID:     employeeID,
		Date:           date,
		CheckIn:        &checkIn,
		CheckOut:       &checkOut,
		WorkingMinutes: minutesBetween(start, end),
		Status:         models.AttendanceStatusPresent,
		IsManualEntry:  true,
		Location:       &location,
		Notes:          models.NoteLog{}.Append(models.NoteTagAutoMark, fmt.Sprintf("auto-marked present for %s", date.Format(dateKeyLayout))),
	}
	reason := "attendance backfill"
	audit := auditEntry(models.Actor{}, models.AuditActionCreate, nil, snapshot(rec), &reason)

	_, err := s.store.Insert(ctx, repository.AttendanceWrite{Record: rec, Audit: audit})
	return err
}

func (s *BackfillService) yesterday() time.Time {
	return dateOnly(s.now().In(s.loc), s.loc).AddDate(0, 0, -1)
}

func (s *BackfillService) logSummary(trigger string, summary *dto.BackfillSummary) {
	s.logger.Sugar().Infow("backfill pass finished",
		"trigger", trigger,
		"processed", summary.Processed,
		"already_exists", summary.AlreadyExists,
		"skipped_non_working", summary.SkippedNonWorking,
		"skipped_leave", summary.SkippedLeave,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)
}

func coveredByLeave(leaves []models.LeaveApplication, date time.Time) bool {
	for _, leave := range leaves {
		if !date.Before(leave.StartDate) && !date.After(leave.EndDate) {
			return true
		}
	}
	return false
}
