package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/config"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

type shiftReader interface {
	ActiveShift(ctx context.Context, employeeID string, date time.Time) (*models.ShiftAssignment, error)
}

// ShiftExpectation is the expected attendance window for an employee on a
// date, resolved from their active shift assignment.
type ShiftExpectation struct {
	CheckIn               time.Time
	CheckOut              time.Time
	GraceMinutes          int
	EarlyDepartureMinutes int
	OvertimeAfterMinutes  int
}

// ShiftService resolves per-employee expected attendance windows.
type ShiftService struct {
	repo   shiftReader
	cfg    config.AttendanceConfig
	logger *zap.Logger
}

// NewShiftService constructs the resolver.
func NewShiftService(repo shiftReader, cfg config.AttendanceConfig, logger *zap.Logger) *ShiftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{repo: repo, cfg: cfg, logger: logger}
}

// Expectation resolves the shift expectation for the employee on the
// date. Returns nil when no shift assignment is effective, in which case
// lateness and early-departure stay uncomputed for live events.
func (s *ShiftService) Expectation(ctx context.Context, employeeID string, date time.Time) (*ShiftExpectation, error) {
	shift, err := s.repo.ActiveShift(ctx, employeeID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve shift")
	}
	if shift == nil {
		return nil, nil
	}
	exp := &ShiftExpectation{
		CheckIn:               shift.StartOn(date),
		CheckOut:              shift.EndOn(date),
		GraceMinutes:          shift.GraceMinutes,
		EarlyDepartureMinutes: shift.EarlyDepartureMinutes,
		OvertimeAfterMinutes:  shift.OvertimeAfterMinutes,
	}
	if exp.GraceMinutes <= 0 {
		exp.GraceMinutes = s.cfg.GraceMinutes
	}
	if exp.EarlyDepartureMinutes <= 0 {
		exp.EarlyDepartureMinutes = s.cfg.EarlyDepartureMinutes
	}
	if exp.OvertimeAfterMinutes <= 0 {
		exp.OvertimeAfterMinutes = s.cfg.OvertimeAfterMinutes
	}
	return exp, nil
}

// DefaultWindow is the fixed fallback working window used when records are
// synthesized without shift data.
func (s *ShiftService) DefaultWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), s.cfg.DefaultStartHour, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), s.cfg.DefaultEndHour, 0, 0, 0, date.Location())
	return start, end
}

// dateOnly normalizes an instant to midnight in the given location.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
