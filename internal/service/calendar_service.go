package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

const dateKeyLayout = "2006-01-02"

type holidayReader interface {
	HolidayDates(ctx context.Context, year int) ([]time.Time, error)
}

type leaveReader interface {
	HasApprovedLeave(ctx context.Context, employeeID string, date time.Time) (bool, error)
}

// CalendarService answers working-day and approved-leave questions for the
// reconciliation engine and the backfill scheduler. Pure reads, no mutation.
type CalendarService struct {
	holidays holidayReader
	leaves   leaveReader
	cache    lookupCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCalendarService constructs the calendar gate. Cache is optional.
func NewCalendarService(holidays holidayReader, leaves leaveReader, cache lookupCache, cacheTTL time.Duration, logger *zap.Logger) *CalendarService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{holidays: holidays, leaves: leaves, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// IsWorkingDay reports whether the date is neither a weekend nor a
// declared holiday. Holiday matching is date-only.
func (s *CalendarService) IsWorkingDay(ctx context.Context, date time.Time) (bool, error) {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	holidays, err := s.holidaySet(ctx, date.Year())
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	if _, ok := holidays[date.Format(dateKeyLayout)]; ok {
		return false, nil
	}
	return true, nil
}

// IsOnApprovedLeave reports whether the employee has approved leave whose
// interval contains the date.
func (s *CalendarService) IsOnApprovedLeave(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	onLeave, err := s.leaves.HasApprovedLeave(ctx, employeeID, date)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check leave")
	}
	return onLeave, nil
}

func (s *CalendarService) holidaySet(ctx context.Context, year int) (map[string]struct{}, error) {
	key := fmt.Sprintf("attendance:holidays:%d", year)

	var keys []string
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &keys); err == nil {
			return toDateSet(keys), nil
		}
	}

	dates, err := s.holidays.HolidayDates(ctx, year)
	if err != nil {
		return nil, err
	}
	keys = make([]string, len(dates))
	for i, d := range dates {
		keys[i] = d.Format(dateKeyLayout)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, keys, s.cacheTTL); err != nil {
			s.logger.Sugar().Warnw("failed to cache holidays", "year", year, "error", err)
		}
	}
	return toDateSet(keys), nil
}

func toDateSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
