package service

import (
	"context"
	"database/sql"
	"encoding/json"
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

// Acceptance windows around a caller-supplied expected time. Check-in
// tolerates a full shift of late arrival; checkout is tighter because
// overtime beyond two hours goes through an explicit adjustment instead.
const (
	checkInEarlySlack  = time.Hour
	checkInLateSlack   = 9 * time.Hour
	checkOutEarlySlack = time.Hour
	checkOutLateSlack  = 2 * time.Hour
)

type attendanceStore interface {
	FindByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error)
	Update(ctx context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error)
}

type employeeDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type shiftResolver interface {
	Expectation(ctx context.Context, employeeID string, date time.Time) (*ShiftExpectation, error)
}

type geofenceLocator interface {
	Locate(ctx context.Context, lat, lon float64) (*models.GeofenceZone, error)
}

type alertSink interface {
	Alert(employeeID, alertType string, severity AlertSeverity, message string)
}

// ReconciliationService turns raw check-in/check-out events into derived
// attendance records.
type ReconciliationService struct {
	store     attendanceStore
	employees employeeDirectory
	shifts    shiftResolver
	geofence  geofenceLocator
	notifier  alertSink
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AttendanceConfig
	loc       *time.Location
}

// NewReconciliationService constructs the engine.
func NewReconciliationService(
	store attendanceStore,
	employees employeeDirectory,
	shifts shiftResolver,
	geofence geofenceLocator,
	notifier alertSink,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.AttendanceConfig,
	loc *time.Location,
) *ReconciliationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if cfg.MinimumWorkMinutes <= 0 {
		cfg.MinimumWorkMinutes = 240
	}
	if cfg.OvertimeMultiplier <= 0 {
		cfg.OvertimeMultiplier = 1.5
	}
	return &ReconciliationService{
		store:     store,
		employees: employees,
		shifts:    shifts,
		geofence:  geofence,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		loc:       loc,
	}
}

// RecordCheckIn processes a live check-in event and creates or completes
// the attendance record for the resolved date.
func (s *ReconciliationService) RecordCheckIn(ctx context.Context, req dto.CheckInRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	date := s.effectiveDate(req.Date, req.CheckInTime)
	existing, err := s.store.FindByEmployeeDate(ctx, req.EmployeeID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if existing != nil && existing.CheckIn != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already checked in for this date")
	}

	if req.ExpectedCheckInTime != nil {
		if err := validateEventWindow(req.CheckInTime, *req.ExpectedCheckInTime, checkInEarlySlack, checkInLateSlack); err != nil {
			return nil, err
		}
	}

	lateMinutes, err := s.lateness(ctx, req.EmployeeID, date, req.CheckInTime, req.ExpectedCheckInTime)
	if err != nil {
		return nil, err
	}
	isLate := lateMinutes > 0

	var notes models.NoteLog
	if existing != nil {
		notes = existing.Notes
	}
	if req.Notes != nil {
		notes = notes.Append("", *req.Notes)
	}
	notes, locationLog, err := s.evaluateGeofence(ctx, notes, models.LocationEventCheckIn, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	checkIn := req.CheckInTime
	status := models.AttendanceStatusPresent
	if isLate {
		status = models.AttendanceStatusLate
	}

	var stored *models.AttendanceRecord
	if existing != nil {
		rec := *existing
		rec.CheckIn = &checkIn
		rec.Status = status
		rec.IsLate = isLate
		rec.LateMinutes = lateMinutes
		rec.Notes = notes
		if req.Location != nil {
			rec.Location = req.Location
		}
		audit := auditEntry(actor, models.AuditActionUpdate, snapshot(existing), snapshot(&rec), nil)
		stored, err = s.store.Update(ctx, repository.AttendanceWrite{Record: &rec, Audit: audit, LocationLog: locationLog})
	} else {
		rec := &models.AttendanceRecord{
			EmployeeID:  req.EmployeeID,
			Date:        date,
			CheckIn:     &checkIn,
			Status:      status,
			IsLate:      isLate,
			LateMinutes: lateMinutes,
			Location:    req.Location,
			Notes:       notes,
		}
		audit := auditEntry(actor, models.AuditActionCreate, nil, snapshot(rec), nil)
		stored, err = s.store.Insert(ctx, repository.AttendanceWrite{Record: rec, Audit: audit, LocationLog: locationLog})
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already checked in for this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	if isLate {
		s.notifier.Alert(req.EmployeeID, AlertTypeLateArrival, severityForMinutes(lateMinutes),
			fmt.Sprintf("checked in %d minutes late on %s", lateMinutes, date.Format(dateKeyLayout)))
	}
	return stored, nil
}

// RecordCheckOut closes the day's open attendance record and derives
// working minutes, early departure and overtime.
func (s *ReconciliationService) RecordCheckOut(ctx context.Context, req dto.CheckOutRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	date := s.effectiveDate(req.Date, req.CheckOutTime)
	rec, err := s.store.FindByEmployeeDate(ctx, req.EmployeeID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "must check-in first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if rec.CheckIn == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "must check-in first")
	}
	if rec.CheckOut != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already checked out for this date")
	}

	if req.ExpectedCheckOutTime != nil {
		if err := validateEventWindow(req.CheckOutTime, *req.ExpectedCheckOutTime, checkOutEarlySlack, checkOutLateSlack); err != nil {
			return nil, err
		}
	}
	if !req.CheckOutTime.After(*rec.CheckIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check-out must be after check-in")
	}
	workingMinutes := minutesBetween(*rec.CheckIn, req.CheckOutTime)
	if workingMinutes < s.cfg.MinimumWorkMinutes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("work session of %d minutes is below the %d minute minimum", workingMinutes, s.cfg.MinimumWorkMinutes))
	}

	earlyMinutes, overtimeMinutes, err := s.departure(ctx, rec.EmployeeID, date, req.CheckOutTime, req.ExpectedCheckOutTime)
	if err != nil {
		return nil, err
	}
	isEarly := earlyMinutes > 0

	notes := rec.Notes
	if req.Notes != nil {
		notes = notes.Append("", *req.Notes)
	}
	notes, locationLog, err := s.evaluateGeofence(ctx, notes, models.LocationEventCheckOut, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	checkOut := req.CheckOutTime
	updated := *rec
	updated.CheckOut = &checkOut
	updated.WorkingMinutes = workingMinutes
	updated.OvertimeMinutes = overtimeMinutes
	updated.IsEarlyDeparture = isEarly
	updated.EarlyDepartureMinutes = earlyMinutes
	updated.Status = resolveStatus(rec.IsLate, isEarly)
	updated.Notes = notes
	if req.Location != nil {
		updated.Location = req.Location
	}

	write := repository.AttendanceWrite{
		Record:      &updated,
		Audit:       auditEntry(actor, models.AuditActionUpdate, snapshot(rec), snapshot(&updated), nil),
		LocationLog: locationLog,
	}
	if overtimeMinutes > 0 {
		write.OvertimeMinutes = &overtimeMinutes
		write.OvertimeMultiplier = s.cfg.OvertimeMultiplier
	}
	stored, err := s.store.Update(ctx, write)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}

	if isEarly {
		s.notifier.Alert(rec.EmployeeID, AlertTypeEarlyDeparture, severityForMinutes(earlyMinutes),
			fmt.Sprintf("left %d minutes early on %s", earlyMinutes, date.Format(dateKeyLayout)))
	}
	return stored, nil
}

// lateness computes late minutes, preferring the caller-supplied expected
// time over the resolved shift. Without either, no lateness is derived.
func (s *ReconciliationService) lateness(ctx context.Context, employeeID string, date, checkIn time.Time, expected *time.Time) (int, error) {
	if expected != nil {
		if late := minutesBetween(*expected, checkIn); late > 0 {
			return late, nil
		}
		return 0, nil
	}
	exp, err := s.shifts.Expectation(ctx, employeeID, date)
	if err != nil {
		return 0, err
	}
	if exp == nil {
		return 0, nil
	}
	threshold := exp.CheckIn.Add(time.Duration(exp.GraceMinutes) * time.Minute)
	if late := minutesBetween(threshold, checkIn); late > 0 {
		return late, nil
	}
	return 0, nil
}

// departure derives early-departure and overtime minutes for a checkout.
func (s *ReconciliationService) departure(ctx context.Context, employeeID string, date, checkOut time.Time, expected *time.Time) (int, int, error) {
	if expected != nil {
		diff := minutesBetween(checkOut, *expected)
		if diff > 0 {
			return diff, 0, nil
		}
		return 0, -diff, nil
	}
	exp, err := s.shifts.Expectation(ctx, employeeID, date)
	if err != nil {
		return 0, 0, err
	}
	if exp == nil {
		return 0, 0, nil
	}
	diff := minutesBetween(checkOut, exp.CheckOut)
	if diff > exp.EarlyDepartureMinutes {
		return diff, 0, nil
	}
	if diff < 0 && -diff > exp.OvertimeAfterMinutes {
		return 0, -diff, nil
	}
	return 0, 0, nil
}

func (s *ReconciliationService) evaluateGeofence(ctx context.Context, notes models.NoteLog, event string, lat, lon *float64) (models.NoteLog, *models.LocationLog, error) {
	if lat == nil || lon == nil {
		return notes, nil, nil
	}
	zone, err := s.geofence.Locate(ctx, *lat, *lon)
	if err != nil {
		return notes, nil, err
	}
	log := &models.LocationLog{Event: event, Latitude: *lat, Longitude: *lon}
	if zone != nil {
		log.ZoneID = &zone.ID
	} else {
		notes = notes.Append(models.NoteTagGeofence, "outside approved zones")
	}
	return notes, log, nil
}

func (s *ReconciliationService) effectiveDate(date *time.Time, event time.Time) time.Time {
	if date != nil {
		return dateOnly(*date, s.loc)
	}
	return dateOnly(event, s.loc)
}

// validateEventWindow checks an event time against the acceptance window
// around the caller-supplied expected time.
func validateEventWindow(actual, expected time.Time, earlySlack, lateSlack time.Duration) error {
	earliest := expected.Add(-earlySlack)
	latest := expected.Add(lateSlack)
	if actual.Before(earliest) || actual.After(latest) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("time must be between %s and %s", earliest.Format(time.RFC3339), latest.Format(time.RFC3339)))
	}
	return nil
}

// resolveStatus applies the status precedence: early departure wins,
// lateness carries forward, otherwise present.
func resolveStatus(isLate, isEarly bool) models.AttendanceStatus {
	switch {
	case isEarly:
		return models.AttendanceStatusEarlyDeparture
	case isLate:
		return models.AttendanceStatusLate
	default:
		return models.AttendanceStatusPresent
	}
}

func severityForMinutes(minutes int) AlertSeverity {
	if minutes > 30 {
		return AlertSeverityHigh
	}
	return AlertSeverityMedium
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

func snapshot(rec *models.AttendanceRecord) []byte {
	if rec == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return data
}

func auditEntry(actor models.Actor, action string, oldValues, newValues []byte, reason *string) *models.AuditLog {
	entry := &models.AuditLog{
		Action:    action,
		Resource:  models.AuditResourceAttendance,
		OldValues: oldValues,
		NewValues: newValues,
		Reason:    reason,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}
	if actor.ID != "" {
		id := actor.ID
		entry.ActorID = &id
	}
	return entry
}
