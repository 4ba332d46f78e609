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

type correctionStore interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	FindByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error)
	Update(ctx context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error)
	DeleteCascade(ctx context.Context, record *models.AttendanceRecord, audit *models.AuditLog) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	CountAbsences(ctx context.Context, employeeID string, from, to time.Time) (int, error)
}

// CorrectionService applies manual corrections to existing attendance
// records and owns the administrative mark-absent and delete paths.
type CorrectionService struct {
	store     correctionStore
	employees employeeDirectory
	shifts    shiftResolver
	notifier  alertSink
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AttendanceConfig
	loc       *time.Location
	now       func() time.Time
}

// NewCorrectionService constructs the service and registers the
// attendance_status validation used by the list filter.
func NewCorrectionService(
	store correctionStore,
	employees employeeDirectory,
	shifts shiftResolver,
	notifier alertSink,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.AttendanceConfig,
	loc *time.Location,
) *CorrectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if cfg.AbsenceAlertWindowDays <= 0 {
		cfg.AbsenceAlertWindowDays = 7
	}
	if cfg.AbsenceAlertThreshold <= 0 {
		cfg.AbsenceAlertThreshold = 3
	}
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return &CorrectionService{
		store:     store,
		employees: employees,
		shifts:    shifts,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		loc:       loc,
		now:       time.Now,
	}
}

// EditCheckIn replaces the check-in time and recomputes lateness, status
// and, when a check-out exists, working minutes.
func (s *CorrectionService) EditCheckIn(ctx context.Context, req dto.EditCheckInRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}

	checkIn := req.CheckInTime
	updated := *rec
	updated.CheckIn = &checkIn
	if updated.CheckOut != nil {
		working := minutesBetween(checkIn, *updated.CheckOut)
		if working < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "check-in cannot be after check-out")
		}
		updated.WorkingMinutes = working
	}

	late := 0
	if req.ExpectedCheckInTime != nil {
		if diff := minutesBetween(*req.ExpectedCheckInTime, checkIn); diff > 0 {
			late = diff
		}
	} else {
		exp, err := s.shifts.Expectation(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			return nil, err
		}
		if exp != nil {
			threshold := exp.CheckIn.Add(time.Duration(exp.GraceMinutes) * time.Minute)
			if diff := minutesBetween(threshold, checkIn); diff > 0 {
				late = diff
			}
		}
	}
	updated.IsLate = late > 0
	updated.LateMinutes = late
	updated.Status = resolveStatus(updated.IsLate, updated.IsEarlyDeparture)
	s.markCorrected(&updated, actor)

	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "check-in time correction", nil)
}

// EditCheckOut replaces the check-out time and recomputes working
// minutes, early departure, overtime and status.
func (s *CorrectionService) EditCheckOut(ctx context.Context, req dto.EditCheckOutRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}
	if rec.CheckIn == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record has no check-in to measure against")
	}

	checkOut := req.CheckOutTime
	working := minutesBetween(*rec.CheckIn, checkOut)
	if working < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check-out cannot be before check-in")
	}

	early, overtime := 0, 0
	if req.ExpectedCheckOutTime != nil {
		diff := minutesBetween(checkOut, *req.ExpectedCheckOutTime)
		if diff > 0 {
			early = diff
		} else {
			overtime = -diff
		}
	} else {
		exp, err := s.shifts.Expectation(ctx, rec.EmployeeID, rec.Date)
		if err != nil {
			return nil, err
		}
		if exp != nil {
			diff := minutesBetween(checkOut, exp.CheckOut)
			if diff > exp.EarlyDepartureMinutes {
				early = diff
			} else if diff < 0 && -diff > exp.OvertimeAfterMinutes {
				overtime = -diff
			}
		}
	}

	updated := *rec
	updated.CheckOut = &checkOut
	updated.WorkingMinutes = working
	updated.OvertimeMinutes = overtime
	updated.IsEarlyDeparture = early > 0
	updated.EarlyDepartureMinutes = early
	updated.Status = resolveStatus(updated.IsLate, updated.IsEarlyDeparture)
	s.markCorrected(&updated, actor)

	ot := overtime
	extra := &writeExtras{overtimeMinutes: &ot}
	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "check-out time correction", extra)
}

// EditBreak overwrites the accumulated break duration on a record.
func (s *CorrectionService) EditBreak(ctx context.Context, req dto.EditBreakRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.BreakHours < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "break duration cannot be negative")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}

	updated := *rec
	updated.BreakMinutes = int(req.BreakHours * 60)
	s.markCorrected(&updated, actor)
	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "break duration correction", nil)
}

// AddBreak appends one break to an open work session, accumulating into
// the record's break total.
func (s *CorrectionService) AddBreak(ctx context.Context, req dto.AddBreakRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}
	if rec.CheckIn == nil || rec.CheckOut != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "breaks can only be added to an open work session")
	}

	minutes := int(req.DurationHours * 60)
	if minutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "break duration must be positive")
	}

	updated := *rec
	updated.BreakMinutes += minutes
	updated.Notes = updated.Notes.Append(models.NoteTagBreak, fmt.Sprintf("%s break: %d minutes", req.BreakType, minutes))
	s.markCorrected(&updated, actor)

	extra := &writeExtras{breakRow: &models.AttendanceBreak{BreakType: req.BreakType, Minutes: minutes}}
	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "break added", extra)
}

// SetOvertime sets the record's overtime duration directly. Zero removes
// any unapproved overtime entry.
func (s *CorrectionService) SetOvertime(ctx context.Context, req dto.SetOvertimeRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}

	minutes := int(req.OvertimeHours * 60)
	updated := *rec
	updated.OvertimeMinutes = minutes
	s.markCorrected(&updated, actor)

	ot := minutes
	extra := &writeExtras{overtimeMinutes: &ot}
	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "overtime adjustment", extra)
}

// UpdateRecord applies a comprehensive partial update. Derived lateness,
// early-departure and overtime fields are intentionally left untouched;
// the dedicated edit operations own those recomputations.
func (s *CorrectionService) UpdateRecord(ctx context.Context, req dto.UpdateRecordRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return nil, err
	}

	updated := *rec
	if req.CheckIn != nil {
		t := *req.CheckIn
		updated.CheckIn = &t
	}
	if req.CheckOut != nil {
		t := *req.CheckOut
		updated.CheckOut = &t
	}
	if req.BreakHours != nil {
		if *req.BreakHours < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "break duration cannot be negative")
		}
		updated.BreakMinutes = int(*req.BreakHours * 60)
	}
	if req.Status != nil {
		status := models.AttendanceStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", *req.Status))
		}
		updated.Status = status
	}
	if req.Notes != nil {
		updated.Notes = updated.Notes.Append(models.NoteTagEdit, *req.Notes)
	}
	if updated.CheckIn != nil && updated.CheckOut != nil {
		working := minutesBetween(*updated.CheckIn, *updated.CheckOut)
		if working < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "check-out cannot be before check-in")
		}
		updated.WorkingMinutes = working
	}
	s.markCorrected(&updated, actor)

	return s.applyUpdate(ctx, rec, &updated, actor, req.Reason, "attendance record update", nil)
}

// DeleteRecord removes a record together with its dependent break,
// location-log and overtime rows. The audit entry survives the cascade.
func (s *CorrectionService) DeleteRecord(ctx context.Context, req dto.DeleteRecordRequest, actor models.Actor) error {
	rec, err := s.resolve(ctx, req.RecordRef)
	if err != nil {
		return err
	}
	reason := reasonOrDefault(req.Reason, "attendance record deletion")
	audit := auditEntry(actor, models.AuditActionDelete, snapshot(rec), nil, reason)
	if err := s.store.DeleteCascade(ctx, rec, audit); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

// MarkAbsent upserts an absent record for the employee and date, then
// checks the rolling absence window and alerts when the threshold is hit.
func (s *CorrectionService) MarkAbsent(ctx context.Context, req dto.MarkAbsentRequest, actor models.Actor) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	date := dateOnly(req.Date, s.loc)
	existing, err := s.store.FindByEmployeeDate(ctx, req.EmployeeID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	reason := reasonOrDefault(req.Reason, "marked absent")
	var stored *models.AttendanceRecord
	if existing != nil {
		updated := *existing
		updated.CheckIn = nil
		updated.CheckOut = nil
		updated.WorkingMinutes = 0
		updated.OvertimeMinutes = 0
		updated.Status = models.AttendanceStatusAbsent
		updated.IsLate = false
		updated.LateMinutes = 0
		updated.IsEarlyDeparture = false
		updated.EarlyDepartureMinutes = 0
		updated.IsManualEntry = true
		s.markCorrected(&updated, actor)
		ot := 0
		stored, err = s.store.Update(ctx, repository.AttendanceWrite{
			Record:          &updated,
			Audit:           auditEntry(actor, models.AuditActionUpdate, snapshot(existing), snapshot(&updated), reason),
			OvertimeMinutes: &ot,
		})
	} else {
		rec := &models.AttendanceRecord{
			EmployeeID:    req.EmployeeID,
			Date:          date,
			Status:        models.AttendanceStatusAbsent,
			IsManualEntry: true,
		}
		s.markCorrected(rec, actor)
		stored, err = s.store.Insert(ctx, repository.AttendanceWrite{
			Record: rec,
			Audit:  auditEntry(actor, models.AuditActionCreate, nil, snapshot(rec), reason),
		})
		if errors.Is(err, repository.ErrDuplicateRecord) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record already exists for this date")
		}
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark absent")
	}

	s.checkAbsenceWindow(ctx, req.EmployeeID, date)
	return stored, nil
}

// GetRecord resolves one record by id or (employee, date).
func (s *CorrectionService) GetRecord(ctx context.Context, ref dto.RecordRef) (*models.AttendanceRecord, error) {
	return s.resolve(ctx, ref)
}

// ListRecords returns a filtered, paginated slice of attendance records.
func (s *CorrectionService) ListRecords(ctx context.Context, req dto.ListAttendanceRequest) ([]models.AttendanceRecord, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	filter := models.AttendanceFilter{
		EmployeeID: req.EmployeeID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	if req.Status != nil {
		status := models.AttendanceStatus(*req.Status)
		filter.Status = &status
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

type writeExtras struct {
	breakRow        *models.AttendanceBreak
	overtimeMinutes *int
}

func (s *CorrectionService) applyUpdate(ctx context.Context, old, updated *models.AttendanceRecord, actor models.Actor, reason *string, defaultReason string, extra *writeExtras) (*models.AttendanceRecord, error) {
	write := repository.AttendanceWrite{
		Record: updated,
		Audit:  auditEntry(actor, models.AuditActionUpdate, snapshot(old), snapshot(updated), reasonOrDefault(reason, defaultReason)),
	}
	if extra != nil {
		write.Break = extra.breakRow
		if extra.overtimeMinutes != nil {
			write.OvertimeMinutes = extra.overtimeMinutes
			write.OvertimeMultiplier = s.cfg.OvertimeMultiplier
		}
	}
	stored, err := s.store.Update(ctx, write)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return stored, nil
}

func (s *CorrectionService) resolve(ctx context.Context, ref dto.RecordRef) (*models.AttendanceRecord, error) {
	switch {
	case ref.RecordID != nil && *ref.RecordID != "":
		rec, err := s.store.FindByID(ctx, *ref.RecordID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
		}
		return rec, nil
	case ref.EmployeeID != nil && *ref.EmployeeID != "" && ref.Date != nil:
		rec, err := s.store.FindByEmployeeDate(ctx, *ref.EmployeeID, dateOnly(*ref.Date, s.loc))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
		}
		return rec, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "either recordId or employeeId and date are required")
	}
}

// markCorrected stamps the manual-intervention fields on an edited record.
func (s *CorrectionService) markCorrected(rec *models.AttendanceRecord, actor models.Actor) {
	if actor.ID != "" {
		id := actor.ID
		rec.ApprovedBy = &id
	}
	now := s.now()
	rec.ApprovedAt = &now
}

// checkAbsenceWindow counts absences inside the rolling alert window and
// fires a high severity alert once the threshold is reached. Failures
// here never fail the mutation that triggered the check.
func (s *CorrectionService) checkAbsenceWindow(ctx context.Context, employeeID string, date time.Time) {
	from := date.AddDate(0, 0, -(s.cfg.AbsenceAlertWindowDays - 1))
	count, err := s.store.CountAbsences(ctx, employeeID, from, date)
	if err != nil {
		s.logger.Sugar().Warnw("absence window check failed", "employee_id", employeeID, "error", err)
		return
	}
	if count >= s.cfg.AbsenceAlertThreshold {
		s.notifier.Alert(employeeID, AlertTypeContinuousAbsent, AlertSeverityHigh,
			fmt.Sprintf("%d absences in the last %d days", count, s.cfg.AbsenceAlertWindowDays))
	}
}

func reasonOrDefault(reason *string, fallback string) *string {
	if reason != nil && *reason != "" {
		return reason
	}
	return &fallback
}
