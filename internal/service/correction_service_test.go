package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/dto"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

type correctionFixture struct {
	svc    *CorrectionService
	store  *mockAttendanceStore
	shifts *mockShiftResolver
	alerts *mockAlertSink
}

func newCorrectionFixture() *correctionFixture {
	store := &mockAttendanceStore{}
	shifts := &mockShiftResolver{}
	alerts := &mockAlertSink{}
	employees := &mockEmployeeDirectory{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", FullName: "Jordan Reyes"},
	}}
	svc := NewCorrectionService(store, employees, shifts, alerts, nil, nil, testAttendanceConfig(), time.UTC)
	svc.now = func() time.Time { return at(12, 0) }
	return &correctionFixture{svc: svc, store: store, shifts: shifts, alerts: alerts}
}

func (f *correctionFixture) seed(mutate func(*models.AttendanceRecord)) *models.AttendanceRecord {
	checkIn := at(9, 0)
	checkOut := at(17, 0)
	rec := &models.AttendanceRecord{
		EmployeeID:     "emp-1",
		Date:           at(0, 0),
		CheckIn:        &checkIn,
		CheckOut:       &checkOut,
		WorkingMinutes: 480,
		Status:         models.AttendanceStatusPresent,
	}
	if mutate != nil {
		mutate(rec)
	}
	f.store.put(rec)
	return rec
}

func refByID(id string) dto.RecordRef {
	return dto.RecordRef{RecordID: &id}
}

func TestEditCheckInRecomputesLateness(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		late := at(9, 30)
		r.CheckIn = &late
		r.Status = models.AttendanceStatusLate
		r.IsLate = true
		r.LateMinutes = 30
	})
	expected := at(9, 0)

	updated, err := f.svc.EditCheckIn(context.Background(), dto.EditCheckInRequest{
		RecordRef:           refByID(rec.ID),
		CheckInTime:         at(8, 55),
		ExpectedCheckInTime: &expected,
	}, models.Actor{ID: "mgr-1"})

	require.NoError(t, err)
	assert.False(t, updated.IsLate)
	assert.Zero(t, updated.LateMinutes)
	assert.Equal(t, models.AttendanceStatusPresent, updated.Status)
	assert.Equal(t, 485, updated.WorkingMinutes)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, "mgr-1", *updated.ApprovedBy)
	assert.NotNil(t, updated.ApprovedAt)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.Audit)
	assert.Equal(t, models.AuditActionUpdate, write.Audit.Action)
	require.NotNil(t, write.Audit.Reason)
	assert.Equal(t, "check-in time correction", *write.Audit.Reason)
	assert.NotEmpty(t, write.Audit.OldValues)
	assert.NotEmpty(t, write.Audit.NewValues)
}

func TestEditCheckInAfterCheckOutRejected(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)

	_, err := f.svc.EditCheckIn(context.Background(), dto.EditCheckInRequest{
		RecordRef:   refByID(rec.ID),
		CheckInTime: at(18, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestEditCheckInPreservesEarlyDepartureStatus(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		early := at(15, 0)
		r.CheckOut = &early
		r.Status = models.AttendanceStatusEarlyDeparture
		r.IsEarlyDeparture = true
		r.EarlyDepartureMinutes = 120
	})
	expected := at(9, 0)

	updated, err := f.svc.EditCheckIn(context.Background(), dto.EditCheckInRequest{
		RecordRef:           refByID(rec.ID),
		CheckInTime:         at(9, 45),
		ExpectedCheckInTime: &expected,
	}, models.Actor{})

	require.NoError(t, err)
	assert.True(t, updated.IsLate)
	assert.Equal(t, models.AttendanceStatusEarlyDeparture, updated.Status)
}

func TestEditCheckOutRecomputesDerivedFields(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.OvertimeMinutes = 60
	})
	expected := at(17, 0)

	updated, err := f.svc.EditCheckOut(context.Background(), dto.EditCheckOutRequest{
		RecordRef:            refByID(rec.ID),
		CheckOutTime:         at(16, 0),
		ExpectedCheckOutTime: &expected,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 420, updated.WorkingMinutes)
	assert.True(t, updated.IsEarlyDeparture)
	assert.Equal(t, 60, updated.EarlyDepartureMinutes)
	assert.Zero(t, updated.OvertimeMinutes)
	assert.Equal(t, models.AttendanceStatusEarlyDeparture, updated.Status)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.OvertimeMinutes, "stale overtime entry must be synced away")
	assert.Zero(t, *write.OvertimeMinutes)
}

func TestEditCheckOutRequiresCheckIn(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.CheckIn = nil
		r.CheckOut = nil
	})

	_, err := f.svc.EditCheckOut(context.Background(), dto.EditCheckOutRequest{
		RecordRef:    refByID(rec.ID),
		CheckOutTime: at(17, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestEditBreakOverwritesDuration(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.BreakMinutes = 30
	})

	updated, err := f.svc.EditBreak(context.Background(), dto.EditBreakRequest{
		RecordRef:  refByID(rec.ID),
		BreakHours: 1.5,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 90, updated.BreakMinutes)
}

func TestEditBreakNegativeRejected(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)

	_, err := f.svc.EditBreak(context.Background(), dto.EditBreakRequest{
		RecordRef:  refByID(rec.ID),
		BreakHours: -1,
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestAddBreakAccumulates(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.CheckOut = nil
		r.BreakMinutes = 15
	})

	updated, err := f.svc.AddBreak(context.Background(), dto.AddBreakRequest{
		RecordRef:     refByID(rec.ID),
		DurationHours: 0.5,
		BreakType:     "lunch",
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 45, updated.BreakMinutes)
	assert.Contains(t, updated.Notes.String(), "[break] lunch break: 30 minutes")

	write := f.store.lastWrite(t)
	require.NotNil(t, write.Break)
	assert.Equal(t, "lunch", write.Break.BreakType)
	assert.Equal(t, 30, write.Break.Minutes)
}

func TestAddBreakOnClosedSessionRejected(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)

	_, err := f.svc.AddBreak(context.Background(), dto.AddBreakRequest{
		RecordRef:     refByID(rec.ID),
		DurationHours: 0.5,
		BreakType:     "lunch",
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestSetOvertimeZeroRemovesEntry(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.OvertimeMinutes = 120
	})

	updated, err := f.svc.SetOvertime(context.Background(), dto.SetOvertimeRequest{
		RecordRef:     refByID(rec.ID),
		OvertimeHours: 0,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Zero(t, updated.OvertimeMinutes)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.OvertimeMinutes)
	assert.Zero(t, *write.OvertimeMinutes)
}

func TestSetOvertimePositiveSyncsEntry(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)

	updated, err := f.svc.SetOvertime(context.Background(), dto.SetOvertimeRequest{
		RecordRef:     refByID(rec.ID),
		OvertimeHours: 2,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 120, updated.OvertimeMinutes)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.OvertimeMinutes)
	assert.Equal(t, 120, *write.OvertimeMinutes)
	assert.InDelta(t, 1.5, write.OvertimeMultiplier, 0.001)
}

func TestUpdateRecordDoesNotRecomputeDerivedFlags(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.Status = models.AttendanceStatusLate
		r.IsLate = true
		r.LateMinutes = 20
		r.OvertimeMinutes = 45
	})
	newOut := at(18, 30)

	updated, err := f.svc.UpdateRecord(context.Background(), dto.UpdateRecordRequest{
		RecordRef: refByID(rec.ID),
		CheckOut:  &newOut,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 570, updated.WorkingMinutes, "working minutes track the new times")
	assert.True(t, updated.IsLate)
	assert.Equal(t, 20, updated.LateMinutes)
	assert.False(t, updated.IsEarlyDeparture)
	assert.Equal(t, 45, updated.OvertimeMinutes)
	assert.Equal(t, models.AttendanceStatusLate, updated.Status)
}

func TestUpdateRecordInvalidStatusRejected(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)
	status := "vacationing"

	_, err := f.svc.UpdateRecord(context.Background(), dto.UpdateRecordRequest{
		RecordRef: refByID(rec.ID),
		Status:    &status,
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestUpdateRecordAppendsNotes(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.Notes = models.NoteLog{}.Append("", "original note")
	})
	note := "corrected after site visit"

	updated, err := f.svc.UpdateRecord(context.Background(), dto.UpdateRecordRequest{
		RecordRef: refByID(rec.ID),
		Notes:     &note,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Contains(t, updated.Notes.String(), "original note")
	assert.Contains(t, updated.Notes.String(), "[edit] corrected after site visit")
}

func TestDeleteRecordCascadesWithAudit(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)

	err := f.svc.DeleteRecord(context.Background(), dto.DeleteRecordRequest{
		RecordRef: refByID(rec.ID),
	}, models.Actor{ID: "mgr-1"})

	require.NoError(t, err)
	require.Len(t, f.store.deleted, 1)
	assert.Equal(t, rec.ID, f.store.deleted[0])

	write := f.store.lastWrite(t)
	require.NotNil(t, write.Audit)
	assert.Equal(t, models.AuditActionDelete, write.Audit.Action)
	assert.NotEmpty(t, write.Audit.OldValues)
	assert.Empty(t, write.Audit.NewValues)
}

func TestMarkAbsentCreatesManualRecord(t *testing.T) {
	f := newCorrectionFixture()

	rec, err := f.svc.MarkAbsent(context.Background(), dto.MarkAbsentRequest{
		EmployeeID: "emp-1",
		Date:       at(0, 0),
	}, models.Actor{ID: "mgr-1"})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusAbsent, rec.Status)
	assert.True(t, rec.IsManualEntry)
	assert.Nil(t, rec.CheckIn)
	assert.Nil(t, rec.CheckOut)
	assert.Zero(t, rec.WorkingMinutes)
	assert.Empty(t, f.alerts.alerts)
}

func TestMarkAbsentOverwritesExistingRecord(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(func(r *models.AttendanceRecord) {
		r.OvertimeMinutes = 60
	})

	updated, err := f.svc.MarkAbsent(context.Background(), dto.MarkAbsentRequest{
		EmployeeID: "emp-1",
		Date:       rec.Date,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusAbsent, updated.Status)
	assert.Nil(t, updated.CheckIn)
	assert.Zero(t, updated.OvertimeMinutes)
	assert.True(t, updated.IsManualEntry)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.OvertimeMinutes)
	assert.Zero(t, *write.OvertimeMinutes)
}

func TestMarkAbsentFiresThresholdAlert(t *testing.T) {
	f := newCorrectionFixture()
	f.store.absences = 3

	_, err := f.svc.MarkAbsent(context.Background(), dto.MarkAbsentRequest{
		EmployeeID: "emp-1",
		Date:       at(0, 0),
	}, models.Actor{})

	require.NoError(t, err)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, AlertTypeContinuousAbsent, f.alerts.alerts[0].alertType)
	assert.Equal(t, AlertSeverityHigh, f.alerts.alerts[0].severity)
}

func TestMarkAbsentUnknownEmployee(t *testing.T) {
	f := newCorrectionFixture()

	_, err := f.svc.MarkAbsent(context.Background(), dto.MarkAbsentRequest{
		EmployeeID: "ghost",
		Date:       at(0, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrNotFound)
}

func TestResolveRequiresReference(t *testing.T) {
	f := newCorrectionFixture()

	_, err := f.svc.GetRecord(context.Background(), dto.RecordRef{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestResolveByEmployeeDate(t *testing.T) {
	f := newCorrectionFixture()
	rec := f.seed(nil)
	employeeID := "emp-1"
	date := rec.Date

	found, err := f.svc.GetRecord(context.Background(), dto.RecordRef{EmployeeID: &employeeID, Date: &date})

	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
}

func TestListRecordsFiltersByStatus(t *testing.T) {
	f := newCorrectionFixture()
	f.seed(func(r *models.AttendanceRecord) {
		r.Status = models.AttendanceStatusLate
	})
	f.seed(func(r *models.AttendanceRecord) {
		r.Date = at(0, 0).AddDate(0, 0, 1)
	})
	status := string(models.AttendanceStatusLate)

	records, pagination, err := f.svc.ListRecords(context.Background(), dto.ListAttendanceRequest{
		EmployeeID: "emp-1",
		Status:     &status,
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusLate, records[0].Status)
	assert.Equal(t, 1, pagination.TotalCount)
}
