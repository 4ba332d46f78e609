package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/dto"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/repository"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/config"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

type mockAttendanceStore struct {
	records     map[string]*models.AttendanceRecord
	writes      []repository.AttendanceWrite
	deleted     []string
	absences    int
	insertErr   error
	insertCalls int
}

func recordKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceStore) put(rec *models.AttendanceRecord) {
	if m.records == nil {
		m.records = make(map[string]*models.AttendanceRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.records[recordKey(rec.EmployeeID, rec.Date)] = rec
}

func (m *mockAttendanceStore) FindByID(_ context.Context, id string) (*models.AttendanceRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceStore) FindByEmployeeDate(_ context.Context, employeeID string, date time.Time) (*models.AttendanceRecord, error) {
	rec, ok := m.records[recordKey(employeeID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *rec
	return &clone, nil
}

func (m *mockAttendanceStore) Insert(_ context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error) {
	m.insertCalls++
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, ok := m.records[recordKey(write.Record.EmployeeID, write.Record.Date)]; ok {
		return nil, repository.ErrDuplicateRecord
	}
	m.writes = append(m.writes, write)
	rec := *write.Record
	m.put(&rec)
	clone := rec
	return &clone, nil
}

func (m *mockAttendanceStore) Update(_ context.Context, write repository.AttendanceWrite) (*models.AttendanceRecord, error) {
	m.writes = append(m.writes, write)
	rec := *write.Record
	m.put(&rec)
	clone := rec
	return &clone, nil
}

func (m *mockAttendanceStore) DeleteCascade(_ context.Context, record *models.AttendanceRecord, audit *models.AuditLog) error {
	m.deleted = append(m.deleted, record.ID)
	m.writes = append(m.writes, repository.AttendanceWrite{Record: record, Audit: audit})
	delete(m.records, recordKey(record.EmployeeID, record.Date))
	return nil
}

func (m *mockAttendanceStore) List(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	var result []models.AttendanceRecord
	for _, rec := range m.records {
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		result = append(result, *rec)
	}
	return result, len(result), nil
}

func (m *mockAttendanceStore) ExistingDates(_ context.Context, employeeID string, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		dates = append(dates, rec.Date)
	}
	return dates, nil
}

func (m *mockAttendanceStore) CountAbsences(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return m.absences, nil
}

func (m *mockAttendanceStore) lastWrite(t *testing.T) repository.AttendanceWrite {
	t.Helper()
	require.NotEmpty(t, m.writes)
	return m.writes[len(m.writes)-1]
}

type mockEmployeeDirectory struct {
	employees map[string]models.Employee
	findErr   error
}

func (m *mockEmployeeDirectory) FindByID(_ context.Context, id string) (*models.Employee, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	emp, ok := m.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &emp, nil
}

func (m *mockEmployeeDirectory) ListActive(_ context.Context, limit, offset int) ([]models.Employee, error) {
	var all []models.Employee
	for _, emp := range m.employees {
		all = append(all, emp)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type mockShiftResolver struct {
	expectation *ShiftExpectation
	err         error
}

func (m *mockShiftResolver) Expectation(_ context.Context, _ string, _ time.Time) (*ShiftExpectation, error) {
	return m.expectation, m.err
}

type mockGeofenceLocator struct {
	zone *models.GeofenceZone
	err  error
}

func (m *mockGeofenceLocator) Locate(_ context.Context, _, _ float64) (*models.GeofenceZone, error) {
	return m.zone, m.err
}

type recordedAlert struct {
	employeeID string
	alertType  string
	severity   AlertSeverity
	message    string
}

type mockAlertSink struct {
	alerts []recordedAlert
}

func (m *mockAlertSink) Alert(employeeID, alertType string, severity AlertSeverity, message string) {
	m.alerts = append(m.alerts, recordedAlert{employeeID, alertType, severity, message})
}

func testAttendanceConfig() config.AttendanceConfig {
	return config.AttendanceConfig{
		DefaultStartHour:       8,
		DefaultEndHour:         17,
		GraceMinutes:           15,
		EarlyDepartureMinutes:  30,
		OvertimeAfterMinutes:   30,
		MinimumWorkMinutes:     240,
		OvertimeMultiplier:     1.5,
		AbsenceAlertWindowDays: 7,
		AbsenceAlertThreshold:  3,
	}
}

type reconciliationFixture struct {
	svc      *ReconciliationService
	store    *mockAttendanceStore
	shifts   *mockShiftResolver
	geofence *mockGeofenceLocator
	alerts   *mockAlertSink
}

func newReconciliationFixture() *reconciliationFixture {
	store := &mockAttendanceStore{}
	shifts := &mockShiftResolver{}
	geofence := &mockGeofenceLocator{}
	alerts := &mockAlertSink{}
	employees := &mockEmployeeDirectory{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", FullName: "Jordan Reyes"},
	}}
	svc := NewReconciliationService(store, employees, shifts, geofence, alerts, nil, nil, testAttendanceConfig(), time.UTC)
	return &reconciliationFixture{svc: svc, store: store, shifts: shifts, geofence: geofence, alerts: alerts}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func assertErrorCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want.Code, appErrors.FromError(err).Code)
}

func TestRecordCheckInLateAgainstExpectedTime(t *testing.T) {
	f := newReconciliationFixture()
	expected := at(9, 0)

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:          "emp-1",
		CheckInTime:         at(9, 20),
		ExpectedCheckInTime: &expected,
	}, models.Actor{ID: "mgr-1"})

	require.NoError(t, err)
	assert.True(t, rec.IsLate)
	assert.Equal(t, 20, rec.LateMinutes)
	assert.Equal(t, models.AttendanceStatusLate, rec.Status)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.Audit)
	assert.Equal(t, models.AuditActionCreate, write.Audit.Action)
	require.NotNil(t, write.Audit.ActorID)
	assert.Equal(t, "mgr-1", *write.Audit.ActorID)

	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, AlertTypeLateArrival, f.alerts.alerts[0].alertType)
	assert.Equal(t, AlertSeverityMedium, f.alerts.alerts[0].severity)
}

func TestRecordCheckInShiftGraceAbsorbsSmallDelay(t *testing.T) {
	f := newReconciliationFixture()
	f.shifts.expectation = &ShiftExpectation{CheckIn: at(9, 0), CheckOut: at(17, 0), GraceMinutes: 15}

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 10),
	}, models.Actor{})

	require.NoError(t, err)
	assert.False(t, rec.IsLate)
	assert.Equal(t, models.AttendanceStatusPresent, rec.Status)
	assert.Empty(t, f.alerts.alerts)
}

func TestRecordCheckInLateBeyondShiftGrace(t *testing.T) {
	f := newReconciliationFixture()
	f.shifts.expectation = &ShiftExpectation{CheckIn: at(9, 0), CheckOut: at(17, 0), GraceMinutes: 15}

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 55),
	}, models.Actor{})

	require.NoError(t, err)
	assert.True(t, rec.IsLate)
	assert.Equal(t, 40, rec.LateMinutes)
	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, AlertSeverityHigh, f.alerts.alerts[0].severity)
}

func TestRecordCheckInWithoutShiftDerivesNothing(t *testing.T) {
	f := newReconciliationFixture()

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(11, 30),
	}, models.Actor{})

	require.NoError(t, err)
	assert.False(t, rec.IsLate)
	assert.Zero(t, rec.LateMinutes)
	assert.Equal(t, models.AttendanceStatusPresent, rec.Status)
}

func TestRecordCheckInOutsideWindowRejected(t *testing.T) {
	f := newReconciliationFixture()
	expected := at(9, 0)

	_, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:          "emp-1",
		CheckInTime:         at(19, 0),
		ExpectedCheckInTime: &expected,
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.writes)
}

func TestRecordCheckInTwiceConflicts(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn})

	_, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 30),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrConflict)
}

func TestRecordCheckInDuplicateInsertMapsToConflict(t *testing.T) {
	f := newReconciliationFixture()
	f.store.insertErr = repository.ErrDuplicateRecord

	_, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrConflict)
}

func TestRecordCheckInUnknownEmployee(t *testing.T) {
	f := newReconciliationFixture()

	_, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "ghost",
		CheckInTime: at(9, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrNotFound)
}

func TestRecordCheckInOutsideGeofenceAnnotatesButAccepts(t *testing.T) {
	f := newReconciliationFixture()
	lat, lon := 35.5558, 45.4351

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 0),
		Latitude:    &lat,
		Longitude:   &lon,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Contains(t, rec.Notes.String(), "[geofence] outside approved zones")

	write := f.store.lastWrite(t)
	require.NotNil(t, write.LocationLog)
	assert.Equal(t, models.LocationEventCheckIn, write.LocationLog.Event)
	assert.Nil(t, write.LocationLog.ZoneID)
}

func TestRecordCheckInInsideGeofenceLinksZone(t *testing.T) {
	f := newReconciliationFixture()
	f.geofence.zone = &models.GeofenceZone{ID: "zone-1", Name: "HQ"}
	lat, lon := 35.5558, 45.4351

	rec, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 0),
		Latitude:    &lat,
		Longitude:   &lon,
	}, models.Actor{})

	require.NoError(t, err)
	assert.NotContains(t, rec.Notes.String(), "outside approved zones")

	write := f.store.lastWrite(t)
	require.NotNil(t, write.LocationLog)
	require.NotNil(t, write.LocationLog.ZoneID)
	assert.Equal(t, "zone-1", *write.LocationLog.ZoneID)
}

func TestRecordCheckOutDerivesOvertime(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn, Status: models.AttendanceStatusPresent})
	expected := at(17, 30)

	rec, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:           "emp-1",
		CheckOutTime:         at(19, 0),
		ExpectedCheckOutTime: &expected,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, 600, rec.WorkingMinutes)
	assert.Equal(t, 90, rec.OvertimeMinutes)
	assert.False(t, rec.IsEarlyDeparture)
	assert.Equal(t, models.AttendanceStatusPresent, rec.Status)

	write := f.store.lastWrite(t)
	require.NotNil(t, write.OvertimeMinutes)
	assert.Equal(t, 90, *write.OvertimeMinutes)
	assert.InDelta(t, 1.5, write.OvertimeMultiplier, 0.001)
}

func TestRecordCheckOutEarlyDepartureOverridesLate(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 30)
	f.store.put(&models.AttendanceRecord{
		EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn,
		Status: models.AttendanceStatusLate, IsLate: true, LateMinutes: 30,
	})
	expected := at(17, 0)

	rec, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:           "emp-1",
		CheckOutTime:         at(15, 0),
		ExpectedCheckOutTime: &expected,
	}, models.Actor{})

	require.NoError(t, err)
	assert.True(t, rec.IsEarlyDeparture)
	assert.Equal(t, 120, rec.EarlyDepartureMinutes)
	assert.Equal(t, models.AttendanceStatusEarlyDeparture, rec.Status)
	assert.True(t, rec.IsLate, "lateness fields survive the status override")

	require.Len(t, f.alerts.alerts, 1)
	assert.Equal(t, AlertTypeEarlyDeparture, f.alerts.alerts[0].alertType)
	assert.Equal(t, AlertSeverityHigh, f.alerts.alerts[0].severity)
}

func TestRecordCheckOutOnTimeKeepsLateStatus(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 30)
	f.store.put(&models.AttendanceRecord{
		EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn,
		Status: models.AttendanceStatusLate, IsLate: true, LateMinutes: 30,
	})
	expected := at(17, 0)

	rec, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:           "emp-1",
		CheckOutTime:         at(17, 0),
		ExpectedCheckOutTime: &expected,
	}, models.Actor{})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, rec.Status)
	assert.Zero(t, rec.OvertimeMinutes)
	assert.False(t, rec.IsEarlyDeparture)
}

func TestRecordCheckOutShiftThresholdsGateSmallDeviations(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(8, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn, Status: models.AttendanceStatusPresent})
	f.shifts.expectation = &ShiftExpectation{
		CheckIn: at(8, 0), CheckOut: at(17, 0),
		EarlyDepartureMinutes: 30, OvertimeAfterMinutes: 30,
	}

	// Twenty minutes past the shift end stays inside the overtime gate.
	rec, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:   "emp-1",
		CheckOutTime: at(17, 20),
	}, models.Actor{})

	require.NoError(t, err)
	assert.Zero(t, rec.OvertimeMinutes)
	assert.False(t, rec.IsEarlyDeparture)
}

func TestRecordCheckOutBelowMinimumSessionRejected(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn})

	_, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:   "emp-1",
		CheckOutTime: at(11, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestRecordCheckOutBeforeCheckInRejected(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn})

	_, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:   "emp-1",
		CheckOutTime: at(8, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrValidation)
}

func TestRecordCheckOutWithoutCheckIn(t *testing.T) {
	f := newReconciliationFixture()

	_, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:   "emp-1",
		CheckOutTime: at(17, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrNotFound)
}

func TestRecordCheckOutTwiceConflicts(t *testing.T) {
	f := newReconciliationFixture()
	checkIn := at(9, 0)
	checkOut := at(17, 0)
	f.store.put(&models.AttendanceRecord{EmployeeID: "emp-1", Date: at(0, 0), CheckIn: &checkIn, CheckOut: &checkOut})

	_, err := f.svc.RecordCheckOut(context.Background(), dto.CheckOutRequest{
		EmployeeID:   "emp-1",
		CheckOutTime: at(18, 0),
	}, models.Actor{})

	assertErrorCode(t, err, appErrors.ErrConflict)
}

func TestGeofenceLookupFailurePropagates(t *testing.T) {
	f := newReconciliationFixture()
	f.geofence.err = errors.New("redis down")
	lat, lon := 35.0, 45.0

	_, err := f.svc.RecordCheckIn(context.Background(), dto.CheckInRequest{
		EmployeeID:  "emp-1",
		CheckInTime: at(9, 0),
		Latitude:    &lat,
		Longitude:   &lon,
	}, models.Actor{})

	require.Error(t, err)
	assert.Empty(t, f.store.writes)
}
