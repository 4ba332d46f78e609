package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHolidayReader struct {
	dates []time.Time
	calls int
}

func (m *mockHolidayReader) HolidayDates(_ context.Context, _ int) ([]time.Time, error) {
	m.calls++
	return m.dates, nil
}

type mockApprovedLeaveReader struct {
	onLeave bool
}

func (m *mockApprovedLeaveReader) HasApprovedLeave(_ context.Context, _ string, _ time.Time) (bool, error) {
	return m.onLeave, nil
}

func TestIsWorkingDayWeekend(t *testing.T) {
	svc := NewCalendarService(&mockHolidayReader{}, &mockApprovedLeaveReader{}, nil, 0, nil)

	saturday, err := svc.IsWorkingDay(context.Background(), day("2024-01-13"))
	require.NoError(t, err)
	assert.False(t, saturday)

	sunday, err := svc.IsWorkingDay(context.Background(), day("2024-01-14"))
	require.NoError(t, err)
	assert.False(t, sunday)

	monday, err := svc.IsWorkingDay(context.Background(), day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, monday)
}

func TestIsWorkingDayHoliday(t *testing.T) {
	holidays := &mockHolidayReader{dates: []time.Time{day("2024-03-21")}}
	svc := NewCalendarService(holidays, &mockApprovedLeaveReader{}, nil, 0, nil)

	working, err := svc.IsWorkingDay(context.Background(), day("2024-03-21"))
	require.NoError(t, err)
	assert.False(t, working)

	working, err = svc.IsWorkingDay(context.Background(), day("2024-03-22"))
	require.NoError(t, err)
	assert.True(t, working)
}

func TestIsWorkingDayCachesHolidaysPerYear(t *testing.T) {
	holidays := &mockHolidayReader{dates: []time.Time{day("2024-03-21")}}
	svc := NewCalendarService(holidays, &mockApprovedLeaveReader{}, &memoryCache{}, time.Minute, nil)

	for _, d := range []string{"2024-01-15", "2024-01-16", "2024-03-21"} {
		_, err := svc.IsWorkingDay(context.Background(), day(d))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, holidays.calls)
}

func TestIsOnApprovedLeave(t *testing.T) {
	svc := NewCalendarService(&mockHolidayReader{}, &mockApprovedLeaveReader{onLeave: true}, nil, 0, nil)

	onLeave, err := svc.IsOnApprovedLeave(context.Background(), "emp-1", day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, onLeave)
}
