package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/repository"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type mockDashboardSources struct {
	counts         repository.CreditCounts
	attendance     int
	attendanceFrom time.Time
	upcoming       int
	payments       int64
	paymentsFrom   time.Time
}

func (m *mockDashboardSources) CountByCreditState(_ context.Context) (*repository.CreditCounts, error) {
	cp := m.counts
	return &cp, nil
}

func (m *mockDashboardSources) CountSince(_ context.Context, cutoff time.Time) (int, error) {
	m.attendanceFrom = cutoff
	return m.attendance, nil
}

func (m *mockDashboardSources) CountUpcoming(_ context.Context, _ time.Time) (int, error) {
	return m.upcoming, nil
}

func (m *mockDashboardSources) TotalSince(_ context.Context, cutoff time.Time) (int64, error) {
	m.paymentsFrom = cutoff
	return m.payments, nil
}

func newDashboardService(src *mockDashboardSources, now time.Time) *DashboardService {
	svc := NewDashboardService(DashboardServiceParams{
		Students:   src,
		Attendance: src,
		Leads:      src,
		Payments:   src,
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboardSnapshot(t *testing.T) {
	src := &mockDashboardSources{
		counts:     repository.CreditCounts{Active: 42, Due: 5, LowCredit: 7},
		attendance: 31,
		upcoming:   4,
		payments:   1250000,
	}
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC) // a Wednesday
	svc := newDashboardService(src, now)

	snapshot, hit, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, snapshot.ActiveStudents)
	assert.Equal(t, 5, snapshot.DueStudents)
	assert.Equal(t, 7, snapshot.LowCreditStudents)
	assert.Equal(t, 31, snapshot.AttendanceThisWeek)
	assert.Equal(t, 4, snapshot.UpcomingTrials)
	assert.Equal(t, int64(1250000), snapshot.PaymentsThisMonth)
	assert.Equal(t, now, snapshot.GeneratedAt)
}

func TestDashboardSnapshotWindows(t *testing.T) {
	src := &mockDashboardSources{}
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)
	svc := newDashboardService(src, now)

	_, _, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), src.attendanceFrom, "week starts Monday")
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), src.paymentsFrom, "month starts on the 1st")
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestDashboardSnapshotCaching(t *testing.T) {
	src := &mockDashboardSources{counts: repository.CreditCounts{Active: 10}}
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)
	cacheSvc := NewCacheService(&memoryCacheRepo{entries: map[string][]byte{}}, nil, time.Minute, nil, true)
	svc := NewDashboardService(DashboardServiceParams{
		Students:   src,
		Attendance: src,
		Leads:      src,
		Payments:   src,
		Cache:      cacheSvc,
	})
	svc.now = func() time.Time { return now }

	_, hit, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	src.counts.Active = 99
	cached, hit, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 10, cached.ActiveStudents)

	svc.Invalidate(context.Background())
	fresh, hit, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 99, fresh.ActiveStudents)
}

func TestStartOfWeekOnMonday(t *testing.T) {
	monday := time.Date(2026, 3, 16, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), startOfWeek(monday))

	sunday := time.Date(2026, 3, 22, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))
}
