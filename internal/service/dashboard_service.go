package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/repository"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

const dashboardCacheKey = "dash:snapshot"

type studentCreditCounter interface {
	CountByCreditState(ctx context.Context) (*repository.CreditCounts, error)
}

type attendanceCounter interface {
	CountSince(ctx context.Context, cutoff time.Time) (int, error)
}

type leadCounter interface {
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}

type paymentTotaler interface {
	TotalSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// DashboardService composes the front-page snapshot from the other domains.
type DashboardService struct {
	students   studentCreditCounter
	attendance attendanceCounter
	leads      leadCounter
	payments   paymentTotaler
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students   studentCreditCounter
	Attendance attendanceCounter
	Leads      leadCounter
	Payments   paymentTotaler
	Cache      *CacheService
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:   params.Students,
		attendance: params.Attendance,
		leads:      params.Leads,
		payments:   params.Payments,
		cache:      params.Cache,
		cacheTTL:   ttl,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot returns the dashboard numbers, served from cache when fresh.
// The second return reports whether the cache answered.
func (s *DashboardService) Snapshot(ctx context.Context) (*models.DashboardSnapshot, bool, error) {
	var cached models.DashboardSnapshot
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	now := s.now()
	snapshot := &models.DashboardSnapshot{GeneratedAt: now}

	counts, err := s.students.CountByCreditState(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	snapshot.ActiveStudents = counts.Active
	snapshot.DueStudents = counts.Due
	snapshot.LowCreditStudents = counts.LowCredit

	weekStart := startOfWeek(now)
	attended, err := s.attendance.CountSince(ctx, weekStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	snapshot.AttendanceThisWeek = attended

	upcoming, err := s.leads.CountUpcoming(ctx, now)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count trial leads")
	}
	snapshot.UpcomingTrials = upcoming

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	total, err := s.payments.TotalSince(ctx, monthStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total payments")
	}
	snapshot.PaymentsThisMonth = total

	if err := s.cache.Set(ctx, dashboardCacheKey, snapshot, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return snapshot, false, nil
}

// Invalidate drops the cached snapshot after a write elsewhere.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

// startOfWeek returns the most recent Monday at midnight UTC.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
