package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
)

type mockClassLogRepo struct {
	logs       map[string]*models.ClassLog
	activities map[string]*models.Activity
	modules    map[string]*models.Module
}

func newMockClassLogRepo() *mockClassLogRepo {
	return &mockClassLogRepo{
		logs:       make(map[string]*models.ClassLog),
		activities: make(map[string]*models.Activity),
		modules:    make(map[string]*models.Module),
	}
}

func (m *mockClassLogRepo) List(_ context.Context, filter models.ClassLogFilter) ([]models.ClassLogDetail, int, error) {
	out := make([]models.ClassLogDetail, 0, len(m.logs))
	for _, l := range m.logs {
		if filter.StudentID != "" && l.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.ClassLogDetail{ClassLog: *l})
	}
	return out, len(out), nil
}

func (m *mockClassLogRepo) FindByID(_ context.Context, id string) (*models.ClassLog, error) {
	l, ok := m.logs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *mockClassLogRepo) Create(_ context.Context, log *models.ClassLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *mockClassLogRepo) Update(_ context.Context, log *models.ClassLog) error {
	if _, ok := m.logs[log.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *mockClassLogRepo) Delete(_ context.Context, id string) error {
	delete(m.logs, id)
	return nil
}

func (m *mockClassLogRepo) ListActivities(_ context.Context, area string) ([]models.Activity, error) {
	out := make([]models.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		if area != "" && a.Area != area {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockClassLogRepo) CreateActivity(_ context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	cp := *activity
	m.activities[activity.ID] = &cp
	return nil
}

func (m *mockClassLogRepo) UpdateActivity(_ context.Context, activity *models.Activity) error {
	cp := *activity
	m.activities[activity.ID] = &cp
	return nil
}

func (m *mockClassLogRepo) ListModules(_ context.Context, activeOnly bool) ([]models.Module, error) {
	out := make([]models.Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if activeOnly && !mod.IsActive {
			continue
		}
		out = append(out, *mod)
	}
	return out, nil
}

func (m *mockClassLogRepo) CreateModule(_ context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	cp := *module
	m.modules[module.ID] = &cp
	return nil
}

func (m *mockClassLogRepo) UpdateModule(_ context.Context, module *models.Module) error {
	cp := *module
	m.modules[module.ID] = &cp
	return nil
}

func TestClassLogServiceCreate(t *testing.T) {
	repo := newMockClassLogRepo()
	students := newMockStudentReader("stu-1")
	svc := NewClassLogService(repo, students, nil, nil)

	level := 3
	project := "Maze game"
	log, err := svc.Create(context.Background(), "user-1", ClassLogRequest{
		StudentID:     "stu-1",
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ProgressLevel: &level,
		ProjectName:   &project,
	})
	require.NoError(t, err)
	require.NotNil(t, log.CreatedBy)
	assert.Equal(t, "user-1", *log.CreatedBy)
	assert.Equal(t, "Maze game", *log.ProjectName)
	assert.Len(t, repo.logs, 1)
}

func TestClassLogServiceCreateUnknownStudent(t *testing.T) {
	svc := NewClassLogService(newMockClassLogRepo(), newMockStudentReader(), nil, nil)

	_, err := svc.Create(context.Background(), "user-1", ClassLogRequest{
		StudentID: "missing",
		Date:      time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student not found")
}

func TestClassLogServiceProgressLevelBounds(t *testing.T) {
	svc := NewClassLogService(newMockClassLogRepo(), newMockStudentReader("stu-1"), nil, nil)

	tooHigh := 6
	_, err := svc.Create(context.Background(), "", ClassLogRequest{
		StudentID:     "stu-1",
		Date:          time.Now(),
		ProgressLevel: &tooHigh,
	})
	require.Error(t, err)
}

func TestClassLogServiceUpdate(t *testing.T) {
	repo := newMockClassLogRepo()
	svc := NewClassLogService(repo, newMockStudentReader("stu-1"), nil, nil)

	log, err := svc.Create(context.Background(), "user-1", ClassLogRequest{
		StudentID: "stu-1",
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	left := "lesson 4, step 2"
	updated, err := svc.Update(context.Background(), log.ID, ClassLogRequest{
		StudentID:    "stu-1",
		Date:         log.Date,
		WhereLeftOff: &left,
	})
	require.NoError(t, err)
	assert.Equal(t, "lesson 4, step 2", *updated.WhereLeftOff)
	assert.Equal(t, "user-1", *updated.CreatedBy)
}

func TestClassLogServiceDeleteMissing(t *testing.T) {
	svc := NewClassLogService(newMockClassLogRepo(), newMockStudentReader(), nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClassLogServiceActivityCatalogue(t *testing.T) {
	repo := newMockClassLogRepo()
	svc := NewClassLogService(repo, newMockStudentReader(), nil, nil)

	_, err := svc.CreateActivity(context.Background(), ActivityRequest{Name: "Scratch basics", Area: "programming"})
	require.NoError(t, err)
	_, err = svc.CreateActivity(context.Background(), ActivityRequest{Name: "Stop motion", Area: "robotics"})
	require.NoError(t, err)

	all, err := svc.ListActivities(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	robotics, err := svc.ListActivities(context.Background(), "robotics")
	require.NoError(t, err)
	require.Len(t, robotics, 1)
	assert.Equal(t, "Stop motion", robotics[0].Name)
}

func TestClassLogServiceModulesActiveOnly(t *testing.T) {
	repo := newMockClassLogRepo()
	svc := NewClassLogService(repo, newMockStudentReader(), nil, nil)

	active, err := svc.CreateModule(context.Background(), ModuleRequest{Name: "Level 1", Level: 1, IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateModule(context.Background(), ModuleRequest{Name: "Retired", Level: 2, IsActive: false})
	require.NoError(t, err)

	modules, err := svc.ListModules(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, active.ID, modules[0].ID)
}
