package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type mockCourseStore struct {
	courses map[string]*models.VirtualCourse
	nextID  int
}

func newMockCourseStore() *mockCourseStore {
	return &mockCourseStore{courses: make(map[string]*models.VirtualCourse)}
}

func (m *mockCourseStore) List(_ context.Context, activeOnly bool) ([]models.VirtualCourse, error) {
	out := make([]models.VirtualCourse, 0, len(m.courses))
	for _, c := range m.courses {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCourseStore) FindByID(_ context.Context, id string) (*models.VirtualCourse, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *mockCourseStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseStore) Create(_ context.Context, course *models.VirtualCourse) error {
	m.nextID++
	course.ID = fmt.Sprintf("course-%d", m.nextID)
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseStore) Update(_ context.Context, course *models.VirtualCourse) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func TestVirtualCourseCreateNormalisesCode(t *testing.T) {
	svc := NewVirtualCourseService(newMockCourseStore(), validator.New(), zap.NewNop())

	course, err := svc.Create(context.Background(), CourseRequest{
		Code:     " rc1 ",
		Name:     "Real Coders 1",
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "RC1", course.Code)
	assert.NotEmpty(t, course.ID)
}

func TestVirtualCourseCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewVirtualCourseService(newMockCourseStore(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CourseRequest{Code: "RC1", Name: "Real Coders 1"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CourseRequest{Code: "rc1", Name: "Duplicate"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestVirtualCourseUpdateKeepsCodeImmutable(t *testing.T) {
	store := newMockCourseStore()
	svc := NewVirtualCourseService(store, validator.New(), zap.NewNop())

	course, err := svc.Create(context.Background(), CourseRequest{Code: "RC1", Name: "Real Coders 1", IsActive: true})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), course.ID, CourseRequest{Code: "RC2", Name: "Renamed"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	updated, err := svc.Update(context.Background(), course.ID, CourseRequest{Code: "RC1", Name: "Renamed", IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsActive)
}

func TestVirtualCourseListActiveOnly(t *testing.T) {
	store := newMockCourseStore()
	svc := NewVirtualCourseService(store, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CourseRequest{Code: "RC1", Name: "Real Coders 1", IsActive: true})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CourseRequest{Code: "RC2", Name: "Real Coders 2", IsActive: false})
	require.NoError(t, err)

	active, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "RC1", active[0].Code)

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
