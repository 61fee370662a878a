package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
)

type mockGroupRepo struct {
	groups       map[string]models.CourseGroup
	codes        map[string]bool
	sessions     map[string][]models.CourseSession
	lastSessions []models.CourseSession
}

func (m *mockGroupRepo) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroupDetail, int, error) {
	details := make([]models.CourseGroupDetail, 0, len(m.groups))
	for _, g := range m.groups {
		details = append(details, models.CourseGroupDetail{CourseGroup: g})
	}
	return details, len(details), nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return m.codes[code], nil
}

func (m *mockGroupRepo) CreateWithSessions(ctx context.Context, group *models.CourseGroup, sessions []models.CourseSession) error {
	if m.groups == nil {
		m.groups = make(map[string]models.CourseGroup)
	}
	if m.codes == nil {
		m.codes = make(map[string]bool)
	}
	if group.ID == "" {
		group.ID = "generated"
	}
	m.groups[group.ID] = *group
	m.codes[group.Code] = true
	m.lastSessions = sessions
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.CourseGroup) error {
	m.groups[group.ID] = *group
	return nil
}

func (m *mockGroupRepo) ListSessions(ctx context.Context, groupID string) ([]models.CourseSession, error) {
	return m.sessions[groupID], nil
}

func (m *mockGroupRepo) FindSessionByID(ctx context.Context, id string) (*models.CourseSession, error) {
	for _, sessions := range m.sessions {
		for _, session := range sessions {
			if session.ID == id {
				return &session, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) UpdateSession(ctx context.Context, session *models.CourseSession) error {
	return nil
}

type mockEnrollmentRepo struct {
	enrollments map[string]models.CourseEnrollment
	byGroup     map[string]map[string]bool
}

func (m *mockEnrollmentRepo) ListByGroup(ctx context.Context, groupID string) ([]models.CourseEnrollmentDetail, error) {
	details := make([]models.CourseEnrollmentDetail, 0)
	for _, e := range m.enrollments {
		if e.GroupID == groupID {
			details = append(details, models.CourseEnrollmentDetail{CourseEnrollment: e})
		}
	}
	return details, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, groupID, studentID string) (bool, error) {
	return m.byGroup[groupID][studentID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.CourseEnrollment)
	}
	if m.byGroup == nil {
		m.byGroup = make(map[string]map[string]bool)
	}
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.enrollments[enrollment.ID] = *enrollment
	if m.byGroup[enrollment.GroupID] == nil {
		m.byGroup[enrollment.GroupID] = make(map[string]bool)
	}
	m.byGroup[enrollment.GroupID][enrollment.StudentID] = true
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.CourseEnrollment) error {
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.enrollments, id)
	return nil
}

type mockCourseReader struct {
	courses map[string]models.VirtualCourse
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.VirtualCourse, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newGroupService(groups *mockGroupRepo, enrollments *mockEnrollmentRepo, courses *mockCourseReader, students *mockStudentReader) *CourseGroupService {
	return NewCourseGroupService(groups, enrollments, courses, students, validator.New(), zap.NewNop())
}

func TestGroupServiceCreateGeneratesCodeAndSessions(t *testing.T) {
	groups := &mockGroupRepo{codes: map[string]bool{}}
	courses := &mockCourseReader{courses: map[string]models.VirtualCourse{
		"course-1": {ID: "course-1", Code: "SCRATCH", Name: "Scratch Basics", IsActive: true},
	}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, courses, &mockStudentReader{})

	start := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	group, err := svc.Create(context.Background(), CreateGroupRequest{
		VirtualCourseID: "course-1",
		StartDate:       start,
		MinStudents:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, "SCRATCH-SEP26-05", group.Code)
	assert.Equal(t, models.GroupStatusForming, group.Status)

	require.Len(t, groups.lastSessions, sessionsPerGroup)
	assert.Equal(t, 1, groups.lastSessions[0].SessionNumber)
	assert.Equal(t, start, groups.lastSessions[0].ScheduledDate)
	assert.Equal(t, start.AddDate(0, 0, 49), groups.lastSessions[7].ScheduledDate)
}

func TestGroupServiceCreateCodeCollisionGetsSuffix(t *testing.T) {
	groups := &mockGroupRepo{codes: map[string]bool{"SCRATCH-SEP26-05": true}}
	courses := &mockCourseReader{courses: map[string]models.VirtualCourse{
		"course-1": {ID: "course-1", Code: "SCRATCH", IsActive: true},
	}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, courses, &mockStudentReader{})

	group, err := svc.Create(context.Background(), CreateGroupRequest{
		VirtualCourseID: "course-1",
		StartDate:       time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC),
		MinStudents:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, "SCRATCH-SEP26-05-B", group.Code)
}

func TestGroupServiceCreateDoubleCollisionFails(t *testing.T) {
	groups := &mockGroupRepo{codes: map[string]bool{
		"SCRATCH-SEP26-05":   true,
		"SCRATCH-SEP26-05-B": true,
	}}
	courses := &mockCourseReader{courses: map[string]models.VirtualCourse{
		"course-1": {ID: "course-1", Code: "SCRATCH", IsActive: true},
	}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, courses, &mockStudentReader{})

	_, err := svc.Create(context.Background(), CreateGroupRequest{
		VirtualCourseID: "course-1",
		StartDate:       time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC),
		MinStudents:     4,
	})
	require.Error(t, err)
}

func TestGroupServiceCreateInactiveCourse(t *testing.T) {
	groups := &mockGroupRepo{codes: map[string]bool{}}
	courses := &mockCourseReader{courses: map[string]models.VirtualCourse{
		"course-1": {ID: "course-1", Code: "SCRATCH", IsActive: false},
	}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, courses, &mockStudentReader{})

	_, err := svc.Create(context.Background(), CreateGroupRequest{
		VirtualCourseID: "course-1",
		StartDate:       time.Now(),
		MinStudents:     4,
	})
	require.Error(t, err)
}

func TestGroupServiceEnroll(t *testing.T) {
	groups := &mockGroupRepo{groups: map[string]models.CourseGroup{
		"grp-1": {ID: "grp-1", Status: models.GroupStatusForming},
	}}
	enrollments := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newGroupService(groups, enrollments, &mockCourseReader{}, students)

	enrollment, err := svc.Enroll(context.Background(), "grp-1", EnrollStudentRequest{
		StudentID:   "stu-1",
		PaymentPlan: "full",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)

	// second enrollment for the same student is rejected
	_, err = svc.Enroll(context.Background(), "grp-1", EnrollStudentRequest{
		StudentID:   "stu-1",
		PaymentPlan: "full",
	})
	require.Error(t, err)
}

func TestGroupServiceEnrollInstallmentsNeedAmounts(t *testing.T) {
	groups := &mockGroupRepo{groups: map[string]models.CourseGroup{
		"grp-1": {ID: "grp-1", Status: models.GroupStatusForming},
	}}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, &mockCourseReader{}, students)

	_, err := svc.Enroll(context.Background(), "grp-1", EnrollStudentRequest{
		StudentID:   "stu-1",
		PaymentPlan: "installments",
	})
	require.Error(t, err)
}

func TestGroupServiceEnrollClosedGroup(t *testing.T) {
	groups := &mockGroupRepo{groups: map[string]models.CourseGroup{
		"grp-1": {ID: "grp-1", Status: models.GroupStatusCompleted},
	}}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newGroupService(groups, &mockEnrollmentRepo{}, &mockCourseReader{}, students)

	_, err := svc.Enroll(context.Background(), "grp-1", EnrollStudentRequest{
		StudentID:   "stu-1",
		PaymentPlan: "full",
	})
	require.Error(t, err)
}
