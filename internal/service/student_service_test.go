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

type mockStudentRepo struct {
	students      map[string]models.Student
	existsByEmail map[string]string
	archived      []string
	unarchived    []string
	listTotal     int
	err           error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s)
	}
	return students, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	if id, ok := m.existsByEmail[email]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Archive(ctx context.Context, id string) error {
	m.archived = append(m.archived, id)
	if s, ok := m.students[id]; ok {
		s.Archived = true
		s.IsActive = false
		m.students[id] = s
	}
	return nil
}

func (m *mockStudentRepo) Unarchive(ctx context.Context, id string) error {
	m.unarchived = append(m.unarchived, id)
	if s, ok := m.students[id]; ok {
		s.Archived = false
		s.IsActive = true
		m.students[id] = s
	}
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{existsByEmail: make(map[string]string)}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:           "Valentina Gomez",
		Email:          "valen@example.com",
		ParentName:     "Laura Gomez",
		EnrollmentDate: time.Now(),
		Modality:       "presencial",
		PackSize:       8,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.IsActive)
	assert.Equal(t, 8, student.PackSize)
	assert.Equal(t, 8, student.ClassesRemaining)
	assert.Equal(t, 0, student.ClassesAttended)
	assert.Equal(t, 1, len(repo.students))
}

func TestStudentServiceCreateDefaultsPackFromSettings(t *testing.T) {
	repo := &mockStudentRepo{existsByEmail: make(map[string]string)}
	settings := &mockSettingsReader{settings: models.Settings{DefaultPackSize: 4}}
	svc := NewStudentService(repo, settings, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:           "Martin Rios",
		Email:          "martin@example.com",
		ParentName:     "Carla Rios",
		EnrollmentDate: time.Now(),
		Modality:       "virtual",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, student.PackSize)
	assert.Equal(t, 4, student.ClassesRemaining)
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockStudentRepo{existsByEmail: map[string]string{"valen@example.com": "other"}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:           "Valentina Gomez",
		Email:          "valen@example.com",
		ParentName:     "Laura Gomez",
		EnrollmentDate: time.Now(),
		Modality:       "presencial",
	})
	require.Error(t, err)
}

func TestStudentServiceCreateRejectsUnknownModality(t *testing.T) {
	repo := &mockStudentRepo{existsByEmail: make(map[string]string)}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:           "Valentina Gomez",
		Email:          "valen@example.com",
		ParentName:     "Laura Gomez",
		EnrollmentDate: time.Now(),
		Modality:       "hybrid",
	})
	require.Error(t, err)
}

func TestStudentServiceGetDerivesPaymentStatus(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"id1": {ID: "id1", Name: "Valentina", ClassesRemaining: 0},
		"id2": {ID: "id2", Name: "Martin", ClassesRemaining: 2},
		"id3": {ID: "id3", Name: "Sofia", ClassesRemaining: 5},
	}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	due, err := svc.Get(context.Background(), "id1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDue, due.PaymentStatus)

	low, err := svc.Get(context.Background(), "id2")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusLow, low.PaymentStatus)

	good, err := svc.Get(context.Background(), "id3")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusGood, good.PaymentStatus)
}

func TestStudentServiceUpdateKeepsCounters(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.Student{"id1": {
			ID: "id1", Name: "Old", Email: "old@example.com", ParentName: "Parent",
			Modality: models.ModalityPresencial, ClassesAttended: 3, ClassesRemaining: 5, IsActive: true,
		}},
		existsByEmail: make(map[string]string),
	}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "id1", UpdateStudentRequest{
		Name:           "New Name",
		Email:          "new@example.com",
		ParentName:     "Parent",
		EnrollmentDate: time.Now(),
		Modality:       "virtual",
		PackSize:       8,
		IsActive:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 3, updated.ClassesAttended)
	assert.Equal(t, 5, updated.ClassesRemaining)
}

func TestStudentServiceArchive(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Name: "Valentina", IsActive: true}}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Archive(context.Background(), "id1")
	require.NoError(t, err)
	assert.Contains(t, repo.archived, "id1")
}

func TestStudentServiceArchiveMissing(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Archive(context.Background(), "nope")
	require.Error(t, err)
}
