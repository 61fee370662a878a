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

type mockAttendanceRepo struct {
	records        map[string]models.AttendanceRecord
	sessionSaved   []models.SessionAttendanceEntry
	sessionChanged int
	err            error
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	details := make([]models.AttendanceRecordDetail, 0, len(m.records))
	for _, r := range m.records {
		details = append(details, models.AttendanceRecordDetail{AttendanceRecord: r})
	}
	return details, len(details), nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if m.err != nil {
		return m.err
	}
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	if record.ID == "" {
		record.ID = "generated"
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	if _, ok := m.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) ReplaceSessionAttendance(ctx context.Context, sessionID string, date time.Time, markedBy string, entries []models.SessionAttendanceEntry) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.sessionSaved = entries
	return m.sessionChanged, nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newMockStudentReader(ids ...string) *mockStudentReader {
	students := make(map[string]models.Student, len(ids))
	for _, id := range ids {
		students[id] = models.Student{ID: id, ClassesRemaining: 4}
	}
	return &mockStudentReader{students: students}
}

func TestAttendanceServiceMark(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1", ClassesRemaining: 4}}}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	record, err := svc.Mark(context.Background(), "staff-1", MarkAttendanceRequest{
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
	})
	require.NoError(t, err)
	assert.True(t, record.ConsumesCredit())
	assert.Equal(t, "staff-1", record.MarkedBy)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceServiceMarkUnknownStudent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), "staff-1", MarkAttendanceRequest{
		StudentID: "ghost",
		Date:      time.Now(),
		Attended:  true,
	})
	require.Error(t, err)
}

func TestAttendanceServiceMakeupRequiresReason(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), "staff-1", MarkAttendanceRequest{
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
		IsMakeup:  true,
	})
	require.Error(t, err)

	reason := "missed saturday class"
	record, err := svc.Mark(context.Background(), "staff-1", MarkAttendanceRequest{
		StudentID:    "stu-1",
		Date:         time.Now(),
		Attended:     true,
		IsMakeup:     true,
		MakeupReason: &reason,
	})
	require.NoError(t, err)
	assert.False(t, record.ConsumesCredit())
}

func TestAttendanceServiceMarkAtZeroStillRecords(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1", ClassesRemaining: 0}}}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	record, err := svc.Mark(context.Background(), "staff-1", MarkAttendanceRequest{
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
}

func TestAttendanceServiceUpdateMissing(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "nope", UpdateAttendanceRequest{Date: time.Now(), Attended: true})
	require.Error(t, err)
}

func TestAttendanceServiceMarkSessionRejectsDuplicates(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	_, err := svc.MarkSession(context.Background(), "sess-1", "staff-1", SessionAttendanceRequest{
		Date: time.Now(),
		Entries: []models.SessionAttendanceEntry{
			{StudentID: "stu-1", Attended: true},
			{StudentID: "stu-1", Attended: false},
		},
	})
	require.Error(t, err)
}

func TestAttendanceServiceMarkSession(t *testing.T) {
	repo := &mockAttendanceRepo{sessionChanged: 2}
	students := &mockStudentReader{}
	svc := NewAttendanceService(repo, students, validator.New(), zap.NewNop())

	changed, err := svc.MarkSession(context.Background(), "sess-1", "staff-1", SessionAttendanceRequest{
		Date: time.Now(),
		Entries: []models.SessionAttendanceEntry{
			{StudentID: "stu-1", Attended: true},
			{StudentID: "stu-2", Attended: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Len(t, repo.sessionSaved, 2)
}
