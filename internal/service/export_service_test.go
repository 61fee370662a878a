package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/pkg/storage"
)

type mockExportSources struct {
	payments   []models.Payment
	attendance []models.AttendanceRecordDetail
	students   []models.Student

	paymentFilter    models.PaymentFilter
	attendanceFilter models.AttendanceFilter
}

func (m *mockExportSources) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	m.paymentFilter = filter
	return m.payments, len(m.payments), nil
}

type mockAttendanceSource struct{ parent *mockExportSources }

func (m *mockAttendanceSource) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	m.parent.attendanceFilter = filter
	return m.parent.attendance, len(m.parent.attendance), nil
}

type mockStudentSource struct{ parent *mockExportSources }

func (m *mockStudentSource) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return m.parent.students, len(m.parent.students), nil
}

func newExportService(t *testing.T, src *mockExportSources) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewExportService(ExportServiceParams{
		Payments:   src,
		Attendance: &mockAttendanceSource{parent: src},
		Students:   &mockStudentSource{parent: src},
		Storage:    store,
		Signer:     signer,
	})
}

func TestExportGeneratePaymentsCSV(t *testing.T) {
	note := "first pack"
	src := &mockExportSources{payments: []models.Payment{{
		ID:            "pay-1",
		StudentID:     "stu-1",
		PaymentDate:   time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
		Amount:        250000,
		PaymentMethod: "Nequi",
		PackSize:      8,
		Notes:         &note,
	}}}
	svc := newExportService(t, src)

	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypePayments,
		Params: models.ReportJobParams{Year: 2026, Month: 2, Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2026, src.paymentFilter.Year)
	assert.Equal(t, 2, src.paymentFilter.Month)
	assert.Contains(t, result.URL, "/reports/download/")

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pay-1")
	assert.Contains(t, string(content), "Nequi")
	assert.Contains(t, string(content), "$250.000")
}

func TestExportGenerateAttendanceWindow(t *testing.T) {
	src := &mockExportSources{attendance: []models.AttendanceRecordDetail{{
		AttendanceRecord: models.AttendanceRecord{
			StudentID: "stu-1",
			Date:      time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			Attended:  true,
			MarkedBy:  "user-1",
		},
		StudentName: "Samuel",
	}}}
	svc := newExportService(t, src)

	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeAttendance,
		Params: models.ReportJobParams{Year: 2026, Month: 3, Format: models.ReportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotNil(t, src.attendanceFilter.DateFrom)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *src.attendanceFilter.DateFrom)
	require.NotNil(t, src.attendanceFilter.DateTo)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *src.attendanceFilter.DateTo)
}

func TestExportGenerateStudentsPDF(t *testing.T) {
	src := &mockExportSources{students: []models.Student{{
		Name:             "Lucia",
		Email:            "lucia@example.test",
		ParentName:       "Pedro",
		Modality:         models.ModalityPresencial,
		ClassesAttended:  3,
		ClassesRemaining: 5,
	}}}
	svc := newExportService(t, src)

	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeStudents,
		Params: models.ReportJobParams{Format: models.ReportFormatPDF},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportGenerateUnknownType(t *testing.T) {
	svc := newExportService(t, &mockExportSources{})
	_, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportType("grades"),
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	})
	require.Error(t, err)
}

func TestExportTokenRoundTrip(t *testing.T) {
	src := &mockExportSources{}
	svc := newExportService(t, src)

	job := &models.ReportJob{
		ID:     "job-5",
		Type:   models.ReportTypeStudents,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-5", jobID)
	assert.Equal(t, result.RelativePath, relPath)

	_, _, _, err = svc.ParseToken(result.Token+"tampered", false)
	require.Error(t, err)
}
