package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/pkg/currency"
	"github.com/aku-labs/academy-api/pkg/export"
	"github.com/aku-labs/academy-api/pkg/storage"
)

type exportPaymentSource interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
}

type exportAttendanceSource interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
}

type exportStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	payments   exportPaymentSource
	attendance exportAttendanceSource
	students   exportStudentSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Payments   exportPaymentSource
	Attendance exportAttendanceSource
	Students   exportStudentSource
	Storage    fileStorage
	Signer     *storage.SignedURLSigner
	CSV        csvRenderer
	PDF        pdfRenderer
	Logger     *zap.Logger
	Config     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		payments:   params.Payments,
		attendance: params.Attendance,
		students:   params.Students,
		storage:    params.Storage,
		csv:        csv,
		pdf:        pdf,
		signer:     params.Signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to the configured ResultTTL).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	period := "all"
	if job.Params.Year > 0 {
		period = fmt.Sprintf("%04d", job.Params.Year)
		if job.Params.Month > 0 {
			period = fmt.Sprintf("%s-%02d", period, job.Params.Month)
		}
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), period, timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypePayments:
		return s.buildPaymentsDataset(ctx, job.Params)
	case models.ReportTypeAttendance:
		return s.buildAttendanceDataset(ctx, job.Params)
	case models.ReportTypeStudents:
		return s.buildStudentsDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildPaymentsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.PaymentFilter{Year: params.Year, Month: params.Month, PageSize: exportPageSize}
	rows, _, err := s.payments.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Payment ID": row.ID,
			"Student ID": row.StudentID,
			"Date":       row.PaymentDate.Format("2006-01-02"),
			"Amount":     currency.FormatCOP(row.Amount),
			"Method":     row.PaymentMethod,
			"Pack Size":  fmt.Sprintf("%d", row.PackSize),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Payment ID", "Student ID", "Date", "Amount", "Method", "Pack Size"},
		Rows:    dataRows,
	}
	return dataset, fmt.Sprintf("Payments Report %s", periodLabel(params)), nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.AttendanceFilter{PageSize: exportPageSize}
	if params.Year > 0 {
		from, to := periodRange(params)
		filter.DateFrom = &from
		filter.DateTo = &to
	}
	rows, _, err := s.attendance.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Student":   row.StudentName,
			"Date":      row.Date.Format("2006-01-02"),
			"Attended":  fmt.Sprintf("%t", row.Attended),
			"Make-up":   fmt.Sprintf("%t", row.IsMakeup),
			"Marked By": row.MarkedBy,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Date", "Attended", "Make-up", "Marked By"},
		Rows:    dataRows,
	}
	return dataset, fmt.Sprintf("Attendance Report %s", periodLabel(params)), nil
}

func (s *ExportService) buildStudentsDataset(ctx context.Context) (export.Dataset, string, error) {
	archived := false
	filter := models.StudentFilter{Archived: &archived, PageSize: exportPageSize}
	rows, _, err := s.students.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Name":              row.Name,
			"Email":             row.Email,
			"Parent":            row.ParentName,
			"Modality":          string(row.Modality),
			"Classes Attended":  fmt.Sprintf("%d", row.ClassesAttended),
			"Classes Remaining": fmt.Sprintf("%d", row.ClassesRemaining),
			"Payment Status":    string(models.GetPaymentStatus(row.ClassesRemaining)),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Name", "Email", "Parent", "Modality", "Classes Attended", "Classes Remaining", "Payment Status"},
		Rows:    dataRows,
	}
	return dataset, "Students Report", nil
}

const exportPageSize = 10000

func periodLabel(params models.ReportJobParams) string {
	if params.Year == 0 {
		return "(all time)"
	}
	if params.Month == 0 {
		return fmt.Sprintf("%d", params.Year)
	}
	return fmt.Sprintf("%04d-%02d", params.Year, params.Month)
}

func periodRange(params models.ReportJobParams) (time.Time, time.Time) {
	if params.Month > 0 {
		from := time.Date(params.Year, time.Month(params.Month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	}
	from := time.Date(params.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
