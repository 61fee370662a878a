package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type importStudentRepository interface {
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type importCourseReader interface {
	List(ctx context.Context, activeOnly bool) ([]models.VirtualCourse, error)
}

// ImportRow is one spreadsheet row in the registration form's column order.
type ImportRow struct {
	ParentName   string `json:"parent_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	ChildName    string `json:"child_name"`
	DateOfBirth  string `json:"date_of_birth"`
	SchoolName   string `json:"school_name"`
	GradeLevel   string `json:"grade_level"`
	Referral     string `json:"referral"`
	CourseChoice string `json:"course_choice"`
	Newsletter   string `json:"newsletter"`
}

// ImportRowResult reports the outcome for a single row.
type ImportRowResult struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImportSummary aggregates a whole batch.
type ImportSummary struct {
	Total    int               `json:"total"`
	Imported int               `json:"imported"`
	Failed   int               `json:"failed"`
	Results  []ImportRowResult `json:"results"`
}

// ImportService ingests the Google Forms registration export.
type ImportService struct {
	students importStudentRepository
	courses  importCourseReader
	settings paymentSettingsReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportService constructs the student import service.
func NewImportService(students importStudentRepository, courses importCourseReader, settings paymentSettingsReader, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		students: students,
		courses:  courses,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ImportRows inserts students from form rows. Rows that fail are reported
// individually and do not abort the batch.
func (s *ImportService) ImportRows(ctx context.Context, rows []ImportRow) (*ImportSummary, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	virtualCodes, err := s.virtualCourseCodes(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Total: len(rows)}
	for i, row := range rows {
		result := ImportRowResult{Row: i + 1}
		student, rowErr := s.buildStudent(ctx, row, settings.DefaultPackSize, virtualCodes)
		if rowErr == nil {
			rowErr = s.students.Create(ctx, student)
		}
		if rowErr != nil {
			result.Error = rowErr.Error()
			summary.Failed++
			s.logger.Warn("import row rejected", zap.Int("row", i+1), zap.Error(rowErr))
		} else {
			result.StudentID = student.ID
			summary.Imported++
		}
		summary.Results = append(summary.Results, result)
	}

	s.logger.Info("student import finished",
		zap.Int("total", summary.Total),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// ImportCSV parses a CSV export in the form's column order and imports it.
// The first line is treated as a header when it does not look like data.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []ImportRow
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed CSV input")
		}
		if first {
			first = false
			if looksLikeHeader(record) {
				continue
			}
		}
		rows = append(rows, rowFromRecord(record))
	}
	return s.ImportRows(ctx, rows)
}

func (s *ImportService) buildStudent(ctx context.Context, row ImportRow, packSize int, virtualCodes map[string]bool) (*models.Student, error) {
	childName := strings.TrimSpace(row.ChildName)
	if childName == "" {
		return nil, fmt.Errorf("child name is required")
	}
	email := strings.TrimSpace(strings.ToLower(row.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if exists, err := s.students.ExistsByEmail(ctx, email, ""); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if exists {
		return nil, fmt.Errorf("email %s already registered", email)
	}

	modality := models.ModalityPresencial
	if virtualCodes[courseCode(row.CourseChoice)] {
		modality = models.ModalityVirtual
	}

	now := s.now()
	student := &models.Student{
		Name:             childName,
		Email:            email,
		Phone:            strings.TrimSpace(row.Phone),
		ParentName:       strings.TrimSpace(row.ParentName),
		EnrollmentDate:   now,
		Modality:         modality,
		PackSize:         packSize,
		ClassesRemaining: packSize,
		IsActive:         true,
	}
	if addr := strings.TrimSpace(row.Address); addr != "" {
		student.Address = &addr
	}
	if school := strings.TrimSpace(row.SchoolName); school != "" {
		student.SchoolName = &school
	}
	if grade := strings.TrimSpace(row.GradeLevel); grade != "" {
		student.GradeLevel = &grade
	}
	if dob := strings.TrimSpace(row.DateOfBirth); dob != "" {
		parsed, err := parseFormDate(dob)
		if err != nil {
			return nil, fmt.Errorf("date of birth: %w", err)
		}
		student.DateOfBirth = &parsed
	}

	var noteParts []string
	if city := strings.TrimSpace(row.City); city != "" {
		noteParts = append(noteParts, fmt.Sprintf("Ciudad: %s", city))
	}
	if ref := strings.TrimSpace(row.Referral); ref != "" {
		noteParts = append(noteParts, fmt.Sprintf("Referido: %s", ref))
	}
	if course := strings.TrimSpace(row.CourseChoice); course != "" {
		noteParts = append(noteParts, fmt.Sprintf("Curso: %s", course))
	}
	if wantsNewsletter(row.Newsletter) {
		noteParts = append(noteParts, "Newsletter: sí")
	}
	if len(noteParts) > 0 {
		notes := strings.Join(noteParts, " | ")
		student.Notes = &notes
	}
	return student, nil
}

func (s *ImportService) virtualCourseCodes(ctx context.Context) (map[string]bool, error) {
	courses, err := s.courses.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list virtual courses")
	}
	codes := make(map[string]bool, len(courses))
	for _, c := range courses {
		codes[strings.ToUpper(c.Code)] = true
	}
	return codes, nil
}

// parseFormDate converts the form's DD/MM/YYYY dates to a time value.
// Two-digit years are treated as 20xx.
func parseFormDate(raw string) (time.Time, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("expected DD/MM/YYYY, got %q", raw)
	}
	day, errD := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, errY := strconv.Atoi(strings.TrimSpace(parts[2]))
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	if len(strings.TrimSpace(parts[2])) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if parsed.Day() != day || parsed.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return parsed, nil
}

// wantsNewsletter applies the form's sí/si/yes heuristic.
func wantsNewsletter(answer string) bool {
	lower := strings.ToLower(answer)
	return strings.Contains(lower, "sí") || strings.Contains(lower, "si") || strings.Contains(lower, "yes")
}

// courseCode extracts the code from a form choice like "RC1 - Real Coders 1".
func courseCode(choice string) string {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return ""
	}
	fields := strings.Fields(choice)
	return strings.ToUpper(fields[0])
}

func rowFromRecord(record []string) ImportRow {
	get := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}
	return ImportRow{
		ParentName:   get(0),
		Email:        get(1),
		Phone:        get(2),
		Address:      get(3),
		City:         get(4),
		ChildName:    get(5),
		DateOfBirth:  get(6),
		SchoolName:   get(7),
		GradeLevel:   get(8),
		Referral:     get(9),
		CourseChoice: get(10),
		Newsletter:   get(11),
	}
}

func looksLikeHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	lower := strings.ToLower(strings.Join(record, " "))
	return strings.Contains(lower, "correo") || strings.Contains(lower, "email") || strings.Contains(lower, "nombre")
}
