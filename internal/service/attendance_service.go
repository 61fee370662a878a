package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	ReplaceSessionAttendance(ctx context.Context, sessionID string, date time.Time, markedBy string, entries []models.SessionAttendanceEntry) (int, error)
}

type attendanceStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// MarkAttendanceRequest is the payload for recording one attendance event.
type MarkAttendanceRequest struct {
	StudentID       string    `json:"student_id" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`
	Attended        bool      `json:"attended"`
	IsMakeup        bool      `json:"is_makeup"`
	MakeupReason    *string   `json:"makeup_reason"`
	CourseSessionID *string   `json:"course_session_id"`
}

// UpdateAttendanceRequest edits an existing record.
type UpdateAttendanceRequest struct {
	Date            time.Time `json:"date" validate:"required"`
	Attended        bool      `json:"attended"`
	IsMakeup        bool      `json:"is_makeup"`
	MakeupReason    *string   `json:"makeup_reason"`
	CourseSessionID *string   `json:"course_session_id"`
}

// SessionAttendanceRequest saves attendance for a whole course session.
type SessionAttendanceRequest struct {
	Date    time.Time                       `json:"date" validate:"required"`
	Entries []models.SessionAttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService owns the attendance side of the class-credit ledger.
type AttendanceService struct {
	repo      attendanceRepository
	students  attendanceStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students attendanceStudentReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns attendance history for the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Mark records one attendance event. A regular attended record consumes a
// pack credit; a make-up or absence does not. A make-up without a reason
// is rejected so the refund trail stays auditable.
func (s *AttendanceService) Mark(ctx context.Context, markedBy string, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.IsMakeup && (req.MakeupReason == nil || *req.MakeupReason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "make-up records require a reason")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	record := &models.AttendanceRecord{
		StudentID:       req.StudentID,
		Date:            req.Date,
		Attended:        req.Attended,
		IsMakeup:        req.IsMakeup,
		MakeupReason:    req.MakeupReason,
		MarkedBy:        markedBy,
		CourseSessionID: req.CourseSessionID,
	}
	if record.ConsumesCredit() && student.ClassesRemaining <= 0 {
		s.logger.Warn("attendance recorded with no credits left",
			zap.String("student_id", student.ID),
			zap.Int("classes_remaining", student.ClassesRemaining))
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, nil
}

// Update edits a record; the repository reconciles the counters against
// the previous state.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.IsMakeup && (req.MakeupReason == nil || *req.MakeupReason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "make-up records require a reason")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	record.Date = req.Date
	record.Attended = req.Attended
	record.IsMakeup = req.IsMakeup
	record.MakeupReason = req.MakeupReason
	record.CourseSessionID = req.CourseSessionID
	if err := s.repo.Update(ctx, record); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return record, nil
}

// Delete removes a record, refunding the credit when one was consumed.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

// MarkSession saves attendance for an entire course session in one shot,
// replacing previous marks for the session. Returns how many students had
// their counters moved.
func (s *AttendanceService) MarkSession(ctx context.Context, sessionID, markedBy string, req SessionAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session attendance payload")
	}
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, "duplicate student in session attendance")
		}
		seen[entry.StudentID] = struct{}{}
	}
	changed, err := s.repo.ReplaceSessionAttendance(ctx, sessionID, req.Date, markedBy, req.Entries)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session attendance")
	}
	s.logger.Info("session attendance saved",
		zap.String("session_id", sessionID),
		zap.Int("entries", len(req.Entries)),
		zap.Int("counters_moved", changed))
	return changed, nil
}
