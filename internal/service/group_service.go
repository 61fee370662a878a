package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

// sessionsPerGroup is how many weekly meetings a cohort gets on creation.
const sessionsPerGroup = 8

var monthCodes = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

type courseGroupRepository interface {
	List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroupDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	CreateWithSessions(ctx context.Context, group *models.CourseGroup, sessions []models.CourseSession) error
	Update(ctx context.Context, group *models.CourseGroup) error
	ListSessions(ctx context.Context, groupID string) ([]models.CourseSession, error)
	FindSessionByID(ctx context.Context, id string) (*models.CourseSession, error)
	UpdateSession(ctx context.Context, session *models.CourseSession) error
}

type enrollmentRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.CourseEnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
	Exists(ctx context.Context, groupID, studentID string) (bool, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
	Update(ctx context.Context, enrollment *models.CourseEnrollment) error
	Delete(ctx context.Context, id string) error
}

type groupCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.VirtualCourse, error)
}

// CreateGroupRequest opens a new cohort for a catalogue course.
type CreateGroupRequest struct {
	VirtualCourseID string    `json:"virtual_course_id" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	MinStudents     int       `json:"min_students" validate:"min=1"`
	Notes           *string   `json:"notes"`
}

// UpdateGroupRequest edits cohort fields and lifecycle status.
type UpdateGroupRequest struct {
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date"`
	Status      string     `json:"status" validate:"required"`
	MinStudents int        `json:"min_students" validate:"min=1"`
	Notes       *string    `json:"notes"`
}

// RescheduleSessionRequest moves one session of a group.
type RescheduleSessionRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Notes         *string   `json:"notes"`
}

// EnrollStudentRequest joins a student to a cohort.
type EnrollStudentRequest struct {
	StudentID          string      `json:"student_id" validate:"required"`
	PaymentPlan        string      `json:"payment_plan" validate:"required"`
	Installment1Amount *int64      `json:"installment_1_amount"`
	Installment2Amount *int64      `json:"installment_2_amount"`
	Installment2DueAt  *time.Time  `json:"installment_2_due_date"`
	Notes              *string     `json:"notes"`
}

// UpdateEnrollmentRequest edits payment plan and installment markers.
type UpdateEnrollmentRequest struct {
	PaymentPlan        string     `json:"payment_plan" validate:"required"`
	Installment1Amount *int64     `json:"installment_1_amount"`
	Installment1PaidAt *time.Time `json:"installment_1_paid_at"`
	Installment2Amount *int64     `json:"installment_2_amount"`
	Installment2DueAt  *time.Time `json:"installment_2_due_date"`
	Installment2PaidAt *time.Time `json:"installment_2_paid_at"`
	Status             string     `json:"status" validate:"required"`
	Notes              *string    `json:"notes"`
}

// GroupDetailResponse bundles a cohort with its schedule and roster.
type GroupDetailResponse struct {
	Group       models.CourseGroup              `json:"group"`
	CourseName  string                          `json:"course_name"`
	Sessions    []models.CourseSession          `json:"sessions"`
	Enrollments []models.CourseEnrollmentDetail `json:"enrollments"`
}

// CourseGroupService manages virtual cohorts, their sessions and rosters.
type CourseGroupService struct {
	groups      courseGroupRepository
	enrollments enrollmentRepository
	courses     groupCourseReader
	students    attendanceStudentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseGroupService constructs the group service.
func NewCourseGroupService(groups courseGroupRepository, enrollments enrollmentRepository, courses groupCourseReader, students attendanceStudentReader, validate *validator.Validate, logger *zap.Logger) *CourseGroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseGroupService{
		groups:      groups,
		enrollments: enrollments,
		courses:     courses,
		students:    students,
		validator:   validate,
		logger:      logger,
	}
}

// List returns cohorts with course names and enrollment counts.
func (s *CourseGroupService) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroupDetail, *models.Pagination, error) {
	groups, total, err := s.groups.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return groups, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a cohort with its sessions and roster.
func (s *CourseGroupService) Get(ctx context.Context, id string) (*GroupDetailResponse, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	course, err := s.courses.FindByID(ctx, group.VirtualCourseID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	sessions, err := s.groups.ListSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	enrollments, err := s.enrollments.ListByGroup(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	detail := &GroupDetailResponse{Group: *group, Sessions: sessions, Enrollments: enrollments}
	if course != nil {
		detail.CourseName = course.Name
	}
	return detail, nil
}

// Create opens a cohort: generates the group code from the course code and
// start date, and schedules the weekly sessions in one transaction.
func (s *CourseGroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.CourseGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	course, err := s.courses.FindByID(ctx, req.VirtualCourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is inactive")
	}

	code, err := s.generateGroupCode(ctx, course.Code, req.StartDate)
	if err != nil {
		return nil, err
	}

	group := &models.CourseGroup{
		VirtualCourseID: course.ID,
		Code:            code,
		StartDate:       req.StartDate,
		Status:          models.GroupStatusForming,
		MinStudents:     req.MinStudents,
		Notes:           req.Notes,
	}
	sessions := make([]models.CourseSession, 0, sessionsPerGroup)
	for i := 0; i < sessionsPerGroup; i++ {
		sessions = append(sessions, models.CourseSession{
			SessionNumber: i + 1,
			ScheduledDate: req.StartDate.AddDate(0, 0, i*7),
		})
	}
	if err := s.groups.CreateWithSessions(ctx, group, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	s.logger.Info("course group created",
		zap.String("group_id", group.ID),
		zap.String("code", group.Code),
		zap.Int("sessions", len(sessions)))
	return group, nil
}

// generateGroupCode builds "<COURSE>-<MON><YY>-<DD>" from the start date
// and appends "-B" when a group for the same course and day already exists.
func (s *CourseGroupService) generateGroupCode(ctx context.Context, courseCode string, start time.Time) (string, error) {
	code := fmt.Sprintf("%s-%s%02d-%02d", courseCode, monthCodes[start.Month()-1], start.Year()%100, start.Day())
	exists, err := s.groups.ExistsByCode(ctx, code)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate group code")
	}
	if !exists {
		return code, nil
	}
	alt := code + "-B"
	exists, err = s.groups.ExistsByCode(ctx, alt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate group code")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrConflict, "group code already used twice for this date")
	}
	return alt, nil
}

// Update edits cohort fields, enforcing a known lifecycle status.
func (s *CourseGroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.CourseGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	status := models.GroupStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown group status")
	}
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	group.StartDate = req.StartDate
	group.EndDate = req.EndDate
	group.Status = status
	group.MinStudents = req.MinStudents
	group.Notes = req.Notes
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return group, nil
}

// RescheduleSession moves one meeting of the cohort.
func (s *CourseGroupService) RescheduleSession(ctx context.Context, sessionID string, req RescheduleSessionRequest) (*models.CourseSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.groups.FindSessionByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	session.ScheduledDate = req.ScheduledDate
	session.Notes = req.Notes
	if err := s.groups.UpdateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Enroll joins a student to a cohort with a payment plan.
func (s *CourseGroupService) Enroll(ctx context.Context, groupID string, req EnrollStudentRequest) (*models.CourseEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	plan := models.PaymentPlan(req.PaymentPlan)
	if !plan.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment plan")
	}
	if plan == models.PaymentPlanInstallments && (req.Installment1Amount == nil || req.Installment2Amount == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "installment plan requires both amounts")
	}
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if group.Status == models.GroupStatusCompleted || group.Status == models.GroupStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group no longer accepts enrollments")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.enrollments.Exists(ctx, groupID, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this group")
	}
	enrollment := &models.CourseEnrollment{
		GroupID:            groupID,
		StudentID:          req.StudentID,
		EnrollmentDate:     time.Now().UTC(),
		PaymentPlan:        plan,
		Installment1Amount: req.Installment1Amount,
		Installment2Amount: req.Installment2Amount,
		Installment2DueAt:  req.Installment2DueAt,
		Status:             models.EnrollmentStatusActive,
		Notes:              req.Notes,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return enrollment, nil
}

// UpdateEnrollment edits payment plan details and installment markers.
func (s *CourseGroupService) UpdateEnrollment(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.CourseEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	plan := models.PaymentPlan(req.PaymentPlan)
	if !plan.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment plan")
	}
	status := models.EnrollmentStatus(req.Status)
	if status != models.EnrollmentStatusActive && status != models.EnrollmentStatusWithdrawn {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	enrollment.PaymentPlan = plan
	enrollment.Installment1Amount = req.Installment1Amount
	enrollment.Installment1PaidAt = req.Installment1PaidAt
	enrollment.Installment2Amount = req.Installment2Amount
	enrollment.Installment2DueAt = req.Installment2DueAt
	enrollment.Installment2PaidAt = req.Installment2PaidAt
	enrollment.Status = status
	enrollment.Notes = req.Notes
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// RemoveEnrollment deletes an enrollment outright.
func (s *CourseGroupService) RemoveEnrollment(ctx context.Context, id string) error {
	if _, err := s.enrollments.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.enrollments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
