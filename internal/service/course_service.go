package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type virtualCourseRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.VirtualCourse, error)
	FindByID(ctx context.Context, id string) (*models.VirtualCourse, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.VirtualCourse) error
	Update(ctx context.Context, course *models.VirtualCourse) error
}

// CourseRequest is the payload for creating or updating a catalogue course.
type CourseRequest struct {
	Code         string  `json:"code" validate:"required,alphanum,uppercase,max=10"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	IsActive     bool    `json:"is_active"`
	NextCourseID *string `json:"next_course_id"`
}

// VirtualCourseService manages the virtual course catalogue.
type VirtualCourseService struct {
	repo      virtualCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVirtualCourseService constructs the course service.
func NewVirtualCourseService(repo virtualCourseRepository, validate *validator.Validate, logger *zap.Logger) *VirtualCourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VirtualCourseService{repo: repo, validator: validate, logger: logger}
}

// List returns catalogue courses.
func (s *VirtualCourseService) List(ctx context.Context, activeOnly bool) ([]models.VirtualCourse, error) {
	courses, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one course.
func (s *VirtualCourseService) Get(ctx context.Context, id string) (*models.VirtualCourse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course to the catalogue. Codes are stored uppercase and
// feed the group code generator.
func (s *VirtualCourseService) Create(ctx context.Context, req CourseRequest) (*models.VirtualCourse, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := &models.VirtualCourse{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     req.IsActive,
		NextCourseID: req.NextCourseID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update edits a catalogue course. The code is immutable once groups may
// reference it.
func (s *VirtualCourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.VirtualCourse, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if req.Code != course.Code {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code cannot change")
	}
	course.Name = req.Name
	course.Description = req.Description
	course.IsActive = req.IsActive
	course.NextCourseID = req.NextCourseID
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}
