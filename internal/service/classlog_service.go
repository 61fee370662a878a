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

type classLogRepository interface {
	List(ctx context.Context, filter models.ClassLogFilter) ([]models.ClassLogDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassLog, error)
	Create(ctx context.Context, log *models.ClassLog) error
	Update(ctx context.Context, log *models.ClassLog) error
	Delete(ctx context.Context, id string) error
	ListActivities(ctx context.Context, area string) ([]models.Activity, error)
	CreateActivity(ctx context.Context, activity *models.Activity) error
	UpdateActivity(ctx context.Context, activity *models.Activity) error
	ListModules(ctx context.Context, activeOnly bool) ([]models.Module, error)
	CreateModule(ctx context.Context, module *models.Module) error
	UpdateModule(ctx context.Context, module *models.Module) error
}

// ClassLogRequest records what a student worked on in a class.
type ClassLogRequest struct {
	StudentID     string    `json:"student_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	ActivityID    *string   `json:"activity_id"`
	ModuleID      *string   `json:"module_id"`
	ProgressLevel *int      `json:"progress_level" validate:"omitempty,min=1,max=5"`
	ProjectName   *string   `json:"project_name"`
	Description   *string   `json:"description"`
	WhereLeftOff  *string   `json:"where_left_off"`
}

// ActivityRequest maintains the activity catalogue.
type ActivityRequest struct {
	Name        string  `json:"name" validate:"required"`
	Area        string  `json:"area" validate:"required"`
	Description *string `json:"description"`
}

// ModuleRequest maintains the curriculum module catalogue.
type ModuleRequest struct {
	Name        string  `json:"name" validate:"required"`
	Level       int     `json:"level" validate:"min=1"`
	IsActive    bool    `json:"is_active"`
	Description *string `json:"description"`
}

// ClassLogService tracks per-class progress notes.
type ClassLogService struct {
	repo      classLogRepository
	students  attendanceStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassLogService constructs the class log service.
func NewClassLogService(repo classLogRepository, students attendanceStudentReader, validate *validator.Validate, logger *zap.Logger) *ClassLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassLogService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns class logs for the filter.
func (s *ClassLogService) List(ctx context.Context, filter models.ClassLogFilter) ([]models.ClassLogDetail, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create records a class log for a student.
func (s *ClassLogService) Create(ctx context.Context, createdBy string, req ClassLogRequest) (*models.ClassLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class log payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	log := &models.ClassLog{
		StudentID:     req.StudentID,
		Date:          req.Date,
		ActivityID:    req.ActivityID,
		ModuleID:      req.ModuleID,
		ProgressLevel: req.ProgressLevel,
		ProjectName:   req.ProjectName,
		Description:   req.Description,
		WhereLeftOff:  req.WhereLeftOff,
	}
	if createdBy != "" {
		log.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class log")
	}
	return log, nil
}

// Update edits a class log.
func (s *ClassLogService) Update(ctx context.Context, id string, req ClassLogRequest) (*models.ClassLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class log payload")
	}
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class log")
	}
	log.Date = req.Date
	log.ActivityID = req.ActivityID
	log.ModuleID = req.ModuleID
	log.ProgressLevel = req.ProgressLevel
	log.ProjectName = req.ProjectName
	log.Description = req.Description
	log.WhereLeftOff = req.WhereLeftOff
	if err := s.repo.Update(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class log")
	}
	return log, nil
}

// Delete removes a class log.
func (s *ClassLogService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class log")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class log")
	}
	return nil
}

// ListActivities returns the activity catalogue, optionally filtered by area.
func (s *ClassLogService) ListActivities(ctx context.Context, area string) ([]models.Activity, error) {
	activities, err := s.repo.ListActivities(ctx, area)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}

// CreateActivity adds a catalogue activity.
func (s *ClassLogService) CreateActivity(ctx context.Context, req ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity := &models.Activity{Name: req.Name, Area: req.Area, Description: req.Description}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// UpdateActivity edits a catalogue activity.
func (s *ClassLogService) UpdateActivity(ctx context.Context, id string, req ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity := &models.Activity{ID: id, Name: req.Name, Area: req.Area, Description: req.Description}
	if err := s.repo.UpdateActivity(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// ListModules returns the module catalogue.
func (s *ClassLogService) ListModules(ctx context.Context, activeOnly bool) ([]models.Module, error) {
	modules, err := s.repo.ListModules(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, nil
}

// CreateModule adds a curriculum module.
func (s *ClassLogService) CreateModule(ctx context.Context, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module := &models.Module{Name: req.Name, Level: req.Level, IsActive: req.IsActive, Description: req.Description}
	if err := s.repo.CreateModule(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// UpdateModule edits a curriculum module, including retiring it.
func (s *ClassLogService) UpdateModule(ctx context.Context, id string, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module := &models.Module{ID: id, Name: req.Name, Level: req.Level, IsActive: req.IsActive, Description: req.Description}
	if err := s.repo.UpdateModule(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}
