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

type leadRepository interface {
	List(ctx context.Context, filter models.TrialLeadFilter) ([]models.TrialLead, int, error)
	FindByID(ctx context.Context, id string) (*models.TrialLead, error)
	Create(ctx context.Context, lead *models.TrialLead) error
	Update(ctx context.Context, lead *models.TrialLead) error
	Delete(ctx context.Context, id string) error
}

type leadStudentCreator interface {
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// CreateLeadRequest is the payload for booking a trial class.
type CreateLeadRequest struct {
	ParentName     string     `json:"parent_name" validate:"required"`
	ParentPhone    string     `json:"parent_phone" validate:"required"`
	ParentEmail    *string    `json:"parent_email" validate:"omitempty,email"`
	ChildName      string     `json:"child_name" validate:"required"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	TrialClassDate time.Time  `json:"trial_class_date" validate:"required"`
	Notes          *string    `json:"notes"`
}

// UpdateLeadRequest edits lead contact and booking fields. Status moves
// through UpdateStatus only.
type UpdateLeadRequest struct {
	ParentName     string     `json:"parent_name" validate:"required"`
	ParentPhone    string     `json:"parent_phone" validate:"required"`
	ParentEmail    *string    `json:"parent_email" validate:"omitempty,email"`
	ChildName      string     `json:"child_name" validate:"required"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	TrialClassDate time.Time  `json:"trial_class_date" validate:"required"`
	Notes          *string    `json:"notes"`
}

// ConvertLeadRequest enriches the lead data when turning it into a student.
type ConvertLeadRequest struct {
	Email          string    `json:"email" validate:"required,email"`
	EnrollmentDate time.Time `json:"enrollment_date" validate:"required"`
	Modality       string    `json:"modality" validate:"required"`
}

// TrialLeadService handles the trial class funnel.
type TrialLeadService struct {
	repo      leadRepository
	students  leadStudentCreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrialLeadService constructs the lead service.
func NewTrialLeadService(repo leadRepository, students leadStudentCreator, validate *validator.Validate, logger *zap.Logger) *TrialLeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrialLeadService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns leads matching the filter.
func (s *TrialLeadService) List(ctx context.Context, filter models.TrialLeadFilter) ([]models.TrialLead, *models.Pagination, error) {
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trial leads")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return leads, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one lead.
func (s *TrialLeadService) Get(ctx context.Context, id string) (*models.TrialLead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trial lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial lead")
	}
	return lead, nil
}

// Create books a trial class. New leads always start scheduled.
func (s *TrialLeadService) Create(ctx context.Context, createdBy string, req CreateLeadRequest) (*models.TrialLead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}
	lead := &models.TrialLead{
		ParentName:     req.ParentName,
		ParentPhone:    req.ParentPhone,
		ParentEmail:    req.ParentEmail,
		ChildName:      req.ChildName,
		DateOfBirth:    req.DateOfBirth,
		TrialClassDate: req.TrialClassDate,
		Status:         models.LeadStatusScheduled,
		Notes:          req.Notes,
	}
	if createdBy != "" {
		lead.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trial lead")
	}
	return lead, nil
}

// Update edits lead fields without touching the status.
func (s *TrialLeadService) Update(ctx context.Context, id string, req UpdateLeadRequest) (*models.TrialLead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trial lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial lead")
	}
	lead.ParentName = req.ParentName
	lead.ParentPhone = req.ParentPhone
	lead.ParentEmail = req.ParentEmail
	lead.ChildName = req.ChildName
	lead.DateOfBirth = req.DateOfBirth
	lead.TrialClassDate = req.TrialClassDate
	lead.Notes = req.Notes
	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trial lead")
	}
	return lead, nil
}

// UpdateStatus moves a lead through its lifecycle, enforcing the allowed
// transitions. Converted is terminal.
func (s *TrialLeadService) UpdateStatus(ctx context.Context, id string, next models.TrialLeadStatus) (*models.TrialLead, error) {
	if !next.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lead status")
	}
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trial lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial lead")
	}
	if !lead.Status.CanTransition(next) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move lead from %s to %s", lead.Status, next))
	}
	if lead.Status == next {
		return lead, nil
	}
	lead.Status = next
	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead status")
	}
	s.logger.Info("lead status changed", zap.String("lead_id", id), zap.String("status", string(next)))
	return lead, nil
}

// Convert turns an attended lead into a registered student and marks the
// lead converted. The conversion only runs from the attended state.
func (s *TrialLeadService) Convert(ctx context.Context, id string, req ConvertLeadRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conversion payload")
	}
	modality := models.Modality(req.Modality)
	if !modality.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown modality")
	}
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trial lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial lead")
	}
	if !lead.Status.CanTransition(models.LeadStatusConverted) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot convert lead from %s", lead.Status))
	}
	exists, err := s.students.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	student := &models.Student{
		Name:           lead.ChildName,
		Email:          req.Email,
		Phone:          lead.ParentPhone,
		ParentName:     lead.ParentName,
		DateOfBirth:    lead.DateOfBirth,
		Notes:          lead.Notes,
		EnrollmentDate: req.EnrollmentDate,
		Modality:       modality,
		IsActive:       true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student from lead")
	}
	lead.Status = models.LeadStatusConverted
	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark lead converted")
	}
	s.logger.Info("lead converted", zap.String("lead_id", id), zap.String("student_id", student.ID))
	return student, nil
}

// Delete removes a lead.
func (s *TrialLeadService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "trial lead not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial lead")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete trial lead")
	}
	return nil
}
