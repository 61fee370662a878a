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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

// CreateStudentRequest holds the payload for registering a student.
type CreateStudentRequest struct {
	Name                  string     `json:"name" validate:"required"`
	Email                 string     `json:"email" validate:"required,email"`
	Phone                 string     `json:"phone"`
	ParentName            string     `json:"parent_name" validate:"required"`
	FatherName            *string    `json:"father_name"`
	MotherName            *string    `json:"mother_name"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Address               *string    `json:"address"`
	SchoolName            *string    `json:"school_name"`
	GradeLevel            *string    `json:"grade_level"`
	MedicalConditions     *string    `json:"medical_conditions"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	Notes                 *string    `json:"notes"`
	EnrollmentDate        time.Time  `json:"enrollment_date" validate:"required"`
	Modality              string     `json:"modality" validate:"required"`
	PackSize              int        `json:"pack_size" validate:"min=0"`
}

// UpdateStudentRequest holds the payload for editing a student. Pack
// counters are absent on purpose; attendance and payments own them.
type UpdateStudentRequest struct {
	Name                  string     `json:"name" validate:"required"`
	Email                 string     `json:"email" validate:"required,email"`
	Phone                 string     `json:"phone"`
	ParentName            string     `json:"parent_name" validate:"required"`
	FatherName            *string    `json:"father_name"`
	MotherName            *string    `json:"mother_name"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Address               *string    `json:"address"`
	SchoolName            *string    `json:"school_name"`
	GradeLevel            *string    `json:"grade_level"`
	MedicalConditions     *string    `json:"medical_conditions"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	Notes                 *string    `json:"notes"`
	EnrollmentDate        time.Time  `json:"enrollment_date" validate:"required"`
	Modality              string     `json:"modality" validate:"required"`
	PackSize              int        `json:"pack_size" validate:"min=0"`
	IsActive              bool       `json:"is_active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	settings  paymentSettingsReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service. settings may be nil,
// in which case new students fall back to the built-in pack default.
func NewStudentService(repo studentRepository, settings paymentSettingsReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, settings: settings, validator: validate, logger: logger}
}

// defaultPackSize resolves the pack size for new students from settings.
func (s *StudentService) defaultPackSize(ctx context.Context) int {
	fallback := models.DefaultSettings().DefaultPackSize
	if s.settings == nil {
		return fallback
	}
	settings, err := s.settings.Get(ctx)
	if err != nil || settings == nil {
		return fallback
	}
	return settings.DefaultPackSize
}

// List returns students with derived payment status and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	details := make([]models.StudentDetail, 0, len(students))
	for _, student := range students {
		details = append(details, models.StudentDetail{
			Student:       student,
			PaymentStatus: models.GetPaymentStatus(student.ClassesRemaining),
		})
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return details, pagination, nil
}

// Get returns one student with derived payment status.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return &models.StudentDetail{
		Student:       *student,
		PaymentStatus: models.GetPaymentStatus(student.ClassesRemaining),
	}, nil
}

// Create registers a new student. The pack starts empty; credits only
// appear once a payment is recorded.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	modality := models.Modality(req.Modality)
	if !modality.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown modality")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	packSize := req.PackSize
	if packSize == 0 {
		packSize = s.defaultPackSize(ctx)
	}
	student := &models.Student{
		Name:                  req.Name,
		Email:                 req.Email,
		Phone:                 req.Phone,
		ParentName:            req.ParentName,
		FatherName:            req.FatherName,
		MotherName:            req.MotherName,
		DateOfBirth:           req.DateOfBirth,
		Address:               req.Address,
		SchoolName:            req.SchoolName,
		GradeLevel:            req.GradeLevel,
		MedicalConditions:     req.MedicalConditions,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		Notes:                 req.Notes,
		EnrollmentDate:        req.EnrollmentDate,
		Modality:              modality,
		PackSize:              packSize,
		ClassesRemaining:      packSize,
		IsActive:              true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	modality := models.Modality(req.Modality)
	if !modality.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown modality")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	student.Name = req.Name
	student.Email = req.Email
	student.Phone = req.Phone
	student.ParentName = req.ParentName
	student.FatherName = req.FatherName
	student.MotherName = req.MotherName
	student.DateOfBirth = req.DateOfBirth
	student.Address = req.Address
	student.SchoolName = req.SchoolName
	student.GradeLevel = req.GradeLevel
	student.MedicalConditions = req.MedicalConditions
	student.EmergencyContactName = req.EmergencyContactName
	student.EmergencyContactPhone = req.EmergencyContactPhone
	student.Notes = req.Notes
	student.EnrollmentDate = req.EnrollmentDate
	student.Modality = modality
	student.PackSize = req.PackSize
	student.IsActive = req.IsActive
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Archive soft-deletes a student while preserving history.
func (s *StudentService) Archive(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive student")
	}
	s.logger.Info("student archived", zap.String("student_id", id))
	return nil
}

// Unarchive restores an archived student.
func (s *StudentService) Unarchive(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Unarchive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unarchive student")
	}
	return nil
}
