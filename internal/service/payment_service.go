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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
	SummaryByMethod(ctx context.Context, year, month int) ([]models.PaymentMethodSummary, error)
}

type paymentSettingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// RecordPaymentRequest is the payload for recording a pack purchase.
type RecordPaymentRequest struct {
	StudentID     string    `json:"student_id" validate:"required"`
	PaymentDate   time.Time `json:"payment_date" validate:"required"`
	Amount        int64     `json:"amount" validate:"required,gt=0"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
	PackSize      int       `json:"pack_size" validate:"min=0"`
	Notes         *string   `json:"notes"`
}

// PaymentService handles pack purchases and the payment half of the ledger.
type PaymentService struct {
	repo      paymentRepository
	students  attendanceStudentReader
	settings  paymentSettingsReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, students attendanceStudentReader, settings paymentSettingsReader, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, students: students, settings: settings, validator: validate, logger: logger}
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Record registers a pack purchase. The new pack replaces whatever balance
// was left; a zero pack size falls back to the configured default.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if !methodAllowed(settings.PaymentMethods, req.PaymentMethod) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}
	packSize := req.PackSize
	if packSize == 0 {
		packSize = settings.DefaultPackSize
	}
	payment := &models.Payment{
		StudentID:     req.StudentID,
		PaymentDate:   req.PaymentDate,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PackSize:      packSize,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.logger.Info("payment recorded",
		zap.String("student_id", payment.StudentID),
		zap.Int64("amount", payment.Amount),
		zap.Int("pack_size", payment.PackSize))
	return payment, nil
}

// Update edits a payment and re-applies the pack reset.
func (s *PaymentService) Update(ctx context.Context, id string, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment cannot move between students")
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if !methodAllowed(settings.PaymentMethods, req.PaymentMethod) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}
	packSize := req.PackSize
	if packSize == 0 {
		packSize = payment.PackSize
	}
	payment.PaymentDate = req.PaymentDate
	payment.Amount = req.Amount
	payment.PaymentMethod = req.PaymentMethod
	payment.PackSize = packSize
	payment.Notes = req.Notes
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return payment, nil
}

// Delete removes a payment record. Student counters stay as they are.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

// SummaryByMethod aggregates payments per method for a period.
func (s *PaymentService) SummaryByMethod(ctx context.Context, year, month int) ([]models.PaymentMethodSummary, error) {
	if year <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is required")
	}
	summaries, err := s.repo.SummaryByMethod(ctx, year, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise payments")
	}
	return summaries, nil
}

func methodAllowed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
