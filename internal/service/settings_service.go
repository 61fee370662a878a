package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Upsert(ctx context.Context, settings *models.Settings) error
}

var weekdays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// UpdateSettingsRequest replaces the academy-wide configuration.
type UpdateSettingsRequest struct {
	DefaultPackSize int      `json:"default_pack_size" validate:"required,min=1"`
	ClassDay        string   `json:"class_day" validate:"required"`
	PaymentMethods  []string `json:"payment_methods" validate:"required,min=1,dive,required"`
}

// SettingsService manages the configuration singleton.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the current settings, falling back to defaults before first save.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update replaces the settings row.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*models.Settings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	if !weekdays[req.ClassDay] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class day must be a weekday name")
	}
	settings := &models.Settings{
		ID:              models.SettingsID,
		DefaultPackSize: req.DefaultPackSize,
		ClassDay:        req.ClassDay,
		PaymentMethods:  pq.StringArray(req.PaymentMethods),
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	s.logger.Info("settings updated",
		zap.Int("default_pack_size", settings.DefaultPackSize),
		zap.String("class_day", settings.ClassDay))
	return settings, nil
}
