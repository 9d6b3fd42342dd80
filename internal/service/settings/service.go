package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// ErrSettingsNotFound indicates no configuration has been persisted yet.
var ErrSettingsNotFound = errors.New("alert settings not found")

// ErrInvalidSettings wraps validation failures returned by Update.
var ErrInvalidSettings = errors.New("invalid alert settings")

// Repository persists the alert configuration document.
type Repository interface {
	GetAlertConfig(ctx context.Context) (models.AlertConfig, error)
	SaveAlertConfig(ctx context.Context, cfg models.AlertConfig) error
}

// Service reads the alert configuration on every evaluation cycle and owns the
// explicit update operation.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService wires a settings service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Load returns the persisted configuration, or the defaults when nothing is
// stored or the store cannot be read.
func (s *Service) Load(ctx context.Context) models.AlertConfig {
	if s.repo == nil {
		return models.DefaultAlertConfig()
	}

	cfg, err := s.repo.GetAlertConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			s.logger.Debug("no alert settings stored, using defaults")
		} else {
			s.logger.Warn("failed to load alert settings, using defaults", zap.Error(err))
		}
		return models.DefaultAlertConfig()
	}

	if err := cfg.Validate(); err != nil {
		s.logger.Warn("stored alert settings invalid, using defaults", zap.Error(err))
		return models.DefaultAlertConfig()
	}
	return cfg
}

// Update validates and persists a new configuration.
func (s *Service) Update(ctx context.Context, cfg models.AlertConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.repo == nil {
		return errors.New("settings repository not configured")
	}
	if err := s.repo.SaveAlertConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save alert settings: %w", err)
	}
	s.logger.Info("alert settings updated",
		zap.Int("pd_min", cfg.PDCheckWindowMinDays),
		zap.Int("pd_max", cfg.PDCheckWindowMaxDays),
		zap.Bool("low_stock", cfg.LowStockEnabled))
	return nil
}

// MemoryRepository keeps the configuration in process memory.
type MemoryRepository struct {
	mu  sync.RWMutex
	cfg *models.AlertConfig
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// GetAlertConfig implements Repository.
func (r *MemoryRepository) GetAlertConfig(context.Context) (models.AlertConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return models.AlertConfig{}, ErrSettingsNotFound
	}
	return *r.cfg, nil
}

// SaveAlertConfig implements Repository.
func (r *MemoryRepository) SaveAlertConfig(_ context.Context, cfg models.AlertConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = &cfg
	return nil
}
