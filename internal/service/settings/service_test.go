package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

type failingRepo struct{}

func (failingRepo) GetAlertConfig(context.Context) (models.AlertConfig, error) {
	return models.AlertConfig{}, errors.New("connection refused")
}

func (failingRepo) SaveAlertConfig(context.Context, models.AlertConfig) error {
	return errors.New("connection refused")
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, models.DefaultAlertConfig(), NewService(nil, nil).Load(ctx))
	assert.Equal(t, models.DefaultAlertConfig(), NewService(NewMemoryRepository(), nil).Load(ctx))
	assert.Equal(t, models.DefaultAlertConfig(), NewService(failingRepo{}, nil).Load(ctx))
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil)

	cfg := models.DefaultAlertConfig()
	cfg.PDCheckWindowMinDays = 40
	cfg.PDCheckWindowMaxDays = 55
	cfg.LowStockEnabled = false

	require.NoError(t, svc.Update(ctx, cfg))
	assert.Equal(t, cfg, svc.Load(ctx))
}

func TestUpdateRejectsInvalidWindow(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)

	cfg := models.DefaultAlertConfig()
	cfg.PDCheckWindowMaxDays = 10

	err := svc.Update(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pd_check_window_max_days")
}

func TestUpdatePropagatesStoreFailure(t *testing.T) {
	err := NewService(failingRepo{}, nil).Update(context.Background(), models.DefaultAlertConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save alert settings")
}
