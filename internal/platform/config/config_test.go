package config

import (
	"testing"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/matching"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, matching.DefaultConfig(), cfg.Matching)
	assert.Equal(t, 4, cfg.BulkConcurrency)
	assert.Equal(t, 5, cfg.SuggestionsDefaultLimit)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"KAFKA_BROKERS":               "kafka-1:9092, kafka-2:9092",
		"RECON_MAX_WINDOW_DAYS":       3,
		"RECON_SUGGEST_THRESHOLD":     0.7,
		"RECON_AUTO_MATCH_ENABLED":    false,
		"RECON_AUTO_MATCH_CONFIDENCE": 0.98,
		"RECON_FX_ENABLED":            true,
		"RECON_FX_TOLERANCE_CENTS":    2,
		"RECON_BULK_CONCURRENCY":      0,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.Matching.MaxWindowDays)
	assert.Equal(t, 0.7, cfg.Matching.SuggestThreshold)
	assert.False(t, cfg.Matching.AutoMatchEnabled)
	assert.Equal(t, 0.98, cfg.Matching.AutoMatchConfidence)
	assert.True(t, cfg.Matching.FXEnabled)
	assert.Equal(t, int64(2), cfg.Matching.FXToleranceCents)
	assert.Equal(t, 4, cfg.BulkConcurrency, "invalid concurrency falls back to the default")
}

func TestFromViperRejectsInvalidMatching(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"RECON_SUGGEST_THRESHOLD": 1.5}))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = fromViper(newTestViper(map[string]any{"RECON_WEIGHT_DATE": -0.1}))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = fromViper(newTestViper(map[string]any{"RECON_AUTO_MATCH_CONFIDENCE": 2}))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFromViperRequiresSecretInProduction(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"IS_PRODUCTION": true}))
	assert.Error(t, err)
}
