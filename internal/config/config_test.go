package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeTempConfig(t, `
risk:
  confidence_level: 0.99
  simulation_count: 5000
  random_seed: 42
  quantile_method: empirical
data_source:
  provider: mock
  symbols: [SPY, QQQ]
  lookback_days: 500
store:
  kind: parquet
  mode: append
  archive_samples: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	p := cfg.Pipeline()
	assert.Equal(t, 0.99, p.ConfidenceLevel)
	assert.Equal(t, 5000, p.SimulationCount)
	require.NotNil(t, p.RandomSeed)
	assert.Equal(t, int64(42), *p.RandomSeed)
	assert.Equal(t, "empirical", string(p.QuantileMethod))

	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.DataSource.Symbols)
	assert.Equal(t, "append", cfg.Store.Mode)
	assert.False(t, *cfg.Store.ArchiveSamples)
	assert.Equal(t, "snappy", cfg.Store.Parquet.Compression)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.95, cfg.Risk.ConfidenceLevel)
	assert.Equal(t, 10000, cfg.Risk.SimulationCount)
	assert.Nil(t, cfg.Risk.RandomSeed)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.True(t, *cfg.Store.ArchiveSamples)
	assert.Equal(t, "0 30 22 * * 1-5", cfg.Schedule.Cron)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VAR_CONFIDENCE", "0.975")
	t.Setenv("VAR_SIMULATIONS", "2000")
	t.Setenv("VAR_SEED", "7")
	t.Setenv("VAR_SYMBOLS", "spy, iwm ,")
	t.Setenv("VSTRADER_BASE_URL", "http://vstrader.local")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.975, cfg.Risk.ConfidenceLevel)
	assert.Equal(t, 2000, cfg.Risk.SimulationCount)
	assert.Equal(t, int64(7), *cfg.Risk.RandomSeed)
	assert.Equal(t, []string{"SPY", "IWM"}, cfg.DataSource.Symbols)
	assert.Equal(t, "vstrader", cfg.DataSource.Provider)
}

func TestLoad_ExplicitZeroIsRejected(t *testing.T) {
	t.Run("env confidence", func(t *testing.T) {
		t.Setenv("VAR_CONFIDENCE", "0")
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 0.0, cfg.Risk.ConfidenceLevel)
		assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfidence)
	})
	t.Run("env simulations", func(t *testing.T) {
		t.Setenv("VAR_SIMULATIONS", "0")
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Risk.SimulationCount)
		assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfiguration)
	})
	t.Run("yaml confidence", func(t *testing.T) {
		cfg, err := Load(writeTempConfig(t, "risk:\n  confidence_level: 0\n"))
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfidence)
	})
	t.Run("yaml simulations", func(t *testing.T) {
		cfg, err := Load(writeTempConfig(t, "risk:\n  simulation_count: 0\n"))
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfiguration)
	})
}

func TestLoad_PartialSectionKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "risk:\n  simulation_count: 500\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.Risk.SimulationCount)
	assert.Equal(t, 0.95, cfg.Risk.ConfidenceLevel)
	assert.Equal(t, "linear", cfg.Risk.QuantileMethod)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("VAR_SIMULATIONS", "lots")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
	}{
		{"confidence out of range", "risk:\n  confidence_level: 1.5\n", model.ErrInvalidConfidence},
		{"negative simulations", "risk:\n  simulation_count: -1\n", model.ErrInvalidConfiguration},
		{"unknown provider", "data_source:\n  provider: bloomberg\n", nil},
		{"vstrader without url", "data_source:\n  provider: vstrader\n", nil},
		{"unknown store", "store:\n  kind: postgres\n", nil},
		{"half telegram", "telegram:\n  bot_token: abc\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTempConfig(t, tt.content))
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
