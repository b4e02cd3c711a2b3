package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 10000.0, cfg.Account.Balance)
	assert.Equal(t, "EURUSD", cfg.Instrument.Symbol)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency is required"},
		{"negative balance", func(c *Config) { c.Account.Balance = -1000 }, "account.balance must be positive"},
		{"missing strategy file", func(c *Config) { c.Strategy.File = "" }, "strategy.file is required"},
		{"missing symbol", func(c *Config) { c.Instrument.Symbol = "" }, "instrument.symbol is required"},
		{"unknown symbol", func(c *Config) { c.Instrument.Symbol = "DOGEUSD" }, "instrument.symbol"},
		{"unknown symbol with catalog", func(c *Config) {
			c.Instrument.Symbol = "DOGEUSD"
			c.Instrument.CatalogFile = "extra.yaml"
		}, ""},
		{"missing bars", func(c *Config) { c.Data.BarsFile = "" }, "data.bars_file is required"},
		{"bad from", func(c *Config) { c.Data.From = "yesterday" }, "data.from"},
		{"inverted range", func(c *Config) {
			c.Data.From = "2024-02-01"
			c.Data.To = "2024-01-01"
		}, "data.from must be before data.to"},
		{"csv without files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }, "trades_file and equity_file"},
		{"sqlite without path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path required"},
		{"no journal", func(c *Config) { c.Journal = JournalConfig{Type: "none"} }, ""},
		{"bad journal", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Strategy.Sweep.StopLossPips = []float64{20, 30}
			cfg.Data.From = "2024-01-01"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"BACKTESTER_BALANCE":   "2500.5",
		"BACKTESTER_SYMBOL":    "GBPUSD",
		"BACKTESTER_BARS_FILE": "/data/gbp.csv",
		"BACKTESTER_LOG_LEVEL": "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 2500.5, cfg.Account.Balance)
	assert.Equal(t, "GBPUSD", cfg.Instrument.Symbol)
	assert.Equal(t, "/data/gbp.csv", cfg.Data.BarsFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "USD", cfg.Account.Currency)

	env["BACKTESTER_BALANCE"] = "lots"
	assert.Error(t, Default().ApplyEnv(lookup))
}

// Not parallel: mutates the process environment.
func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BACKTESTER_ORG_PATH=./run.org\n"), 0o644))

	t.Setenv("BACKTESTER_ORG_PATH", "")
	require.NoError(t, os.Unsetenv("BACKTESTER_ORG_PATH"))

	require.NoError(t, LoadEnvFile(envPath))
	assert.Equal(t, "./run.org", os.Getenv("BACKTESTER_ORG_PATH"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
	assert.NoError(t, LoadEnvFile(""))

	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, Default().SaveToFile(cfgPath))
	cfg, err := LoadFromFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "./run.org", cfg.Report.OrgPath)
}

func TestDataRange(t *testing.T) {
	t.Parallel()

	from, to, err := DataConfig{From: "2024-01-01", To: "2024-02-01T12:00:00Z"}.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), to)

	from, to, err = DataConfig{}.Range()
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestLoggerConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}
	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "WARN", lc.Level.String())
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	cat, err := Default().Catalog()
	require.NoError(t, err)
	_, err = cat.Lookup("EURUSD")
	assert.NoError(t, err)

	cfg := Default()
	cfg.Instrument.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Catalog()
	assert.Error(t, err)
}
