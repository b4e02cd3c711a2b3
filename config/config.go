// Package config loads the run configuration for the backtester CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/logger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sweep"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BACKTESTER_"

// Config represents one backtest job
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Instrument InstrumentConfig `json:"instrument" yaml:"instrument"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Report     ReportConfig     `json:"report" yaml:"report"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// StrategyConfig points at a strategy definition file and the grid `sweep`
// explores around it.
type StrategyConfig struct {
	File  string     `json:"file" yaml:"file"`
	Sweep sweep.Grid `json:"sweep,omitempty" yaml:"sweep,omitempty"`
}

type InstrumentConfig struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	CatalogFile string `json:"catalog_file,omitempty" yaml:"catalog_file,omitempty"`
}

// DataConfig selects the bars to replay. From/To accept RFC3339 or
// YYYY-MM-DD and bound the range as [From, To).
type DataConfig struct {
	BarsFile string `json:"bars_file" yaml:"bars_file"`
	From     string `json:"from,omitempty" yaml:"from,omitempty"`
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type ReportConfig struct {
	XLSXPath string `json:"xlsx_path,omitempty" yaml:"xlsx_path,omitempty"`
	OrgPath  string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

type MetricsConfig struct {
	TextfilePath string `json:"textfile_path,omitempty" yaml:"textfile_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// LoadFromFile reads path (YAML or JSON), applies BACKTESTER_* environment
// overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile exports the variables in a .env file into the process
// environment without overriding ones already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from BACKTESTER_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"CURRENCY":      &c.Account.Currency,
		"STRATEGY_FILE": &c.Strategy.File,
		"SYMBOL":        &c.Instrument.Symbol,
		"CATALOG_FILE":  &c.Instrument.CatalogFile,
		"BARS_FILE":     &c.Data.BarsFile,
		"FROM":          &c.Data.From,
		"TO":            &c.Data.To,
		"JOURNAL_TYPE":  &c.Journal.Type,
		"DB_PATH":       &c.Journal.DBPath,
		"TRADES_FILE":   &c.Journal.TradesFile,
		"EQUITY_FILE":   &c.Journal.EquityFile,
		"XLSX_PATH":     &c.Report.XLSXPath,
		"ORG_PATH":      &c.Report.OrgPath,
		"METRICS_FILE":  &c.Metrics.TextfilePath,
		"LOG_LEVEL":     &c.Log.Level,
		"LOG_FORMAT":    &c.Log.Format,
		"LOG_FILE":      &c.Log.File,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "BALANCE"); ok {
		b, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%sBALANCE: %w", EnvPrefix, err)
		}
		c.Account.Balance = b
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Strategy.File == "" {
		return fmt.Errorf("strategy.file is required")
	}
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	// custom catalogs are checked when loaded
	if c.Instrument.CatalogFile == "" {
		if _, err := market.Instruments.Lookup(c.Instrument.Symbol); err != nil {
			return fmt.Errorf("instrument.symbol: %w", err)
		}
	}
	if c.Data.BarsFile == "" {
		return fmt.Errorf("data.bars_file is required")
	}
	from, to, err := c.Data.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return fmt.Errorf("data.from must be before data.to")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if _, err := logger.ParseLevel(c.Log.Level); c.Log.Level != "" && err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Range parses From and To. Unset bounds are zero times.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if from, err = parseDate(d.From); err != nil {
		return from, to, fmt.Errorf("data.from: %w", err)
	}
	if to, err = parseDate(d.To); err != nil {
		return from, to, fmt.Errorf("data.to: %w", err)
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// LoggerConfig translates the log section for logger.New.
func (c *Config) LoggerConfig() (*logger.Config, error) {
	lc := logger.DefaultConfig()
	if c.Log.Level != "" {
		lvl, err := logger.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, err
		}
		lc.Level = lvl
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	lc.OutputPath = c.Log.File
	return lc, nil
}

// Catalog returns the instruments available to this job: the built-ins plus
// any from Instrument.CatalogFile.
func (c *Config) Catalog() (market.Catalog, error) {
	if c.Instrument.CatalogFile == "" {
		return market.Instruments, nil
	}
	custom, err := market.LoadInstruments(c.Instrument.CatalogFile)
	if err != nil {
		return nil, err
	}
	return market.Instruments.Merge(custom), nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Balance:  10000,
		},
		Strategy: StrategyConfig{
			File: "./strategy.yaml",
		},
		Instrument: InstrumentConfig{
			Symbol: "EURUSD",
		},
		Data: DataConfig{
			BarsFile: "./data/eurusd_h1.csv",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtests.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
