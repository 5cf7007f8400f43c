package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

const sampleYAML = `
instance:
  id: ingestor-1
database:
  host: localhost
  name: futures
  user: futures
  password: ${FUTURES_DB_PASSWORD}
fetch:
  requests_per_second: 1.5
exchanges:
  enabled: [SHFE, DCE]
  products:
    SHFE: [rb, cu]
calendar:
  holidays: ["2023-05-01", "2023-05-02", "2023-05-03"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("FUTURES_DB_PASSWORD", "secret")
	path := writeConfig(t, sampleYAML)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}

	if cfg.Instance.ID != "ingestor-1" {
		t.Errorf("Instance.ID = %q, want ingestor-1", cfg.Instance.ID)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("Database.Password = %q, want env-expanded value", cfg.Database.Password)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Fetch.RequestsPerSecond != 1.5 {
		t.Errorf("Fetch.RequestsPerSecond = %v, want 1.5 (explicit value kept)", cfg.Fetch.RequestsPerSecond)
	}
	if cfg.Fetch.Timeout != DefaultFetchTimeout {
		t.Errorf("Fetch.Timeout = %v, want default %v", cfg.Fetch.Timeout, DefaultFetchTimeout)
	}

	got := cfg.EnabledExchanges()
	if len(got) != 2 || got[0] != model.SHFE || got[1] != model.DCE {
		t.Errorf("EnabledExchanges() = %v, want [SHFE DCE]", got)
	}

	holidays, err := cfg.HolidayDates()
	if err != nil {
		t.Fatalf("HolidayDates() error = %v", err)
	}
	if len(holidays) != 3 || holidays[0] != model.NewDate(2023, time.May, 1) {
		t.Errorf("HolidayDates() = %v, want 3 dates starting 2023-05-01", holidays)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Instance.ID = "x"
		cfg.Database = DBConfig{Host: "h", Name: "n", User: "u", Password: "p"}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing instance id", func(c *Config) { c.Instance.ID = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing db password", func(c *Config) { c.Database.Password = "" }},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 20 }},
		{"unknown exchange", func(c *Config) { c.Exchanges.Enabled = []string{"NYMEX"} }},
		{"bad holiday", func(c *Config) { c.Calendar.Holidays = []string{"May 1st"} }},
		{"zero concurrency", func(c *Config) { c.Pipeline.ExchangeConcurrency = -1 }},
	}

	for _, tt := range tests {
		cfg := base()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.Instance.ID = "x"
	cfg.Database = DBConfig{Host: "h", Name: "n", User: "u", Password: "p"}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() with defaults error = %v", err)
	}
	if len(cfg.EnabledExchanges()) != 5 {
		t.Errorf("EnabledExchanges() defaults to %d exchanges, want all 5", len(cfg.EnabledExchanges()))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing file) error = nil, want error")
	}
}
