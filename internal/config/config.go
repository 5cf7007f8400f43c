package config

import (
	"time"

	"github.com/rickgao/futures-data/internal/model"
)

// Config is the root configuration for an ingestor instance.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Database  DBConfig        `yaml:"database"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Exchanges ExchangesConfig `yaml:"exchanges"`
	Calendar  CalendarConfig  `yaml:"calendar"`
}

// InstanceConfig identifies this ingestor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// FetchConfig holds HTTP fetcher settings.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	// RequestsPerSecond throttles calls against the exchange sites.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Per-exchange daily table URL overrides; defaults point at the
	// public endpoints.
	Sources map[string]string `yaml:"sources"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// ExchangeConcurrency caps how many exchanges run in parallel.
	// Dates within one exchange always run sequentially.
	ExchangeConcurrency int `yaml:"exchange_concurrency"`

	// BatchSize bounds rows per storage upsert batch.
	BatchSize int `yaml:"batch_size"`
}

// ExchangesConfig selects which exchanges and products to ingest.
// An empty product list means every product the exchange reports.
type ExchangesConfig struct {
	Enabled  []string            `yaml:"enabled"`
	Products map[string][]string `yaml:"products"`
}

// CalendarConfig lists exchange closure dates ("2006-01-02"). Weekends
// are always closed and need not be listed.
type CalendarConfig struct {
	Holidays []string `yaml:"holidays"`
}

// EnabledExchanges returns the configured exchange set in canonical order.
func (c *Config) EnabledExchanges() []model.Exchange {
	if len(c.Exchanges.Enabled) == 0 {
		return model.Exchanges()
	}
	out := make([]model.Exchange, 0, len(c.Exchanges.Enabled))
	for _, name := range c.Exchanges.Enabled {
		out = append(out, model.Exchange(name))
	}
	return out
}

// ProductFilter returns the per-exchange product restrictions keyed by
// exchange. Exchanges without an entry process every product.
func (c *Config) ProductFilter() map[model.Exchange][]string {
	if len(c.Exchanges.Products) == 0 {
		return nil
	}
	out := make(map[model.Exchange][]string, len(c.Exchanges.Products))
	for name, products := range c.Exchanges.Products {
		out[model.Exchange(name)] = products
	}
	return out
}

// HolidayDates parses the configured holiday list.
func (c *Config) HolidayDates() ([]model.Date, error) {
	dates := make([]model.Date, 0, len(c.Calendar.Holidays))
	for _, s := range c.Calendar.Holidays {
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
