package config

import (
	"errors"
	"fmt"

	"github.com/rickgao/futures-data/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Fetch.MaxRetries < 0 {
		return errors.New("fetch.max_retries must be >= 0")
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return errors.New("fetch.requests_per_second must be > 0")
	}

	if c.Pipeline.ExchangeConcurrency < 1 {
		return errors.New("pipeline.exchange_concurrency must be >= 1")
	}
	if c.Pipeline.BatchSize < 1 {
		return errors.New("pipeline.batch_size must be >= 1")
	}

	for _, name := range c.Exchanges.Enabled {
		if !model.Exchange(name).Valid() {
			return fmt.Errorf("exchanges.enabled: unknown exchange %q", name)
		}
	}
	for name := range c.Exchanges.Products {
		if !model.Exchange(name).Valid() {
			return fmt.Errorf("exchanges.products: unknown exchange %q", name)
		}
	}

	for _, s := range c.Calendar.Holidays {
		if _, err := model.ParseDate(s); err != nil {
			return fmt.Errorf("calendar.holidays: %w", err)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
