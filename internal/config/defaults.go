package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFetchTimeout        = 30 * time.Second
	DefaultMaxRetries          = 3
	DefaultRetryBackoff        = time.Second
	DefaultRequestsPerSecond   = 2.0 // exchange sites throttle aggressively
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultExchangeConcurrency = 5 // one worker per exchange
	DefaultBatchSize           = 500
)

func (c *Config) applyDefaults() {
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = DefaultMaxRetries
	}
	if c.Fetch.RetryBackoff == 0 {
		c.Fetch.RetryBackoff = DefaultRetryBackoff
	}
	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = DefaultRequestsPerSecond
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Pipeline.ExchangeConcurrency == 0 {
		c.Pipeline.ExchangeConcurrency = DefaultExchangeConcurrency
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = DefaultBatchSize
	}
}
