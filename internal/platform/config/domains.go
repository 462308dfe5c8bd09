package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// FetchConfig holds outbound HTTP fetch settings.
type FetchConfig struct {
	RPS        float64
	Burst      int
	Timeout    time.Duration
	MaxRetries int
}

// DatabaseCfg returns the database configuration extracted from Config.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

// FetchCfg returns the outbound fetch configuration.
func (c *Config) FetchCfg() FetchConfig {
	return FetchConfig{
		RPS:        c.FetchRPS,
		Burst:      c.FetchBurst,
		Timeout:    c.FetchTimeout,
		MaxRetries: c.FetchMaxRetries,
	}
}
