package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServerConfig) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if len(c.Service.SupportedInstruments) == 0 {
		return errors.New("service.supported_instruments must not be empty")
	}
	for i, instrument := range c.Service.SupportedInstruments {
		if strings.TrimSpace(instrument) == "" {
			return fmt.Errorf("service.supported_instruments[%d] is empty", i)
		}
	}
	if c.Service.MaxActiveBatchRuns < 1 {
		return errors.New("service.max_active_batch_runs must be >= 1")
	}
	if c.Service.CleanupInterval <= 0 {
		return errors.New("service.cleanup_interval must be > 0")
	}
	if c.Service.AbandonedBatchTimeout <= 0 {
		return errors.New("service.abandoned_batch_timeout must be > 0")
	}
	if c.Service.CleanupLimit < 0 {
		return errors.New("service.cleanup_limit must be >= 0")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	if c.Stream.Enabled {
		if !strings.HasPrefix(c.Stream.Path, "/") {
			return fmt.Errorf("stream.path must start with /, got %q", c.Stream.Path)
		}
		if c.Stream.SendBuffer < 1 {
			return errors.New("stream.send_buffer must be >= 1")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
		if c.Writer.FlushInterval <= 0 {
			return errors.New("writer.flush_interval must be > 0")
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
