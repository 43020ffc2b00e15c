package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
const (
	DefaultAddr                  = ":50051"
	DefaultReadTimeout           = 10 * time.Second
	DefaultWriteTimeout          = 10 * time.Second
	DefaultShutdownTimeout       = 30 * time.Second
	DefaultMaxActiveBatchRuns    = 500
	DefaultCleanupInterval       = 60 * time.Second
	DefaultAbandonedBatchTimeout = 5 * time.Second
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
	DefaultFeedBufferSize        = 1024
	DefaultStreamPath            = "/v1/stream"
	DefaultStreamSendBuffer      = 64
	DefaultStreamWriteTimeout    = 5 * time.Second
	DefaultRedisAddr             = "localhost:6379"
	DefaultRedisKeyPrefix        = "price:"
	DefaultDBPort                = 5432
	DefaultDBSSLMode             = "prefer"
	DefaultMaxConns              = 10
	DefaultMinConns              = 2
	DefaultWriterBatchSize       = 1000
	DefaultWriterFlushInterval   = 1 * time.Second
)

// DefaultSupportedInstruments is the instrument whitelist used when none is configured.
var DefaultSupportedInstruments = []string{"AIR", "TEAM", "NEE", "SAF", "TKWY", "VOW", "RDSA"}

// ApplyDefaults fills unset fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = uuid.NewString()
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Service defaults
	if len(c.Service.SupportedInstruments) == 0 {
		c.Service.SupportedInstruments = append([]string(nil), DefaultSupportedInstruments...)
	}
	if c.Service.MaxActiveBatchRuns == 0 {
		c.Service.MaxActiveBatchRuns = DefaultMaxActiveBatchRuns
	}
	if c.Service.CleanupInterval == 0 {
		c.Service.CleanupInterval = DefaultCleanupInterval
	}
	if c.Service.AbandonedBatchTimeout == 0 {
		c.Service.AbandonedBatchTimeout = DefaultAbandonedBatchTimeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Stream defaults
	if c.Stream.Path == "" {
		c.Stream.Path = DefaultStreamPath
	}
	if c.Stream.SendBuffer == 0 {
		c.Stream.SendBuffer = DefaultStreamSendBuffer
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultStreamWriteTimeout
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Database defaults
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

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultWriterBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultWriterFlushInterval
	}
}
