package config

import "time"

// ServerConfig is the root configuration for a last price server.
type ServerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   HTTPConfig     `yaml:"server"`
	Service  ServiceConfig  `yaml:"service"`
	Logging  LoggingConfig  `yaml:"logging"`
	Feed     FeedConfig     `yaml:"feed"`
	Stream   StreamConfig   `yaml:"stream"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DBConfig       `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
}

// InstanceConfig identifies this server.
type InstanceConfig struct {
	ID string `yaml:"id"` // Generated when empty
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ServiceConfig holds batch run and lookup settings.
type ServiceConfig struct {
	SupportedInstruments  []string      `yaml:"supported_instruments"`
	MaxActiveBatchRuns    int           `yaml:"max_active_batch_runs"`
	CleanupInterval       time.Duration `yaml:"cleanup_interval"`
	AbandonedBatchTimeout time.Duration `yaml:"abandoned_batch_timeout"`
	CleanupLimit          int           `yaml:"cleanup_limit"` // 0 = unlimited
	IDSeed                int64         `yaml:"id_seed"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// FeedConfig holds completion dispatcher settings.
type FeedConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// StreamConfig holds WebSocket stream settings.
type StreamConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Path         string        `yaml:"path"`
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisConfig holds the Redis mirror connection.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"` // 0 = no expiry
}

// DBConfig holds the price history database connection.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds price history writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}
