// Package config loads service settings from defaults, an optional config
// file and LEDGER_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Dev      DevConfig      `mapstructure:"dev"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects Postgres when URL is set; otherwise the in-memory store is used.
type DatabaseConfig struct {
	URL        string `mapstructure:"url"`
	Migrations string `mapstructure:"migrations"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

// RedisConfig enables the reconciliation cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig enables the Kafka event sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	BaseBackoff  time.Duration `mapstructure:"base_backoff"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
}

// AuthConfig enables bearer-token auth when JWTSecret is set.
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience"`
}

type DevConfig struct {
	Seed bool `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations", "db/migrations")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "ledger.events")
	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.base_backoff", time.Second)
	v.SetDefault("outbox.max_backoff", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.jwt_audience", "")
	v.SetDefault("dev.seed", false)
}

// Load reads .env (if present), then LEDGER_CONFIG (if set), then the
// environment. Env var overrides use prefix LEDGER_ with '.' mapped to '_'.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}
	if c.Outbox.MaxBackoff < c.Outbox.BaseBackoff {
		return fmt.Errorf("outbox.max_backoff must not be below outbox.base_backoff")
	}
	return nil
}

// ParseLogLevel maps config values to slog levels; unknown values mean info.
func ParseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger. Format "text" selects the text
// handler; anything else is JSON.
func (c LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(c.Level)}
	if strings.EqualFold(strings.TrimSpace(c.Format), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
