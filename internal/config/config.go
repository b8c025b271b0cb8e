package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Media    MediaConfig
	RSVP     RSVPConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envDefault:"*"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or mysql.
	Driver       string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN          string        `env:"DB_DSN" envDefault:"file:events.db?cache=shared&_pragma=busy_timeout(5000)"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	MaxLifetime  time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	Debug        bool          `env:"DB_DEBUG" envDefault:"false"`
}

type RedisConfig struct {
	// Addr empty disables the list cache.
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	ListTTL  time.Duration `env:"LIST_CACHE_TTL" envDefault:"30s"`
}

type KafkaConfig struct {
	Enabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	GroupID string   `env:"KAFKA_GROUP_ID" envDefault:"event-notifier-group"`
	Topics  TopicConfig
}

type TopicConfig struct {
	EventCreated   string `env:"KAFKA_TOPIC_EVENT_CREATED" envDefault:"events.created"`
	EventUpdated   string `env:"KAFKA_TOPIC_EVENT_UPDATED" envDefault:"events.updated"`
	EventDeleted   string `env:"KAFKA_TOPIC_EVENT_DELETED" envDefault:"events.deleted"`
	AttendeeJoined string `env:"KAFKA_TOPIC_ATTENDEE_JOINED" envDefault:"events.attendee.joined"`
	AttendeeLeft   string `env:"KAFKA_TOPIC_ATTENDEE_LEFT" envDefault:"events.attendee.left"`
}

// All returns every configured topic name.
func (t TopicConfig) All() []string {
	return []string{t.EventCreated, t.EventUpdated, t.EventDeleted, t.AttendeeJoined, t.AttendeeLeft}
}

// Attendance returns the topics the notifier consumes.
func (t TopicConfig) Attendance() []string {
	return []string{t.AttendeeJoined, t.AttendeeLeft}
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"ms-events"`
	OIDCIssuer string        `env:"OIDC_ISSUER"`
	OIDCClient string        `env:"OIDC_CLIENT_ID"`
}

type MediaConfig struct {
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"/uploads"`
	MaxBytes      int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

type RSVPConfig struct {
	// LeaveStrict makes leaving a missing event a NotFound instead of a no-op.
	LeaveStrict bool   `env:"LEAVE_STRICT" envDefault:"false"`
	PassSecret  string `env:"PASS_SECRET"`
}

type LogConfig struct {
	Dir     string `env:"LOG_DIR" envDefault:"logs"`
	Level   string `env:"LOG_LEVEL" envDefault:"INFO"`
	NoColor bool   `env:"LOG_NO_COLOR" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine; real deployments set the environment directly.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "mysql":
		c.Database.Driver = strings.ToLower(c.Database.Driver)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RSVP.PassSecret == "" {
		c.RSVP.PassSecret = c.Auth.JWTSecret
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}
