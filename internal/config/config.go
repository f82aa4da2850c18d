package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/psds-microservice/support-relay/internal/database"
	"github.com/psds-microservice/support-relay/internal/errs"
	"github.com/psds-microservice/support-relay/internal/relay"
)

type Config struct {
	// Бот
	APIToken  string `env:"API_TOKEN"`
	ChannelID string `env:"CHANNEL_ID"`
	GroupID   int64  `env:"GROUP_ID"`

	AppHost   string `env:"APP_HOST" envDefault:"0.0.0.0"`
	HTTPPort  string `env:"APP_PORT" envDefault:"8097"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// long-poll таймаут getUpdates
	PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"10s"`
	// сколько сбоев приёма подряд терпеть до выхода, 0 без ограничения
	PollMaxRetries uint64 `env:"POLL_MAX_RETRIES" envDefault:"0"`
	// сколько держать сообщения пользователя до привязки ветки в группе
	AnchorWait time.Duration `env:"ANCHOR_WAIT" envDefault:"30s"`

	// брокеры через запятую; пусто, и события не отправляются
	KafkaBrokers     string `env:"KAFKA_BROKERS"`
	KafkaTopicTicket string `env:"KAFKA_TOPIC_TICKET" envDefault:"support.tickets"`

	DB struct {
		Driver   string `env:"DRIVER" envDefault:"sqlite"`
		Path     string `env:"PATH" envDefault:"appeals.db"`
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     string `env:"PORT" envDefault:"5432"`
		User     string `env:"USER" envDefault:"postgres"`
		Password string `env:"PASSWORD"`
		Database string `env:"DATABASE" envDefault:"support_relay"`
		SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	} `envPrefix:"DB_"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse env: %w", errs.ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate проверяет всё, что нужно боту.
func (c *Config) Validate() error {
	var problems []error
	if c.APIToken == "" {
		problems = append(problems, errors.New("API_TOKEN is required"))
	}
	if c.ChannelID == "" {
		problems = append(problems, errors.New("CHANNEL_ID is required"))
	} else if _, err := relay.ParseTarget(c.ChannelID); err != nil {
		problems = append(problems, fmt.Errorf("CHANNEL_ID: %w", err))
	}
	if c.GroupID == 0 {
		problems = append(problems, errors.New("GROUP_ID is required"))
	}
	if c.AnchorWait < 0 {
		problems = append(problems, errors.New("ANCHOR_WAIT must not be negative"))
	}
	if err := c.ValidateStorage(); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", errs.ErrConfiguration, errors.Join(problems...))
	}
	return nil
}

// ValidateStorage проверяет только настройки базы (команды migrate, republish).
func (c *Config) ValidateStorage() error {
	switch c.DB.Driver {
	case database.DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("%w: DB_PATH is required for sqlite", errs.ErrConfiguration)
		}
	case database.DriverPostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			return fmt.Errorf("%w: DB_HOST and DB_DATABASE are required", errs.ErrConfiguration)
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return fmt.Errorf("%w: in production DB_PASSWORD is required", errs.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown DB_DRIVER %q", errs.ErrConfiguration, c.DB.Driver)
	}
	return nil
}

// Broadcast разбирает CHANNEL_ID.
func (c *Config) Broadcast() (relay.Target, error) {
	t, err := relay.ParseTarget(c.ChannelID)
	if err != nil {
		return relay.Target{}, fmt.Errorf("%w: CHANNEL_ID: %w", errs.ErrConfiguration, err)
	}
	return t, nil
}

// StorageDSN возвращает строку подключения для database.Open.
func (c *Config) StorageDSN() string {
	if c.DB.Driver == database.DriverSQLite {
		return c.DB.Path
	}
	return c.DSN()
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}
