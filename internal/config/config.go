package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	EventsNone     = "none"
	EventsKafka    = "kafka"
	EventsRabbitMQ = "rabbitmq"
)

type Config struct {
	HTTP_PORT       string        `env:"HTTP_PORT" toml:"http_port"`
	STORAGE         string        `env:"STORAGE" toml:"storage"`
	SQLITE_PATH     string        `env:"SQLITE_PATH" toml:"sqlite_path"`
	DB_STRING       string        `env:"DB_STRING" toml:"db_string"`
	DAILY_LIMIT     int           `env:"DAILY_LIMIT" toml:"daily_limit"`
	STORAGE_TIMEOUT time.Duration `env:"STORAGE_TIMEOUT" toml:"-"`

	EVENTS             string `env:"EVENTS" toml:"events"`
	KAFKA_BROKERS      string `env:"KAFKA_BROKERS" toml:"kafka_brokers"`
	KAFKA_TOPIC        string `env:"KAFKA_TOPIC" toml:"kafka_topic"`
	KAFKA_INTAKE_TOPIC string `env:"KAFKA_INTAKE_TOPIC" toml:"kafka_intake_topic"`
	KAFKA_GROUP_ID     string `env:"KAFKA_GROUP_ID" toml:"kafka_group_id"`
	RABBITMQ_URL       string `env:"RABBITMQ_URL" toml:"rabbitmq_url"`
	RABBITMQ_EXCHANGE  string `env:"RABBITMQ_EXCHANGE" toml:"rabbitmq_exchange"`
}

// fileConfig mirrors Config for the optional TOML file; the timeout is a
// duration string there ("5s").
type fileConfig struct {
	Config
	StorageTimeout string `toml:"storage_timeout"`
}

func Default() *Config {
	return &Config{
		HTTP_PORT:         "8080",
		STORAGE:           StorageSQLite,
		SQLITE_PATH:       defaultSQLitePath(),
		DAILY_LIMIT:       8,
		STORAGE_TIMEOUT:   5 * time.Second,
		EVENTS:            EventsNone,
		KAFKA_TOPIC:       "laundry.orders",
		KAFKA_GROUP_ID:    "laundry-queue",
		RABBITMQ_EXCHANGE: "laundry.events",
	}
}

// LoadConfig builds the configuration from defaults, the TOML file named by
// CONFIG_FILE (if any) and the environment, in that order of precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load is LoadConfig with an explicit file path; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	fc := fileConfig{Config: *c}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.StorageTimeout != "" {
		d, err := time.ParseDuration(fc.StorageTimeout)
		if err != nil {
			return fmt.Errorf("storage_timeout: %w", err)
		}
		fc.Config.STORAGE_TIMEOUT = d
	}
	*c = fc.Config
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.HTTP_PORT, "HTTP_PORT")
	setString(&c.STORAGE, "STORAGE")
	setString(&c.SQLITE_PATH, "SQLITE_PATH")
	setString(&c.DB_STRING, "DB_STRING")
	setString(&c.EVENTS, "EVENTS")
	setString(&c.KAFKA_BROKERS, "KAFKA_BROKERS")
	setString(&c.KAFKA_TOPIC, "KAFKA_TOPIC")
	setString(&c.KAFKA_INTAKE_TOPIC, "KAFKA_INTAKE_TOPIC")
	setString(&c.KAFKA_GROUP_ID, "KAFKA_GROUP_ID")
	setString(&c.RABBITMQ_URL, "RABBITMQ_URL")
	setString(&c.RABBITMQ_EXCHANGE, "RABBITMQ_EXCHANGE")

	if v := os.Getenv("DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DAILY_LIMIT: %w", err)
		}
		c.DAILY_LIMIT = n
	}
	if v := os.Getenv("STORAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STORAGE_TIMEOUT: %w", err)
		}
		c.STORAGE_TIMEOUT = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DAILY_LIMIT < 1 {
		errs = append(errs, fmt.Errorf("daily limit must be positive, got %d", c.DAILY_LIMIT))
	}
	if c.STORAGE_TIMEOUT <= 0 {
		errs = append(errs, errors.New("storage timeout must be positive"))
	}

	switch c.STORAGE {
	case StorageSQLite:
		if c.SQLITE_PATH == "" {
			errs = append(errs, errors.New("sqlite storage requires SQLITE_PATH"))
		}
	case StoragePostgres:
		if c.DB_STRING == "" {
			errs = append(errs, errors.New("postgres storage requires DB_STRING"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.STORAGE))
	}

	switch c.EVENTS {
	case EventsNone, "":
	case EventsKafka:
		if c.KAFKA_BROKERS == "" {
			errs = append(errs, errors.New("kafka events require KAFKA_BROKERS"))
		}
	case EventsRabbitMQ:
		if c.RABBITMQ_URL == "" {
			errs = append(errs, errors.New("rabbitmq events require RABBITMQ_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events backend %q", c.EVENTS))
	}

	return errors.Join(errs...)
}

// LockPath is the file guarding the local store against a second writer process.
func (c *Config) LockPath() string {
	if c.STORAGE == StorageSQLite && c.SQLITE_PATH != "" {
		return c.SQLITE_PATH + ".lock"
	}
	return filepath.Join(os.TempDir(), "laundry-queue.lock")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func defaultSQLitePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "laundry-queue", "queue.db")
	}
	return "laundry-queue.db"
}
