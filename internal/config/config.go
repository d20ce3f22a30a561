package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port  string `yaml:"port"`
	Store string `yaml:"store"` // sqlite | mongo

	DBDSN    string `yaml:"db_dsn"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	TokenSecret string        `yaml:"access_token"`
	TokenTTL    time.Duration `yaml:"token_ttl"`

	StripeKey        string        `yaml:"stripe_secret_key"`
	Currency         string        `yaml:"payment_currency"`
	PaymentTimeout   time.Duration `yaml:"payment_timeout"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPassword    string        `yaml:"redis_password"`
	KafkaBrokers     []string      `yaml:"kafka_brokers"`
	KafkaTopicPrefix string        `yaml:"kafka_topic_prefix"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
}

// Load reads .env (optional), the YAML file named by CONFIG_FILE (optional),
// then environment variables, which win over both.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &c.Port)
	str("STORE", &c.Store)
	str("DB_DSN", &c.DBDSN)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DB", &c.MongoDB)
	str("ACCESS_TOKEN", &c.TokenSecret)
	str("STRIPE_SECRET_KEY", &c.StripeKey)
	str("PAYMENT_CURRENCY", &c.Currency)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("KAFKA_TOPIC_PREFIX", &c.KafkaTopicPrefix)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("LOG_FILE", &c.LogFile)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitCSV(v)
	}
	if err := dur("TOKEN_TTL", &c.TokenTTL); err != nil {
		return err
	}
	return dur("PAYMENT_TIMEOUT", &c.PaymentTimeout)
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "5000"
	}
	if c.Store == "" {
		c.Store = "sqlite"
	}
	if c.DBDSN == "" {
		c.DBDSN = "easybuy.db"
	}
	if c.MongoDB == "" {
		c.MongoDB = "easybuy"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = time.Hour
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	c.Currency = strings.ToLower(c.Currency)
	if c.PaymentTimeout <= 0 {
		c.PaymentTimeout = 10 * time.Second
	}
	if c.KafkaTopicPrefix == "" {
		c.KafkaTopicPrefix = "easybuy"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("ACCESS_TOKEN is required")
	}
	switch c.Store {
	case "sqlite":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the sqlite store")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
