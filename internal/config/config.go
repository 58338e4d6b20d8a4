package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	PriceTopic    string   `yaml:"price_topic"`
	AnalysisTopic string   `yaml:"analysis_topic"`
	GroupID       string   `yaml:"group_id"`
}

// RedisConfig holds Redis configuration for the latest-result publisher
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	Channel   string `yaml:"channel"`
}

// AnalysisConfig holds analysis engine and scheduling configuration
type AnalysisConfig struct {
	Precision     int    `yaml:"precision"`
	HistoryLimit  int    `yaml:"history_limit"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			Password:       "postgres",
			DBName:         "marketanalytics",
			SSLMode:        "disable",
			MigrationsPath: "db/migrations",
		},
		Kafka: KafkaConfig{
			Enabled:       true,
			Brokers:       []string{"localhost:9092"},
			PriceTopic:    "market-prices",
			AnalysisTopic: "analysis-results",
			GroupID:       "market-analytics",
		},
		Redis: RedisConfig{
			Enabled:   true,
			Addr:      "localhost:6379",
			KeyPrefix: "analytics",
			Channel:   "analysis-results",
		},
		Analysis: AnalysisConfig{
			Precision:    4,
			HistoryLimit: 250,
			Schedule:     "0 18 * * 1-5",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order. A .env file in the working directory
// is loaded first when present. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.PriceTopic = getEnv("KAFKA_PRICE_TOPIC", c.Kafka.PriceTopic)
	c.Kafka.AnalysisTopic = getEnv("KAFKA_ANALYSIS_TOPIC", c.Kafka.AnalysisTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", c.Redis.KeyPrefix)
	c.Redis.Channel = getEnv("REDIS_CHANNEL", c.Redis.Channel)

	c.Analysis.Precision = getEnvInt("ANALYSIS_PRECISION", c.Analysis.Precision)
	c.Analysis.HistoryLimit = getEnvInt("ANALYSIS_HISTORY_LIMIT", c.Analysis.HistoryLimit)
	c.Analysis.Schedule = getEnv("ANALYSIS_SCHEDULE", c.Analysis.Schedule)
	c.Analysis.RetentionDays = getEnvInt("ANALYSIS_RETENTION_DAYS", c.Analysis.RetentionDays)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate checks values that would make the service misbehave
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Analysis.Precision < 0 || c.Analysis.Precision > 10 {
		return fmt.Errorf("analysis precision must be between 0 and 10, got %d", c.Analysis.Precision)
	}
	if c.Analysis.HistoryLimit <= 0 {
		return fmt.Errorf("analysis history limit must be positive, got %d", c.Analysis.HistoryLimit)
	}
	if c.Analysis.RetentionDays < 0 {
		return fmt.Errorf("analysis retention days must not be negative, got %d", c.Analysis.RetentionDays)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required when kafka is enabled")
	}
	return nil
}

// Retention returns how long stored rows are kept, or 0 to keep them forever
func (a *AnalysisConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// Addr returns the HTTP listen address
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
