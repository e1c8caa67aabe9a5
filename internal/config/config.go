package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/islandechoes/health-api/pkg/auth"
	"github.com/islandechoes/health-api/pkg/messaging/redis"
	"github.com/islandechoes/health-api/pkg/worker"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Outbox    OutboxConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Portal    PortalConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	RetryBackoff int    `mapstructure:"retry_backoff_ms"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize           int `mapstructure:"batch_size"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	RetryAttempts       int `mapstructure:"retry_attempts"`
	RetryDelaySeconds   int `mapstructure:"retry_delay_seconds"`
	RetentionDays       int `mapstructure:"retention_days"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// PortalConfig holds the browser-facing base URL used in emails and the
// sign-out redirect allow list.
type PortalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *Config) ToJWTConfig() auth.Config {
	return auth.Config{
		Secret:        c.JWT.Secret,
		RefreshSecret: c.JWT.RefreshSecret,
		Expiry:        time.Duration(c.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(c.JWT.RefreshExpiryHours) * time.Hour,
	}
}

func (c *Config) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: time.Duration(c.Redis.RetryBackoff) * time.Millisecond,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

func (o OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     o.BatchSize,
		PollInterval:  time.Duration(o.PollIntervalSeconds) * time.Second,
		RetryAttempts: o.RetryAttempts,
		RetryDelay:    time.Duration(o.RetryDelaySeconds) * time.Second,
	}
}

// WorkerEnv carries worker-only overrides read from the environment so the
// worker deployment can tune polling without a config file change.
type WorkerEnv struct {
	BatchSize     int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval  time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	HealthPort    int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
}

func LoadWorkerEnv() (*WorkerEnv, error) {
	var env WorkerEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process worker env: %w", err)
	}
	return &env, nil
}
