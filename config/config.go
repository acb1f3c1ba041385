package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Mail      MailConfig      `yaml:"mail"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type StripeConfig struct {
	SecretKey  string `yaml:"secret_key"`
	Currency   string `yaml:"currency"`
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`

	QueueKey         string `yaml:"queue_key"`
	WorkerIntervalMs int    `yaml:"worker_interval_ms"`
	PopTimeoutMs     int    `yaml:"pop_timeout_ms"`
	MaxAttempts      int    `yaml:"max_attempts"`
	BaseBackoffMs    int    `yaml:"base_backoff_ms"`
	MaxBackoffMs     int    `yaml:"max_backoff_ms"`
	ConsumerAttempts int    `yaml:"consumer_attempts"`
}

func (m MailConfig) WorkerInterval() time.Duration {
	return time.Duration(m.WorkerIntervalMs) * time.Millisecond
}

func (m MailConfig) PopTimeout() time.Duration {
	return time.Duration(m.PopTimeoutMs) * time.Millisecond
}

func (m MailConfig) BaseBackoff() time.Duration {
	return time.Duration(m.BaseBackoffMs) * time.Millisecond
}

func (m MailConfig) MaxBackoff() time.Duration {
	return time.Duration(m.MaxBackoffMs) * time.Millisecond
}

type BookingConfig struct {
	DeparturesCacheTTLSeconds int `yaml:"departures_cache_ttl_seconds"`
}

type SchedulerConfig struct {
	GracePeriodMinutes   int `yaml:"grace_period_minutes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mail.QueueKey == "" {
		c.Mail.QueueKey = "mail:queue"
	}
	if c.Mail.WorkerIntervalMs == 0 {
		c.Mail.WorkerIntervalMs = 200
	}
	if c.Mail.PopTimeoutMs == 0 {
		c.Mail.PopTimeoutMs = 1000
	}
	if c.Mail.MaxAttempts == 0 {
		c.Mail.MaxAttempts = 5
	}
	if c.Mail.BaseBackoffMs == 0 {
		c.Mail.BaseBackoffMs = 5000
	}
	if c.Mail.MaxBackoffMs == 0 {
		c.Mail.MaxBackoffMs = 300000
	}
	if c.Mail.ConsumerAttempts == 0 {
		c.Mail.ConsumerAttempts = 3
	}
	if c.Scheduler.GracePeriodMinutes == 0 {
		c.Scheduler.GracePeriodMinutes = 15
	}
	if c.Scheduler.SweepIntervalMinutes == 0 {
		c.Scheduler.SweepIntervalMinutes = 5
	}
}
