package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Webhook        WebhookConfig        `mapstructure:"webhook"`
	Destinations   DestinationsConfig   `mapstructure:"destinations"`
	Dependencies   DependenciesConfig   `mapstructure:"dependencies"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Worker         WorkerConfig         `mapstructure:"worker"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

// WebhookConfig holds the two provider secrets. The verify token is used
// only for the one-time subscription handshake; the signing secret signs
// every delivery body.
type WebhookConfig struct {
	VerifyToken   string `mapstructure:"verify_token"`
	SigningSecret string `mapstructure:"signing_secret"`
}

// DestinationsConfig maps each destination key to its forwarding URL. An
// empty URL for any key is a startup-time configuration error.
type DestinationsConfig struct {
	Easymo    string `mapstructure:"easymo"`
	Insurance string `mapstructure:"insurance"`
	Basket    string `mapstructure:"basket"`
	QR        string `mapstructure:"qr"`
	Dine      string `mapstructure:"dine"`
}

func (d DestinationsConfig) URLMap() map[string]string {
	return map[string]string{
		"easymo":    d.Easymo,
		"insurance": d.Insurance,
		"basket":    d.Basket,
		"qr":        d.QR,
		"dine":      d.Dine,
	}
}

type DependenciesConfig struct {
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
}

type ExternalAPIConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	TimeoutSeconds time.Duration `mapstructure:"timeout_seconds"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RateLimitConfig struct {
	MaxRequests int `mapstructure:"max_requests"`
	WindowMs    int `mapstructure:"window_ms"`
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

type QueueConfig struct {
	Type  string      `mapstructure:"type"`
	Name  string      `mapstructure:"name"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

type WorkerConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	PhoneNumberID string  `mapstructure:"phone_number_id"`
	AccessToken   string  `mapstructure:"access_token"`
	APIBaseURL    string  `mapstructure:"api_base_url"`
	SendRPS       float64 `mapstructure:"send_rps"`
	SendBurst     int     `mapstructure:"send_burst"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
