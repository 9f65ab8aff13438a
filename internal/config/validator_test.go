package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Webhook: WebhookConfig{
			VerifyToken:   "verify-me",
			SigningSecret: "signing-secret",
		},
		Destinations: DestinationsConfig{
			Easymo:    "http://easymo.internal/inbound",
			Insurance: "http://insurance.internal/inbound",
			Basket:    "http://basket.internal/inbound",
			QR:        "http://qr.internal/inbound",
			Dine:      "http://dine.internal/inbound",
		},
		Dependencies: DependenciesConfig{
			ExternalAPI: ExternalAPIConfig{URL: "http://api.internal/status"},
			Redis:       RedisConfig{Host: "localhost", Port: 6379},
			Postgres:    PostgresConfig{Host: "localhost", Port: 5432},
		},
		RateLimit: RateLimitConfig{MaxRequests: 30, WindowMs: 60000},
		Queue:     QueueConfig{Type: "redis", Name: "outbound_notifications"},
	}
}

func TestValidateStatic(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, ValidateStatic(validTestConfig()))
	})

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing verify token",
			mutate:  func(cfg *Config) { cfg.Webhook.VerifyToken = "" },
			wantErr: "verify_token",
		},
		{
			name:    "missing signing secret",
			mutate:  func(cfg *Config) { cfg.Webhook.SigningSecret = "" },
			wantErr: "signing_secret",
		},
		{
			name:    "missing destination url",
			mutate:  func(cfg *Config) { cfg.Destinations.QR = "" },
			wantErr: "destinations.qr",
		},
		{
			name:    "missing external api url",
			mutate:  func(cfg *Config) { cfg.Dependencies.ExternalAPI.URL = "" },
			wantErr: "external_api",
		},
		{
			name:    "missing redis host",
			mutate:  func(cfg *Config) { cfg.Dependencies.Redis.Host = "" },
			wantErr: "redis.host",
		},
		{
			name:    "missing postgres host",
			mutate:  func(cfg *Config) { cfg.Dependencies.Postgres.Host = "" },
			wantErr: "postgres.host",
		},
		{
			name:    "non-positive rate limit",
			mutate:  func(cfg *Config) { cfg.RateLimit.MaxRequests = 0 },
			wantErr: "max_requests",
		},
		{
			name:    "non-positive window",
			mutate:  func(cfg *Config) { cfg.RateLimit.WindowMs = 0 },
			wantErr: "window_ms",
		},
		{
			name:    "unknown queue type",
			mutate:  func(cfg *Config) { cfg.Queue.Type = "rabbitmq" },
			wantErr: "queue.type",
		},
		{
			name: "kafka queue without brokers",
			mutate: func(cfg *Config) {
				cfg.Queue.Type = "kafka"
				cfg.Queue.Kafka.Brokers = nil
			},
			wantErr: "kafka.brokers",
		},
		{
			name: "worker enabled without credentials",
			mutate: func(cfg *Config) {
				cfg.Worker.Enabled = true
			},
			wantErr: "phone_number_id",
		},
		{
			name: "worker enabled without access token",
			mutate: func(cfg *Config) {
				cfg.Worker.Enabled = true
				cfg.Worker.PhoneNumberID = "1234567890"
			},
			wantErr: "access_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStaticWorkerDisabledSkipsCredentials(t *testing.T) {
	cfg := validTestConfig()
	cfg.Worker.Enabled = false
	cfg.Worker.PhoneNumberID = ""
	cfg.Worker.AccessToken = ""
	assert.NoError(t, ValidateStatic(cfg))
}

func TestValidateStaticKafkaWithBrokers(t *testing.T) {
	cfg := validTestConfig()
	cfg.Queue.Type = "kafka"
	cfg.Queue.Kafka.Brokers = []string{"localhost:9092"}
	assert.NoError(t, ValidateStatic(cfg))
}
