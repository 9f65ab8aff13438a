package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.read_timeout_seconds", 10)
	viper.SetDefault("server.write_timeout_seconds", 10)
	viper.SetDefault("rate_limit.max_requests", 30)
	viper.SetDefault("rate_limit.window_ms", 60000)
	viper.SetDefault("queue.type", "redis")
	viper.SetDefault("queue.name", "outbound_notifications")
	viper.SetDefault("worker.send_rps", 10.0)
	viper.SetDefault("worker.send_burst", 20)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvVariables() {
	viper.BindEnv("webhook.verify_token", "WEBHOOK_VERIFY_TOKEN")
	viper.BindEnv("webhook.signing_secret", "WEBHOOK_SIGNING_SECRET")

	viper.BindEnv("destinations.easymo", "DESTINATIONS_EASYMO")
	viper.BindEnv("destinations.insurance", "DESTINATIONS_INSURANCE")
	viper.BindEnv("destinations.basket", "DESTINATIONS_BASKET")
	viper.BindEnv("destinations.qr", "DESTINATIONS_QR")
	viper.BindEnv("destinations.dine", "DESTINATIONS_DINE")

	viper.BindEnv("dependencies.external_api.url", "DEPENDENCIES_EXTERNAL_API_URL")
	viper.BindEnv("dependencies.external_api.api_key", "DEPENDENCIES_EXTERNAL_API_KEY")

	viper.BindEnv("dependencies.redis.host", "DEPENDENCIES_REDIS_HOST")
	viper.BindEnv("dependencies.redis.port", "DEPENDENCIES_REDIS_PORT")
	viper.BindEnv("dependencies.redis.password", "DEPENDENCIES_REDIS_PASSWORD")
	viper.BindEnv("dependencies.redis.db", "DEPENDENCIES_REDIS_DB")

	viper.BindEnv("dependencies.postgres.host", "DEPENDENCIES_POSTGRES_HOST")
	viper.BindEnv("dependencies.postgres.port", "DEPENDENCIES_POSTGRES_PORT")
	viper.BindEnv("dependencies.postgres.user", "DEPENDENCIES_POSTGRES_USER")
	viper.BindEnv("dependencies.postgres.password", "DEPENDENCIES_POSTGRES_PASSWORD")
	viper.BindEnv("dependencies.postgres.dbname", "DEPENDENCIES_POSTGRES_DBNAME")
	viper.BindEnv("dependencies.postgres.sslmode", "DEPENDENCIES_POSTGRES_SSLMODE")

	viper.BindEnv("queue.type", "QUEUE_TYPE")
	viper.BindEnv("queue.name", "QUEUE_NAME")
	viper.BindEnv("queue.kafka.brokers", "QUEUE_KAFKA_BROKERS")
	viper.BindEnv("queue.kafka.group_id", "QUEUE_KAFKA_GROUP_ID")

	viper.BindEnv("worker.phone_number_id", "WORKER_PHONE_NUMBER_ID")
	viper.BindEnv("worker.access_token", "WORKER_ACCESS_TOKEN")
	viper.BindEnv("worker.api_base_url", "WORKER_API_BASE_URL")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("QUEUE_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Queue.Kafka.Brokers = brokers
		}
	}

	return nil
}
