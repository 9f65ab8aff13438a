package config

import (
	"fmt"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateStatic rejects a configuration the gateway cannot safely run
// with. A failure here is fatal at startup: the process must refuse to
// become ready rather than run with a missing secret or destination URL.
func ValidateStatic(cfg *Config) error {
	var errs []error

	if err := validateServer(cfg.Server); err != nil {
		errs = append(errs, err)
	}
	if err := validateWebhook(cfg.Webhook); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateDestinations(cfg.Destinations)...)
	if err := validateDependencies(cfg.Dependencies); err != nil {
		errs = append(errs, err)
	}
	if err := validateRateLimit(cfg.RateLimit); err != nil {
		errs = append(errs, err)
	}
	if err := validateQueue(cfg.Queue); err != nil {
		errs = append(errs, err)
	}
	if err := validateWorker(cfg.Worker); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}

func validateWebhook(cfg WebhookConfig) error {
	if cfg.VerifyToken == "" {
		return &ValidationError{
			Field:   "webhook.verify_token",
			Message: "verify token is required",
		}
	}
	if cfg.SigningSecret == "" {
		return &ValidationError{
			Field:   "webhook.signing_secret",
			Message: "signing secret is required",
		}
	}
	return nil
}

func validateDestinations(cfg DestinationsConfig) []error {
	var errs []error
	for key, url := range cfg.URLMap() {
		if url == "" {
			errs = append(errs, &ValidationError{
				Field:   "destinations." + key,
				Message: "forwarding URL is required",
			})
		}
	}
	return errs
}

func validateDependencies(cfg DependenciesConfig) error {
	if cfg.ExternalAPI.URL == "" {
		return &ValidationError{
			Field:   "dependencies.external_api.url",
			Message: "external API URL is required",
		}
	}
	if cfg.Redis.Host == "" {
		return &ValidationError{
			Field:   "dependencies.redis.host",
			Message: "redis host is required",
		}
	}
	if cfg.Postgres.Host == "" {
		return &ValidationError{
			Field:   "dependencies.postgres.host",
			Message: "postgres host is required",
		}
	}
	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if cfg.MaxRequests < 1 {
		return &ValidationError{
			Field:   "rate_limit.max_requests",
			Message: "max requests must be positive",
		}
	}
	if cfg.WindowMs < 1 {
		return &ValidationError{
			Field:   "rate_limit.window_ms",
			Message: "window must be positive",
		}
	}
	return nil
}

func validateQueue(cfg QueueConfig) error {
	switch cfg.Type {
	case "redis":
		return nil
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "queue.kafka.brokers",
				Message: "at least one kafka broker is required",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "queue.type",
			Message: fmt.Sprintf("unknown queue type %q", cfg.Type),
		}
	}
}

func validateWorker(cfg WorkerConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.PhoneNumberID == "" {
		return &ValidationError{
			Field:   "worker.phone_number_id",
			Message: "phone number id is required when the worker is enabled",
		}
	}
	if cfg.AccessToken == "" {
		return &ValidationError{
			Field:   "worker.access_token",
			Message: "access token is required when the worker is enabled",
		}
	}
	return nil
}
