package config

import (
	"fmt"
	"net/url"
	"regexp"

	"zapslack/internal/constants"
	"zapslack/pkg/expr"
	"zapslack/pkg/filter"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := ValidateSlack(cfg.Slack); err != nil {
		errors = append(errors, err)
	}

	if err := validateFilters(cfg.Filters); err != nil {
		errors = append(errors, err)
	}

	if err := validateDelivery(cfg.Delivery); err != nil {
		errors = append(errors, err)
	}

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

// ValidateSlack is used both by full-config validation and by the library
// builder, which accepts destination settings without the rest of Config.
func ValidateSlack(cfg SlackConfig) error {
	if cfg.WebhookURL == "" {
		return &ValidationError{
			Field:   "slack.webhook_url",
			Message: "webhook URL is required",
		}
	}
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			Field:   "slack.webhook_url",
			Message: fmt.Sprintf("webhook URL %q is not a valid http(s) URL", cfg.WebhookURL),
		}
	}
	if cfg.ChannelName == "" {
		return &ValidationError{
			Field:   "slack.channel_name",
			Message: "channel name is required",
		}
	}
	if cfg.Username == "" {
		return &ValidationError{
			Field:   "slack.username",
			Message: "username is required",
		}
	}
	return nil
}

func validateFilters(cfg FiltersConfig) error {
	if len(cfg.Targets) == 0 {
		return &ValidationError{
			Field:   "filters.targets",
			Message: "at least one target filter is required; forwarding every target floods the channel",
		}
	}

	chains := map[string][]FilterRule{
		"filters.targets":        cfg.Targets,
		"filters.messages":       cfg.Messages,
		"filters.event_by_field": cfg.EventByField,
	}
	for field, rules := range chains {
		for i, rule := range rules {
			if _, err := filter.ParsePolarity(rule.Polarity); err != nil {
				return &ValidationError{
					Field:   fmt.Sprintf("%s[%d].polarity", field, i),
					Message: err.Error(),
				}
			}
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return &ValidationError{
					Field:   fmt.Sprintf("%s[%d].pattern", field, i),
					Message: err.Error(),
				}
			}
		}
	}

	for i, pattern := range cfg.FieldExclusions {
		if _, err := regexp.Compile(pattern); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("filters.field_exclusions[%d]", i),
				Message: err.Error(),
			}
		}
	}

	for i, src := range cfg.Expressions {
		if err := expr.ValidateFilterExpression(src); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("filters.expressions[%d]", i),
				Message: err.Error(),
			}
		}
	}

	switch cfg.ExpressionFallback {
	case "", constants.FallbackAllow, constants.FallbackDeny:
	default:
		return &ValidationError{
			Field:   "filters.expression_fallback",
			Message: fmt.Sprintf("must be %q or %q, got %q", constants.FallbackAllow, constants.FallbackDeny, cfg.ExpressionFallback),
		}
	}

	return nil
}

func validateDelivery(cfg DeliveryConfig) error {
	if cfg.SendTimeoutSeconds < 0 {
		return &ValidationError{
			Field:   "delivery.send_timeout_seconds",
			Message: "send timeout must not be negative",
		}
	}
	if cfg.Retry.Enabled && cfg.Retry.MaxAttempts < 1 {
		return &ValidationError{
			Field:   "delivery.retry.max_attempts",
			Message: "max attempts must be at least 1 when retry is enabled",
		}
	}
	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port == 0 {
		return nil // debug server disabled
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}
