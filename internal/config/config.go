package config

import (
	"time"
)

type Config struct {
	Slack          SlackConfig          `mapstructure:"slack"`
	Filters        FiltersConfig        `mapstructure:"filters"`
	Delivery       DeliveryConfig       `mapstructure:"delivery"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Server         ServerConfig         `mapstructure:"server"`
}

// SlackConfig is the destination routing data stamped onto every payload.
type SlackConfig struct {
	WebhookURL  string `mapstructure:"webhook_url"`
	ChannelName string `mapstructure:"channel_name"`
	Username    string `mapstructure:"username"`
	IconEmoji   string `mapstructure:"icon_emoji"`
}

// FilterRule is one regex predicate in a chain. Polarity is "additive"
// (reject on match) or "subtractive" (reject on no match).
type FilterRule struct {
	Pattern  string `mapstructure:"pattern"`
	Polarity string `mapstructure:"polarity"`
}

type FiltersConfig struct {
	// Targets is required: forwarding everything floods the channel, so a
	// catch-all configuration is rejected by validation.
	Targets         []FilterRule `mapstructure:"targets"`
	Messages        []FilterRule `mapstructure:"messages"`
	EventByField    []FilterRule `mapstructure:"event_by_field"`
	FieldExclusions []string     `mapstructure:"field_exclusions"`

	// Expressions are CEL predicates over the event envelope; all must hold.
	Expressions []string `mapstructure:"expressions"`
	// ExpressionFallback decides what an evaluation error means: "allow" or
	// "deny" (default deny).
	ExpressionFallback string `mapstructure:"expression_fallback"`
}

type DeliveryConfig struct {
	SendTimeoutSeconds time.Duration `mapstructure:"send_timeout_seconds"`
	FailureLogPerSec   float64       `mapstructure:"failure_log_per_sec"`
	Retry              RetryConfig   `mapstructure:"retry"`
}

// RetryConfig is disabled by default: the worker's contract is one attempt
// per payload unless the operator opts in.
type RetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type CircuitBreakerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxRequests     uint32        `mapstructure:"max_requests"`
	IntervalSeconds time.Duration `mapstructure:"interval_seconds"`
	TimeoutSeconds  time.Duration `mapstructure:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig configures the demo binary's debug HTTP server. Port 0
// disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}
