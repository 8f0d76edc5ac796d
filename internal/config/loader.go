package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetConfigFile(configFile)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SlackFromEnv reads destination settings straight from the environment,
// the default when a builder is given no explicit Slack configuration.
func SlackFromEnv() SlackConfig {
	v := viper.New()
	v.AutomaticEnv()
	bindEnvVariables(v)

	return SlackConfig{
		WebhookURL:  v.GetString("slack.webhook_url"),
		ChannelName: v.GetString("slack.channel_name"),
		Username:    v.GetString("slack.username"),
		IconEmoji:   v.GetString("slack.icon_emoji"),
	}
}

func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("slack.webhook_url", "SLACK_WEBHOOK_URL")
	v.BindEnv("slack.channel_name", "SLACK_CHANNEL_NAME")
	v.BindEnv("slack.username", "SLACK_USERNAME")
	v.BindEnv("slack.icon_emoji", "SLACK_ICON_EMOJI")

	v.BindEnv("logging.level", "LOGGING_LEVEL")
	v.BindEnv("server.port", "SERVER_PORT")

	v.BindEnv("delivery.send_timeout_seconds", "DELIVERY_SEND_TIMEOUT_SECONDS")
	v.BindEnv("delivery.retry.enabled", "DELIVERY_RETRY_ENABLED")
	v.BindEnv("delivery.retry.max_attempts", "DELIVERY_RETRY_MAX_ATTEMPTS")

	v.BindEnv("circuit_breaker.enabled", "CIRCUIT_BREAKER_ENABLED")
}
