package zapslack

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"zapslack/internal/config"
	"zapslack/internal/constants"
	"zapslack/internal/logger"
	"zapslack/internal/worker"
	"zapslack/pkg/expr"
	"zapslack/pkg/filter"
	"zapslack/pkg/webhook"
)

// DefaultSpanKey is the context field key whose string value names the
// enclosing span in rendered messages.
const DefaultSpanKey = "span"

// SlackConfig is the destination for forwarded events.
type SlackConfig struct {
	WebhookURL  string
	ChannelName string
	Username    string
	IconEmoji   string
}

// SlackConfigFromEnv reads the destination from SLACK_WEBHOOK_URL,
// SLACK_CHANNEL_NAME, SLACK_USERNAME and SLACK_ICON_EMOJI.
func SlackConfigFromEnv() SlackConfig {
	return SlackConfig(config.SlackFromEnv())
}

// Builder assembles a Core and its delivery worker.
//
// A target chain is required: a core with no target filter would forward
// every event the logger emits, which floods the channel. The remaining
// filtering mechanisms are optional and default to accept-everything.
type Builder struct {
	targets     filter.Chain
	messages    filter.Chain
	byFieldKeys filter.Chain
	exclusions  filter.FieldExclusions

	expressions  []string
	exprFallback string

	slack    SlackConfig
	slackSet bool
	client   *webhook.Client
	log      logger.Logger

	enabler     zapcore.LevelEnabler
	spanKey     string
	sendTimeout time.Duration
	timeoutSet  bool
	failLogRate float64
}

// NewBuilder starts a builder with the required target filter chain.
func NewBuilder(targets filter.Chain) *Builder {
	return &Builder{
		targets:      targets,
		exprFallback: constants.FallbackDeny,
		enabler:      zapcore.DebugLevel,
		spanKey:      DefaultSpanKey,
	}
}

// MessageFilters rejects or requires events by their resolved message text.
func (b *Builder) MessageFilters(c filter.Chain) *Builder {
	b.messages = c
	return b
}

// EventByFieldFilters rejects whole events by the keys of their surviving
// fields.
func (b *Builder) EventByFieldFilters(c filter.Chain) *Builder {
	b.byFieldKeys = c
	return b
}

// FieldExclusions drops individual fields whose key matches any pattern,
// before the event-by-field chain runs.
func (b *Builder) FieldExclusions(fe filter.FieldExclusions) *Builder {
	b.exclusions = fe
	return b
}

// ExpressionFilters adds CEL predicates over the event envelope; all must
// evaluate true. fallback ("allow" or "deny") governs evaluation errors.
func (b *Builder) ExpressionFilters(expressions []string, fallback string) *Builder {
	b.expressions = expressions
	if fallback != "" {
		b.exprFallback = fallback
	}
	return b
}

// Slack sets the destination. When omitted, Build falls back to the
// environment (SlackConfigFromEnv).
func (b *Builder) Slack(cfg SlackConfig) *Builder {
	b.slack = cfg
	b.slackSet = true
	return b
}

// Client replaces the default webhook client, e.g. to add a retry policy
// or circuit breaker.
func (b *Builder) Client(c *webhook.Client) *Builder {
	b.client = c
	return b
}

// DiagnosticLogger receives the pipeline's own log lines (enqueue failures,
// dropped deliveries). It must not route through this core. Default: none.
func (b *Builder) DiagnosticLogger(l *zap.Logger) *Builder {
	b.log = logger.FromZap(l)
	return b
}

// MinLevel restricts which entry levels the core accepts. Default: all.
func (b *Builder) MinLevel(enabler zapcore.LevelEnabler) *Builder {
	b.enabler = enabler
	return b
}

// SpanKey overrides the context field key used as the span name.
func (b *Builder) SpanKey(key string) *Builder {
	b.spanKey = key
	return b
}

// SendTimeout bounds each outbound webhook call. Zero disables the bound.
func (b *Builder) SendTimeout(d time.Duration) *Builder {
	b.sendTimeout = d
	b.timeoutSet = true
	return b
}

// FailureLogRate throttles delivery-failure log lines to r per second.
func (b *Builder) FailureLogRate(r float64) *Builder {
	b.failLogRate = r
	return b
}

// Build validates the configuration, spawns the delivery worker and returns
// the core plus the worker handle. The handle must be retained: Shutdown
// then Wait is the only way to end the background goroutine.
func (b *Builder) Build() (*Core, *worker.Handle, error) {
	if b.targets.Len() == 0 {
		return nil, nil, fmt.Errorf("a target filter chain is required")
	}

	slack := b.slack
	if !b.slackSet {
		slack = SlackConfigFromEnv()
	}
	if err := config.ValidateSlack(config.SlackConfig(slack)); err != nil {
		return nil, nil, err
	}

	evaluator, err := expr.NewEvaluator(b.expressions)
	if err != nil {
		return nil, nil, err
	}

	log := b.log
	if log == nil {
		log = logger.NewNop()
	}

	client := b.client
	if client == nil {
		client = webhook.NewClient()
	}

	var workerOpts []worker.Option
	if b.timeoutSet {
		workerOpts = append(workerOpts, worker.WithSendTimeout(b.sendTimeout))
	}
	if b.failLogRate > 0 {
		workerOpts = append(workerOpts, worker.WithFailureLogLimit(b.failLogRate))
	}

	handle := worker.Start(client, log, workerOpts...)

	core := &Core{
		LevelEnabler: b.enabler,
		pipeline: &pipeline{
			targets:      b.targets,
			messages:     b.messages,
			byFieldKeys:  b.byFieldKeys,
			exclusions:   b.exclusions,
			evaluator:    evaluator,
			exprFallback: b.exprFallback,
			slack:        slack,
			handle:       handle,
			log:          log,
			spanKey:      b.spanKey,
		},
	}
	return core, handle, nil
}
