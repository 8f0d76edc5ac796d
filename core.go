package zapslack

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"zapslack/internal/constants"
	"zapslack/internal/format"
	"zapslack/internal/logger"
	"zapslack/internal/worker"
	"zapslack/pkg/expr"
	"zapslack/pkg/filter"
	"zapslack/pkg/metrics"
	"zapslack/pkg/webhook"
)

// Core forwards accepted events to the delivery worker. It implements
// zapcore.Core; With accumulates logger context fields, which this package
// treats as the enclosing span (already vetted, exempt from field filters).
type Core struct {
	zapcore.LevelEnabler
	pipeline *pipeline

	spanName   string
	spanFields map[string]interface{}
}

// pipeline is the filter/format/enqueue machinery shared by every child
// core spawned through With.
type pipeline struct {
	targets     filter.Chain
	messages    filter.Chain
	byFieldKeys filter.Chain
	exclusions  filter.FieldExclusions

	evaluator    *expr.Evaluator
	exprFallback string

	slack  SlackConfig
	handle *worker.Handle
	log    logger.Logger

	spanKey string
}

var _ zapcore.Core = (*Core)(nil)

// With clones the core, folding fields into the span context. A string
// field keyed by the configured span key names the span; everything else
// becomes span fields appended after the event's own fields.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := &Core{
		LevelEnabler: c.LevelEnabler,
		pipeline:     c.pipeline,
		spanName:     c.spanName,
		spanFields:   make(map[string]interface{}, len(c.spanFields)+len(fields)),
	}
	for k, v := range c.spanFields {
		clone.spanFields[k] = v
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == c.pipeline.spanKey && f.Type == zapcore.StringType {
			clone.spanName = f.String
			continue
		}
		f.AddTo(enc)
	}
	for k, v := range enc.Fields {
		clone.spanFields[k] = v
	}
	return clone
}

func (c *Core) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write classifies the event and, when accepted, enqueues the rendered
// payload. It always returns nil: a rejection is silent and an internal
// failure is logged to the diagnostic logger, never surfaced to the
// producing application.
func (c *Core) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.pipeline.dispatch(entry, fields, c.spanName, c.spanFields)
	return nil
}

// Sync is a no-op: delivery is asynchronous and best-effort by design.
func (c *Core) Sync() error { return nil }

func (p *pipeline) dispatch(entry zapcore.Entry, fields []zapcore.Field, spanName string, spanFields map[string]interface{}) {
	if err := p.targets.Process(entry.LoggerName); err != nil {
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusFiltered).Inc()
		return
	}

	message := format.ResolveMessage(entry.Message, fields)
	if err := p.messages.Process(message); err != nil {
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusFiltered).Inc()
		return
	}

	metadata, err := format.BuildMetadata(fields, p.exclusions, p.byFieldKeys, spanFields)
	if err != nil {
		if errors.Is(err, filter.ErrRejected) {
			metrics.EventsObservedTotal.WithLabelValues(metrics.StatusFiltered).Inc()
			return
		}
		p.log.Warnw("failed to collect event fields", "target", entry.LoggerName, "error", err)
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusDropped).Inc()
		return
	}

	if !p.evaluateExpressions(entry, message, metadata, spanName, spanFields) {
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusFiltered).Inc()
		return
	}

	encoded, err := format.MarshalMetadata(metadata)
	if err != nil {
		p.log.Warnw("failed to serialize event fields", "target", entry.LoggerName, "error", err)
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusDropped).Inc()
		return
	}

	if spanName == "" {
		spanName = constants.NoSpanName
	}
	file, line := "", 0
	if entry.Caller.Defined {
		file, line = entry.Caller.File, entry.Caller.Line
	}

	text := format.Render(entry.Level.CapitalString(), message, spanName, entry.LoggerName, file, line, encoded)

	payload := webhook.Payload{
		ID:         uuid.New().String(),
		Channel:    p.slack.ChannelName,
		Username:   p.slack.Username,
		Text:       text,
		WebhookURL: p.slack.WebhookURL,
		IconEmoji:  p.slack.IconEmoji,
	}

	if err := p.handle.Enqueue(payload); err != nil {
		p.log.Errorw("failed to enqueue slack payload",
			"payload_id", payload.ID,
			"target", entry.LoggerName,
			"error", err,
		)
		metrics.EventsObservedTotal.WithLabelValues(metrics.StatusDropped).Inc()
		return
	}

	metrics.EventsObservedTotal.WithLabelValues(metrics.StatusForwarded).Inc()
}

// evaluateExpressions applies the CEL predicates. Evaluation errors follow
// the configured fallback, deny unless told otherwise.
func (p *pipeline) evaluateExpressions(entry zapcore.Entry, message string, metadata map[string]interface{}, spanName string, spanFields map[string]interface{}) bool {
	if p.evaluator == nil || p.evaluator.Len() == 0 {
		return true
	}

	ok, err := p.evaluator.EvaluateAll(context.Background(), expr.Event{
		Level:      entry.Level.CapitalString(),
		Target:     entry.LoggerName,
		Message:    message,
		Fields:     metadata,
		SpanName:   spanName,
		SpanFields: spanFields,
	})
	if err != nil {
		allow := p.exprFallback == constants.FallbackAllow
		p.log.Warnw("expression filter evaluation failed",
			"target", entry.LoggerName,
			"fallback", p.exprFallback,
			"error", err,
		)
		return allow
	}
	return ok
}
