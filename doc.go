// Package zapslack forwards selected zap log events to a Slack-compatible
// webhook. A Core built here is added to a logger tree (usually via
// zapcore.NewTee); events it observes are filtered by target, message,
// field keys, and optional CEL expressions, rendered as Slack mrkdwn, and
// queued for a background delivery worker. The logging goroutine never
// waits on the network, and forwarding is best-effort: any internal failure
// costs at most one notification plus a diagnostic log line.
package zapslack
