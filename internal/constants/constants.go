package constants

import "time"

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultSendTimeout = 10 * time.Second
)

// Sentinels rendered when an event carries no span or caller information.
const (
	NoSpanName    = "None"
	UnknownSource = "Unknown"
)

// PlaceholderMessage stands in when an event has neither a message nor a
// string-valued "error" field.
const PlaceholderMessage = "No message"

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Fallback behavior for expression filter evaluation errors.
const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)
