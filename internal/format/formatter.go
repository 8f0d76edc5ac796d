// Package format renders an accepted log event into Slack mrkdwn. Field
// selection runs on keys only, so rejected events never pay for value
// serialization.
package format

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap/zapcore"

	"zapslack/internal/constants"
	"zapslack/pkg/filter"
)

// Field keys consumed by message resolution and therefore never rendered in
// the metadata block.
var keywordKeys = map[string]bool{
	"message": true,
	"error":   true,
}

// ResolveMessage picks the text subjected to the message chain and rendered
// in the header line: the entry message when present, else the string form
// of an "error" field, else a fixed placeholder.
func ResolveMessage(entryMessage string, fields []zapcore.Field) string {
	if entryMessage != "" {
		return entryMessage
	}
	for _, f := range fields {
		if f.Key != "error" {
			continue
		}
		switch f.Type {
		case zapcore.StringType:
			return f.String
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				return err.Error()
			}
		}
	}
	return constants.PlaceholderMessage
}

// BuildMetadata applies the per-field pipeline and encodes the survivors.
// Exclusions drop individual fields; the key chain rejects the whole event
// (filter.ErrRejected). Span fields are appended afterwards, unfiltered,
// with duplicate keys resolved last-write-wins.
func BuildMetadata(
	fields []zapcore.Field,
	exclusions filter.FieldExclusions,
	keyChain filter.Chain,
	spanFields map[string]interface{},
) (map[string]interface{}, error) {
	survivors := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if keywordKeys[f.Key] {
			continue
		}
		if exclusions.Excludes(f.Key) {
			continue
		}
		if err := keyChain.Process(f.Key); err != nil {
			return nil, err
		}
		survivors = append(survivors, f)
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range survivors {
		f.AddTo(enc)
	}

	metadata := enc.Fields
	for k, v := range spanFields {
		metadata[k] = v
	}
	return metadata, nil
}

// MarshalMetadata reserializes the field map to its canonical pretty form.
func MarshalMetadata(metadata map[string]interface{}) (string, error) {
	encoded, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize event metadata: %w", err)
	}
	return string(encoded), nil
}

// Render assembles the final mrkdwn body. Escaping beyond JSON encoding is
// Slack's concern.
func Render(level, message, spanName, target, file string, line int, metadata string) string {
	if spanName == "" {
		spanName = constants.NoSpanName
	}
	if file == "" {
		file = constants.UnknownSource
	}
	return fmt.Sprintf(
		"*Event [%s]*: \"%s\"\n*Span*: _%s_\n*Target*: _%s_\n*Source*: _%s#L%d_\n*Metadata*:\n```%s```",
		level, message, spanName, target, file, line, metadata,
	)
}
