package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluatorCompileErrors(t *testing.T) {
	_, err := NewEvaluator([]string{`level ==`})
	assert.Error(t, err)

	_, err = NewEvaluator([]string{`level`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must return bool")
}

func TestEvaluateAllEmptyAcceptsEverything(t *testing.T) {
	e, err := NewEvaluator(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Len())

	ok, err := e.EvaluateAll(context.Background(), Event{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateAll(t *testing.T) {
	e, err := NewEvaluator([]string{
		`level != "DEBUG"`,
		`target.startsWith("app")`,
	})
	require.NoError(t, err)
	require.Equal(t, 2, e.Len())

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{
			name:  "all expressions pass",
			event: Event{Level: "ERROR", Target: "app.db"},
			want:  true,
		},
		{
			name:  "first expression rejects",
			event: Event{Level: "DEBUG", Target: "app.db"},
			want:  false,
		},
		{
			name:  "second expression rejects",
			event: Event{Level: "ERROR", Target: "other.db"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateAll(context.Background(), tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateAllFields(t *testing.T) {
	e, err := NewEvaluator([]string{`"retries" in fields && fields["retries"] > 2`})
	require.NoError(t, err)

	ok, err := e.EvaluateAll(context.Background(), Event{
		Fields: map[string]interface{}{"retries": int64(3)},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateAll(context.Background(), Event{
		Fields: map[string]interface{}{"retries": int64(1)},
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// Missing key is guarded by the membership check, not an error.
	ok, err = e.EvaluateAll(context.Background(), Event{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateAllRuntimeErrorNamesExpression(t *testing.T) {
	e, err := NewEvaluator([]string{`fields["missing"] == "x"`})
	require.NoError(t, err)

	_, err = e.EvaluateAll(context.Background(), Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate expression")
	assert.Contains(t, err.Error(), "no such key: missing")
}

func TestEvaluateAllSpanVariables(t *testing.T) {
	e, err := NewEvaluator([]string{`span_name == "request" && span_fields["request_id"] != ""`})
	require.NoError(t, err)

	ok, err := e.EvaluateAll(context.Background(), Event{
		SpanName:   "request",
		SpanFields: map[string]interface{}{"request_id": "abc-123"},
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateFilterExpression(t *testing.T) {
	assert.NoError(t, ValidateFilterExpression(`level != "DEBUG"`))
	assert.Error(t, ValidateFilterExpression(`level ==`))
	assert.Error(t, ValidateFilterExpression(`message`))
}
