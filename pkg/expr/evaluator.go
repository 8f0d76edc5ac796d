// Package expr evaluates CEL predicates over log events, supplementing the
// regex chains with structural conditions ("fields.retries > int(2)" and the
// like). Expressions are compiled once at construction; every expression must
// evaluate to true for an event to be forwarded.
package expr

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Event is the envelope visible to expressions.
type Event struct {
	Level      string
	Target     string
	Message    string
	Fields     map[string]interface{}
	SpanName   string
	SpanFields map[string]interface{}
}

type Evaluator struct {
	env      *cel.Env
	programs []cel.Program
	sources  []string
}

func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("level", cel.StringType),
		cel.Variable("target", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("span_name", cel.StringType),
		cel.Variable("span_fields", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEvaluator compiles the given filter expressions. An empty list yields
// an evaluator that accepts everything.
func NewEvaluator(expressions []string) (*Evaluator, error) {
	env, err := newEnv()
	if err != nil {
		return nil, err
	}

	e := &Evaluator{env: env}
	for _, src := range expressions {
		program, err := e.compile(src)
		if err != nil {
			return nil, err
		}
		e.programs = append(e.programs, program)
		e.sources = append(e.sources, src)
	}
	return e, nil
}

func (e *Evaluator) compile(src string) (cel.Program, error) {
	ast, issues := e.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", src, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression %q must return bool, got %v", src, ast.OutputType())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %q: %w", src, err)
	}
	return program, nil
}

// Len reports the number of compiled expressions.
func (e *Evaluator) Len() int { return len(e.programs) }

// EvaluateAll runs every expression against the event. It returns false as
// soon as one expression rejects. An evaluation error names the offending
// expression; the caller decides whether that means allow or deny.
func (e *Evaluator) EvaluateAll(ctx context.Context, ev Event) (bool, error) {
	if len(e.programs) == 0 {
		return true, nil
	}

	vars := map[string]interface{}{
		"level":       ev.Level,
		"target":      ev.Target,
		"message":     ev.Message,
		"fields":      nonNilMap(ev.Fields),
		"span_name":   ev.SpanName,
		"span_fields": nonNilMap(ev.SpanFields),
	}

	for i, program := range e.programs {
		result, _, err := program.ContextEval(ctx, vars)
		if err != nil {
			return false, fmt.Errorf("failed to evaluate expression %q: %w", e.sources[i], err)
		}
		boolVal, ok := result.Value().(bool)
		if !ok {
			return false, fmt.Errorf("expression %q did not return bool, got %T", e.sources[i], result.Value())
		}
		if !boolVal {
			return false, nil
		}
	}
	return true, nil
}

// ValidateFilterExpression checks a single expression without keeping it,
// used by config validation.
func ValidateFilterExpression(src string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("expression validation failed: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}
	return nil
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
