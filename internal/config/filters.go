package config

import (
	"fmt"

	"zapslack/pkg/filter"
)

// CompiledFilters holds the filter machinery built from a FiltersConfig.
type CompiledFilters struct {
	Targets      filter.Chain
	Messages     filter.Chain
	EventByField filter.Chain
	Exclusions   filter.FieldExclusions
}

// Compile turns config rules into compiled chains. It assumes the config
// already passed ValidateStatic but still reports compile errors rather
// than panicking.
func Compile(f FiltersConfig) (CompiledFilters, error) {
	targets, err := compileChain(f.Targets)
	if err != nil {
		return CompiledFilters{}, fmt.Errorf("target filters: %w", err)
	}
	messages, err := compileChain(f.Messages)
	if err != nil {
		return CompiledFilters{}, fmt.Errorf("message filters: %w", err)
	}
	byField, err := compileChain(f.EventByField)
	if err != nil {
		return CompiledFilters{}, fmt.Errorf("event-by-field filters: %w", err)
	}
	exclusions, err := filter.NewFieldExclusions(f.FieldExclusions...)
	if err != nil {
		return CompiledFilters{}, fmt.Errorf("field exclusions: %w", err)
	}

	return CompiledFilters{
		Targets:      targets,
		Messages:     messages,
		EventByField: byField,
		Exclusions:   exclusions,
	}, nil
}

func compileChain(rules []FilterRule) (filter.Chain, error) {
	filters := make([]filter.Filter, 0, len(rules))
	for _, rule := range rules {
		polarity, err := filter.ParsePolarity(rule.Polarity)
		if err != nil {
			return filter.Chain{}, err
		}
		f, err := filter.New(rule.Pattern, polarity)
		if err != nil {
			return filter.Chain{}, err
		}
		filters = append(filters, f)
	}
	return filter.NewChain(filters...), nil
}
