package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/me/phenogen/pkg/model"
	"gopkg.in/yaml.v3"
)

// Parser decodes step trees from request bodies and files.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser with the given logger.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "parser")}
}

// ParseSteps decodes a step sequence. JSON documents are decoded directly;
// anything else is read as YAML and converted to its JSON form first, so
// both syntaxes go through the same StepSpec decoding and union
// discrimination.
func (p *Parser) ParseSteps(data []byte) ([]model.StepSpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	jsonData := trimmed
	if trimmed[0] != '[' && trimmed[0] != '{' {
		var raw any
		if err := yaml.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
		normalized, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		jsonData, err = json.Marshal(normalized)
		if err != nil {
			return nil, fmt.Errorf("convert YAML: %w", err)
		}
	}

	var steps []model.StepSpec
	if err := json.Unmarshal(jsonData, &steps); err != nil {
		return nil, fmt.Errorf("decode step sequence: %w", err)
	}

	total, leaves := model.CountSteps(steps)
	p.logger.Debug("parsed steps", "top_level", len(steps), "total", total, "leaves", leaves)
	return steps, nil
}

// Canonical returns the canonical JSON encoding of a step sequence. Two
// documents that decode to the same tree, in either syntax, share it.
func Canonical(steps []model.StepSpec) ([]byte, error) {
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("canonicalize steps: %w", err)
	}
	return data, nil
}

// normalize converts YAML-decoded values into JSON-encodable ones.
// yaml.v3 produces map[string]any for string-keyed mappings but
// map[any]any when keys are numbers or booleans.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return v, nil
}
