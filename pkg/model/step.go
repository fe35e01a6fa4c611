package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StepSpec is one node of a step tree: a pipeline unit implemented either
// directly in one language (Leaf) or by a nested sequence of steps (Nested).
type StepSpec struct {
	Position       int            `json:"position"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Doc            string         `json:"doc"`
	Inputs         []InputSpec    `json:"inputs"`
	Outputs        []OutputSpec   `json:"outputs"`
	Implementation Implementation `json:"implementation"`
	WorkflowID     OpaqueID       `json:"workflowId"`
}

// InputSpec documents a step input.
type InputSpec struct {
	Doc string `json:"doc"`
}

// OutputSpec documents a step output and the file extension it produces.
type OutputSpec struct {
	Extension string `json:"extension"`
	Doc       string `json:"doc"`
}

// Implementation is either Leaf or Nested.
type Implementation interface {
	implementation()
}

// Leaf is a step implemented by one source file in one language.
type Leaf struct {
	Language string `json:"language"`
	FileName string `json:"fileName"`
}

// Nested is a step implemented by a sub-pipeline.
type Nested struct {
	Steps []StepSpec `json:"steps"`
}

func (Leaf) implementation()   {}
func (Nested) implementation() {}

// UnmarshalJSON decodes a step and resolves its implementation variant:
// an implementation object carrying a "language" field is a Leaf, any
// other object is Nested. A missing or null implementation leaves
// Implementation nil.
func (s *StepSpec) UnmarshalJSON(data []byte) error {
	type alias StepSpec
	aux := struct {
		*alias
		Implementation json.RawMessage `json:"implementation"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	impl, err := decodeImplementation(aux.Implementation)
	if err != nil {
		return fmt.Errorf("step %d (%s): implementation: %w", s.Position, s.Name, err)
	}
	s.Implementation = impl
	return nil
}

func decodeImplementation(raw json.RawMessage) (Implementation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["language"]; ok {
		var leaf Leaf
		if err := json.Unmarshal(raw, &leaf); err != nil {
			return nil, err
		}
		return leaf, nil
	}
	var nested Nested
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	return nested, nil
}

// CountSteps returns the total number of steps in a tree and how many of
// them are leaves.
func CountSteps(steps []StepSpec) (total, leaves int) {
	for _, s := range steps {
		total++
		switch impl := s.Implementation.(type) {
		case Leaf:
			leaves++
		case Nested:
			t, l := CountSteps(impl.Steps)
			total += t
			leaves += l
		}
	}
	return total, leaves
}

// OpaqueID is an identifier carried through unchanged. It holds the raw
// JSON literal (a string or a number) so output preserves the input form.
type OpaqueID string

// StringID returns an OpaqueID for a string identifier.
func StringID(s string) OpaqueID {
	b, _ := json.Marshal(s)
	return OpaqueID(b)
}

// NumberID returns an OpaqueID for a numeric identifier.
func NumberID(n int64) OpaqueID {
	return OpaqueID(strconv.FormatInt(n, 10))
}

// String returns the identifier without JSON quoting.
func (id OpaqueID) String() string {
	var s string
	if err := json.Unmarshal([]byte(id), &s); err == nil {
		return s
	}
	return string(id)
}

// MarshalJSON emits the literal as it was received.
func (id OpaqueID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

// UnmarshalJSON accepts a JSON string, number or null.
func (id *OpaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case string, float64:
		*id = OpaqueID(data)
		return nil
	default:
		return fmt.Errorf("workflowId must be a string or number, got %s", data)
	}
}
