// Package cwl provides ordered CWL document types and their serialization.
package cwl

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal serializes a CWL document (Workflow, CommandLineTool or Bindings)
// to block-style YAML with two-space indentation.
func Marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode CWL document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("flush CWL document: %w", err)
	}
	return buf.String(), nil
}
