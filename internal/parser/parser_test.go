package parser

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/me/phenogen/pkg/model"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func loadTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", rel)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load testdata %q: %v", rel, err)
	}
	return data
}

func TestParseSteps_JSON(t *testing.T) {
	steps, err := testParser().ParseSteps(loadTestdata(t, "steps/single-leaf.json"))
	if err != nil {
		t.Fatalf("ParseSteps: %v", err)
	}
	want := []model.StepSpec{{
		Position:       1,
		Name:           "Load",
		Type:           "load",
		Doc:            "d",
		Inputs:         []model.InputSpec{{Doc: "in"}},
		Outputs:        []model.OutputSpec{{Extension: "csv", Doc: "out"}},
		Implementation: model.Leaf{Language: "python", FileName: "step1.py"},
		WorkflowID:     model.StringID("w1"),
	}}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSteps_YAML(t *testing.T) {
	steps, err := testParser().ParseSteps(loadTestdata(t, "steps/nested.yaml"))
	if err != nil {
		t.Fatalf("ParseSteps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].WorkflowID != model.NumberID(42) {
		t.Errorf("workflowId = %s, want 42", steps[0].WorkflowID)
	}
	nested, ok := steps[1].Implementation.(model.Nested)
	if !ok {
		t.Fatalf("step 2 implementation = %T, want Nested", steps[1].Implementation)
	}
	if len(nested.Steps) != 2 {
		t.Fatalf("nested steps = %d", len(nested.Steps))
	}
	if got := nested.Steps[1].Implementation; got != (model.Leaf{Language: "knime", FileName: "diagnosis.knwf"}) {
		t.Errorf("nested leaf = %+v", got)
	}
}

func TestParseSteps_YAMLMatchesJSON(t *testing.T) {
	yamlDoc := []byte(`
- position: 1
  name: Load
  type: load
  doc: d
  inputs: [{doc: in}]
  outputs: [{extension: csv, doc: out}]
  implementation: {language: python, fileName: step1.py}
  workflowId: w1
`)
	p := testParser()
	fromYAML, err := p.ParseSteps(yamlDoc)
	if err != nil {
		t.Fatalf("ParseSteps(yaml): %v", err)
	}
	fromJSON, err := p.ParseSteps(loadTestdata(t, "steps/single-leaf.json"))
	if err != nil {
		t.Fatalf("ParseSteps(json): %v", err)
	}
	a, _ := Canonical(fromYAML)
	b, _ := Canonical(fromJSON)
	if string(a) != string(b) {
		t.Errorf("canonical forms differ:\n%s\n%s", a, b)
	}
}

func TestParseSteps_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"not json", "[{"},
		{"object instead of list", `{"position": 1}`},
		{"bad yaml", "- position: [1\n"},
		{"scalar implementation", `[{"position": 1, "implementation": "python"}]`},
		{"bad workflow id", `[{"position": 1, "workflowId": {"a": 1}}]`},
	}
	p := testParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.ParseSteps([]byte(tt.data)); err == nil {
				t.Errorf("ParseSteps(%q): expected error", tt.data)
			}
		})
	}
}

func TestNormalize_NonStringKeys(t *testing.T) {
	in := map[any]any{1: []any{map[any]any{true: "x"}}}
	got, err := normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := map[string]any{"1": []any{map[string]any{"true": "x"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
}
