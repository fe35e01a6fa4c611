package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStepSpec_UnmarshalLeaf(t *testing.T) {
	data := `{"position":1,"name":"Load","type":"load","doc":"d",
		"inputs":[{"doc":"in"}],"outputs":[{"extension":"csv","doc":"out"}],
		"implementation":{"language":"python","fileName":"step1.py"},"workflowId":"w1"}`

	var s StepSpec
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := StepSpec{
		Position:       1,
		Name:           "Load",
		Type:           "load",
		Doc:            "d",
		Inputs:         []InputSpec{{Doc: "in"}},
		Outputs:        []OutputSpec{{Extension: "csv", Doc: "out"}},
		Implementation: Leaf{Language: "python", FileName: "step1.py"},
		WorkflowID:     StringID("w1"),
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStepSpec_UnmarshalNested(t *testing.T) {
	data := `{"position":3,"name":"Sub","type":"logic","workflowId":7,
		"implementation":{"steps":[
			{"position":1,"name":"A","implementation":{"language":"js","fileName":"a.js"}}
		]}}`

	var s StepSpec
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	nested, ok := s.Implementation.(Nested)
	if !ok {
		t.Fatalf("Implementation = %T, want Nested", s.Implementation)
	}
	if len(nested.Steps) != 1 {
		t.Fatalf("nested steps = %d, want 1", len(nested.Steps))
	}
	if _, ok := nested.Steps[0].Implementation.(Leaf); !ok {
		t.Errorf("child Implementation = %T, want Leaf", nested.Steps[0].Implementation)
	}
	if s.WorkflowID != NumberID(7) {
		t.Errorf("WorkflowID = %q, want 7", s.WorkflowID)
	}
}

func TestStepSpec_UnmarshalDiscriminant(t *testing.T) {
	tests := []struct {
		name string
		impl string
		want Implementation
	}{
		{"missing", ``, nil},
		{"null", `,"implementation":null`, nil},
		{"language wins", `,"implementation":{"language":"knime","fileName":"x.knwf","steps":[]}`, Leaf{Language: "knime", FileName: "x.knwf"}},
		{"no language is nested", `,"implementation":{"fileName":"x.py"}`, Nested{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StepSpec
			if err := json.Unmarshal([]byte(`{"position":1`+tt.impl+`}`), &s); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, s.Implementation); diff != "" {
				t.Errorf("Implementation mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStepSpec_UnmarshalBadImplementation(t *testing.T) {
	var s StepSpec
	if err := json.Unmarshal([]byte(`{"position":1,"implementation":"python"}`), &s); err == nil {
		t.Fatal("expected error for non-object implementation")
	}
}

func TestOpaqueID_RoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		str  string
		want string
	}{
		{`"w1"`, "w1", `"w1"`},
		{`42`, "42", `42`},
		{`null`, "", `null`},
	}
	for _, tt := range tests {
		var id OpaqueID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if id.String() != tt.str {
			t.Errorf("String() = %q, want %q", id.String(), tt.str)
		}
		out, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(out) != tt.want {
			t.Errorf("Marshal = %s, want %s", out, tt.want)
		}
	}

	var id OpaqueID
	if err := json.Unmarshal([]byte(`{"a":1}`), &id); err == nil {
		t.Error("expected error for object workflowId")
	}
}

func TestCountSteps(t *testing.T) {
	steps := []StepSpec{
		{Position: 1, Implementation: Leaf{Language: "python"}},
		{Position: 2, Implementation: Nested{Steps: []StepSpec{
			{Position: 1, Implementation: Leaf{Language: "js"}},
			{Position: 2, Implementation: Leaf{Language: "js"}},
		}}},
	}
	total, leaves := CountSteps(steps)
	if total != 4 || leaves != 3 {
		t.Errorf("CountSteps = %d, %d; want 4, 3", total, leaves)
	}
}
