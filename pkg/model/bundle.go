package model

import "time"

// Artifact is the generated output for one step. Leaf artifacts carry the
// generated tool document and the implementation file name; nested
// artifacts carry the serialized sub-workflow and the nested artifact list.
type Artifact struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	WorkflowID OpaqueID   `json:"workflowId"`
	Content    string     `json:"content"`
	FileName   string     `json:"fileName,omitempty"`
	Steps      []Artifact `json:"steps,omitempty"`
}

// IsNested reports whether the artifact describes a sub-workflow.
func (a Artifact) IsNested() bool {
	return a.Steps != nil
}

// Bundle is the compiled deliverable returned to callers.
type Bundle struct {
	Workflow       string     `json:"workflow"`
	Steps          []Artifact `json:"steps"`
	WorkflowInputs string     `json:"workflowInputs"`
}

// Compilation is a persisted compilation of one step tree.
type Compilation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	StepCount   int       `json:"step_count"`
	LeafCount   int       `json:"leaf_count"`
	Request     string    `json:"-"`
	Bundle      *Bundle   `json:"bundle,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Deduplicated is set on responses that returned an already stored
	// compilation instead of creating one. It is not persisted.
	Deduplicated bool `json:"deduplicated,omitempty"`
}
