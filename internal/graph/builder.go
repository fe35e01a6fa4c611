// Package graph builds CWL Workflow documents one step at a time, wiring
// each step's dataset input to the previous step's output.
package graph

import (
	"github.com/me/phenogen/internal/naming"
	"github.com/me/phenogen/pkg/cwl"
)

// Builder appends steps to a single Workflow document in sibling order.
type Builder struct {
	wf      *cwl.Workflow
	nested  bool
	primary bool
	prev    string
}

// New returns a Builder for a top-level (nested=false) or nested workflow.
func New(nested bool) *Builder {
	return &Builder{wf: cwl.NewWorkflow(), nested: nested}
}

// Workflow returns the document built so far.
func (b *Builder) Workflow() *cwl.Workflow {
	return b.wf
}

// SeedPrimaryInput declares the synthetic dataset input.
func (b *Builder) SeedPrimaryInput() {
	b.primary = true
	b.wf.Inputs.Set(naming.PrimaryInputKey, cwl.WorkflowInput{
		Type: "File",
		Doc:  "Potential cases to be filtered by the pipeline",
	})
}

// ToolStep describes a leaf step to append.
type ToolStep struct {
	ID       string
	Position int
	Name     string
	Type     string
	Language string
	// Extension is the externally visible output extension; it is only
	// meaningful when Terminal is set.
	Extension string
	Terminal  bool
}

// AddToolStep appends a step that runs the generated tool <id>.cwl.
func (b *Builder) AddToolStep(s ToolStep) {
	key := naming.ModuleKey(s.Position)
	b.wf.Inputs.Set(key, cwl.WorkflowInput{
		Type: "File",
		Doc:  s.Language + " implementation unit for " + s.Name,
	})

	in := cwl.Entries[string]{}
	in.Set(naming.ModuleStepInput, key)
	if src := b.caseSource(); src != "" {
		in.Set(naming.PrimaryInputKey, src)
	}
	b.wf.Steps.Set(s.ID, cwl.WorkflowStep{
		Run: naming.ToolFile(s.ID),
		In:  in,
		Out: []string{naming.StepOutput},
	})

	if s.Terminal {
		b.wf.Outputs.Set(naming.OutputID(b.nested), cwl.WorkflowOutput{
			Type:          "File",
			OutputSource:  naming.OutputSource(s.ID),
			OutputBinding: &cwl.OutputBinding{Glob: cwl.Glob(s.Extension)},
		})
	}
	b.prev = s.ID
}

// SubworkflowStep describes a nested step to append.
type SubworkflowStep struct {
	ID         string
	Position   int
	Name       string
	Workflow   *cwl.Workflow
	Promotions []naming.Promotion
	Terminal   bool
}

// AddSubworkflowStep appends a step that runs the nested workflow <id>.cwl.
// Each promotion becomes a parent input bound to the nested module input.
func (b *Builder) AddSubworkflowStep(s SubworkflowStep) {
	b.wf.RequireSubworkflows()

	in := cwl.Entries[string]{}
	for _, p := range s.Promotions {
		b.wf.Inputs.Set(p.ParentKey, cwl.WorkflowInput{
			Type: "File",
			Doc:  "Implementation unit promoted from " + s.Name,
		})
		in.Set(p.NestedKey, p.ParentKey)
	}
	if s.Workflow != nil && s.Workflow.Inputs.Has(naming.PrimaryInputKey) {
		if src := b.caseSource(); src != "" {
			in.Set(naming.PrimaryInputKey, src)
		}
	}
	b.wf.Steps.Set(s.ID, cwl.WorkflowStep{
		Run: naming.ToolFile(s.ID),
		In:  in,
		Out: []string{naming.StepOutput},
	})

	if s.Terminal {
		b.wf.Outputs.Set(naming.OutputID(b.nested), cwl.WorkflowOutput{
			Type:         "File",
			OutputSource: naming.OutputSource(s.ID),
		})
	}
	b.prev = s.ID
}

// caseSource returns where the next step reads its dataset from: the
// previous step's output, else the primary input, else nothing.
func (b *Builder) caseSource() string {
	if b.prev != "" {
		return naming.OutputSource(b.prev)
	}
	if b.primary {
		return naming.PrimaryInputKey
	}
	return ""
}
