package cwl

// Version is the CWL version emitted for generated documents.
const Version = "v1.0"

// Workflow is a generated CWL Workflow document.
// Field order is the order used when the document is serialized.
type Workflow struct {
	CWLVersion   string                  `yaml:"cwlVersion"`
	Class        string                  `yaml:"class"`
	Requirements []Requirement           `yaml:"requirements,omitempty"`
	Inputs       Entries[WorkflowInput]  `yaml:"inputs"`
	Outputs      Entries[WorkflowOutput] `yaml:"outputs"`
	Steps        Entries[WorkflowStep]   `yaml:"steps"`
}

// NewWorkflow returns an empty Workflow document.
func NewWorkflow() *Workflow {
	return &Workflow{
		CWLVersion: Version,
		Class:      "Workflow",
		Inputs:     Entries[WorkflowInput]{},
		Outputs:    Entries[WorkflowOutput]{},
		Steps:      Entries[WorkflowStep]{},
	}
}

// WorkflowInput is a workflow-level input parameter.
type WorkflowInput struct {
	Type string `yaml:"type"`
	Doc  string `yaml:"doc,omitempty"`
}

// WorkflowOutput is a workflow-level output parameter.
type WorkflowOutput struct {
	Type          string         `yaml:"type"`
	OutputSource  string         `yaml:"outputSource"`
	OutputBinding *OutputBinding `yaml:"outputBinding,omitempty"`
}

// WorkflowStep is a single node of the workflow graph.
type WorkflowStep struct {
	Run string          `yaml:"run"`
	In  Entries[string] `yaml:"in"`
	Out []string        `yaml:"out"`
}

// Requirement is a CWL requirement or hint entry.
type Requirement struct {
	Class      string `yaml:"class"`
	DockerPull string `yaml:"dockerPull,omitempty"`
}

// RequireSubworkflows adds SubworkflowFeatureRequirement once.
func (w *Workflow) RequireSubworkflows() {
	for _, r := range w.Requirements {
		if r.Class == SubworkflowFeatureRequirement {
			return
		}
	}
	w.Requirements = append(w.Requirements, Requirement{Class: SubworkflowFeatureRequirement})
}

// Requirement classes used by generated documents.
const (
	SubworkflowFeatureRequirement = "SubworkflowFeatureRequirement"
	DockerRequirement             = "DockerRequirement"
)
