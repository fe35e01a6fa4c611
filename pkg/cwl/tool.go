package cwl

// CommandLineTool is a generated CWL CommandLineTool document.
// See https://www.commonwl.org/v1.0/CommandLineTool.html
type CommandLineTool struct {
	CWLVersion   string              `yaml:"cwlVersion"`
	Class        string              `yaml:"class"`
	ID           string              `yaml:"id,omitempty"`
	Label        string              `yaml:"label,omitempty"`
	Doc          string              `yaml:"doc,omitempty"`
	Requirements []Requirement       `yaml:"requirements,omitempty"`
	BaseCommand  []string            `yaml:"baseCommand"`
	Inputs       Entries[ToolInput]  `yaml:"inputs"`
	Outputs      Entries[ToolOutput] `yaml:"outputs"`
}

// NewCommandLineTool returns an empty tool with the given id.
func NewCommandLineTool(id string) *CommandLineTool {
	return &CommandLineTool{
		CWLVersion: Version,
		Class:      "CommandLineTool",
		ID:         id,
		Inputs:     Entries[ToolInput]{},
		Outputs:    Entries[ToolOutput]{},
	}
}

// ToolInput is a CWL tool input parameter.
type ToolInput struct {
	Type         string        `yaml:"type"`
	Doc          string        `yaml:"doc,omitempty"`
	InputBinding *InputBinding `yaml:"inputBinding,omitempty"`
}

// ToolOutput is a CWL tool output parameter.
type ToolOutput struct {
	Type          string         `yaml:"type"`
	Doc           string         `yaml:"doc,omitempty"`
	OutputBinding *OutputBinding `yaml:"outputBinding,omitempty"`
}

// InputBinding controls how an input appears on the command line.
type InputBinding struct {
	Position  int    `yaml:"position,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Separate  *bool  `yaml:"separate,omitempty"`
	ValueFrom string `yaml:"valueFrom,omitempty"`
}

// OutputBinding describes how output files are collected.
type OutputBinding struct {
	Glob string `yaml:"glob"`
}

// Glob returns the output glob for files with the given extension.
// An empty extension matches any file.
func Glob(extension string) string {
	if extension == "" {
		return "*"
	}
	return "*." + extension
}

// Expressions returns every string in the tool that may carry a CWL
// parameter reference.
func (t *CommandLineTool) Expressions() []string {
	var out []string
	for _, in := range t.Inputs {
		if b := in.Value.InputBinding; b != nil {
			out = append(out, b.Prefix, b.ValueFrom)
		}
	}
	for _, o := range t.Outputs {
		if b := o.Value.OutputBinding; b != nil {
			out = append(out, b.Glob)
		}
	}
	return out
}
