package stub

import (
	"github.com/me/phenogen/internal/naming"
	"github.com/me/phenogen/pkg/cwl"
)

// Template renders the CWL tool that runs one implementation unit.
//
// Every template assumes a single variable input (the potential cases
// produced by the previous step) and a single variable output (the derived
// cases); steps with several data ports are not representable.
type Template func(req Request) *cwl.CommandLineTool

// Container images used by the built-in templates.
const (
	PythonImage = "kclhi/python:latest"
	KNIMEImage  = "kclhi/knime:latest"
	NodeImage   = "kclhi/node:latest"
)

var knimeBatch = []string{
	"/application/knime/knime",
	"-batch",
	"-reset",
	"-nosave",
	"-nosplash",
	"--launcher.suppressErrors",
	"-application",
	"org.knime.product.KNIME_BATCH_APPLICATION",
}

// Python runs the implementation unit with the python interpreter.
func Python(req Request) *cwl.CommandLineTool {
	tool := base(req, PythonImage, []string{"python"})
	tool.Inputs.Set(naming.ModuleStepInput, cwl.ToolInput{
		Type:         "File",
		Doc:          "Python implementation unit",
		InputBinding: &cwl.InputBinding{Position: 1},
	})
	tool.Inputs.Set(naming.PrimaryInputKey, casesInput(req, &cwl.InputBinding{Position: 2}))
	tool.Outputs.Set(naming.StepOutput, output(req))
	return tool
}

// KNIME runs the implementation unit as a KNIME batch workflow, passing the
// potential cases as a workflow variable.
func KNIME(req Request) *cwl.CommandLineTool {
	tool := base(req, KNIMEImage, knimeBatch)
	noSep := false
	tool.Inputs.Set(naming.ModuleStepInput, cwl.ToolInput{
		Type: "File",
		Doc:  "KNIME implementation unit",
		InputBinding: &cwl.InputBinding{
			Position: 1,
			Prefix:   "-workflowFile=",
			Separate: &noSep,
		},
	})
	tool.Inputs.Set(naming.PrimaryInputKey, casesInput(req, &cwl.InputBinding{
		Position:  2,
		Prefix:    "-workflow.variable=dm_potential_cases,",
		Separate:  &noSep,
		ValueFrom: "file://$(inputs.potentialCases.path),String",
	}))
	tool.Outputs.Set(naming.StepOutput, output(req))
	return tool
}

// JS runs the implementation unit with node.
func JS(req Request) *cwl.CommandLineTool {
	tool := base(req, NodeImage, []string{"node"})
	tool.Inputs.Set(naming.ModuleStepInput, cwl.ToolInput{
		Type:         "File",
		Doc:          "JavaScript implementation unit",
		InputBinding: &cwl.InputBinding{Position: 1},
	})
	tool.Inputs.Set(naming.PrimaryInputKey, casesInput(req, &cwl.InputBinding{Position: 2}))
	tool.Outputs.Set(naming.StepOutput, output(req))
	return tool
}

func base(req Request, image string, command []string) *cwl.CommandLineTool {
	tool := cwl.NewCommandLineTool("")
	tool.Label = req.Name
	tool.Doc = req.Doc
	tool.Requirements = []cwl.Requirement{{Class: cwl.DockerRequirement, DockerPull: image}}
	tool.BaseCommand = command
	return tool
}

// casesInput declares the dataset input. External steps read their data
// from elsewhere, so the input is optional for them.
func casesInput(req Request, binding *cwl.InputBinding) cwl.ToolInput {
	typ := "File"
	if naming.IsExternal(req.Type) {
		typ = "File?"
	}
	return cwl.ToolInput{Type: typ, Doc: req.InputDoc, InputBinding: binding}
}

func output(req Request) cwl.ToolOutput {
	return cwl.ToolOutput{
		Type:          "File",
		Doc:           req.OutputDoc,
		OutputBinding: &cwl.OutputBinding{Glob: cwl.Glob(req.OutputExtension)},
	}
}
