package bundle

import (
	"fmt"
	"strings"

	"github.com/me/phenogen/internal/compose"
	"github.com/me/phenogen/internal/naming"
	"github.com/me/phenogen/pkg/cwl"
	"github.com/me/phenogen/pkg/model"
	"gopkg.in/yaml.v3"
)

// MainWorkflow and MainInputs are the file names of the top-level workflow
// and its job order inside an exported bundle.
const (
	MainWorkflow = "main.cwl"
	MainInputs   = "main.yml"
)

// Assemble serializes a top-level composition into the deliverable bundle.
func Assemble(res *compose.Result) (*model.Bundle, error) {
	if res == nil || res.Graph == nil {
		return nil, fmt.Errorf("assemble: empty composition")
	}
	wf, err := cwl.Marshal(res.Graph)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow: %w", err)
	}
	inputs, err := cwl.Marshal(res.Inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow inputs: %w", err)
	}
	return &model.Bundle{
		Workflow:       wf,
		Steps:          res.Artifacts,
		WorkflowInputs: inputs,
	}, nil
}

// File is one document of an exported bundle.
type File struct {
	Name    string
	Content []byte
}

// Files lists the documents of a bundle in a single flat directory:
// main.cwl, main.yml and <id>.cwl for every step at every level, parents
// before their children. Steps whose content is empty (unknown languages in
// compatibility mode) are skipped.
func Files(b *model.Bundle) ([]File, error) {
	files := []File{
		{Name: MainWorkflow, Content: []byte(b.Workflow)},
		{Name: MainInputs, Content: []byte(b.WorkflowInputs)},
	}
	seen := map[string]bool{MainWorkflow: true, MainInputs: true}

	var walk func(arts []model.Artifact) error
	walk = func(arts []model.Artifact) error {
		for _, a := range arts {
			if a.Content != "" {
				name := naming.ToolFile(a.ID)
				if seen[name] {
					return fmt.Errorf("step %q: %s already exported by another step", a.Name, name)
				}
				seen[name] = true
				files = append(files, File{Name: name, Content: []byte(a.Content)})
			}
			if err := walk(a.Steps); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(b.Steps); err != nil {
		return nil, err
	}
	return files, nil
}

// Pack produces a single $graph document holding the top-level workflow as
// "#main" and every generated document under its step id. run: references
// are rewritten to fragment references.
func Pack(b *model.Bundle) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(b.Workflow), &doc); err != nil {
		return nil, fmt.Errorf("parse workflow YAML: %w", err)
	}
	version := doc["cwlVersion"]

	graph := []any{}
	seen := map[string]bool{naming.MainID: true}

	var walk func(arts []model.Artifact) error
	walk = func(arts []model.Artifact) error {
		for _, a := range arts {
			if a.Content == "" {
				continue
			}
			if seen[a.ID] {
				return fmt.Errorf("step %q: id %q already packed by another step", a.Name, a.ID)
			}
			seen[a.ID] = true

			var stepDoc map[string]any
			if err := yaml.Unmarshal([]byte(a.Content), &stepDoc); err != nil {
				return fmt.Errorf("step %q: parse document: %w", a.Name, err)
			}
			stepDoc["id"] = a.ID
			delete(stepDoc, "cwlVersion")
			fragmentRuns(stepDoc)
			graph = append(graph, stepDoc)

			if err := walk(a.Steps); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(b.Steps); err != nil {
		return nil, err
	}

	delete(doc, "cwlVersion")
	doc["id"] = naming.MainID
	fragmentRuns(doc)
	graph = append(graph, doc)

	out, err := yaml.Marshal(map[string]any{
		"cwlVersion": version,
		"$graph":     graph,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal packed document: %w", err)
	}
	return out, nil
}

// fragmentRuns rewrites "run: <id>.cwl" to "run: '#<id>'" for every step of
// a workflow document. Tool documents have no steps and are left alone.
func fragmentRuns(doc map[string]any) {
	steps, ok := doc["steps"].(map[string]any)
	if !ok {
		return
	}
	for _, v := range steps {
		step, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ref, ok := step["run"].(string)
		if !ok || len(ref) == 0 || ref[0] == '#' {
			continue
		}
		step["run"] = "#" + strings.TrimSuffix(ref, ".cwl")
	}
}
