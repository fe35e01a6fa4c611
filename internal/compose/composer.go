// Package compose flattens a step tree into a CWL workflow graph, one
// generated tool document per leaf, and a single job order whose keys are
// unique across every nesting level.
package compose

import (
	"log/slog"

	"github.com/me/phenogen/internal/graph"
	"github.com/me/phenogen/internal/logging"
	"github.com/me/phenogen/internal/naming"
	"github.com/me/phenogen/internal/stub"
	"github.com/me/phenogen/pkg/cwl"
	"github.com/me/phenogen/pkg/model"
)

// DefaultMaxDepth bounds how many nested levels a step tree may have.
const DefaultMaxDepth = 32

// Generator renders the content of one leaf step.
type Generator interface {
	Generate(req stub.Request) (string, error)
}

// Result is the composition of one sibling list.
type Result struct {
	Graph     *cwl.Workflow
	Artifacts []model.Artifact
	Inputs    cwl.Bindings
}

// Composer walks step trees depth first. It holds no per-request state and
// is safe for concurrent use.
type Composer struct {
	generator Generator
	maxDepth  int
	logger    *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithMaxDepth sets the nesting limit. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// New creates a Composer that renders leaves with g.
func New(g Generator, opts ...Option) *Composer {
	c := &Composer{
		generator: g,
		maxDepth:  DefaultMaxDepth,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "composer")
	return c
}

// Compose composes a sibling list. nested marks a sub-workflow, whose
// terminal output is exposed as "output" rather than "cases".
func (c *Composer) Compose(steps []model.StepSpec, nested bool) (*Result, error) {
	return c.compose(steps, nested, nil, naming.NewIDSet())
}

// compose composes one level. ids is shared by the whole tree so that step
// ids, and with them the "<id>.cwl" documents, never collide across levels.
func (c *Composer) compose(steps []model.StepSpec, nested bool, path []int, ids naming.IDSet) (*Result, error) {
	if len(path) > c.maxDepth {
		return nil, &model.DepthLimitError{Limit: c.maxDepth, Path: path}
	}
	if err := validateSiblings(steps, path); err != nil {
		return nil, err
	}

	res := &Result{Inputs: cwl.Bindings{}, Artifacts: make([]model.Artifact, 0, len(steps))}
	b := graph.New(nested)

	if !naming.IsExternal(steps[0].Type) {
		res.Inputs.Set(naming.PrimaryInputKey, cwl.File(naming.DefaultPrimaryPath))
		b.SeedPrimaryInput()
	}

	for i, step := range steps {
		id := ids.Assign(step.Name, step.Position)
		terminal := naming.IsTerminal(i, len(steps))

		var (
			art model.Artifact
			err error
		)
		switch impl := step.Implementation.(type) {
		case model.Leaf:
			art, err = c.composeLeaf(b, res, step, impl, id, terminal, path)
		case model.Nested:
			art, err = c.composeNested(b, res, step, impl, id, terminal, path, ids)
		}
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, art)
	}

	res.Graph = b.Workflow()
	c.logger.Debug("composed sibling list",
		"path", model.FormatPath(path),
		"steps", len(steps),
		"inputs", len(res.Inputs),
	)
	return res, nil
}

func (c *Composer) composeLeaf(b *graph.Builder, res *Result, step model.StepSpec, impl model.Leaf, id string, terminal bool, path []int) (model.Artifact, error) {
	extension := ""
	if terminal {
		extension = step.Outputs[0].Extension
	}
	b.AddToolStep(graph.ToolStep{
		ID:        id,
		Position:  step.Position,
		Name:      step.Name,
		Type:      step.Type,
		Language:  impl.Language,
		Extension: extension,
		Terminal:  terminal,
	})
	res.Inputs.Set(naming.ModuleKey(step.Position), cwl.File(naming.ImplementationPath(impl.Language, impl.FileName)))

	content, err := c.generator.Generate(stub.Request{
		Language:        impl.Language,
		Name:            step.Name,
		Type:            step.Type,
		Doc:             step.Doc,
		InputDoc:        step.Inputs[0].Doc,
		OutputExtension: step.Outputs[0].Extension,
		OutputDoc:       step.Outputs[0].Doc,
	})
	if err != nil {
		return model.Artifact{}, locate(err, path, step.Position)
	}

	c.logger.Debug("composed leaf", "path", model.FormatPath(path), "position", step.Position, "id", id, "language", impl.Language)
	return model.Artifact{
		ID:         id,
		Name:       step.Name,
		Type:       step.Type,
		WorkflowID: step.WorkflowID,
		Content:    content,
		FileName:   impl.FileName,
	}, nil
}

func (c *Composer) composeNested(b *graph.Builder, res *Result, step model.StepSpec, impl model.Nested, id string, terminal bool, path []int, ids naming.IDSet) (model.Artifact, error) {
	sub, err := c.compose(impl.Steps, true, appendPath(path, step.Position), ids)
	if err != nil {
		return model.Artifact{}, err
	}

	promotions := naming.Promote(step.Position, sub.Inputs.Keys())
	for _, p := range promotions {
		binding, _ := sub.Inputs.Get(p.NestedKey)
		res.Inputs.Set(p.ParentKey, cwl.File(binding.Path))
	}

	b.AddSubworkflowStep(graph.SubworkflowStep{
		ID:         id,
		Position:   step.Position,
		Name:       step.Name,
		Workflow:   sub.Graph,
		Promotions: promotions,
		Terminal:   terminal,
	})

	content, err := cwl.Marshal(sub.Graph)
	if err != nil {
		return model.Artifact{}, err
	}

	c.logger.Debug("composed nested step", "path", model.FormatPath(path), "position", step.Position, "id", id, "promoted", len(promotions))
	return model.Artifact{
		ID:         id,
		Name:       step.Name,
		Type:       step.Type,
		WorkflowID: step.WorkflowID,
		Content:    content,
		Steps:      sub.Artifacts,
	}, nil
}

// appendPath returns a fresh slice so sibling recursions never share
// backing arrays.
func appendPath(path []int, position int) []int {
	out := make([]int, len(path), len(path)+1)
	copy(out, path)
	return append(out, position)
}
