package compose

import (
	"errors"

	"github.com/me/phenogen/pkg/model"
)

// validateSiblings checks the shape the composer relies on for one level of
// the tree. Deeper levels are checked when they are composed.
func validateSiblings(steps []model.StepSpec, path []int) error {
	if len(steps) == 0 {
		return &model.MalformedStepError{Path: path, Reason: "step list is empty"}
	}
	seen := make(map[int]bool, len(steps))
	for _, s := range steps {
		if s.Position < 1 {
			return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "position must be 1 or greater"}
		}
		if seen[s.Position] {
			return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "duplicate position among siblings"}
		}
		seen[s.Position] = true

		switch impl := s.Implementation.(type) {
		case nil:
			return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "missing implementation"}
		case model.Leaf:
			if len(s.Inputs) == 0 {
				return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "leaf requires at least one input"}
			}
			if len(s.Outputs) == 0 {
				return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "leaf requires at least one output"}
			}
		case model.Nested:
			if len(impl.Steps) == 0 {
				return &model.MalformedStepError{Path: path, Position: s.Position, Reason: "nested implementation has no steps"}
			}
		}
	}
	return nil
}

// locate fills in where a leaf's generator error happened.
func locate(err error, path []int, position int) error {
	var langErr *model.UnsupportedLanguageError
	if errors.As(err, &langErr) && langErr.Position == 0 {
		langErr.Path = path
		langErr.Position = position
	}
	var malformed *model.MalformedStepError
	if errors.As(err, &malformed) && malformed.Position == 0 {
		malformed.Path = path
		malformed.Position = position
	}
	return err
}
