package parser

import (
	"fmt"
	"log/slog"

	"github.com/me/phenogen/pkg/model"
)

// Validator reports every structural problem in a step tree at once, so
// API callers can fix a document in one round trip. The composer performs
// the same checks but stops at the first failure.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With("component", "validator")}
}

// Validate checks a step tree.
// Returns nil if valid, or an *model.APIError with FieldError details.
func (v *Validator) Validate(steps []model.StepSpec) *model.APIError {
	errs := v.validateSiblings(steps, "steps")
	if len(errs) == 0 {
		return nil
	}
	v.logger.Debug("step tree rejected", "errors", len(errs))
	return model.NewValidationError("step validation failed", errs...)
}

func (v *Validator) validateSiblings(steps []model.StepSpec, field string) []model.FieldError {
	if len(steps) == 0 {
		return []model.FieldError{{Field: field, Message: "at least one step is required"}}
	}

	var errs []model.FieldError
	seen := make(map[int]int, len(steps))
	for i, s := range steps {
		f := fmt.Sprintf("%s[%d]", field, i)

		if s.Position < 1 {
			errs = append(errs, model.FieldError{
				Field:   f + ".position",
				Message: fmt.Sprintf("position must be 1 or greater, got %d", s.Position),
			})
		} else if prev, dup := seen[s.Position]; dup {
			errs = append(errs, model.FieldError{
				Field:   f + ".position",
				Message: fmt.Sprintf("position %d already used by %s[%d]", s.Position, field, prev),
			})
		} else {
			seen[s.Position] = i
		}

		switch impl := s.Implementation.(type) {
		case nil:
			errs = append(errs, model.FieldError{Field: f + ".implementation", Message: "implementation is required"})
		case model.Leaf:
			errs = append(errs, v.validateLeaf(s, impl, f)...)
		case model.Nested:
			errs = append(errs, v.validateSiblings(impl.Steps, f+".implementation.steps")...)
		}
	}
	return errs
}

func (v *Validator) validateLeaf(s model.StepSpec, impl model.Leaf, field string) []model.FieldError {
	var errs []model.FieldError
	if impl.Language == "" {
		errs = append(errs, model.FieldError{Field: field + ".implementation.language", Message: "language must not be empty"})
	}
	if impl.FileName == "" {
		errs = append(errs, model.FieldError{Field: field + ".implementation.fileName", Message: "fileName is required"})
	}
	if len(s.Inputs) == 0 {
		errs = append(errs, model.FieldError{Field: field + ".inputs", Message: "leaf step requires at least one input"})
	}
	if len(s.Outputs) == 0 {
		errs = append(errs, model.FieldError{Field: field + ".outputs", Message: "leaf step requires at least one output"})
	}
	return errs
}
