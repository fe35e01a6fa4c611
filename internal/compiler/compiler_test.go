package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/me/phenogen/internal/config"
	"github.com/me/phenogen/internal/logging"
	"github.com/me/phenogen/pkg/model"
)

func sampleSteps(language string) []model.StepSpec {
	return []model.StepSpec{{
		Position:       1,
		Name:           "Load",
		Type:           "load",
		Inputs:         []model.InputSpec{{Doc: "in"}},
		Outputs:        []model.OutputSpec{{Extension: "csv", Doc: "out"}},
		Implementation: model.Leaf{Language: language, FileName: "step1.py"},
		WorkflowID:     model.StringID("w1"),
	}}
}

func TestNewCompilation(t *testing.T) {
	c := New(config.DefaultCompilerConfig(), logging.Discard())
	comp, err := c.NewCompilation("", sampleSteps("python"))
	if err != nil {
		t.Fatalf("NewCompilation: %v", err)
	}
	if !strings.HasPrefix(comp.ID, "cmp_") {
		t.Errorf("id = %q, want cmp_ prefix", comp.ID)
	}
	if comp.Name != "unnamed-compilation" {
		t.Errorf("name = %q", comp.Name)
	}
	if comp.StepCount != 1 || comp.LeafCount != 1 {
		t.Errorf("counts = %d/%d", comp.StepCount, comp.LeafCount)
	}
	hash, _ := ContentHash(sampleSteps("python"))
	if comp.ContentHash != hash || len(hash) != 64 {
		t.Errorf("hash = %q, want %q", comp.ContentHash, hash)
	}
	if comp.Bundle == nil || !strings.Contains(comp.Bundle.WorkflowInputs, "python/step1.py") {
		t.Errorf("bundle = %+v", comp.Bundle)
	}
}

func TestContentHash_Distinguishes(t *testing.T) {
	a, _ := ContentHash(sampleSteps("python"))
	b, _ := ContentHash(sampleSteps("js"))
	if a == b {
		t.Error("different trees share a hash")
	}
}

func TestCompile_UnknownLanguage(t *testing.T) {
	strict := New(config.DefaultCompilerConfig(), logging.Discard())
	_, err := strict.Compile(sampleSteps("cobol"))
	var langErr *model.UnsupportedLanguageError
	if !errors.As(err, &langErr) {
		t.Fatalf("err = %v, want UnsupportedLanguageError", err)
	}

	lenient := New(config.CompilerConfig{MaxDepth: 4, AllowUnknownLanguages: true}, logging.Discard())
	b, err := lenient.Compile(sampleSteps("cobol"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if b.Steps[0].Content != "" {
		t.Errorf("content = %q, want empty", b.Steps[0].Content)
	}
}
