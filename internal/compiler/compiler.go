// Package compiler runs a parsed step tree through composition and bundle
// assembly, and builds the persisted record of the result.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/me/phenogen/internal/bundle"
	"github.com/me/phenogen/internal/compose"
	"github.com/me/phenogen/internal/config"
	"github.com/me/phenogen/internal/parser"
	"github.com/me/phenogen/internal/stub"
	"github.com/me/phenogen/pkg/model"
)

// Compiler turns step trees into bundles.
type Compiler struct {
	composer *compose.Composer
	logger   *slog.Logger
}

// New creates a Compiler with the built-in language templates.
func New(cfg config.CompilerConfig, logger *slog.Logger) *Compiler {
	dispatcher := stub.NewDispatcher(
		stub.WithAllowUnknownLanguages(cfg.AllowUnknownLanguages),
		stub.WithLogger(logger),
	)
	return &Compiler{
		composer: compose.New(dispatcher, compose.WithMaxDepth(cfg.MaxDepth), compose.WithLogger(logger)),
		logger:   logger.With("component", "compiler"),
	}
}

// Compile composes a top-level step sequence and assembles the bundle.
func (c *Compiler) Compile(steps []model.StepSpec) (*model.Bundle, error) {
	res, err := c.composer.Compose(steps, false)
	if err != nil {
		return nil, err
	}
	return bundle.Assemble(res)
}

// ContentHash returns the hex SHA-256 of the canonical encoding of steps.
func ContentHash(steps []model.StepSpec) (string, error) {
	data, err := parser.Canonical(steps)
	if err != nil {
		return "", err
	}
	return hashOf(data), nil
}

func hashOf(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// NewCompilation compiles steps and wraps the bundle in a new record with a
// fresh id. Callers deduplicate on ContentHash before persisting.
func (c *Compiler) NewCompilation(name string, steps []model.StepSpec) (*model.Compilation, error) {
	canonical, err := parser.Canonical(steps)
	if err != nil {
		return nil, err
	}
	b, err := c.Compile(steps)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "unnamed-compilation"
	}
	total, leaves := model.CountSteps(steps)
	comp := &model.Compilation{
		ID:          "cmp_" + uuid.New().String(),
		Name:        name,
		ContentHash: hashOf(canonical),
		StepCount:   total,
		LeafCount:   leaves,
		Request:     string(canonical),
		Bundle:      b,
		CreatedAt:   time.Now().UTC(),
	}
	c.logger.Info("compiled", "id", comp.ID, "name", name, "steps", total, "leaves", leaves)
	return comp, nil
}
