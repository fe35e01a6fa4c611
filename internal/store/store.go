package store

import (
	"context"

	"github.com/me/phenogen/pkg/model"
)

// Store defines the persistence layer for compilations.
type Store interface {
	// Compilation CRUD
	CreateCompilation(ctx context.Context, c *model.Compilation) error
	GetCompilation(ctx context.Context, id string) (*model.Compilation, error)
	GetCompilationByHash(ctx context.Context, hash string) (*model.Compilation, error)
	ListCompilations(ctx context.Context, opts model.ListOptions) ([]*model.Compilation, int, error)
	DeleteCompilation(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
