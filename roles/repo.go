package roles

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repos when no role matches the lookup.
var ErrNotFound = errors.New("role not found")

type Repo interface {
	Upsert(ctx context.Context, role *Role) error
	Get(ctx context.Context, id string) (*Role, error)
	GetByTitle(ctx context.Context, title string) (*Role, error)
	List(ctx context.Context, offset, limit int) ([]*Role, error)
}
