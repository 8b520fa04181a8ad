package store

import (
	"context"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// Update runs fn against a transactional view. Writes made through tx
	// become visible together when fn returns nil and are discarded otherwise.
	Update(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
