// Package storage provides the durable key-value port the cart store mirrors
// itself into. Two backends exist: a remote per-user Redis store and a local
// on-disk store, composed with a primary/fallback policy.
package storage

import "context"

// Port abstracts durable key-value storage for serialized cart snapshots.
// Load returns (nil, nil) when the key is absent; callers treat that as
// "start empty", never as an error.
type Port interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
