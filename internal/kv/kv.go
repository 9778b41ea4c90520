// Package kv is the key-value port behind persisted client state such as the cart table.
package kv

import "context"

// Store persists opaque values under string keys. Get reports found=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
