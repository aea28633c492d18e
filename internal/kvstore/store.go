// Package kvstore is the port to the crash-durable, string-keyed store the
// ledgers and the period archive persist through. One JSON value per key;
// single-key writes are atomic, multi-key writes are not.
package kvstore

import "context"

// Store is implemented by the sqlite and memory backends.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
