// Package kv provides the key-value persistence slots backing the wallet and
// its config. Each slot holds one opaque blob; reads and writes are whole-value.
package kv

import "errors"

// ErrNotFound is returned by Get when the slot has never been written or was
// deleted.
var ErrNotFound = errors.New("kv: slot not found")

// Store is a named-slot blob store.
//
// Put always overwrites in full. A failed Put (disk full, locked database) is
// not locally recoverable and must be propagated by callers, not swallowed.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Exists(key string) (bool, error)
	Close() error
}
