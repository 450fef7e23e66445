// Package prefs persists small namespaced string values on the device: the
// push token, the last token registered with the news API and similar
// bookkeeping.
package prefs

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("namespace and key must not be empty")

// Store is a namespaced key-value store. Writes to the same key are
// last-write-wins; a single Set is atomic.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

func validate(namespace, key string) error {
	if namespace == "" || key == "" {
		return ErrEmptyKey
	}
	return nil
}
