package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidResultType is returned by the typed helpers when a cached value
// cannot be asserted to the requested type. It indicates two callers are
// sharing a key with different value types.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// FetchFn is the function signature Service expects when fetching from the
// source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Service exposes the in-memory caching operations the unique value manager
// needs: deduplicated read-through loads, direct reads and writes for
// optimistic mutation, and deletion for teardown. It is exported so callers
// can provide alternate cache backends.
type Service interface {
	// GetOrFetch returns the cached value for key, invoking fetchFn at most
	// once across concurrent callers when the entry is missing or due for a
	// refresh. fetchFn must be a FetchFn[T].
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)

	// Get returns the cached value without triggering a fetch.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value under key, replacing any existing entry.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the entry for key so the next GetOrFetch refetches.
	Delete(ctx context.Context, key string) error
}

// GetOrFetch is a type-safe wrapper that provides generic support for Service.
func GetOrFetch[T any](ctx context.Context, service Service, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", ErrInvalidResultType, result)
	}
	return typed, nil
}

// Get is a type-safe wrapper around Service.Get. A cached value of the wrong
// type reports a miss rather than an error; the caller falls back to a fetch.
func Get[T any](ctx context.Context, service Service, key string) (T, bool) {
	var zero T

	result, ok := service.Get(ctx, key)
	if !ok || result == nil {
		return zero, false
	}

	typed, ok := result.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
