// Package cache provides the in-memory caching interfaces used by the unique
// value manager.
//
// # Overview
//
// This package exports the Service interface and typed helpers around it:
//
//   - Service: deduplicated read-through loads plus direct Get/Set/Delete
//   - GetOrFetch / Get: generic wrappers that restore type safety over the
//     any-typed Service methods
//
// The default implementation (constructed via NewService) is backed by
// sturdyc, which contributes in-flight deduplication of concurrent fetches,
// TTL-based retention, and early refreshes: once an entry ages past the
// configured freshness window it keeps being served while a background fetch
// replaces it, so readers never block on a refresh of data they already have.
//
// # Basic Usage
//
//	service, err := cache.NewService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	values, err := cache.GetOrFetch(ctx, service, "unique_values", func(ctx context.Context) (uniquevalue.Set, error) {
//		return syncer.LoadAll(ctx)
//	})
//
// # Direct writes
//
// Set exists for optimistic mutation: after a value is appended to the local
// persistent store, the manager writes the merged result straight into the
// cache under the same key instead of waiting for the next load. Because the
// cached value is replaced wholesale, a concurrent background refresh can
// still overwrite it with the remote truth; that is acceptable, the appended
// value is durable in the persistent store either way.
//
// # Error Handling
//
// Fetch errors propagate to the caller unchanged. ErrInvalidResultType is only
// returned when two call sites disagree about the value type stored under a
// key, which is a programming error rather than a runtime condition.
package cache
