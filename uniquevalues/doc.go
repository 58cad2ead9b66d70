// Package uniquevalues is the component-facing surface of the unique value
// cache: autocomplete suggestion lists for the five free-text categories
// (names, gifts, relations, cities, workTypes) tracked by the payer
// bookkeeping API.
//
// # Overview
//
// The Manager composes three layers:
//
//   - a durable local store (store package) holding one record per category
//   - a synchronizer (syncer package) deciding local-vs-remote authority
//   - an in-memory reactive cache (cache package, sturdyc-backed) shared by
//     every consumer under a single key
//
// # Read path
//
// Values follows local-first semantics end to end:
//
//  1. Inside the freshness window the in-memory copy is returned directly;
//     no store read, no network.
//  2. On a cold or stale cache the synchronizer reads the local store and
//     serves it when every category is present and non-empty.
//  3. Only an incomplete local snapshot triggers a remote fetch, which is
//     then persisted for the next session.
//
// Concurrent callers share a single in-flight load, and once the freshness
// window lapses the stale value keeps being served while a background refresh
// replaces it, so readers never block on data they already have.
//
// # Write path
//
// AddValue is deliberately local-only ("local-write-ahead"): the value is
// appended to the store, merged into the in-memory cache, and the server is
// never told directly. It learns the value when the payer or function record
// carrying the free-text field is created through the normal API write path.
// Until the next full refresh the client list may therefore lead the server
// list; that staleness is accepted by design of the original sync strategy.
//
// # Failure posture
//
// Suggestions are an enhancement, never a hard dependency: storage failures
// degrade to remote-only behavior, remote failures degrade to stale local
// data, and only the combination of nothing local and the network down
// surfaces an error to the caller.
//
// # Basic Usage
//
//	manager := uniquevalues.New(sync, cacheService, uniquevalues.Options{})
//
//	values, err := manager.Values(ctx)
//	if err != nil {
//		// no local snapshot and the remote fetch failed
//	}
//	_ = values.Get(uniquevalue.CategoryCities)
//
//	// After creating a payer with a previously unseen city:
//	_, _ = manager.AddValue(ctx, uniquevalue.CategoryCities, "Coimbatore")
//
// For wiring the collaborators from configuration, see the pkg/di package.
package uniquevalues
