// Package reconcile keeps the locally rendered queue set in agreement with
// the latest backend snapshot.
//
// Apply diffs a snapshot against the previously rendered set by stand ID and
// produces a render instruction; Leave is the optimistic removal path, which
// confirms the delete with the backend before dropping the local entry and
// then requests an immediate re-fetch so the next render reflects server
// truth. At most one leave per stand ID is in flight at a time.
package reconcile
