// Package watch runs the live-queue polling loop: fetch a snapshot, reconcile
// it against the rendered set, evaluate turn alerts, render.
//
// Cycles are strictly serialized: a tick that lands while a previous cycle's
// fetch is still outstanding is skipped, never queued, so snapshots are always
// applied in order. Fetch failures leave the previous render untouched.
package watch
