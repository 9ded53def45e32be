// Package alert decides when the visitor is told their turn is near.
//
// Gate is an explicit per-stand Idle/Armed state machine: it fires exactly one
// notification when the people-ahead count reaches the threshold, disarms when
// the count moves away, the membership disappears, the flag outlives its TTL,
// or the session is torn down, and re-fires on a fresh crossing. Fired flags
// are persisted in a SQLite-backed FlagStore so restarts within a session do
// not duplicate alerts.
package alert
