// Package queueapi is the HTTP client for the queue backend REST API.
//
// It is the only package that sees the wire format: snapshot rows are
// normalized into queue.Membership values here, including the conversion from
// a 1-based slot index to a strictly-ahead count when the backend reports
// position instead of current_people. Failures are classified into the
// ErrNetwork, ErrServer, and ErrDataShape families so callers can keep the
// last good view on transient read errors.
package queueapi
