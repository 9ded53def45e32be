// Package notifications delivers turn alerts to the visitor's device via
// ntfy. When no topic is configured a noop implementation is returned, so
// callers never need to branch on whether delivery is possible.
package notifications
