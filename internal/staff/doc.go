// Package staff provides the stand-management monitor: a fast-cadence poll
// over a single stand's roster with actions to finish the served player or
// remove any player from the queue.
package staff
