// Package queue defines the client-side domain model for stand queues:
// memberships, stand descriptors, staff rosters, and the pure projection from
// raw membership fields to the wait time and position shown to visitors.
package queue
