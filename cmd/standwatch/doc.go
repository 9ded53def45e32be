// Command standwatch is the exhibition queue companion. It lists stands,
// joins and leaves their queues, and runs a live watch session that keeps
// the visitor's queue view current and fires a turn alert when only one
// person remains ahead.
package main
