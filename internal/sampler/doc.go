// Package sampler runs a background loop that takes periodic memory
// snapshots of one process and keeps them in a bounded, thread-safe
// history buffer.
//
// One goroutine (the loop) is the only writer; any number of goroutines
// may read via Snapshots/Latest, which copy under the lock and never touch
// I/O. Observers registered with OnSnapshot are invoked synchronously, in
// registration order, while the lock is held, so they must be fast and
// non-blocking.
//
// Lifecycle is a two-state machine: Idle and Running. Start on a running
// sampler and Stop on an idle one are no-ops. Stop blocks until the loop
// has fully exited, so after it returns no observer fires and the history
// no longer changes. Start and Stop themselves must not be called
// concurrently with each other.
package sampler
