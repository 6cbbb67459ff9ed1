// Package progress defines primitives for reporting and aggregating the
// progress of an orchestration run.  It abstracts away the underlying
// communication mechanism so that callers can consume progress updates in a
// uniform way regardless of whether they are rendered by a terminal adapter
// or collected by an external observer.
package progress
