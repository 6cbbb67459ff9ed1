// Package scheduler implements the run loop: an ordered list of named
// sub-queues (phases) drained strictly in order, FIFO within a sub-queue,
// one task in flight at a time. Tasks may re-entrantly queue more work,
// including into sub-queues already passed; the loop keeps re-scanning
// until a full pass finds nothing pending, which is the termination
// condition.
package scheduler
