// Package install invokes the local package manager for generator packages
// queued during a run. Installation is best effort: a failed invocation is
// logged and never fails the overall run.
package install
