// Package commit implements the reconciliation pipeline between the staged
// filesystem and disk: pending files are filtered, force-write markers and
// persisted resolutions applied, remaining conflicts resolved by policy or
// interactively, and the surviving content physically written.
package commit
