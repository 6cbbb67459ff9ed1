// Package policy provides optional declarative rules applied during the
// commit phase of a run - forcing overwrites, suppressing physical writes
// in a dry run, or marking well-known control files as always written.
package policy
