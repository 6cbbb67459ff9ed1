// Package composed deduplicates generator instances within a single
// orchestration run: at most one entry exists per logical generator
// identity, and the composition notification fires exactly once per
// identity.
package composed
