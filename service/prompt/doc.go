// Package prompt defines the interactive adapter boundary used by the
// commit pipeline to resolve file conflicts, plus a scripted implementation
// for non-interactive runs.
package prompt
