// Package vfs implements the staged filesystem: an in-memory layer of
// pending file writes and deletes that generator tasks mutate freely and
// the commit pipeline reconciles against disk.
package vfs
