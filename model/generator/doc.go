// Package generator defines the contract consumed from instantiated
// generators: identity for composition deduplication and the tagged
// phased/legacy protocol variant.
package generator
