// Package namespace defines the structured identifier used to address
// generators, its parser, the path-to-namespace derivation and the ordered
// alias-rule table that rewrites abbreviated identifiers into canonical
// ones.
package namespace
