// Package registry maps canonical generator namespaces to their resolved
// location, owning package and factory. Lookups fall back once through
// alias resolution and may lazily load the factory from the resolved
// location.
package registry
