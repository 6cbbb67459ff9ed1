// Package extension provides run-time registries that let generators accept
// strongly typed option structs instead of raw argument maps.
//
// The registries are normally modified through the public APIs under the
// root forge package, therefore most applications do not need to import
// this package directly.
package extension
