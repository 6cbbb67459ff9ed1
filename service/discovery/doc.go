// Package discovery locates installed generator packages on a local search
// path. It is an external collaborator of the orchestration engine: results
// feed the registry, and a miss is reported upstream as "generator not
// found" rather than failing the run.
package discovery
