// Package forge provides a generator orchestration engine.
//
// Generators are small programs that scaffold or rewrite project files. The
// engine resolves them by namespace (with alias rewriting), composes them so
// each identity runs at most once, and drains their work through a phased
// run loop. File output is staged in memory and committed to disk through a
// conflict-checked pipeline at the end of the run.
//
// End-users typically interact with the engine via the high-level Service
// façade exposed by the root package:
//
//	srv, _ := forge.New()
//	srv.Register(ctx, "demo:app", "/pkgs/demo/app", newAppGenerator)
//	instance, err := srv.Run(ctx, "demo", map[string]interface{}{"name": "svc"})
//
// For more details see the README and individual sub-packages.
package forge
