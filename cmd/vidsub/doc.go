// Package main hosts the vidsub CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, applies flag
// overrides, and hands explicit options to the batch runner. Subcommands cover
// batch processing, directory watching, job history, environment checks, and
// configuration scaffolding.
//
// Keep this package lean: new behaviour belongs in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
