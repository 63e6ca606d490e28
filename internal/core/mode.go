// Package core is the orchestration layer.  It composes the acceptor,
// the append log and the ingest capability into the collector's
// control loop and provides a builder that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode.  It owns its full lifecycle from
// binding the listener to closing the output file.
type Mode interface {
	Run(ctx context.Context) error
}
