// Package logging constructs the process-wide zap logger (ambient
// concern, not core: spec §1 excludes process startup from the matching
// engine itself, but the adapters and cmd/server still log the way the
// rest of the pack does).
package logging

import "go.uber.org/zap"

// New builds a production zap logger in production, or a development one
// (human-readable, debug-level) otherwise.
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
