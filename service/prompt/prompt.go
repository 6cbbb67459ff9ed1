package prompt

import (
	"context"
	"errors"
)

// Decision is the outcome of a conflict prompt.
type Decision string

const (
	// DecisionOverwrite replaces the on-disk content with the staged one.
	DecisionOverwrite Decision = "overwrite"
	// DecisionSkip keeps the on-disk content and resolves the staged file
	// without writing.
	DecisionSkip Decision = "skip"
	// DecisionAbort cancels the whole commit pass.
	DecisionAbort Decision = "abort"
)

// ErrClosed is returned by adapters that can no longer serve prompts (for
// example after the scheduler paused).
var ErrClosed = errors.New("prompt: adapter closed")

// Conflict describes a staged write whose target already differs on disk.
type Conflict struct {
	Path    string
	Diff    string // unified diff, disk vs staged
	Added   int
	Deleted int
	Hunks   int
}

// Prompter is the interactive adapter consumed by the commit pipeline. The
// request/response exchange is synchronous; implementations used in
// non-interactive mode must never block. The boolean result reports whether
// the decision should be remembered for the path (persisted resolution
// file).
type Prompter interface {
	Resolve(ctx context.Context, conflict *Conflict) (Decision, bool, error)
}

// Auto is a non-blocking adapter that answers every conflict with a fixed
// decision. It backs forced and fully scripted runs.
type Auto struct {
	decision Decision
	remember bool
}

// NewAuto creates an adapter answering decision for every conflict.
func NewAuto(decision Decision) *Auto {
	return &Auto{decision: decision}
}

// NewAutoRemember creates an adapter that also records each answer in the
// persisted resolution file.
func NewAutoRemember(decision Decision) *Auto {
	return &Auto{decision: decision, remember: true}
}

// Resolve implements Prompter.
func (a *Auto) Resolve(_ context.Context, _ *Conflict) (Decision, bool, error) {
	return a.decision, a.remember, nil
}

var _ Prompter = (*Auto)(nil)
