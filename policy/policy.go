// Package policy provides the conflict-resolution policy attached to a run
// via context. It is deliberately decoupled from the commit pipeline so that
// using it is entirely opt-in: a nil *Policy keeps the interactive "ask"
// behaviour.

package policy

import (
	"context"
	"path"
	"strings"
)

// Resolution modes recognised by the commit pipeline.
const (
	ModeAsk    = "ask"    // prompt through the interactive adapter (default)
	ModeForce  = "force"  // overwrite without prompting
	ModeDryRun = "dryrun" // resolve without touching disk
)

// Policy represents the conflict-resolution settings for the current run.
//
//   - Mode controls the high-level behaviour (ask / force / dryrun).
//   - ForceWrite lists path patterns that always overwrite without
//     prompting, regardless of Mode (well-known control files).
//
// A nil *Policy means "ask for every conflict" and is therefore the
// zero-cost default.
type Policy struct {
	Mode       string   // ask / force / dryrun (default = ask)
	ForceWrite []string // base-name or glob patterns force-written silently
}

// IsForced reports whether conflicts overwrite without prompting.
func (p *Policy) IsForced() bool {
	return p != nil && strings.EqualFold(p.Mode, ModeForce)
}

// IsDryRun reports whether physical writes are suppressed.
func (p *Policy) IsDryRun() bool {
	return p != nil && strings.EqualFold(p.Mode, ModeDryRun)
}

// IsForceWritten matches location against the force-write patterns. Patterns
// apply to the base name ("package.json") or, when they contain a
// separator, to the full path glob.
func (p *Policy) IsForceWritten(location string) bool {
	if p == nil {
		return false
	}
	base := path.Base(location)
	for _, pattern := range p.ForceWrite {
		if strings.Contains(pattern, "/") {
			if matched, _ := path.Match(pattern, location); matched {
				return true
			}
			continue
		}
		if matched, _ := path.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Config <-> Policy converters (Config is the serialisable subset).
// ---------------------------------------------------------------------------

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode       string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	ForceWrite []string `json:"forceWrite,omitempty" yaml:"forceWrite,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:       p.Mode,
		ForceWrite: append([]string(nil), p.ForceWrite...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:       c.Mode,
		ForceWrite: append([]string(nil), c.ForceWrite...),
	}
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
