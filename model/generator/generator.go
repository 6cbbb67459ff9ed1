package generator

import (
	"context"
	"fmt"

	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/service/scheduler"
)

// Generator is the minimal identity every instantiated generator exposes.
// Namespace and Location together deduplicate composition: two independently
// constructed instances with the same identity collapse to one execution.
type Generator interface {
	Namespace() string
	Location() string
}

// Tasker is the phased contract: the generator contributes its own tasks to
// the named sub-queues of the run loop.
type Tasker interface {
	Generator
	Tasks(ctx context.Context, queue *scheduler.Service) error
}

// Runner is the legacy contract: the generator runs to completion eagerly
// when its composition turn comes.
type Runner interface {
	Generator
	Run(ctx context.Context) error
}

// Silencer lets a legacy generator opt out of having its run errors
// forwarded as scheduler-level errors.
type Silencer interface {
	SilenceErrors() bool
}

// Keyed lets a generator supply an explicit composition key instead of the
// namespace#location default.
type Keyed interface {
	CompositionKey() string
}

// Kind tags the protocol variant a generator implements. It is decided once
// at instantiation, never re-checked ad hoc.
type Kind int

const (
	// KindPhased contributes tasks through the Tasker contract.
	KindPhased Kind = iota
	// KindLegacy runs eagerly through the Runner contract.
	KindLegacy
)

// Instance pairs a generator with its resolved protocol variant.
type Instance struct {
	Generator
	Kind Kind
}

// NewInstance classifies a generator into its protocol variant. Generators
// implementing both contracts are treated as phased.
func NewInstance(g Generator) (*Instance, error) {
	switch g.(type) {
	case Tasker:
		return &Instance{Generator: g, Kind: KindPhased}, nil
	case Runner:
		return &Instance{Generator: g, Kind: KindLegacy}, nil
	}
	return nil, fmt.Errorf("generator %T implements neither the phased nor the legacy contract", g)
}

// Identifier derives the composition identifier from the generator's own
// identity.
func (i *Instance) Identifier() string {
	if keyed, ok := i.Generator.(Keyed); ok {
		if key := keyed.CompositionKey(); key != "" {
			return key
		}
	}
	return i.Namespace() + "#" + i.Location()
}

// ForwardErrors reports whether a legacy generator's run errors propagate
// as scheduler-level errors.
func (i *Instance) ForwardErrors() bool {
	if silencer, ok := i.Generator.(Silencer); ok {
		return !silencer.SilenceErrors()
	}
	return true
}

// Invocation carries the request that produced a generator instance.
type Invocation struct {
	// Namespace is the canonical identifier the factory was resolved under.
	Namespace *namespace.Namespace
	// Location is the resolved location recorded in the registry entry.
	Location string
	// Args are the raw caller-supplied arguments.
	Args map[string]interface{}
	// Options is the typed value converted from Args when an argument type
	// is registered for the namespace, nil otherwise.
	Options interface{}
}

// Factory builds a generator instance for an invocation.
type Factory func(ctx context.Context, invocation *Invocation) (Generator, error)
