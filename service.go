package forge

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/viant/afs"
	"github.com/viant/x"

	"github.com/forgekit/forge/extension"
	"github.com/forgekit/forge/model/generator"
	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/service/discovery"
	"github.com/forgekit/forge/service/event"
	"github.com/forgekit/forge/service/install"
	"github.com/forgekit/forge/service/messaging/fs"
	"github.com/forgekit/forge/service/messaging/memory"
	"github.com/forgekit/forge/service/prompt"
	"github.com/forgekit/forge/service/registry"
)

// Service is the engine façade. It owns the shared collaborators (registry,
// aliases, discovery, events, typed option binder); per-run state lives on
// Environment.
type Service struct {
	config         *Config
	fs             afs.Service
	aliases        *namespace.Aliases
	registry       *registry.Service
	discovery      discovery.Service
	installer      *install.Service
	prompter       prompt.Prompter
	policy         *policy.Policy
	eventService   *event.Service
	binder         *extension.Binder
	extensionTypes []*x.Type
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	s.ensureBaseSetup()
	s.binder = extension.NewBinder(s.extensionTypes...)
	s.registry = registry.New(
		registry.WithAliases(s.aliases),
	)
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.aliases == nil {
		s.aliases = namespace.NewAliases()
		for _, rule := range s.config.Aliases {
			if err := s.aliases.Add(rule.Pattern, rule.Replacement); err != nil {
				log.Printf("skipping invalid alias rule %q: %v", rule.Pattern, err)
			}
		}
	}
	if s.policy == nil {
		s.policy = policy.FromConfig(&s.config.Policy)
	}
	if s.discovery == nil {
		s.discovery = discovery.New(s.config.Discovery.Roots,
			discovery.WithFS(s.fs),
			discovery.WithLookups(s.config.Discovery.Lookups...))
	}
	if s.installer == nil {
		s.installer = install.New(install.WithCommand(s.config.Discovery.InstallCommand))
	}
	if s.eventService == nil {
		vendor := s.config.Events.Vendor
		if vendor == "" {
			vendor = "memory"
		}
		var err error
		s.eventService, err = event.New(vendor,
			event.WithNewMemoryQueueConfig(func(name string) memory.Config {
				return memory.DefaultConfig()
			}),
			event.WithNewFsQueueConfig(func(name string) fs.QueueConfig {
				config := fs.DefaultConfig()
				config.BasePath = path.Join(config.BasePath, name)
				return config
			}))
		if err != nil {
			log.Printf("failed to initialise %v event service: %v", vendor, err)
		}
	}
}

// Register adds a generator factory under the canonical namespace with an
// absolute resolved location.
func (s *Service) Register(ctx context.Context, name, location string, factory generator.Factory) (*registry.Meta, error) {
	return s.registry.Add(ctx, &registry.Meta{Namespace: name, ResolvedLocation: location}, factory)
}

// Registry exposes the generator registry.
func (s *Service) Registry() *registry.Service {
	return s.registry
}

// Binder exposes the typed option binder.
func (s *Service) Binder() *extension.Binder {
	return s.binder
}

// Events exposes the event service.
func (s *Service) Events() *event.Service {
	return s.eventService
}

// Installer exposes the package installer so generators can queue packages
// for the install phase.
func (s *Service) Installer() *install.Service {
	return s.installer
}

// RegisterExtensionTypes registers typed generator option structs after
// construction.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.binder.RegisterType(types[i])
	}
}

// DiscoverInto probes the discovery roots for the namespace and registers
// every candidate location found. Returns the number of new registrations.
func (s *Service) DiscoverInto(ctx context.Context, name string) (int, error) {
	ns, err := namespace.Parse(s.aliases.Resolve(name))
	if err != nil {
		return 0, err
	}
	candidates, err := s.discovery.Discover(ctx, ns)
	if err != nil {
		return 0, err
	}
	registered := 0
	for _, candidate := range candidates {
		meta := &registry.Meta{
			Namespace:        candidate.Namespace,
			ResolvedLocation: candidate.ResolvedLocation,
			PackageLocation:  candidate.PackageLocation,
		}
		if _, err = s.registry.Add(ctx, meta, nil); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

// NewEnvironment creates an isolated run environment backed by this service.
func (s *Service) NewEnvironment(opts ...EnvOption) *Environment {
	return newEnvironment(s, opts...)
}

// Run is a convenience helper that creates a fresh environment, instantiates
// the named generator with the supplied arguments, composes it and drains the
// run loop to completion.
func (s *Service) Run(ctx context.Context, name string, args map[string]interface{}) (*generator.Instance, error) {
	env := s.NewEnvironment()
	return env.Run(ctx, name, args)
}

// New creates an engine service.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	if err := ret.init(options); err != nil {
		return nil, fmt.Errorf("failed to initialise service: %w", err)
	}
	return ret, nil
}
