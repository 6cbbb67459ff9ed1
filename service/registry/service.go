package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/forgekit/forge/model/generator"
	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/service/dao/store"
)

var (
	// ErrNotFound is returned when neither the canonical namespace nor its
	// alias resolution matches a registered generator.
	ErrNotFound = errors.New("registry: generator not found")

	// ErrInvalidLocation rejects relative resolved locations at
	// registration time.
	ErrInvalidLocation = errors.New("registry: resolved location must be absolute")
)

// Meta is the registry entry for one canonical namespace.
type Meta struct {
	Namespace        string
	ResolvedLocation string
	PackageLocation  string

	factory generator.Factory
}

// Factory returns the registered or lazily loaded factory, nil when none
// was attached yet.
func (m *Meta) Factory() generator.Factory {
	return m.factory
}

// Loader lazily builds a factory from a registry entry's resolved location.
type Loader func(ctx context.Context, meta *Meta) (generator.Factory, error)

// Service maps canonical namespaces to generator metadata and factories.
// Lookup falls back once through alias resolution before giving up.
type Service struct {
	mu      sync.Mutex
	store   *store.MemoryStore[string, Meta]
	aliases *namespace.Aliases
	loader  Loader
}

// Option customises the registry.
type Option func(*Service)

// WithAliases attaches the alias rule table used by lookup fallback.
func WithAliases(aliases *namespace.Aliases) Option {
	return func(s *Service) { s.aliases = aliases }
}

// WithLoader attaches the lazy factory loader consulted when an entry has a
// location but no factory yet.
func WithLoader(loader Loader) Option {
	return func(s *Service) { s.loader = loader }
}

// New creates an empty registry.
func New(opts ...Option) *Service {
	s := &Service{
		store: store.NewMemoryStore[string, Meta](func(m *Meta) string { return m.Namespace }),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.aliases == nil {
		s.aliases = namespace.NewAliases()
	}
	return s
}

// Add registers metadata and optionally a factory under the canonical
// namespace. Registering the same namespace and location twice is a no-op;
// a different location overwrites the metadata but keeps a previously
// attached factory unless the caller explicitly supplies a replacement.
func (s *Service) Add(ctx context.Context, meta *Meta, factory generator.Factory) (*Meta, error) {
	if meta == nil || meta.Namespace == "" {
		return nil, fmt.Errorf("%w: missing namespace", namespace.ErrInvalidNamespace)
	}
	ns, err := namespace.Parse(meta.Namespace)
	if err != nil {
		return nil, err
	}
	if !isAbsolute(meta.ResolvedLocation) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, meta.ResolvedLocation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	canonical := ns.String()
	existing, err := s.store.Load(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ResolvedLocation == meta.ResolvedLocation && factory == nil {
		return existing, nil
	}
	entry := &Meta{
		Namespace:        canonical,
		ResolvedLocation: meta.ResolvedLocation,
		PackageLocation:  meta.PackageLocation,
		factory:          factory,
	}
	if entry.factory == nil && existing != nil {
		entry.factory = existing.factory
	}
	if err = s.store.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetMeta returns the entry registered under the canonical namespace, nil
// when unknown.
func (s *Service) GetMeta(ctx context.Context, name string) *Meta {
	meta, _ := s.store.Load(ctx, name)
	return meta
}

// Get resolves a factory for the requested namespace, falling back once
// through alias resolution and then through the lazy loader.
func (s *Service) Get(ctx context.Context, name string) (generator.Factory, *Meta, error) {
	meta, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if meta == nil {
		if aliased := s.aliases.Resolve(name); aliased != name {
			meta, err = s.store.Load(ctx, aliased)
			if err != nil {
				return nil, nil, err
			}
		}
	}
	if meta == nil {
		return nil, nil, s.notFound(ctx, name)
	}
	if meta.factory == nil && s.loader != nil {
		factory, err := s.loader(ctx, meta)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load factory for %v from %v: %w", meta.Namespace, meta.ResolvedLocation, err)
		}
		s.mu.Lock()
		meta.factory = factory
		err = s.store.Save(ctx, meta)
		s.mu.Unlock()
		if err != nil {
			return nil, nil, err
		}
	}
	if meta.factory == nil {
		return nil, nil, s.notFound(ctx, name)
	}
	return meta.factory, meta, nil
}

// Namespaces returns every registered canonical namespace, sorted.
func (s *Service) Namespaces(ctx context.Context) []string {
	entries, _ := s.store.List(ctx)
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Namespace)
	}
	sort.Strings(result)
	return result
}

// PackageNamespaces returns the unique package-name segments of every
// registered namespace, sorted.
func (s *Service) PackageNamespaces(ctx context.Context) []string {
	seen := make(map[string]bool)
	var result []string
	for _, name := range s.Namespaces(ctx) {
		ns, err := namespace.Parse(name)
		if err != nil {
			continue
		}
		if pkg := ns.Package(); !seen[pkg] {
			seen[pkg] = true
			result = append(result, pkg)
		}
	}
	sort.Strings(result)
	return result
}

func (s *Service) notFound(ctx context.Context, name string) error {
	known := s.Namespaces(ctx)
	if len(known) == 0 {
		return fmt.Errorf("%w: %q (registry is empty)", ErrNotFound, name)
	}
	return fmt.Errorf("%w: %q (known: %v)", ErrNotFound, name, strings.Join(known, ", "))
}

func isAbsolute(location string) bool {
	if location == "" {
		return false
	}
	return strings.HasPrefix(location, "/") || strings.Contains(location, "://")
}
