package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/forgekit/forge/model/namespace"
)

// Candidate is one resolved installation of a generator.
type Candidate struct {
	Namespace        string
	ResolvedLocation string
	PackageLocation  string
}

// Service locates installed generator packages on the configured search
// roots. Failure to resolve is not fatal to callers; it is reported as
// "generator not found" upstream.
type Service interface {
	// Discover returns zero or more candidates for a canonical namespace.
	Discover(ctx context.Context, ns *namespace.Namespace) ([]*Candidate, error)

	// ListPackages returns the package-name segments of every installed
	// candidate package under the search roots.
	ListPackages(ctx context.Context) ([]string, error)
}

type service struct {
	fs      afs.Service
	roots   []string
	lookups []string
}

// Option customises the discovery service.
type Option func(*service)

// WithFS overrides the filesystem used to scan the roots.
func WithFS(fs afs.Service) Option {
	return func(s *service) { s.fs = fs }
}

// WithLookups overrides the lookup fragments searched inside each package.
func WithLookups(lookups ...string) Option {
	return func(s *service) { s.lookups = lookups }
}

// New creates a filesystem discovery service scanning the supplied roots.
func New(roots []string, opts ...Option) Service {
	s := &service{roots: roots}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if len(s.lookups) == 0 {
		s.lookups = namespace.DefaultLookups
	}
	return s
}

// Discover maps the namespace onto the package naming convention under each
// root and probes every lookup fragment for the generator directory.
func (s *service) Discover(ctx context.Context, ns *namespace.Namespace) ([]*Candidate, error) {
	if ns == nil || len(ns.Segments) == 0 {
		return nil, fmt.Errorf("discovery: empty namespace")
	}
	pkgDir := namespace.DefaultPackagePrefix + ns.Package()
	if ns.Scope != "" {
		pkgDir = "@" + ns.Scope + "/" + pkgDir
	}
	var result []*Candidate
	for _, root := range s.roots {
		pkgLocation := url.Join(root, pkgDir)
		for _, lookup := range s.lookups {
			resolved := url.Join(pkgLocation, lookup)
			for _, segment := range ns.Segments[1:] {
				resolved = url.Join(resolved, segment)
			}
			exists, err := s.fs.Exists(ctx, resolved)
			if err != nil {
				return nil, fmt.Errorf("discovery: failed to probe %v: %w", resolved, err)
			}
			if !exists {
				continue
			}
			result = append(result, &Candidate{
				Namespace:        ns.String(),
				ResolvedLocation: resolved,
				PackageLocation:  pkgLocation,
			})
		}
	}
	return result, nil
}

// ListPackages lists the candidate packages installed under the roots,
// stripped of the naming-convention prefix.
func (s *service) ListPackages(ctx context.Context) ([]string, error) {
	var result []string
	seen := make(map[string]bool)
	for _, root := range s.roots {
		exists, err := s.fs.Exists(ctx, root)
		if err != nil || !exists {
			continue
		}
		objects, err := s.fs.List(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("discovery: failed to list %v: %w", root, err)
		}
		for _, object := range objects {
			if !object.IsDir() {
				continue
			}
			name := object.Name()
			if !strings.HasPrefix(name, namespace.DefaultPackagePrefix) {
				continue
			}
			pkg := strings.TrimPrefix(name, namespace.DefaultPackagePrefix)
			if pkg == "" || seen[pkg] {
				continue
			}
			seen[pkg] = true
			result = append(result, pkg)
		}
	}
	return result, nil
}
