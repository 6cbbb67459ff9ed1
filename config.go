package forge

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/forgekit/forge/internal/yml"
	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/service/commit"
	"github.com/forgekit/forge/service/install"
	"github.com/forgekit/forge/service/messaging"
	"github.com/forgekit/forge/service/scheduler"
)

// DefaultControlFile is the per-project control file. It is always
// force-written on commit so user edits never block regeneration.
const DefaultControlFile = ".forge-rc.yaml"

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value is
// useful – all nested fields inherit their package defaults.

type Config struct {
	Phases    []string        `json:"phases,omitempty" yaml:"phases,omitempty"`
	Aliases   []AliasConfig   `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Policy    policy.Config   `json:"policy" yaml:"policy"`
	Commit    CommitConfig    `json:"commit" yaml:"commit"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Events    EventsConfig    `json:"events" yaml:"events"`

	// Generators carries per-namespace argument maps loaded from the
	// control file.
	Generators map[string]map[string]interface{} `json:"generators,omitempty" yaml:"generators,omitempty"`
}

// AliasConfig is a serialisable alias rule, compiled at service init.
type AliasConfig struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

type CommitConfig struct {
	ControlFiles   []string `json:"controlFiles,omitempty" yaml:"controlFiles,omitempty"`
	ResolutionFile string   `json:"resolutionFile,omitempty" yaml:"resolutionFile,omitempty"`
}

type DiscoveryConfig struct {
	Roots            []string `json:"roots,omitempty" yaml:"roots,omitempty"`
	Lookups          []string `json:"lookups,omitempty" yaml:"lookups,omitempty"`
	InstallOnMissing bool     `json:"installOnMissing,omitempty" yaml:"installOnMissing,omitempty"`
	InstallCommand   string   `json:"installCommand,omitempty" yaml:"installCommand,omitempty"`
}

type EventsConfig struct {
	Vendor messaging.Vendor `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Phases: append([]string{}, scheduler.DefaultSubQueues...),
		Commit: CommitConfig{
			ControlFiles:   []string{DefaultControlFile},
			ResolutionFile: commit.DefaultResolutionFile,
		},
		Discovery: DiscoveryConfig{
			Lookups:        append([]string{}, namespace.DefaultLookups...),
			InstallCommand: install.DefaultCommand,
		},
		Events: EventsConfig{Vendor: "memory"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if len(c.Phases) == 0 {
		return fmt.Errorf("phases must not be empty")
	}
	seen := make(map[string]bool, len(c.Phases))
	for _, phase := range c.Phases {
		if phase == "" {
			return fmt.Errorf("phase name must not be empty")
		}
		if seen[phase] {
			return fmt.Errorf("duplicate phase: %v", phase)
		}
		seen[phase] = true
	}
	switch c.Events.Vendor {
	case "", "memory", "fs":
	default:
		return fmt.Errorf("unsupported event queue vendor: %v", c.Events.Vendor)
	}
	return nil
}

// LoadConfig reads a control file and overlays it on top of the defaults.
// Scalar generator arguments keep their YAML types.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}

	var root yaml.Node
	if err = yaml.Unmarshal(data, &root); err == nil && len(root.Content) > 0 {
		if generators := (*yml.Node)(root.Content[0]).Lookup("generators"); generators != nil {
			cfg.Generators = make(map[string]map[string]interface{})
			_ = generators.Pairs(func(key string, node *yml.Node) error {
				if args, ok := node.Interface().(map[string]interface{}); ok {
					cfg.Generators[key] = args
				}
				return nil
			})
		}
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// updateControlFile rewrites the generator argument entry for one namespace
// inside control-file content, preserving every other key. Empty input
// yields a fresh document.
func updateControlFile(data []byte, ns string, args map[string]interface{}) ([]byte, error) {
	var root yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse control file: %w", err)
		}
	}
	doc := (*yml.Node)(&root)
	if len(doc.Content) == 0 {
		*doc = yml.Node(*yml.NewDocument())
		doc.Append(yml.NewMap())
	}
	mapping := (*yml.Node)(doc.Content[0])
	generators := mapping.Lookup("generators")
	if generators == nil {
		mapping.Put("generators", yml.NewMap())
		generators = mapping.Lookup("generators")
	}
	replaced := false
	for i := 0; i+1 < len(generators.Content); i += 2 {
		if generators.Content[i].Value == ns {
			generators.Content[i+1] = yml.ValueNode(args)
			replaced = true
			break
		}
	}
	if !replaced {
		generators.Put(ns, args)
	}
	return yaml.Marshal(&root)
}
