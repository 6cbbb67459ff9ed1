package commit

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"

	"github.com/forgekit/forge/service/prompt"
)

// DefaultResolutionFile is the location of the persisted resolution record
// when the caller does not configure one.
const DefaultResolutionFile = ".forge-resolutions.yaml"

// Resolutions is the "do not ask again" record: a path-keyed map of
// previously answered conflict decisions, persisted as YAML and consulted
// before prompting.
type Resolutions struct {
	fs        afs.Service
	location  string
	mu        sync.RWMutex
	decisions map[string]prompt.Decision
}

// LoadResolutions reads the persisted record from location. A missing file
// yields an empty record.
func LoadResolutions(ctx context.Context, fs afs.Service, location string) (*Resolutions, error) {
	if location == "" {
		location = DefaultResolutionFile
	}
	result := &Resolutions{
		fs:        fs,
		location:  location,
		decisions: make(map[string]prompt.Decision),
	}
	exists, err := fs.Exists(ctx, location)
	if err != nil || !exists {
		return result, err
	}
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolution file %v: %w", location, err)
	}
	if err = yaml.Unmarshal(data, &result.decisions); err != nil {
		return nil, fmt.Errorf("failed to decode resolution file %v: %w", location, err)
	}
	return result, nil
}

// Get returns the remembered decision for path.
func (r *Resolutions) Get(path string) (prompt.Decision, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decision, ok := r.decisions[path]
	return decision, ok
}

// Remember records a decision for path and persists the record.
func (r *Resolutions) Remember(ctx context.Context, path string, decision prompt.Decision) error {
	r.mu.Lock()
	r.decisions[path] = decision
	data, err := yaml.Marshal(r.decisions)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if err = r.fs.Upload(ctx, r.location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist resolution file %v: %w", r.location, err)
	}
	return nil
}

// Len returns the number of remembered paths.
func (r *Resolutions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decisions)
}
