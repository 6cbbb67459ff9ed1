package vfs

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/forgekit/forge/internal/clock"
)

// File states.
type State string

const (
	// StatePending marks a staged write/delete not yet reconciled with disk.
	StatePending State = "pending"
	// StateCommitted marks a file whose staged content reached disk.
	StateCommitted State = "committed"
	// StateDeleted marks a staged deletion not yet applied to disk.
	StateDeleted State = "deleted"
)

// File is the metadata record of one staged path. Content lives in the
// in-memory filesystem backing the service.
type File struct {
	Path       string
	State      State
	ModifiedAt time.Time
}

// Service is the staged filesystem: an in-memory layer holding not-yet
// committed writes and deletes, shared by every generator task during a run.
// The commit pipeline drains it through Pending and re-arms itself through
// the one-shot change subscription.
type Service struct {
	mu        sync.RWMutex
	mem       billy.Filesystem
	files     map[string]*File
	changeFns []func()
}

// New creates an empty staged filesystem.
func New() *Service {
	return &Service{
		mem:   memfs.New(),
		files: make(map[string]*File),
	}
}

// Write stages content under path and marks it pending. Writing over a
// committed file makes it pending again.
func (s *Service) Write(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("vfs: empty path")
	}
	s.mu.Lock()
	if err := util.WriteFile(s.mem, path, data, os.FileMode(0o644)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("vfs: failed to stage %v: %w", path, err)
	}
	s.files[path] = &File{Path: path, State: StatePending, ModifiedAt: clock.Now()}
	s.mu.Unlock()
	s.fireChange()
	return nil
}

// Read returns the staged content of path.
func (s *Service) Read(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.files[path]
	if !ok || record.State == StateDeleted {
		return nil, os.ErrNotExist
	}
	return util.ReadFile(s.mem, path)
}

// Delete stages a deletion of path.
func (s *Service) Delete(path string) error {
	s.mu.Lock()
	if record, ok := s.files[path]; ok && record.State != StateDeleted {
		_ = s.mem.Remove(path)
	}
	s.files[path] = &File{Path: path, State: StateDeleted, ModifiedAt: clock.Now()}
	s.mu.Unlock()
	s.fireChange()
	return nil
}

// Exists reports whether path is staged and not deleted.
func (s *Service) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.files[path]
	return ok && record.State != StateDeleted
}

// Pending returns the staged files awaiting reconciliation, ordered by path
// for deterministic commit passes.
func (s *Service) Pending() []*File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*File
	for _, record := range s.files {
		if record.State == StatePending || record.State == StateDeleted {
			copied := *record
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// MarkCommitted records that the staged content of path reached disk.
// Committing an already committed path is a no-op.
func (s *Service) MarkCommitted(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.files[path]
	if !ok {
		return
	}
	if record.State == StateDeleted {
		delete(s.files, path)
		return
	}
	record.State = StateCommitted
}

// Lookup returns a copy of the metadata record for path.
func (s *Service) Lookup(path string) *File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.files[path]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// OnChange registers a one-shot subscription fired on the next staged
// mutation, then dropped. Subscribers re-arm themselves when they need the
// following change as well; this keeps exactly one commit pass queued per
// burst of writes.
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	s.changeFns = append(s.changeFns, fn)
	s.mu.Unlock()
}

func (s *Service) fireChange() {
	s.mu.Lock()
	subscribers := s.changeFns
	s.changeFns = nil
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn()
	}
}
