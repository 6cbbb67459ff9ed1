package commit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/progress"
	"github.com/forgekit/forge/service/prompt"
	"github.com/forgekit/forge/service/scheduler"
	"github.com/forgekit/forge/service/vfs"
	"github.com/forgekit/forge/tracing"
)

// ErrAborted is returned when the user or policy cancels the whole commit
// pass. It propagates as a task error, pausing the scheduler.
var ErrAborted = errors.New("commit: aborted by conflict resolution")

// OnceKey guards the commit task registration in the scheduler.
const OnceKey = "commit"

// Service is the commit pipeline: it drains the staged filesystem, detects
// conflicts against disk, resolves them by policy or through the interactive
// adapter, performs the physical write and re-arms itself for late-arriving
// staged changes.
type Service struct {
	fs          afs.Service
	staged      *vfs.Service
	prompter    prompt.Prompter
	pol         *policy.Policy
	resolutions *Resolutions
}

// Option customises the commit service.
type Option func(*Service)

// WithFS overrides the physical filesystem (defaults to afs.New()).
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithPrompter sets the interactive adapter. Without one every unresolved
// conflict skips the write.
func WithPrompter(p prompt.Prompter) Option {
	return func(s *Service) { s.prompter = p }
}

// WithPolicy sets the default policy applied when the run context carries
// none.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.pol = p }
}

// WithResolutions attaches the persisted "do not ask again" record.
func WithResolutions(r *Resolutions) Option {
	return func(s *Service) { s.resolutions = r }
}

// New creates a commit pipeline over the supplied staged filesystem.
func New(staged *vfs.Service, opts ...Option) *Service {
	s := &Service{staged: staged}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	return s
}

// Task returns the phase-bound task draining the staged filesystem. After a
// pass completes the pipeline subscribes once to the staged "changed"
// notification and re-queues itself into the same sub-queue, so writes
// staged by later-composed generators are committed in a later pass rather
// than lost.
func (s *Service) Task(sched *scheduler.Service, subQueue string) scheduler.TaskFunc {
	var run scheduler.TaskFunc
	run = func(ctx context.Context) (err error) {
		ctx, span := tracing.StartSpan(ctx, "commit.pass", "INTERNAL")
		defer tracing.EndSpan(span, err)
		if err = s.Commit(ctx); err != nil {
			return err
		}
		s.staged.OnChange(func() {
			if qErr := sched.QueueTask(subQueue, run, scheduler.WithOnceKey(OnceKey)); qErr != nil {
				log.Printf("failed to re-queue commit task: %v", qErr)
			}
		})
		return nil
	}
	return run
}

// Commit performs a single reconciliation pass over the pending staged
// files. Committing an already committed file is a no-op: it no longer
// appears in the pending set.
func (s *Service) Commit(ctx context.Context) error {
	pol := s.pol
	if ctxPolicy := policy.FromContext(ctx); ctxPolicy != nil {
		pol = ctxPolicy
	}
	for _, staged := range s.staged.Pending() {
		if err := s.commitFile(ctx, pol, staged); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) commitFile(ctx context.Context, pol *policy.Policy, staged *vfs.File) error {
	if staged.State == vfs.StateDeleted {
		return s.commitDelete(ctx, pol, staged.Path)
	}

	data, err := s.staged.Read(staged.Path)
	if err != nil {
		return fmt.Errorf("failed to read staged %v: %w", staged.Path, err)
	}

	// Well-known control files overwrite without prompting.
	if pol.IsForceWritten(staged.Path) {
		return s.write(ctx, pol, staged.Path, data)
	}

	// Previously answered paths skip the prompt.
	if s.resolutions != nil {
		if decision, ok := s.resolutions.Get(staged.Path); ok {
			return s.apply(ctx, pol, staged.Path, data, decision)
		}
	}

	exists, err := s.fs.Exists(ctx, staged.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %v: %w", staged.Path, err)
	}
	if !exists {
		return s.write(ctx, pol, staged.Path, data)
	}
	onDisk, err := s.fs.DownloadWithURL(ctx, staged.Path)
	if err != nil {
		return fmt.Errorf("failed to read %v: %w", staged.Path, err)
	}
	if bytes.Equal(onDisk, data) {
		// Identical content needs no physical write.
		s.staged.MarkCommitted(staged.Path)
		progress.UpdateCtx(ctx, progress.Delta{Committed: 1})
		return nil
	}

	progress.UpdateCtx(ctx, progress.Delta{Conflicts: 1})
	switch {
	case pol.IsForced():
		return s.write(ctx, pol, staged.Path, data)
	case pol.IsDryRun():
		s.staged.MarkCommitted(staged.Path)
		progress.UpdateCtx(ctx, progress.Delta{Skipped: 1})
		return nil
	}

	decision, remember, err := s.resolve(ctx, staged.Path, onDisk, data)
	if err != nil {
		return err
	}
	if remember && s.resolutions != nil && decision != prompt.DecisionAbort {
		if rErr := s.resolutions.Remember(ctx, staged.Path, decision); rErr != nil {
			log.Printf("failed to remember resolution for %v: %v", staged.Path, rErr)
		}
	}
	return s.apply(ctx, pol, staged.Path, data, decision)
}

func (s *Service) resolve(ctx context.Context, path string, onDisk, data []byte) (prompt.Decision, bool, error) {
	if s.prompter == nil {
		return prompt.DecisionSkip, false, nil
	}
	conflict, err := describeConflict(path, onDisk, data)
	if err != nil {
		return "", false, fmt.Errorf("failed to diff %v: %w", path, err)
	}
	decision, remember, err := s.prompter.Resolve(ctx, conflict)
	if err != nil {
		return "", false, fmt.Errorf("conflict prompt for %v: %w", path, err)
	}
	return decision, remember, nil
}

func (s *Service) apply(ctx context.Context, pol *policy.Policy, path string, data []byte, decision prompt.Decision) error {
	switch decision {
	case prompt.DecisionOverwrite:
		return s.write(ctx, pol, path, data)
	case prompt.DecisionSkip:
		s.staged.MarkCommitted(path)
		progress.UpdateCtx(ctx, progress.Delta{Skipped: 1})
		return nil
	case prompt.DecisionAbort:
		return fmt.Errorf("%w: %v", ErrAborted, path)
	}
	return fmt.Errorf("unsupported conflict decision %q for %v", decision, path)
}

func (s *Service) write(ctx context.Context, pol *policy.Policy, path string, data []byte) error {
	if !pol.IsDryRun() {
		if err := s.fs.Upload(ctx, path, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write %v: %w", path, err)
		}
	}
	s.staged.MarkCommitted(path)
	progress.UpdateCtx(ctx, progress.Delta{Committed: 1})
	return nil
}

func (s *Service) commitDelete(ctx context.Context, pol *policy.Policy, path string) error {
	if !pol.IsDryRun() {
		exists, err := s.fs.Exists(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to stat %v: %w", path, err)
		}
		if exists {
			if err = s.fs.Delete(ctx, path); err != nil {
				return fmt.Errorf("failed to delete %v: %w", path, err)
			}
		}
	}
	s.staged.MarkCommitted(path)
	progress.UpdateCtx(ctx, progress.Delta{Committed: 1})
	return nil
}
