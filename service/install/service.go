package install

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"

	"github.com/forgekit/forge/service/scheduler"
	"github.com/forgekit/forge/tracing"
)

// ErrInstallFailed is returned when the package-manager invocation exits
// with a non-zero status. Installation failures are recoverable: the install
// task logs them without failing the run.
var ErrInstallFailed = errors.New("install: package manager failed")

// OnceKey guards the install task registration in the scheduler.
const OnceKey = "install"

// DefaultCommand is the package-manager command packages are appended to.
const DefaultCommand = "npm install --global"

// DefaultTimeoutMs bounds a single package-manager invocation.
const DefaultTimeoutMs = 5 * 60 * 1000

// Service invokes the local package manager for generator packages queued
// during a run.
type Service struct {
	command   string
	timeoutMs int

	mu      sync.Mutex
	queued  []string
	session *gosh.Service
}

// Option customises the installer.
type Option func(*Service)

// WithCommand overrides the package-manager command.
func WithCommand(command string) Option {
	return func(s *Service) { s.command = command }
}

// WithTimeoutMs overrides the per-invocation timeout.
func WithTimeoutMs(ms int) Option {
	return func(s *Service) { s.timeoutMs = ms }
}

// New creates an installer running the package manager through a local
// shell session.
func New(opts ...Option) *Service {
	s := &Service{command: DefaultCommand, timeoutMs: DefaultTimeoutMs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues a package for the install phase. Duplicates collapse.
func (s *Service) Schedule(pkg string) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, queued := range s.queued {
		if queued == pkg {
			return
		}
	}
	s.queued = append(s.queued, pkg)
}

// Install runs the package manager for a single package.
func (s *Service) Install(ctx context.Context, pkg string) (err error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("install.Install %s", pkg), "INTERNAL")
	defer tracing.EndSpan(span, err)

	session, err := s.getSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open shell session: %w", err)
	}
	command := fmt.Sprintf("%s %s", s.command, pkg)
	output, status, err := session.Run(ctx, command, runner.WithTimeout(s.timeoutMs))
	if err != nil {
		return fmt.Errorf("%w: %v: %v", ErrInstallFailed, command, err)
	}
	if status != 0 {
		return fmt.Errorf("%w: %v exited with %v: %s", ErrInstallFailed, command, status, strings.TrimSpace(output))
	}
	return nil
}

// Task returns the phase-bound task draining the queued packages. Failures
// are logged and do not fail the run.
func (s *Service) Task() scheduler.TaskFunc {
	return func(ctx context.Context) error {
		s.mu.Lock()
		queued := s.queued
		s.queued = nil
		s.mu.Unlock()
		for _, pkg := range queued {
			if err := s.Install(ctx, pkg); err != nil {
				log.Printf("install of %v failed: %v", pkg, err)
			}
		}
		return nil
	}
}

func (s *Service) getSession(ctx context.Context) (*gosh.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	session, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, err
	}
	s.session = session
	return session, nil
}
