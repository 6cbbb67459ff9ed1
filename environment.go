package forge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/forgekit/forge/internal/idgen"
	"github.com/forgekit/forge/model/generator"
	"github.com/forgekit/forge/model/namespace"
	"github.com/forgekit/forge/policy"
	"github.com/forgekit/forge/progress"
	"github.com/forgekit/forge/service/commit"
	"github.com/forgekit/forge/service/composed"
	"github.com/forgekit/forge/service/event"
	"github.com/forgekit/forge/service/install"
	"github.com/forgekit/forge/service/prompt"
	"github.com/forgekit/forge/service/registry"
	"github.com/forgekit/forge/service/scheduler"
	"github.com/forgekit/forge/service/vfs"
	"github.com/forgekit/forge/tracing"
)

// EnvOption customises a single run environment.
type EnvOption func(e *Environment)

// WithEnvPolicy overrides the service-level conflict policy for this run.
func WithEnvPolicy(pol *policy.Policy) EnvOption {
	return func(e *Environment) { e.policy = pol }
}

// WithEnvPrompter overrides the conflict resolution adapter for this run.
func WithEnvPrompter(prompter prompt.Prompter) EnvOption {
	return func(e *Environment) { e.prompter = prompter }
}

// WithEnvResolutionFile overrides the persisted resolution record location.
func WithEnvResolutionFile(location string) EnvOption {
	return func(e *Environment) { e.resolutionFile = location }
}

// Environment is one isolated run: its own scheduler, staged filesystem,
// composition store and commit pipeline over the shared service.
type Environment struct {
	service        *Service
	runID          string
	scheduler      *scheduler.Service
	staged         *vfs.Service
	composed       *composed.Store
	committer      *commit.Service
	policy         *policy.Policy
	prompter       prompt.Prompter
	resolutionFile string

	mu    sync.Mutex
	armed bool
}

func newEnvironment(s *Service, opts ...EnvOption) *Environment {
	env := &Environment{
		service:        s,
		runID:          idgen.New(),
		scheduler:      scheduler.New(s.config.Phases...),
		staged:         vfs.New(),
		composed:       composed.New(),
		prompter:       s.prompter,
		resolutionFile: s.config.Commit.ResolutionFile,
	}
	for _, opt := range opts {
		opt(env)
	}
	if env.policy == nil {
		env.policy = s.policy
	}
	if len(s.config.Commit.ControlFiles) > 0 {
		merged := *env.policy
		merged.ForceWrite = append(append([]string{}, merged.ForceWrite...), s.config.Commit.ControlFiles...)
		env.policy = &merged
	}
	return env
}

// RunID returns the unique identifier of this run.
func (e *Environment) RunID() string { return e.runID }

// Scheduler exposes the run loop so generators and callers can queue tasks.
func (e *Environment) Scheduler() *scheduler.Service { return e.scheduler }

// Staged exposes the staged filesystem generators write into.
func (e *Environment) Staged() *vfs.Service { return e.staged }

// Composed exposes the composition store.
func (e *Environment) Composed() *composed.Store { return e.composed }

// Create resolves the namespace through aliases and the registry, binds typed
// options when registered, and instantiates the generator. When the registry
// misses and opportunistic install is enabled the package is installed and
// discovery re-run before giving up.
func (e *Environment) Create(ctx context.Context, name string, args map[string]interface{}) (*generator.Instance, error) {
	s := e.service
	resolved := s.aliases.Resolve(name)
	factory, meta, err := s.registry.Get(ctx, resolved)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) || !s.config.Discovery.InstallOnMissing {
			return nil, err
		}
		factory, meta, err = e.installAndRetry(ctx, resolved, err)
		if err != nil {
			return nil, err
		}
	}
	ns, err := namespace.Parse(meta.Namespace)
	if err != nil {
		return nil, err
	}
	invocation := &generator.Invocation{
		Namespace: ns,
		Location:  meta.ResolvedLocation,
		Args:      e.mergeArgs(ns.String(), args),
	}
	if dataType := s.binder.Types().Lookup(ns.String()); dataType != nil {
		options, bindErr := s.binder.Bind(ns.String(), invocation.Args)
		if bindErr != nil {
			return nil, bindErr
		}
		invocation.Options = options
	}
	gen, err := factory(ctx, invocation)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %v: %w", ns, err)
	}
	return generator.NewInstance(gen)
}

// mergeArgs overlays caller arguments on top of per-namespace defaults from
// the control file.
func (e *Environment) mergeArgs(ns string, args map[string]interface{}) map[string]interface{} {
	defaults := e.service.config.Generators[ns]
	if len(defaults) == 0 {
		return args
	}
	merged := make(map[string]interface{}, len(defaults)+len(args))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged
}

func (e *Environment) installAndRetry(ctx context.Context, resolved string, lookupErr error) (generator.Factory, *registry.Meta, error) {
	s := e.service
	ns, err := namespace.Parse(resolved)
	if err != nil {
		return nil, nil, lookupErr
	}
	pkg := namespace.DefaultPackagePrefix + ns.Package()
	if err = s.installer.Install(ctx, pkg); err != nil {
		log.Printf("warning: opportunistic install of %v failed: %v", pkg, err)
		return nil, nil, lookupErr
	}
	if _, err = s.DiscoverInto(ctx, resolved); err != nil {
		return nil, nil, lookupErr
	}
	return s.registry.Get(ctx, resolved)
}

// ComposeWith registers the instance in the composition store. The first
// composition of an identity publishes a Composed event and schedules the
// generator's work; repeat compositions are no-ops.
func (e *Environment) ComposeWith(ctx context.Context, instance *generator.Instance) error {
	added, entry := e.composed.Add(instance)
	if !added {
		return nil
	}
	publishEvent(ctx, e.service.eventService, e.eventContext("composed", ""), Composed{
		RunID:      e.runID,
		Identifier: entry.Identifier,
		Namespace:  instance.Namespace(),
		Location:   instance.Location(),
	})
	switch instance.Kind {
	case generator.KindPhased:
		tasker, ok := instance.Generator.(generator.Tasker)
		if !ok {
			return fmt.Errorf("phased generator %v does not implement the task contract", entry.Identifier)
		}
		if err := tasker.Tasks(ctx, e.scheduler); err != nil {
			return fmt.Errorf("failed to schedule tasks for %v: %w", entry.Identifier, err)
		}
	case generator.KindLegacy:
		runner := instance.Generator.(generator.Runner)
		task := func(ctx context.Context) error {
			progress.UpdateCtx(ctx, progress.Delta{Tasks: 1})
			if err := runner.Run(ctx); err != nil {
				if !instance.ForwardErrors() {
					log.Printf("generator %v failed (errors silenced): %v", entry.Identifier, err)
					return nil
				}
				return err
			}
			return nil
		}
		if err := e.scheduler.QueueTask("default", task); err != nil {
			return err
		}
	}
	return nil
}

// StageGeneratorArgs merges the namespace's argument map into the control
// file at location and stages the result. The write flows through the commit
// pipeline, where control files are force-written, so user edits to other
// entries survive.
func (e *Environment) StageGeneratorArgs(ctx context.Context, location, ns string, args map[string]interface{}) error {
	var data []byte
	if ok, _ := e.service.fs.Exists(ctx, location); ok {
		var err error
		if data, err = e.service.fs.DownloadWithURL(ctx, location); err != nil {
			return fmt.Errorf("failed to load control file %v: %w", location, err)
		}
	}
	updated, err := updateControlFile(data, ns, args)
	if err != nil {
		return err
	}
	return e.staged.Write(location, updated)
}

// OnCompose registers a callback fired when the given identifier is composed
// for the first time. An empty identifier subscribes to every composition.
func (e *Environment) OnCompose(identifier string, fn func(*composed.Entry)) {
	e.composed.OnCompose(func(entry *composed.Entry) {
		if identifier == "" || entry.Identifier == identifier {
			fn(entry)
		}
	})
}

// arm queues the commit and install maintenance tasks exactly once per
// environment.
func (e *Environment) arm(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.armed {
		return nil
	}
	s := e.service
	resolutions, err := commit.LoadResolutions(ctx, s.fs, e.resolutionFile)
	if err != nil {
		return err
	}
	e.committer = commit.New(e.staged,
		commit.WithFS(s.fs),
		commit.WithPrompter(e.prompter),
		commit.WithPolicy(e.policy),
		commit.WithResolutions(resolutions))
	if err = e.scheduler.QueueTask("conflicts", e.committer.Task(e.scheduler, "conflicts"),
		scheduler.WithOnceKey(commit.OnceKey)); err != nil {
		return err
	}
	if err = e.scheduler.QueueTask("install", s.installer.Task(),
		scheduler.WithOnceKey(install.OnceKey)); err != nil {
		return err
	}
	e.armed = true
	return nil
}

// Start drains the run loop to completion. A task failure pauses the loop,
// publishes a SchedulerPaused event and returns the error; a later Start
// resumes from the paused queue.
func (e *Environment) Start(ctx context.Context) (err error) {
	if err = e.arm(ctx); err != nil {
		return err
	}
	ctx, span := tracing.StartSpan(ctx, "scheduler.drain", "INTERNAL")
	span.WithAttributes(map[string]string{"runID": e.runID})
	defer tracing.EndSpan(span, err)
	if err = e.scheduler.Start(ctx); err != nil {
		publishEvent(ctx, e.service.eventService, e.eventContext("scheduler-error", ""), SchedulerError{
			RunID: e.runID,
			Error: err.Error(),
		})
		publishEvent(ctx, e.service.eventService, e.eventContext("scheduler-paused", ""), SchedulerPaused{
			RunID: e.runID,
			Error: err.Error(),
		})
		return err
	}
	return nil
}

// Commit flushes the staged filesystem outside the run loop, applying the
// same policy and resolution rules as the scheduled commit task.
func (e *Environment) Commit(ctx context.Context) error {
	if err := e.arm(ctx); err != nil {
		return err
	}
	return e.committer.Commit(ctx)
}

// Run instantiates the named generator, composes it and drains the run loop.
// It returns the root instance so callers can inspect it after the run.
func (e *Environment) Run(ctx context.Context, name string, args map[string]interface{}) (instance *generator.Instance, err error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("environment.run %s", name), "INTERNAL")
	span.WithAttributes(map[string]string{"runID": e.runID, "namespace": name})
	defer tracing.EndSpan(span, err)
	if _, ok := progress.FromContext(ctx); !ok {
		ctx, _ = progress.WithNewTracker(ctx, e.runID, name, nil)
	}
	publishEvent(ctx, e.service.eventService, e.eventContext("run-started", ""), RunStarted{
		RunID:     e.runID,
		Namespace: name,
	})
	instance, err = e.Create(ctx, name, args)
	if err == nil {
		err = e.ComposeWith(ctx, instance)
	}
	if err == nil {
		err = e.Start(ctx)
	}
	ended := RunEnded{RunID: e.runID, Namespace: name}
	if err != nil {
		ended.Error = err.Error()
	}
	publishEvent(ctx, e.service.eventService, e.eventContext("run-ended", ""), ended)
	return instance, err
}

func (e *Environment) eventContext(eventType, phase string) *event.Context {
	return &event.Context{
		RunID:     e.runID,
		EventType: eventType,
		Phase:     phase,
	}
}
