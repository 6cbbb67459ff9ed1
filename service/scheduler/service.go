package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Run-loop states.
type State string

const (
	// StateIdle means the scheduler was created but never started.
	StateIdle State = "idle"
	// StateRunning means the scheduler is draining sub-queues.
	StateRunning State = "running"
	// StatePaused means a task failed; the loop awaits intervention.
	StatePaused State = "paused"
	// StateEnded means a full pass found no pending work anywhere.
	StateEnded State = "ended"
)

var (
	// ErrUnknownSubQueue is returned when a task targets a sub-queue that
	// was never registered.
	ErrUnknownSubQueue = errors.New("scheduler: unknown sub-queue")

	// ErrUnknownAnchor is returned when a sub-queue insertion references a
	// missing anchor.
	ErrUnknownAnchor = errors.New("scheduler: unknown anchor sub-queue")

	// ErrAlreadyRunning is returned when Start is called while a drain is
	// already in flight.
	ErrAlreadyRunning = errors.New("scheduler: already running")
)

// DefaultSubQueues is the phase order used when the caller does not supply
// one.
var DefaultSubQueues = []string{
	"initializing",
	"prompting",
	"configuring",
	"default",
	"writing",
	"conflicts",
	"install",
	"end",
}

// TaskFunc is a unit of schedulable work. A task may itself queue further
// tasks into any sub-queue, including ones already drained in the current
// pass.
type TaskFunc func(ctx context.Context) error

// Listener observes run-loop state transitions. The error is non-nil only
// for the paused transition.
type Listener func(state State, err error)

type task struct {
	action  TaskFunc
	onceKey string
}

type subQueue struct {
	name    string
	pending []*task
	once    map[string]bool
}

func (q *subQueue) push(t *task) bool {
	if t.onceKey != "" {
		if q.once[t.onceKey] {
			return false
		}
		q.once[t.onceKey] = true
	}
	q.pending = append(q.pending, t)
	return true
}

func (q *subQueue) pop() *task {
	if len(q.pending) == 0 {
		return nil
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	if head.onceKey != "" {
		delete(q.once, head.onceKey)
	}
	return head
}

// Service is the priority task scheduler: an ordered sequence of named
// sub-queues drained strictly in order, FIFO within each sub-queue, exactly
// one task in flight at any time.
type Service struct {
	mu        sync.Mutex
	queues    []*subQueue
	index     map[string]*subQueue
	state     State
	err       error
	listeners []Listener
}

// New creates a scheduler with the supplied sub-queue order; when empty the
// default phase order applies.
func New(names ...string) *Service {
	if len(names) == 0 {
		names = DefaultSubQueues
	}
	s := &Service{
		index: make(map[string]*subQueue),
		state: StateIdle,
	}
	for _, name := range names {
		s.insertLocked(name, len(s.queues))
	}
	return s
}

func (s *Service) insertLocked(name string, at int) {
	queue := &subQueue{name: name, once: make(map[string]bool)}
	s.queues = append(s.queues, nil)
	copy(s.queues[at+1:], s.queues[at:])
	s.queues[at] = queue
	s.index[name] = queue
}

// AddSubQueue registers a named sub-queue. Registering an existing name is a
// no-op. Without an insert option the sub-queue is appended after all
// existing ones; once created a sub-queue cannot be removed.
func (s *Service) AddSubQueue(name string, opts ...InsertOption) error {
	options := &insertOptions{}
	for _, opt := range opts {
		opt(options)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[name]; ok {
		return nil
	}
	at := len(s.queues)
	if options.anchor != "" {
		anchorAt := -1
		for i, queue := range s.queues {
			if queue.name == options.anchor {
				anchorAt = i
				break
			}
		}
		if anchorAt == -1 {
			return fmt.Errorf("%w: %q", ErrUnknownAnchor, options.anchor)
		}
		if options.before {
			at = anchorAt
		} else {
			at = anchorAt + 1
		}
	}
	s.insertLocked(name, at)
	return nil
}

// SubQueues returns the current sub-queue order.
func (s *Service) SubQueues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.queues))
	for _, queue := range s.queues {
		names = append(names, queue.name)
	}
	return names
}

// QueueTask appends a task to the named sub-queue. A task option may carry a
// once-key: while a task with the same key is pending in that sub-queue,
// further registrations are dropped.
func (s *Service) QueueTask(queueName string, action TaskFunc, opts ...TaskOption) error {
	options := &taskOptions{}
	for _, opt := range opts {
		opt(options)
	}
	s.mu.Lock()
	queue, ok := s.index[queueName]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownSubQueue, queueName)
	}
	queue.push(&task{action: action, onceKey: options.onceKey})
	start := options.startImmediately && s.state == StateIdle
	s.mu.Unlock()

	if start {
		go func() {
			_ = s.Start(context.Background())
		}()
	}
	return nil
}

// Start drains the sub-queues in their fixed order until a full pass finds
// nothing pending anywhere, then transitions to ended. When a task fails the
// loop pauses, the error is surfaced to listeners and returned; the
// remaining work stays queued awaiting intervention (a later Start resumes
// it).
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateRunning
	s.err = nil
	s.mu.Unlock()
	s.notify(StateRunning, nil)

	for {
		if err := ctx.Err(); err != nil {
			s.pause(err)
			return err
		}
		s.mu.Lock()
		next := s.nextLocked()
		if next == nil {
			s.state = StateEnded
			s.mu.Unlock()
			s.notify(StateEnded, nil)
			return nil
		}
		s.mu.Unlock()

		if err := next.action(ctx); err != nil {
			s.pause(err)
			return err
		}
	}
}

// nextLocked scans sub-queues in order and pops the head of the first one
// with pending work.
func (s *Service) nextLocked() *task {
	for _, queue := range s.queues {
		if head := queue.pop(); head != nil {
			return head
		}
	}
	return nil
}

func (s *Service) pause(err error) {
	s.mu.Lock()
	s.state = StatePaused
	s.err = err
	s.mu.Unlock()
	s.notify(StatePaused, err)
}

// State returns the current run-loop state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that paused the loop, if any.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// OnStateChange registers a state-transition listener.
func (s *Service) OnStateChange(listener Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

func (s *Service) notify(state State, err error) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(state, err)
	}
}
