package composed

import (
	"sync"
	"time"

	"github.com/forgekit/forge/internal/clock"
	"github.com/forgekit/forge/model/generator"
)

// Entry records one generator instance folded into the current run.
type Entry struct {
	Identifier string
	Instance   *generator.Instance
	ComposedAt time.Time
}

// Notifier observes compositions; it fires exactly once per identifier, at
// the moment the instance is first added.
type Notifier func(entry *Entry)

// Store tracks which generator instances were already folded into the run.
// The identifier is derived from the instance's own identity, never from
// the call site, so two independently constructed requests for the same
// generator collapse to one execution.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	order     []string
	notifiers []Notifier
}

// New creates an empty composition store.
func New() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// OnCompose registers a composition notifier.
func (s *Store) OnCompose(notifier Notifier) {
	s.mu.Lock()
	s.notifiers = append(s.notifiers, notifier)
	s.mu.Unlock()
}

// Add folds an instance into the run. When the identifier was composed
// before, the previously stored entry is returned with added=false and no
// side effects; otherwise the instance is stored and the composition
// notification fires exactly once.
func (s *Store) Add(instance *generator.Instance) (bool, *Entry) {
	identifier := instance.Identifier()
	s.mu.Lock()
	if existing, ok := s.entries[identifier]; ok {
		s.mu.Unlock()
		return false, existing
	}
	entry := &Entry{
		Identifier: identifier,
		Instance:   instance,
		ComposedAt: clock.Now(),
	}
	s.entries[identifier] = entry
	s.order = append(s.order, identifier)
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.mu.Unlock()

	for _, notifier := range notifiers {
		notifier(entry)
	}
	return true, entry
}

// Lookup returns the entry composed under identifier, nil when absent.
func (s *Store) Lookup(identifier string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[identifier]
}

// Entries returns every composed entry in composition order.
func (s *Store) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*Entry, 0, len(s.order))
	for _, identifier := range s.order {
		result = append(result, s.entries[identifier])
	}
	return result
}

// Len returns the number of composed entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
