// Package cache provides a bounded LRU pool of persistable table handles.
//
// A Pool keeps at most Capacity entries. Putting a new entry into a full
// pool evicts the least recently used one, and every entry that leaves the
// pool, by eviction or by Remove, is saved to its backing store first.
// A failed save is logged and returned, but the entry is gone from the pool
// either way.
package cache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCapacity is the pool size used when none is configured
const DefaultCapacity = 100

var (
	// ErrInvalidCapacity is returned for a capacity below one
	ErrInvalidCapacity = errors.New("cache capacity must be at least 1")

	// ErrPersist wraps a save failure of an entry leaving the pool
	ErrPersist = errors.New("persist cached table")
)

// Saver is anything that can write itself to a backing store
type Saver interface {
	Save() error
}

// Pool is an LRU cache of named handles with write-back on eviction.
// Get and Put update recency; Contains, Peek and Names do not.
//
// Pool is safe for concurrent use; the handles it returns are not
// synchronized by the pool.
type Pool[T Saver] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, T]
	capacity int
	logger   *slog.Logger

	// Set by callers around lru operations and read by onEvict, under mu
	reason  string
	pending error
}

// New creates a pool holding at most capacity entries. A nil logger
// discards log output.
func New[T Saver](capacity int, logger *slog.Logger) (*Pool[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Pool[T]{capacity: capacity, logger: logger}
	lru, err := simplelru.NewLRU[string, T](capacity, p.onEvict)
	if err != nil {
		return nil, err
	}
	p.lru = lru
	return p, nil
}

// onEvict persists an entry that is leaving the pool
func (p *Pool[T]) onEvict(name string, value T) {
	if err := value.Save(); err != nil {
		p.logger.Error("failed to persist table", "table", name, "reason", p.reason, "error", err)
		p.pending = errors.Join(p.pending, fmt.Errorf("%w %s: %w", ErrPersist, name, err))
		return
	}
	p.logger.Info("table persisted", "table", name, "reason", p.reason)
}

// takePending returns and clears the error collected by onEvict
func (p *Pool[T]) takePending() error {
	err := p.pending
	p.pending = nil
	p.reason = ""
	return err
}

// Get returns the named entry and marks it most recently used
func (p *Pool[T]) Get(name string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Get(name)
}

// Peek returns the named entry without changing recency
func (p *Pool[T]) Peek(name string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Peek(name)
}

// Contains reports whether name is cached without changing recency
func (p *Pool[T]) Contains(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Contains(name)
}

// Put inserts or replaces an entry as most recently used. If a new entry
// does not fit, the least recently used entry is saved and evicted first;
// the returned error reports a failed save of that entry. Replacing an
// existing name never evicts and does not save the old handle.
func (p *Pool[T]) Put(name string, value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reason = "evicted"
	if p.lru.Add(name, value) {
		p.logger.Debug("cache full, evicted least recently used table", "inserted", name, "capacity", p.capacity)
	}
	return p.takePending()
}

// Remove saves and drops the named entry. It reports whether the entry
// was cached; the error reports a failed save.
func (p *Pool[T]) Remove(name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reason = "removed"
	present := p.lru.Remove(name)
	return present, p.takePending()
}

// SaveAll saves every cached entry, least recently used first, without
// changing recency or dropping anything. All failures are returned joined.
func (p *Pool[T]) SaveAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, name := range p.lru.Keys() {
		value, ok := p.lru.Peek(name)
		if !ok {
			continue
		}
		if err := value.Save(); err != nil {
			p.logger.Error("failed to persist table", "table", name, "reason", "save all", "error", err)
			errs = append(errs, fmt.Errorf("%w %s: %w", ErrPersist, name, err))
		}
	}
	return errors.Join(errs...)
}

// Names returns the cached names from least to most recently used
func (p *Pool[T]) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Keys()
}

// Len returns the number of cached entries
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lru.Len()
}
