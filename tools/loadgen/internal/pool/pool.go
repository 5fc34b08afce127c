// Package pool keeps values produced during a load run (placed order IDs,
// logged-in sessions) so later steps can reuse them.
package pool

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// Kind classifies pooled values
type Kind string

// Kinds produced by the storefront scenarios
const (
	KindProductID Kind = "catalog.product.id"
	KindOrderID   Kind = "order.id"
	KindSession   Kind = "identity.session"
)

// ErrPoolClosed is returned when an operation is attempted on a closed pool.
var ErrPoolClosed = errors.New("value pool is closed")

// Config holds the pool limits
type Config struct {
	// TTL is how long a value stays usable (0 means forever)
	TTL time.Duration
	// MaxPerKind bounds each kind; the oldest value is evicted first (0 means unlimited)
	MaxPerKind int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{TTL: 10 * time.Minute, MaxPerKind: 1000}
}

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats counts pool activity
type Stats struct {
	Adds      int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// Pool is a FIFO store of values per kind, safe for concurrent use
type Pool struct {
	mu     sync.Mutex
	cfg    Config
	values map[Kind][]entry
	stats  Stats
	closed bool
	now    func() time.Time
}

// New creates a Pool
func New(cfg Config) *Pool {
	return &Pool{
		cfg:    cfg,
		values: make(map[Kind][]entry),
		now:    time.Now,
	}
}

// Add stores value under kind and returns how many values were evicted
func (p *Pool) Add(kind Kind, value any) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrPoolClosed
	}

	e := entry{value: value}
	if p.cfg.TTL > 0 {
		e.expiresAt = p.now().Add(p.cfg.TTL)
	}
	list := append(p.values[kind], e)
	evicted := 0
	if p.cfg.MaxPerKind > 0 && len(list) > p.cfg.MaxPerKind {
		evicted = len(list) - p.cfg.MaxPerKind
		list = list[evicted:]
	}
	p.values[kind] = list
	p.stats.Adds++
	p.stats.Evictions += int64(evicted)
	return evicted, nil
}

// Take removes and returns the oldest live value of kind
func (p *Pool) Take(kind Kind) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.live(kind)
	if len(list) == 0 {
		p.stats.Misses++
		return nil, false
	}
	p.values[kind] = list[1:]
	p.stats.Hits++
	return list[0].value, true
}

// Random returns a live value of kind without removing it
func (p *Pool) Random(kind Kind) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.live(kind)
	if len(list) == 0 {
		p.stats.Misses++
		return nil, false
	}
	p.stats.Hits++
	return list[rand.IntN(len(list))].value, true
}

// Count returns the number of live values of kind
func (p *Pool) Count(kind Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live(kind))
}

// Stats returns a snapshot of the counters
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close drops every value; later Adds fail
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.values = make(map[Kind][]entry)
	return nil
}

// live drops expired values of kind and returns what is left. Values are
// appended in time order, so expired ones sit at the front.
func (p *Pool) live(kind Kind) []entry {
	list := p.values[kind]
	now := p.now()
	i := 0
	for i < len(list) && list[i].expired(now) {
		i++
	}
	if i > 0 {
		list = list[i:]
		p.values[kind] = list
	}
	return list
}
