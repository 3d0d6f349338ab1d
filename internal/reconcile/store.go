package reconcile

import (
	"context"
	"sync"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

// Entry is a stored broadcast that a later broadcast of the opposite marker
// may pair with.
type Entry struct {
	Result     domain.ParseResult         `json:"result"`
	Components domain.ComponentConfidence `json:"components"`
}

// PairStore holds recent split broadcasts keyed by airport and marker.
type PairStore interface {
	// Recent returns the stored entries for airport under marker, newest first.
	Recent(ctx context.Context, airport string, marker domain.Marker) ([]Entry, error)
	// Save records e as the latest entry for airport under marker.
	Save(ctx context.Context, airport string, marker domain.Marker, e Entry) error
}

// Memory store defaults.
const (
	DefaultStoreCapacity = 1000
	DefaultHistory       = 4
)

// MemoryStore is a PairStore held in process memory. It keeps the most
// recently active airports up to a fixed capacity and a bounded history per
// marker.
type MemoryStore struct {
	history int
	cache   *lruCache
}

// NewMemoryStore creates a store for up to capacity airports, keeping the
// last history entries per airport and marker.
func NewMemoryStore(capacity, history int) *MemoryStore {
	if history < 1 {
		history = 1
	}
	return &MemoryStore{history: history, cache: newLRUCache(capacity)}
}

func (s *MemoryStore) Recent(_ context.Context, airport string, marker domain.Marker) ([]Entry, error) {
	return s.cache.get(airport, marker), nil
}

func (s *MemoryStore) Save(_ context.Context, airport string, marker domain.Marker, e Entry) error {
	s.cache.put(airport, marker, e, s.history)
	return nil
}

// Len reports how many airports currently hold entries.
func (s *MemoryStore) Len() int {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return len(s.cache.entries)
}

// lruCache is a thread-safe LRU of per-airport marker histories.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	airport string
	markers map[domain.Marker][]Entry
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(airport string, marker domain.Marker) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[airport]
	if !ok {
		return nil
	}
	c.moveToFront(e)
	return append([]Entry(nil), e.markers[marker]...)
}

func (c *lruCache) put(airport string, marker domain.Marker, value Entry, history int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[airport]
	if ok {
		c.moveToFront(e)
	} else {
		e = &entry{airport: airport, markers: make(map[domain.Marker][]Entry, 2)}
		c.entries[airport] = e
		c.addToFront(e)
		if len(c.entries) > c.maxEntries {
			c.evictTail()
		}
	}

	list := append([]Entry{value}, e.markers[marker]...)
	if len(list) > history {
		list = list[:history]
	}
	e.markers[marker] = list
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.airport)
	c.remove(c.tail)
}
