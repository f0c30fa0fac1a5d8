// Package dedupe tracks shot submission ids so client retries of the same
// submission are acknowledged without being applied twice.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records committed submission keys.
type Deduper interface {
	// Begin claims key for one submission. It reports dup when key was
	// already committed. Otherwise the caller holds the claim and must call
	// finish exactly once: finish(true) records key, finish(false) releases
	// it for a retry. A second Begin on a claimed key blocks until the claim
	// is finished or ctx is done.
	Begin(ctx context.Context, key string) (dup bool, finish func(committed bool), err error)

	Size() int64
}

// Key scopes a client submission id to its round.
func Key(roundID, submissionID string) string {
	return roundID + "/" + submissionID
}

// inMemoryDeduper keeps committed keys in a map and evicts the oldest once
// maxSize is reached. Claimed keys live in inflight until finished.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	inflight map[string]chan struct{}
	fifo     []string
	head     int
	maxSize  int // <= 0 means unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	d.inflight = make(map[string]chan struct{})
	return d
}

func (d *inMemoryDeduper) Begin(ctx context.Context, key string) (bool, func(bool), error) {
	for {
		d.mu.Lock()
		if _, ok := d.seen[key]; ok {
			d.mu.Unlock()
			return true, nil, nil
		}
		wait, busy := d.inflight[key]
		if !busy {
			done := make(chan struct{})
			d.inflight[key] = done
			d.mu.Unlock()
			return false, d.finisher(key, done), nil
		}
		d.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
	}
}

func (d *inMemoryDeduper) finisher(key string, done chan struct{}) func(bool) {
	var once sync.Once
	return func(committed bool) {
		once.Do(func() {
			d.mu.Lock()
			delete(d.inflight, key)
			if committed {
				d.record(key)
			}
			d.mu.Unlock()
			close(done)
		})
	}
}

// record stores key, evicting the oldest entries first. Must be called with
// d.mu held.
func (d *inMemoryDeduper) record(key string) {
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		d.fifo = append(d.fifo, key)
	}
	d.seen[key] = struct{}{}
}

// evictOldest drops the oldest key. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head < len(d.fifo) {
		delete(d.seen, d.fifo[d.head])
		d.fifo[d.head] = ""
		d.head++
	}
	// Compact once the consumed prefix dominates the backing array.
	if d.head > len(d.fifo)/2 {
		d.fifo = append(d.fifo[:0], d.fifo[d.head:]...)
		d.head = 0
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
