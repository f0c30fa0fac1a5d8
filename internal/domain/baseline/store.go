package baseline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/sgengine/internal/domain/types"
)

// Default model parameters used when a model is created by its first curve.
const (
	DefaultShortGameYards = 30
	DefaultProxyLie       = types.LieRough
)

// Store holds named baseline models. Reads never block writers and always see
// a complete model.
type Store interface {
	// Model returns the named model or a *ModelNotFoundError.
	Model(ctx context.Context, name string) (*Model, error)
	// Models lists model names in sorted order.
	Models(ctx context.Context) []string
	// ReplaceCurve bulk-replaces one curve of a model, creating the model if needed.
	ReplaceCurve(ctx context.Context, model string, kind Kind, points []Point) error
	// SetParams replaces a model's tuning values, creating the model if needed.
	SetParams(ctx context.Context, model string, p Params) error
}

// Persister mirrors baseline writes to durable storage. It is called before a
// change is published so a failed write leaves the previous model in place.
// SaveCurve receives the params of the model being published so a model
// created by its first curve is stored with its own threshold.
type Persister interface {
	SaveCurve(ctx context.Context, model string, p Params, kind Kind, points []Point) error
	SaveParams(ctx context.Context, model string, p Params) error
}

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDefaultParams sets the params given to models created by ReplaceCurve.
func WithDefaultParams(p Params) Option {
	return func(s *MemoryStore) {
		if p.Validate() == nil {
			s.defaults = p
		}
	}
}

// WithPersister mirrors every write to p.
func WithPersister(p Persister) Option {
	return func(s *MemoryStore) {
		s.persister = p
	}
}

// WithOnChange registers a callback invoked with the model count after each write.
func WithOnChange(fn func(models int)) Option {
	return func(s *MemoryStore) {
		s.onChange = fn
	}
}

type snapshot map[string]*Model

// MemoryStore is a copy-on-write Store. Writers serialize on a mutex and
// publish a fresh map; readers load the current map without locking.
type MemoryStore struct {
	mu        sync.Mutex
	current   atomic.Pointer[snapshot]
	defaults  Params
	persister Persister
	onChange  func(models int)
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		defaults: Params{ShortGameYards: DefaultShortGameYards, ProxyLie: DefaultProxyLie},
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := snapshot{}
	s.current.Store(&empty)
	return s
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Model implements Store.
func (s *MemoryStore) Model(ctx context.Context, name string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = normalizeName(name)
	m, ok := (*s.current.Load())[name]
	if !ok {
		return nil, &ModelNotFoundError{Model: name}
	}
	return m, nil
}

// Models implements Store.
func (s *MemoryStore) Models(_ context.Context) []string {
	return slices.Sorted(maps.Keys(*s.current.Load()))
}

// ReplaceCurve implements Store.
func (s *MemoryStore) ReplaceCurve(ctx context.Context, model string, kind Kind, points []Point) error {
	model = normalizeName(model)
	if model == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidCurve)
	}
	return s.update(ctx, model, func(m *Model) (*Model, error) {
		next, err := m.withCurve(kind, points)
		if err != nil {
			return nil, err
		}
		if s.persister != nil {
			if err := s.persister.SaveCurve(ctx, model, next.Params(), kind, next.Points(kind)); err != nil {
				return nil, fmt.Errorf("persist %s curve for %q: %w", kind, model, err)
			}
		}
		return next, nil
	})
}

// SetParams implements Store.
func (s *MemoryStore) SetParams(ctx context.Context, model string, p Params) error {
	model = normalizeName(model)
	if model == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.update(ctx, model, func(m *Model) (*Model, error) {
		if s.persister != nil {
			if err := s.persister.SaveParams(ctx, model, p); err != nil {
				return nil, fmt.Errorf("persist params for %q: %w", model, err)
			}
		}
		return m.withParams(p), nil
	})
}

// Load publishes model definitions without calling the persister; used to hydrate from
// durable storage at startup. Curves a definition omits are left as they are.
func (s *MemoryStore) Load(ctx context.Context, models []ModelSpec) error {
	for _, ms := range models {
		name := normalizeName(ms.Name)
		err := s.update(ctx, name, func(m *Model) (*Model, error) {
			if ms.Params != (Params{}) {
				if err := ms.Params.Validate(); err != nil {
					return nil, fmt.Errorf("model %q: %w", name, err)
				}
				m = m.withParams(ms.Params)
			}
			for kind, points := range map[Kind][]Point{KindPutting: ms.Putting, KindOffGreen: ms.OffGreen} {
				if len(points) == 0 {
					continue
				}
				next, err := m.withCurve(kind, points)
				if err != nil {
					return nil, fmt.Errorf("model %q: %w", name, err)
				}
				m = next
			}
			return m, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) update(ctx context.Context, name string, fn func(*Model) (*Model, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := *s.current.Load()
	m, ok := prev[name]
	if !ok {
		m = newModel(name, s.defaults)
	}
	next, err := fn(m)
	if err != nil {
		return err
	}

	snap := make(snapshot, len(prev)+1)
	maps.Copy(snap, prev)
	snap[name] = next
	s.current.Store(&snap)

	if s.onChange != nil {
		s.onChange(len(snap))
	}
	return nil
}
