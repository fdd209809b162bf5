package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/gridengine/pkg/broadcast"
	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
)

// layout is one open engine. mu serialises every access to engine; the
// engine itself is single-threaded.
type layout struct {
	mu     sync.Mutex
	name   string
	engine *grid.Engine
	// deleted is set once the layout is dropped so requests that were
	// waiting on mu do not act on a stale engine.
	deleted bool
	// ready is set while engine holds a loaded or created layout. It can be
	// read without mu.
	ready atomic.Bool
}

type openLayouts struct {
	mu    sync.Mutex
	items map[string]*layout
}

func newOpenLayouts() *openLayouts {
	return &openLayouts{items: make(map[string]*layout)}
}

// get returns the open layout for name, loading it from the store on first
// use. The layout is returned locked.
func (s *Server) get(ctx context.Context, name string) (*layout, error) {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return nil, err
	}

	s.open.mu.Lock()
	l, ok := s.open.items[name]
	if !ok {
		l = &layout{name: name}
		s.open.items[name] = l
	}
	s.open.mu.Unlock()

	l.mu.Lock()
	if l.deleted {
		l.mu.Unlock()
		return s.get(ctx, name)
	}
	if l.engine != nil {
		return l, nil
	}

	e, err := s.layouts.Load(ctx, name, grid.WithLogger(s.logger))
	if err != nil {
		s.drop(l)
		l.mu.Unlock()
		return nil, err
	}
	l.engine = e
	l.ready.Store(true)
	return l, nil
}

// create opens a new empty layout. It fails with LAYOUT_EXISTS if the name
// is open or stored.
func (s *Server) create(ctx context.Context, name string, rows, cols int) (*layout, error) {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return nil, err
	}
	if err := gerrors.ValidateDimensions(rows, cols); err != nil {
		return nil, err
	}

	s.open.mu.Lock()
	l, ok := s.open.items[name]
	if !ok {
		l = &layout{name: name}
		s.open.items[name] = l
	}
	s.open.mu.Unlock()

	l.mu.Lock()
	if l.deleted {
		l.mu.Unlock()
		return s.create(ctx, name, rows, cols)
	}
	exists := l.engine != nil
	if !exists {
		var err error
		if exists, err = s.layouts.Exists(ctx, name); err != nil {
			s.drop(l)
			l.mu.Unlock()
			return nil, err
		}
	}
	if exists {
		l.mu.Unlock()
		return nil, gerrors.New(gerrors.ErrCodeLayoutExists, "layout %q already exists", name)
	}

	e := grid.New(rows, cols, grid.WithLogger(s.logger))
	if err := s.layouts.Save(ctx, name, e); err != nil {
		s.drop(l)
		l.mu.Unlock()
		return nil, err
	}
	l.engine = e
	l.ready.Store(true)
	return l, nil
}

// remove deletes the named layout from memory and the store.
func (s *Server) remove(ctx context.Context, name string) error {
	l, err := s.get(ctx, name)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()

	if err := s.layouts.Delete(ctx, name); err != nil {
		return err
	}
	s.drop(l)
	return nil
}

// drop forgets l. The caller holds l.mu.
func (s *Server) drop(l *layout) {
	l.deleted = true
	l.ready.Store(false)
	l.engine = nil
	s.open.mu.Lock()
	if s.open.items[l.name] == l {
		delete(s.open.items, l.name)
	}
	s.open.mu.Unlock()
}

// names returns the layouts held in memory. Entries still being loaded or
// created are skipped.
func (o *openLayouts) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.items))
	for name, l := range o.items {
		if l.ready.Load() {
			names = append(names, name)
		}
	}
	return names
}

// mutate runs fn on the layout's engine, persists the result and then
// publishes the committed change-set. The caller holds l.mu.
//
// If the layout cannot be saved it is dropped from memory, so the next
// request reloads the stored state, and nothing is published.
func (s *Server) mutate(ctx context.Context, l *layout, fn func(*grid.Engine) error) (grid.ChangeSet, error) {
	var cs grid.ChangeSet
	id := l.engine.AddListener(func(c grid.ChangeSet) { cs = c })
	err := fn(l.engine)
	l.engine.RemoveListener(id)
	if err != nil {
		return grid.ChangeSet{}, err
	}
	if err := s.layouts.Save(ctx, l.name, l.engine); err != nil {
		s.logger.Warn("save failed, discarding change", "layout", l.name, "changes", cs.Len(), "err", err)
		s.drop(l)
		return grid.ChangeSet{}, err
	}
	broadcast.Listener(context.WithoutCancel(ctx), s.pub, l.name, s.logger)(cs)
	return cs, nil
}
