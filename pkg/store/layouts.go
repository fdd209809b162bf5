package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
	gridio "github.com/matzehuels/gridengine/pkg/io"
	"github.com/matzehuels/gridengine/pkg/observability"
)

// Layouts stores grid engines by name on top of a [Store].
//
// Layouts is stateless apart from its collaborators; it is safe for
// concurrent use whenever the underlying Store is.
type Layouts struct {
	Store  Store
	Keyer  Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewLayouts creates a layout repository.
// If keyer is nil, a DefaultKeyer is used.
// If s is nil, a NullStore is used (persistence disabled).
func NewLayouts(s Store, keyer Keyer, ttl time.Duration, logger *log.Logger) *Layouts {
	if s == nil {
		s = NewNullStore()
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Layouts{Store: s, Keyer: keyer, TTL: ttl, Logger: logger}
}

// Load rebuilds the named layout. opts are passed to [grid.FromSnapshot].
// A missing layout fails with LAYOUT_NOT_FOUND.
func (l *Layouts) Load(ctx context.Context, name string, opts ...grid.Option) (*grid.Engine, error) {
	data, err := l.Raw(ctx, name)
	if err != nil {
		return nil, err
	}
	e, err := gridio.Unmarshal(data, opts...)
	if err != nil {
		l.fail(ctx, "decode", err)
		return nil, fmt.Errorf("layout %q: %w", name, err)
	}
	return e, nil
}

// Raw returns the stored JSON document of the named layout.
func (l *Layouts) Raw(ctx context.Context, name string) ([]byte, error) {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return nil, err
	}

	data, hit, err := l.Store.Get(ctx, l.Keyer.LayoutKey(name))
	if err != nil {
		l.fail(ctx, "get", err)
		return nil, err
	}
	observability.Store().OnLoad(ctx, l.Store.Backend(), hit)
	if !hit {
		return nil, gerrors.New(gerrors.ErrCodeLayoutNotFound, "layout %q not found", name)
	}
	l.Logger.Debug("layout loaded", "name", name, "backend", l.Store.Backend(), "bytes", len(data))
	return data, nil
}

// Exists reports whether the named layout is stored.
func (l *Layouts) Exists(ctx context.Context, name string) (bool, error) {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return false, err
	}
	_, hit, err := l.Store.Get(ctx, l.Keyer.LayoutKey(name))
	if err != nil {
		l.fail(ctx, "get", err)
		return false, err
	}
	return hit, nil
}

// Save stores e under name, replacing any previous layout.
func (l *Layouts) Save(ctx context.Context, name string, e *grid.Engine) error {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return err
	}
	data, err := gridio.Marshal(e)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "encode layout %q", name)
	}
	if err := l.Store.Set(ctx, l.Keyer.LayoutKey(name), data, l.TTL); err != nil {
		l.fail(ctx, "set", err)
		return err
	}
	observability.Store().OnSave(ctx, l.Store.Backend(), len(data))
	l.Logger.Debug("layout saved", "name", name, "backend", l.Store.Backend(), "bytes", len(data), "items", e.Len())
	return nil
}

// Delete removes the named layout. Deleting a missing layout is not an error.
func (l *Layouts) Delete(ctx context.Context, name string) error {
	if err := gerrors.ValidateLayoutName(name); err != nil {
		return err
	}
	if err := l.Store.Delete(ctx, l.Keyer.LayoutKey(name)); err != nil {
		l.fail(ctx, "delete", err)
		return err
	}
	return nil
}

// List returns the names of all stored layouts, sorted.
func (l *Layouts) List(ctx context.Context) ([]string, error) {
	keys, err := l.Store.List(ctx, l.Keyer.LayoutPrefix())
	if err != nil {
		l.fail(ctx, "list", err)
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := layoutName(l.Keyer, k); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (l *Layouts) fail(ctx context.Context, op string, err error) {
	observability.Store().OnError(ctx, l.Store.Backend(), op, err)
	l.Logger.Warn("store operation failed", "backend", l.Store.Backend(), "op", op, "err", err)
}
