// Package handle issues opaque, reference-managed tokens for engine values
// crossing the host boundary. The host runtime never sees engine types, only
// handles; every boundary operation resolves its handles here first. A
// handle stays valid until explicitly released, and a finalizer reclaims
// engine buffers for handles the host dropped without releasing.
package handle

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/segmentio/ksuid"

	"github.com/vireodata/vireo/pkg/engine"
	"github.com/vireodata/vireo/pkg/errors"
	"github.com/vireodata/vireo/pkg/metrics"
)

// Kind discriminates what a handle points at.
type Kind uint8

const (
	KindDataFrame Kind = iota + 1
	KindSeries
	KindExpression
	KindLazy
)

func (k Kind) String() string {
	switch k {
	case KindDataFrame:
		return "dataframe"
	case KindSeries:
		return "series"
	case KindExpression:
		return "expression"
	case KindLazy:
		return "lazyframe"
	default:
		return "unknown"
	}
}

// Handle is an opaque token for one engine value. Dataframe access goes
// through View and Update, which serialize in-place mutation against
// concurrent readers; the other kinds are immutable once built and need no
// locking beyond the release guard.
type Handle struct {
	id       ksuid.KSUID
	kind     Kind
	mu       sync.RWMutex
	value    any
	released atomic.Bool
}

func newHandle(kind Kind, value any) *Handle {
	h := &Handle{id: ksuid.New(), kind: kind, value: value}
	metrics.LiveHandles.WithLabelValues(kind.String()).Inc()
	runtime.SetFinalizer(h, func(h *Handle) { h.Release() })
	return h
}

// NewDataFrame wraps a dataframe, taking ownership of its column references.
func NewDataFrame(df *engine.DataFrame) *Handle {
	return newHandle(KindDataFrame, df)
}

// NewSeries wraps a series, taking ownership of its reference.
func NewSeries(s *engine.Series) *Handle {
	return newHandle(KindSeries, s)
}

// NewExpression wraps an expression.
func NewExpression(e *engine.Expr) *Handle {
	return newHandle(KindExpression, e)
}

// NewLazy wraps a lazy frame, taking ownership of its source reference.
func NewLazy(lf *engine.LazyFrame) *Handle {
	return newHandle(KindLazy, lf)
}

// ID returns the handle's unique identifier, for logs and diagnostics.
func (h *Handle) ID() string { return h.id.String() }

// Kind returns what the handle points at.
func (h *Handle) Kind() Kind { return h.kind }

func (h *Handle) errReleased() error {
	return errors.Newf(errors.ErrorTypeInvalidated, "%s handle has been released", h.kind).
		WithDetail("handle", h.id.String())
}

func (h *Handle) errKind(want Kind) error {
	return errors.Newf(errors.ErrorTypeValidation, "expected a %s handle, got %s", want, h.kind).
		WithDetail("handle", h.id.String())
}

// View runs fn with shared access to the dataframe. Concurrent views run in
// parallel; an update excludes them.
func (h *Handle) View(fn func(*engine.DataFrame) error) error {
	if h.kind != KindDataFrame {
		return h.errKind(KindDataFrame)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released.Load() {
		return h.errReleased()
	}
	return fn(h.value.(*engine.DataFrame))
}

// Update runs fn with exclusive access to the dataframe, for in-place
// mutation.
func (h *Handle) Update(fn func(*engine.DataFrame) error) error {
	if h.kind != KindDataFrame {
		return h.errKind(KindDataFrame)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released.Load() {
		return h.errReleased()
	}
	return fn(h.value.(*engine.DataFrame))
}

// Snapshot returns an independently owned copy of the dataframe, isolated
// from later updates through this handle.
func (h *Handle) Snapshot() (*engine.DataFrame, error) {
	var out *engine.DataFrame
	err := h.View(func(df *engine.DataFrame) error {
		out = df.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Series returns the wrapped series without transferring ownership.
func (h *Handle) Series() (*engine.Series, error) {
	if h.kind != KindSeries {
		return nil, h.errKind(KindSeries)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released.Load() {
		return nil, h.errReleased()
	}
	return h.value.(*engine.Series), nil
}

// Expression returns the wrapped expression.
func (h *Handle) Expression() (*engine.Expr, error) {
	if h.kind != KindExpression {
		return nil, h.errKind(KindExpression)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released.Load() {
		return nil, h.errReleased()
	}
	return h.value.(*engine.Expr), nil
}

// Lazy returns the wrapped lazy frame without transferring ownership.
func (h *Handle) Lazy() (*engine.LazyFrame, error) {
	if h.kind != KindLazy {
		return nil, h.errKind(KindLazy)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released.Load() {
		return nil, h.errReleased()
	}
	return h.value.(*engine.LazyFrame), nil
}

// Release invalidates the handle and drops its engine references. Safe to
// call more than once; every call after the first is a no-op. In-flight
// views and updates finish before the buffers go away.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	switch v := h.value.(type) {
	case *engine.DataFrame:
		v.Release()
	case *engine.Series:
		v.Release()
	case *engine.LazyFrame:
		v.Release()
	}
	// Expressions hold no engine buffers.
	h.value = nil
	metrics.LiveHandles.WithLabelValues(h.kind.String()).Dec()
	runtime.SetFinalizer(h, nil)
}
