// Package bridge is the boundary call surface. Each exported method is one
// host-visible operation: resolve handles, call the engine, wrap the result
// in a new handle. The bridge owns no dataframe logic of its own; it
// instruments, dispatches and translates. Materializing operations run on a
// bounded heavy pool so a large collect never runs on the caller's fast
// path.
package bridge

import (
	"go.uber.org/zap"

	"github.com/vireodata/vireo/internal/dispatch"
	"github.com/vireodata/vireo/pkg/logger"
)

// Config tunes the bridge's heavy worker pool.
type Config struct {
	// HeavyWorkers is the number of goroutines running materializations.
	// Zero means GOMAXPROCS.
	HeavyWorkers int
	// HeavyQueue is the pending-task buffer. Zero means twice the workers.
	HeavyQueue int
}

// Bridge is the boundary call surface. Safe for concurrent use.
type Bridge struct {
	log   *zap.Logger
	heavy *dispatch.Pool
}

// New builds a bridge with its heavy pool started.
func New(cfg Config) *Bridge {
	b := &Bridge{
		log:   logger.With(zap.String("component", "bridge")),
		heavy: dispatch.NewPool(cfg.HeavyWorkers, cfg.HeavyQueue),
	}
	b.log.Info("bridge started", zap.Int("heavy_workers", b.heavy.Workers()))
	return b
}

// Close drains the heavy pool. Handles stay valid; only dispatch stops.
func (b *Bridge) Close() {
	b.heavy.Close()
	b.log.Info("bridge stopped")
}
