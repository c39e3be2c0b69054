package thumbnail

import (
	"context"

	"github.com/wudi/thumbkit/observability"
)

// Defaults for coordinator construction.
const (
	DefaultCacheCapacity  = 100
	DefaultGateLimit      = 4
	DefaultPriorityRadius = 5
	DefaultInitialBatch   = 20
	DefaultMemoryCeiling  = 50 << 20 // bytes, monitoring signal only
)

// Confirmer asks the user to approve a destructive operation.
type Confirmer interface {
	// ConfirmDelete prompts with the number of pages about to be deleted
	// and the document's total page count. A false return cancels the
	// operation without error.
	ConfirmDelete(ctx context.Context, pages, total int) (bool, error)
}

// autoConfirm approves everything; the headless default.
type autoConfirm struct{}

func (autoConfirm) ConfirmDelete(context.Context, int, int) (bool, error) { return true, nil }

type config struct {
	cacheCapacity int
	gateLimit     int
	radius        int
	batchSize     int
	memoryCeiling int64
	logger        observability.Logger
	tracer        observability.Tracer
	confirmer     Confirmer
}

func defaultConfig() config {
	return config{
		cacheCapacity: DefaultCacheCapacity,
		gateLimit:     DefaultGateLimit,
		radius:        DefaultPriorityRadius,
		batchSize:     DefaultInitialBatch,
		memoryCeiling: DefaultMemoryCeiling,
		logger:        observability.NopLogger{},
		tracer:        observability.NopTracer(),
		confirmer:     autoConfirm{},
	}
}

// Option configures a Coordinator.
type Option func(*config)

// WithCacheCapacity sets the thumbnail cache entry bound.
func WithCacheCapacity(n int) Option { return func(c *config) { c.cacheCapacity = n } }

// WithGateLimit sets the maximum number of concurrent renders.
func WithGateLimit(n int) Option { return func(c *config) { c.gateLimit = n } }

// WithPriorityRadius sets how many pages around the center page are loaded
// ahead of the rest of a batch.
func WithPriorityRadius(n int) Option { return func(c *config) { c.radius = n } }

// WithInitialBatch sets how many pages the initial load covers.
func WithInitialBatch(n int) Option { return func(c *config) { c.batchSize = n } }

// WithMemoryCeiling sets the byte estimate above which overage is logged.
func WithMemoryCeiling(n int64) Option { return func(c *config) { c.memoryCeiling = n } }

// WithLogger sets the coordinator's logger.
func WithLogger(l observability.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the coordinator's tracer.
func WithTracer(t observability.Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithConfirmer sets the delete-confirmation collaborator.
func WithConfirmer(f Confirmer) Option {
	return func(c *config) {
		if f != nil {
			c.confirmer = f
		}
	}
}
