// Package thumbnail orchestrates priority-ordered, concurrency-bounded
// rendering of page thumbnails with LRU caching and invalidation on
// structural document edits.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wudi/thumbkit/bus"
	"github.com/wudi/thumbkit/document"
	"github.com/wudi/thumbkit/gate"
	"github.com/wudi/thumbkit/lru"
	"github.com/wudi/thumbkit/observability"
	"github.com/wudi/thumbkit/render"
)

var (
	ErrNoDocument = errors.New("thumbnail: no document loaded")
	ErrNoPageOps  = errors.New("thumbnail: document does not support page operations")
)

// Coordinator decides which pages to render and in what order, keeps the
// cache and the item views consistent, and owns the structural-edit
// workflows. It is the single mutator of the cache; the internal mutex
// serializes cache access across concurrent render completions.
type Coordinator struct {
	renderer render.Renderer
	ops      document.PageOps
	messages *bus.Bus
	gate     *gate.Gate
	log      observability.Logger
	tracer   observability.Tracer
	cfg      config

	mu         sync.Mutex
	doc        document.Document
	items      []*Item
	cache      *lru.Cache[int, *render.Image]
	inflight   map[int]chan struct{}
	generation uint64
	selected   int // 1-based, 0 when no document
	estimated  int64
}

// New creates a coordinator. renderer and messages are required; ops may
// be nil for read-only documents, in which case structural edits fail with
// ErrNoPageOps.
func New(renderer render.Renderer, ops document.PageOps, messages *bus.Bus, opts ...Option) (*Coordinator, error) {
	if renderer == nil {
		return nil, errors.New("thumbnail: renderer required")
	}
	if messages == nil {
		return nil, errors.New("thumbnail: message bus required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Coordinator{
		renderer: renderer,
		ops:      ops,
		messages: messages,
		log:      cfg.logger,
		tracer:   cfg.tracer,
		cfg:      cfg,
		inflight: make(map[int]chan struct{}),
	}

	cache, err := lru.New[int, *render.Image](cfg.cacheCapacity, func(_ int, im *render.Image) {
		im.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	c.cache = cache

	g, err := gate.New(cfg.gateLimit)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	c.gate = g
	return c, nil
}

// LoadThumbnails replaces the item sequence with one item per page of doc
// and loads the initial batch, pages near page 1 first. It returns once
// every started load has settled; individual render failures are logged
// and do not abort the batch.
func (c *Coordinator) LoadThumbnails(ctx context.Context, doc document.Document) error {
	if doc == nil {
		return ErrNoDocument
	}
	return c.loadDocument(ctx, doc, 1)
}

func (c *Coordinator) loadDocument(ctx context.Context, doc document.Document, center int) error {
	ctx, span := c.tracer.StartSpan(ctx, "thumbnail.load")
	defer span.Finish()

	n := doc.PageCount()
	span.SetTag("pages", n)

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.doc = doc
	c.cache.Purge()
	c.estimated = 0
	c.items = make([]*Item, n)
	for i := range c.items {
		c.items[i] = newItem(i + 1)
	}
	if n == 0 {
		c.selected = 0
	} else {
		if center < 1 {
			center = 1
		}
		if center > n {
			center = n
		}
		c.selected = center
		c.items[center-1].setSelected(true)
	}
	c.mu.Unlock()

	c.log.Info("thumbnails reloaded", observability.Int("pages", n))
	if n == 0 {
		return nil
	}

	end := n
	if end > c.cfg.batchSize {
		end = c.cfg.batchSize
	}
	c.loadRange(ctx, gen, 1, end+1, center)
	return nil
}

// loadRange submits loads for pages in the half-open window [start, end),
// priority pages around center first. It blocks until all submitted loads
// settle.
func (c *Coordinator) loadRange(ctx context.Context, gen uint64, start, end, center int) {
	began := time.Now()
	priority, secondary := splitWindow(center, start, end, c.cfg.radius)

	var wg sync.WaitGroup
	submit := func(page int) {
		item := c.itemForPage(gen, page)
		if item == nil || item.Image() != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Failures are contained per page; loadOne has logged them.
			_ = c.loadOne(ctx, gen, item)
		}()
	}
	for _, page := range priority {
		submit(page)
	}
	for _, page := range secondary {
		submit(page)
	}
	wg.Wait()

	c.log.Debug("batch settled",
		observability.Int("start", start),
		observability.Int("end", end),
		observability.Int("center", center),
		observability.Int64("elapsed_ms", time.Since(began).Milliseconds()))
}

// LoadVisibleThumbnails loads the pages of the 0-based half-open index
// range [startIndex, endIndex), prioritized around the currently selected
// page, skipping pages that already have an image.
func (c *Coordinator) LoadVisibleThumbnails(ctx context.Context, startIndex, endIndex int) {
	c.mu.Lock()
	gen := c.generation
	n := len(c.items)
	center := c.selected
	c.mu.Unlock()

	if startIndex < 0 {
		startIndex = 0
	}
	if endIndex > n {
		endIndex = n
	}
	if startIndex >= endIndex {
		return
	}
	c.loadRange(ctx, gen, startIndex+1, endIndex+1, center)
}

// LoadThumbnail loads a single item: cache hit short-circuits the render
// gate entirely; a miss renders through the gate. Concurrent loads of the
// same page are coalesced into one render.
func (c *Coordinator) LoadThumbnail(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("thumbnail: nil item")
	}
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	return c.loadOne(ctx, gen, item)
}

func (c *Coordinator) loadOne(ctx context.Context, gen uint64, item *Item) error {
	page := item.PageNumber()

	var (
		doc    document.Document
		flight chan struct{}
	)
	for {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return nil
		}
		if im, ok := c.cache.Get(page); ok {
			// Assign while holding the lock so a concurrent eviction
			// cannot dispose the image first.
			item.setImage(im)
			c.mu.Unlock()
			c.log.Debug("thumbnail cache hit", observability.Int("page", page))
			return nil
		}
		if ch, ok := c.inflight[page]; ok {
			c.mu.Unlock()
			select {
			case <-ch:
				// The leader settled; re-check the cache.
				continue
			case <-ctx.Done():
				item.finishLoading()
				return ctx.Err()
			}
		}
		flight = make(chan struct{})
		c.inflight[page] = flight
		doc = c.doc
		c.mu.Unlock()
		break
	}

	err := c.renderInto(ctx, gen, doc, item)

	c.mu.Lock()
	delete(c.inflight, page)
	c.mu.Unlock()
	close(flight)
	return err
}

func (c *Coordinator) renderInto(ctx context.Context, gen uint64, doc document.Document, item *Item) error {
	page := item.PageNumber()
	if err := c.gate.Acquire(ctx); err != nil {
		item.finishLoading()
		return err
	}
	defer c.gate.Release()

	began := time.Now()
	im, err := c.renderer.RenderThumbnail(ctx, doc, page)
	if err != nil {
		item.finishLoading()
		c.log.Error("thumbnail render failed",
			observability.Int("page", page),
			observability.Error("err", err))
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		// A reload replaced the item sequence while we rendered.
		c.mu.Unlock()
		im.Close()
		return nil
	}
	item.setImage(im)
	c.cache.Add(page, im)
	c.estimated += render.EstimatedBytes
	if c.estimated > c.cfg.memoryCeiling {
		over := c.estimated - c.cfg.memoryCeiling
		items := (over + render.EstimatedBytes - 1) / render.EstimatedBytes
		c.log.Warn("thumbnail cache estimate over budget",
			observability.Int64("estimated_bytes", c.estimated),
			observability.Int64("ceiling_bytes", c.cfg.memoryCeiling),
			observability.Int64("items_over", items))
		c.estimated -= items * render.EstimatedBytes
	}
	c.mu.Unlock()

	c.log.Debug("thumbnail rendered",
		observability.Int("page", page),
		observability.Int64("elapsed_ms", time.Since(began).Milliseconds()))
	return nil
}

// itemForPage returns the item for a 1-based page, or nil if gen is stale
// or the page is out of range.
func (c *Coordinator) itemForPage(gen uint64, page int) *Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || page < 1 || page > len(c.items) {
		return nil
	}
	return c.items[page-1]
}

// Items returns a snapshot of the current item sequence in page order.
func (c *Coordinator) Items() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// SelectedPage returns the 1-based selected page, or 0 when no document is
// loaded.
func (c *Coordinator) SelectedPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// CanNavigate reports whether navigation is currently allowed. It is false
// while any item is still loading, so navigation cannot race the initial
// render batch.
func (c *Coordinator) CanNavigate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canNavigateLocked()
}

func (c *Coordinator) canNavigateLocked() bool {
	for _, item := range c.items {
		if item.Loading() {
			return false
		}
	}
	return len(c.items) > 0
}

// NavigateToPage selects the page, mirrors the selection onto the items
// and announces the change on the bus. Out-of-range pages and calls while
// items are loading are ignored.
func (c *Coordinator) NavigateToPage(page int) {
	c.mu.Lock()
	if page < 1 || page > len(c.items) || !c.canNavigateLocked() {
		c.mu.Unlock()
		return
	}
	c.applySelectionLocked(page)
	c.mu.Unlock()

	c.messages.Publish(bus.NavigateToPage{Page: page})
}

// UpdateSelectedPage is the inverse sync path for navigation that
// originated elsewhere. Selecting the already-selected page is a strict
// no-op; without that guard the viewer and the thumbnail rail notify each
// other forever.
func (c *Coordinator) UpdateSelectedPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page == c.selected || page < 1 || page > len(c.items) {
		return
	}
	c.applySelectionLocked(page)
}

func (c *Coordinator) applySelectionLocked(page int) {
	c.selected = page
	for _, item := range c.items {
		item.setSelected(item.PageNumber() == page)
	}
}

// SetPageSelected toggles an item's selection flag directly, for
// multi-page selection ahead of rotate and delete.
func (c *Coordinator) SetPageSelected(page int, selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 || page > len(c.items) {
		return
	}
	c.items[page-1].setSelected(selected)
}

func (c *Coordinator) selectedIndicesLocked() []int {
	var indices []int
	for i, item := range c.items {
		if item.Selected() {
			indices = append(indices, i)
		}
	}
	return indices
}

// RotateSelectedLeft rotates the selected pages 90 degrees
// counter-clockwise.
func (c *Coordinator) RotateSelectedLeft(ctx context.Context) error {
	return c.RotateSelected(ctx, -90)
}

// RotateSelectedRight rotates the selected pages 90 degrees clockwise.
func (c *Coordinator) RotateSelectedRight(ctx context.Context) error {
	return c.RotateSelected(ctx, 90)
}

// RotateSelectedHalfTurn rotates the selected pages 180 degrees.
func (c *Coordinator) RotateSelectedHalfTurn(ctx context.Context) error {
	return c.RotateSelected(ctx, 180)
}

// RotateSelected rotates the selected pages by angle. Page count is
// unchanged, so only the affected pages are invalidated and re-rendered.
// With nothing selected it is a no-op.
func (c *Coordinator) RotateSelected(ctx context.Context, angle int) error {
	c.mu.Lock()
	doc := c.doc
	gen := c.generation
	indices := c.selectedIndicesLocked()
	c.mu.Unlock()

	if doc == nil {
		return ErrNoDocument
	}
	if c.ops == nil {
		return ErrNoPageOps
	}
	if len(indices) == 0 {
		return nil
	}

	if err := c.ops.RotatePages(doc, indices, angle); err != nil {
		c.log.Error("rotate pages failed",
			observability.Int("pages", len(indices)),
			observability.Error("err", err))
		return err
	}

	var stale []*Item
	c.mu.Lock()
	if gen == c.generation {
		for _, i := range indices {
			page := i + 1
			c.cache.Remove(page)
			item := c.items[i]
			item.reset()
			stale = append(stale, item)
		}
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, item := range stale {
		wg.Add(1)
		go func(item *Item) {
			defer wg.Done()
			_ = c.loadOne(ctx, gen, item)
		}(item)
	}
	wg.Wait()

	c.messages.Publish(bus.PagesModified{PageCount: doc.PageCount()})
	return nil
}

// DeleteSelected asks for confirmation, deletes the selected pages and
// rebuilds the item sequence and cache from scratch. A declined
// confirmation is a no-op, not an error. With nothing selected it is a
// no-op.
func (c *Coordinator) DeleteSelected(ctx context.Context) error {
	c.mu.Lock()
	doc := c.doc
	indices := c.selectedIndicesLocked()
	c.mu.Unlock()

	if doc == nil {
		return ErrNoDocument
	}
	if c.ops == nil {
		return ErrNoPageOps
	}
	if len(indices) == 0 {
		return nil
	}

	ok, err := c.cfg.confirmer.ConfirmDelete(ctx, len(indices), doc.PageCount())
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("delete cancelled", observability.Int("pages", len(indices)))
		return nil
	}

	if err := c.ops.DeletePages(doc, indices); err != nil {
		c.log.Error("delete pages failed",
			observability.Int("pages", len(indices)),
			observability.Error("err", err))
		return err
	}

	if err := c.reload(ctx); err != nil {
		return err
	}
	c.messages.Publish(bus.PagesModified{PageCount: doc.PageCount()})
	return nil
}

// InsertBlankPage inserts an empty page at the 0-based index and rebuilds
// the item sequence and cache.
func (c *Coordinator) InsertBlankPage(ctx context.Context, index int, size document.PageSize) error {
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()

	if doc == nil {
		return ErrNoDocument
	}
	if c.ops == nil {
		return ErrNoPageOps
	}

	if err := c.ops.InsertBlankPage(doc, index, size); err != nil {
		c.log.Error("insert blank page failed",
			observability.Int("index", index),
			observability.Error("err", err))
		return err
	}

	if err := c.reload(ctx); err != nil {
		return err
	}
	c.messages.Publish(bus.PagesModified{PageCount: doc.PageCount()})
	return nil
}

// MoveSelectedTo moves the selected pages so the block starts at the
// 0-based target index, then rebuilds the item sequence and cache. With
// nothing selected it is a no-op.
func (c *Coordinator) MoveSelectedTo(ctx context.Context, targetIndex int) error {
	c.mu.Lock()
	doc := c.doc
	indices := c.selectedIndicesLocked()
	c.mu.Unlock()

	if doc == nil {
		return ErrNoDocument
	}
	if c.ops == nil {
		return ErrNoPageOps
	}
	if len(indices) == 0 {
		return nil
	}

	if err := c.ops.ReorderPages(doc, indices, targetIndex); err != nil {
		c.log.Error("reorder pages failed",
			observability.Int("pages", len(indices)),
			observability.Int("target", targetIndex),
			observability.Error("err", err))
		return err
	}

	if err := c.reload(ctx); err != nil {
		return err
	}
	c.messages.Publish(bus.PagesModified{PageCount: doc.PageCount()})
	return nil
}

// reload rebuilds items and cache for the current document, keeping the
// selection as close to the previous one as the new page count allows.
func (c *Coordinator) reload(ctx context.Context) error {
	c.mu.Lock()
	doc := c.doc
	center := c.selected
	c.mu.Unlock()
	if doc == nil {
		return ErrNoDocument
	}
	return c.loadDocument(ctx, doc, center)
}

// Close tears the coordinator down, disposing every cached image. In-flight
// renders from an earlier generation discard their results.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Purge()
	c.items = nil
	c.doc = nil
	c.selected = 0
	c.estimated = 0
}

// CacheLen returns the number of cached thumbnails.
func (c *Coordinator) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// EstimatedCacheBytes returns the approximate cache footprint. The value
// is a monitoring signal, not an enforced bound.
func (c *Coordinator) EstimatedCacheBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estimated
}
