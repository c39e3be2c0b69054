package thumbnail

import (
	"sync"

	"github.com/wudi/thumbkit/render"
)

// Item is the per-page thumbnail state the UI binds to: an immutable
// 1-based page number, the rendered image once available, and loading and
// selection flags. Safe for concurrent use.
type Item struct {
	pageNumber int

	mu       sync.Mutex
	image    *render.Image
	loading  bool
	selected bool
}

func newItem(pageNumber int) *Item {
	return &Item{pageNumber: pageNumber, loading: true}
}

// PageNumber returns the 1-based page this item represents.
func (it *Item) PageNumber() int { return it.pageNumber }

// Image returns the rendered thumbnail, or nil while unloaded or after a
// failed render. The image may be shared with the cache; callers must not
// close it.
func (it *Item) Image() *render.Image {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.image
}

// Loading reports whether a first render attempt is still pending.
func (it *Item) Loading() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.loading
}

// Selected reports whether the item is part of the current selection.
func (it *Item) Selected() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.selected
}

func (it *Item) setImage(im *render.Image) {
	it.mu.Lock()
	it.image = im
	it.loading = false
	it.mu.Unlock()
}

// finishLoading clears the loading flag without setting an image, the
// terminal state of a failed render.
func (it *Item) finishLoading() {
	it.mu.Lock()
	it.loading = false
	it.mu.Unlock()
}

// reset returns the item to its unloaded state before a re-render.
func (it *Item) reset() {
	it.mu.Lock()
	it.image = nil
	it.loading = true
	it.mu.Unlock()
}

func (it *Item) setSelected(selected bool) {
	it.mu.Lock()
	it.selected = selected
	it.mu.Unlock()
}
