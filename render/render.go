// Package render produces thumbnail images for document pages.
package render

import (
	"context"
	"sync"

	"github.com/wudi/thumbkit/document"
)

// Nominal thumbnail resolution. The memory-accounting estimate assumes four
// bytes per pixel at this size.
const (
	ThumbWidth    = 150
	ThumbHeight   = 200
	BytesPerPixel = 4

	// EstimatedBytes is the per-thumbnail footprint used for approximate
	// cache accounting.
	EstimatedBytes = ThumbWidth * ThumbHeight * BytesPerPixel
)

// Renderer rasterizes one page of a document into a thumbnail.
type Renderer interface {
	RenderThumbnail(ctx context.Context, doc document.Document, pageNumber int) (*Image, error)
}

// Image is a rendered thumbnail. The PNG bytes stay valid for the life of
// the value; Close releases any native resources behind them and is
// idempotent. Owners that hand an Image to a cache must leave disposal to
// the cache.
type Image struct {
	mu      sync.Mutex
	png     []byte
	width   int
	height  int
	release func()
	closed  bool
}

// NewImage wraps encoded PNG bytes. release may be nil; when set it runs
// exactly once, on Close.
func NewImage(png []byte, width, height int, release func()) *Image {
	return &Image{png: png, width: width, height: height, release: release}
}

// PNG returns the encoded thumbnail bytes.
func (im *Image) PNG() []byte { return im.png }

// Width returns the thumbnail pixel width.
func (im *Image) Width() int { return im.width }

// Height returns the thumbnail pixel height.
func (im *Image) Height() int { return im.height }

// Close releases native resources behind the image. The pixel data itself
// remains readable until garbage collected.
func (im *Image) Close() {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.closed {
		return
	}
	im.closed = true
	if im.release != nil {
		im.release()
		im.release = nil
	}
}

// Closed reports whether Close has run.
func (im *Image) Closed() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.closed
}
