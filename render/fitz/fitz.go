// Package fitz renders thumbnails of real PDF files through go-fitz
// (MuPDF). Documents opened here are read-only: structural page edits are
// the domain of the in-memory document model.
package fitz

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"

	gofitz "github.com/gen2brain/go-fitz"
	"github.com/nfnt/resize"

	"github.com/wudi/thumbkit/document"
	"github.com/wudi/thumbkit/render"
)

// Document wraps an open PDF file. MuPDF contexts are not safe for
// concurrent use, so page rasterization is serialized per document; the
// pipeline's admission gate still bounds how many documents render at once.
type Document struct {
	mu    sync.Mutex
	doc   *gofitz.Document
	pages int
	path  string
}

// Open loads the PDF at path.
func Open(path string) (*Document, error) {
	doc, err := gofitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("fitz: open %s: %w", path, err)
	}
	return &Document{doc: doc, pages: doc.NumPage(), path: path}, nil
}

// PageCount returns the number of pages in the PDF.
func (d *Document) PageCount() int { return d.pages }

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// Close releases the underlying MuPDF document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

// Renderer implements render.Renderer for fitz documents.
type Renderer struct{}

// NewRenderer creates a go-fitz backed thumbnail renderer.
func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) RenderThumbnail(ctx context.Context, doc document.Document, pageNumber int) (*render.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := doc.(*Document)
	if !ok {
		return nil, document.ErrUnsupportedDocument
	}
	if pageNumber < 1 || pageNumber > d.pages {
		return nil, fmt.Errorf("%w: page %d of %d", document.ErrPageOutOfRange, pageNumber, d.pages)
	}

	d.mu.Lock()
	if d.doc == nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("fitz: document %s is closed", d.path)
	}
	img, err := d.doc.Image(pageNumber - 1)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("fitz: render page %d of %s: %w", pageNumber, d.path, err)
	}

	thumb := resize.Thumbnail(render.ThumbWidth, render.ThumbHeight, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("fitz: encode page %d: %w", pageNumber, err)
	}
	b := thumb.Bounds()
	return render.NewImage(buf.Bytes(), b.Dx(), b.Dy(), nil), nil
}
