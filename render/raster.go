package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/wudi/thumbkit/document"
)

// Raster renders in-memory documents: white page, hairline border, the
// page's content raster scaled to fit, page rotation applied, then
// downscaled to the nominal thumbnail size.
type Raster struct{}

// NewRaster creates a renderer for document.Memory documents.
func NewRaster() *Raster { return &Raster{} }

func (r *Raster) RenderThumbnail(ctx context.Context, doc document.Document, pageNumber int) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := doc.(*document.Memory)
	if !ok {
		return nil, document.ErrUnsupportedDocument
	}
	page, err := m.Page(pageNumber - 1)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageNumber, err)
	}

	base := rasterizePage(page)
	rotated := rotateImage(base, page.Rotation)
	thumb := resize.Thumbnail(ThumbWidth, ThumbHeight, rotated, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", pageNumber, err)
	}
	b := thumb.Bounds()
	return NewImage(buf.Bytes(), b.Dx(), b.Dy(), nil), nil
}

// rasterizePage draws the page at one pixel per point.
func rasterizePage(page document.Page) *image.RGBA {
	w := int(page.Size.Width)
	h := int(page.Size.Height)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if page.Content != nil {
		draw.CatmullRom.Scale(dst, dst.Bounds(), page.Content, page.Content.Bounds(), draw.Over, nil)
	}

	border := color.RGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
	for x := 0; x < w; x++ {
		dst.SetRGBA(x, 0, border)
		dst.SetRGBA(x, h-1, border)
	}
	for y := 0; y < h; y++ {
		dst.SetRGBA(0, y, border)
		dst.SetRGBA(w-1, y, border)
	}
	return dst
}

// rotateImage applies a clockwise rotation of 0, 90, 180 or 270 degrees.
func rotateImage(src *image.RGBA, angle int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch angle {
	case 90:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.SetRGBA(h-1-y, x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case 180:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.SetRGBA(w-1-x, h-1-y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case 270:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.SetRGBA(y, w-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	default:
		return src
	}
}
