package render_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/wudi/thumbkit/document"
	"github.com/wudi/thumbkit/render"
)

func decode(t *testing.T, im *render.Image) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(im.PNG()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func TestRenderThumbnailFitsNominalSize(t *testing.T) {
	doc := document.NewMemory(document.A4)
	r := render.NewRaster()

	im, err := r.RenderThumbnail(context.Background(), doc, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if im.Width() > render.ThumbWidth || im.Height() > render.ThumbHeight {
		t.Fatalf("thumbnail %dx%d exceeds %dx%d", im.Width(), im.Height(), render.ThumbWidth, render.ThumbHeight)
	}

	img := decode(t, im)
	b := img.Bounds()
	if b.Dx() != im.Width() || b.Dy() != im.Height() {
		t.Fatalf("reported size %dx%d, decoded %dx%d", im.Width(), im.Height(), b.Dx(), b.Dy())
	}
	// A4 is portrait, so the thumbnail must be too.
	if b.Dx() >= b.Dy() {
		t.Fatalf("portrait page rendered landscape: %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderRotatedPageSwapsAspect(t *testing.T) {
	doc := document.NewMemory(document.A4)
	if err := document.NewOps().RotatePages(doc, []int{0}, 90); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	im, err := render.NewRaster().RenderThumbnail(context.Background(), doc, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b := decode(t, im).Bounds()
	if b.Dx() <= b.Dy() {
		t.Fatalf("rotated portrait page should be landscape, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderDrawsContent(t *testing.T) {
	doc := document.NewMemory(document.A4)
	fill := image.NewRGBA(image.Rect(0, 0, 10, 10))
	red := color.RGBA{R: 0xFF, A: 0xFF}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			fill.Set(x, y, red)
		}
	}
	if err := doc.SetContent(0, fill); err != nil {
		t.Fatalf("set content: %v", err)
	}

	im, err := render.NewRaster().RenderThumbnail(context.Background(), doc, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, im)
	b := img.Bounds()
	r, g, _, _ := img.At(b.Dx()/2, b.Dy()/2).RGBA()
	if r <= g {
		t.Fatalf("center pixel not red: r=%d g=%d", r, g)
	}
}

func TestRenderOutOfRangePage(t *testing.T) {
	doc := document.NewMemory(document.A4)
	if _, err := render.NewRaster().RenderThumbnail(context.Background(), doc, 2); !errors.Is(err, document.ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange, got %v", err)
	}
}

func TestRenderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := document.NewMemory(document.A4)
	if _, err := render.NewRaster().RenderThumbnail(ctx, doc, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestImageCloseIdempotent(t *testing.T) {
	released := 0
	im := render.NewImage([]byte{1, 2, 3}, 1, 1, func() { released++ })
	if im.Closed() {
		t.Fatalf("fresh image reports closed")
	}
	im.Close()
	im.Close()
	if released != 1 {
		t.Fatalf("release ran %d times", released)
	}
	if !im.Closed() {
		t.Fatalf("image should report closed")
	}
	if len(im.PNG()) != 3 {
		t.Fatalf("pixel bytes must survive Close")
	}
}
