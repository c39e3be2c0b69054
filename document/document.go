// Package document defines the document model consumed by the thumbnail
// pipeline and an in-memory implementation of it.
package document

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrPageOutOfRange      = errors.New("document: page index out of range")
	ErrUnsupportedDocument = errors.New("document: operation not supported for this document type")
	ErrInvalidAngle        = errors.New("document: rotation angle must be a multiple of 90")
	ErrNoPagesLeft         = errors.New("document: cannot delete every page")
)

// Document is the minimal surface the thumbnail pipeline needs. Concrete
// types carry whatever handle their renderer requires.
type Document interface {
	PageCount() int
}

// PageOps applies structural edits to a document. Implementations mutate
// the document in place and report failure without partial application.
// All indices are 0-based.
type PageOps interface {
	RotatePages(doc Document, indices []int, angle int) error
	DeletePages(doc Document, indices []int) error
	InsertBlankPage(doc Document, index int, size PageSize) error
	ReorderPages(doc Document, indices []int, targetIndex int) error
}

// PageSize is a media box in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Common page sizes.
var (
	A4     = PageSize{Width: 595, Height: 842}
	Letter = PageSize{Width: 612, Height: 792}
)

// Page is one page of an in-memory document.
type Page struct {
	Size     PageSize
	Rotation int // clockwise degrees, one of 0, 90, 180, 270
	Content  image.Image
}

// Memory is an in-memory document: an ordered page list with sizes,
// rotations and optional content rasters. It implements Document and is
// the target of Ops. Safe for concurrent use.
type Memory struct {
	id    uuid.UUID
	mu    sync.RWMutex
	pages []*Page
}

// NewMemory creates a document with one page per size, all unrotated.
func NewMemory(sizes ...PageSize) *Memory {
	pages := make([]*Page, len(sizes))
	for i, s := range sizes {
		pages[i] = &Page{Size: s}
	}
	return &Memory{id: uuid.New(), pages: pages}
}

// ID returns the document's stable handle identifier.
func (m *Memory) ID() uuid.UUID { return m.id }

func (m *Memory) PageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

// Page returns a copy of the page at the 0-based index.
func (m *Memory) Page(index int) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.pages) {
		return Page{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, index, len(m.pages))
	}
	return *m.pages[index], nil
}

// SetContent attaches a content raster to the page at the 0-based index.
func (m *Memory) SetContent(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, index, len(m.pages))
	}
	m.pages[index].Content = img
	return nil
}

func (m *Memory) rotate(indices []int, angle int) error {
	if angle%90 != 0 {
		return ErrInvalidAngle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validateIndices(indices, len(m.pages)); err != nil {
		return err
	}
	for _, i := range indices {
		m.pages[i].Rotation = normalizeAngle(m.pages[i].Rotation + angle)
	}
	return nil
}

func (m *Memory) delete(indices []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validateIndices(indices, len(m.pages)); err != nil {
		return err
	}
	drop := indexSet(indices)
	if len(drop) >= len(m.pages) {
		return ErrNoPagesLeft
	}
	kept := m.pages[:0]
	for i, p := range m.pages {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	m.pages = kept
	return nil
}

func (m *Memory) insertBlank(index int, size PageSize) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index > len(m.pages) {
		return fmt.Errorf("%w: insert at %d of %d", ErrPageOutOfRange, index, len(m.pages))
	}
	page := &Page{Size: size}
	m.pages = append(m.pages, nil)
	copy(m.pages[index+1:], m.pages[index:])
	m.pages[index] = page
	return nil
}

func (m *Memory) reorder(indices []int, targetIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validateIndices(indices, len(m.pages)); err != nil {
		return err
	}
	if targetIndex < 0 || targetIndex > len(m.pages) {
		return fmt.Errorf("%w: target %d of %d", ErrPageOutOfRange, targetIndex, len(m.pages))
	}

	ordered := append([]int(nil), indices...)
	sort.Ints(ordered)
	moving := indexSet(ordered)

	block := make([]*Page, 0, len(ordered))
	for _, i := range ordered {
		block = append(block, m.pages[i])
	}

	// Target shifts left by the number of moved pages that precede it.
	adjusted := targetIndex
	for _, i := range ordered {
		if i < targetIndex {
			adjusted--
		}
	}

	rest := make([]*Page, 0, len(m.pages)-len(block))
	for i, p := range m.pages {
		if !moving[i] {
			rest = append(rest, p)
		}
	}

	pages := make([]*Page, 0, len(m.pages))
	pages = append(pages, rest[:adjusted]...)
	pages = append(pages, block...)
	pages = append(pages, rest[adjusted:]...)
	m.pages = pages
	return nil
}

func validateIndices(indices []int, count int) error {
	if len(indices) == 0 {
		return errors.New("document: no page indices given")
	}
	for _, i := range indices {
		if i < 0 || i >= count {
			return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, i, count)
		}
	}
	return nil
}

func indexSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}

func normalizeAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

// Ops implements PageOps for Memory documents.
type Ops struct{}

// NewOps returns the page-operations collaborator for Memory documents.
func NewOps() Ops { return Ops{} }

func (Ops) RotatePages(doc Document, indices []int, angle int) error {
	m, ok := doc.(*Memory)
	if !ok {
		return ErrUnsupportedDocument
	}
	return m.rotate(indices, angle)
}

func (Ops) DeletePages(doc Document, indices []int) error {
	m, ok := doc.(*Memory)
	if !ok {
		return ErrUnsupportedDocument
	}
	return m.delete(indices)
}

func (Ops) InsertBlankPage(doc Document, index int, size PageSize) error {
	m, ok := doc.(*Memory)
	if !ok {
		return ErrUnsupportedDocument
	}
	return m.insertBlank(index, size)
}

func (Ops) ReorderPages(doc Document, indices []int, targetIndex int) error {
	m, ok := doc.(*Memory)
	if !ok {
		return ErrUnsupportedDocument
	}
	return m.reorder(indices, targetIndex)
}
