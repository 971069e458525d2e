package textdetect

import "image"

// Region describes one detected text region after padding and merging.
type Region struct {
	// Box is the padded bounding box, clamped to the page.
	Box image.Rectangle
	// Area is the box area in pixels.
	Area int
	// Group is the merge group this region belongs to. Regions that
	// overlapped after padding share a group.
	Group int
}

// Mask is the binary text protection mask for one page.
type Mask struct {
	// Bitmap has 255 where text must be preserved, 0 elsewhere.
	Bitmap *image.Gray
	// Regions lists the merged regions, ordered top-to-bottom then
	// left-to-right.
	Regions []Region
	// Coverage is the set fraction of the page, 0 to 1.
	Coverage float64
}

// NewEmptyMask returns the all-clear mask for a page of the given size.
func NewEmptyMask(w, h int) *Mask {
	return &Mask{Bitmap: image.NewGray(image.Rect(0, 0, w, h))}
}

// IsSet reports whether the mask protects the given pixel.
func (m *Mask) IsSet(x, y int) bool {
	if m == nil || m.Bitmap == nil {
		return false
	}
	if !(image.Point{X: x, Y: y}).In(m.Bitmap.Bounds()) {
		return false
	}
	return m.Bitmap.GrayAt(x, y).Y != 0
}

// Empty reports whether the mask protects nothing.
func (m *Mask) Empty() bool {
	return m == nil || len(m.Regions) == 0
}
