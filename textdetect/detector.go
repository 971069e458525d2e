package textdetect

import (
	"errors"
	"image"
	"sort"

	"go.uber.org/zap"
)

// ErrInvalidImage is returned when the page image is nil or zero-sized.
var ErrInvalidImage = errors.New("textdetect: invalid page image")

// Detector finds text regions on a page.
//
// The pipeline: grayscale, threshold near-white bubble candidates, close
// small gaps, flood-fill 4-connected components, filter by area, aspect,
// and ink content, pad and merge overlapping boxes to a fixed point, then
// rasterize. If the result covers too much of the page the detector bails
// out with the all-clear mask.
type Detector struct {
	cfg    Config
	logger *zap.Logger
}

// NewDetector creates a Detector with the given tunables.
func NewDetector(cfg Config, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg.sanitize(), logger: logger}
}

// Detect builds the text protection mask for a page. Padding grows every
// candidate box on all sides before merging. Zero candidates is not an
// error; it yields the all-clear mask.
func (d *Detector) Detect(img image.Image, padding int) (*Mask, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidImage
	}
	if padding < 0 {
		padding = 0
	}

	gray := toGray(img)

	white := threshold(gray, d.cfg.WhiteThreshold, true)
	closeGaps(white, w, h)

	boxes := d.candidateBoxes(gray, white, w, h)
	if len(boxes) == 0 {
		return NewEmptyMask(w, h), nil
	}

	merged := mergeBoxes(padBoxes(boxes, padding, w, h))

	mask := NewEmptyMask(w, h)
	var set int
	for group, box := range merged {
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				if mask.Bitmap.Pix[y*mask.Bitmap.Stride+x] == 0 {
					mask.Bitmap.Pix[y*mask.Bitmap.Stride+x] = 255
					set++
				}
			}
		}
		mask.Regions = append(mask.Regions, Region{
			Box:   box,
			Area:  box.Dx() * box.Dy(),
			Group: group,
		})
	}

	sort.Slice(mask.Regions, func(i, j int) bool {
		a, bb := mask.Regions[i].Box.Min, mask.Regions[j].Box.Min
		if a.Y != bb.Y {
			return a.Y < bb.Y
		}
		return a.X < bb.X
	})

	mask.Coverage = float64(set) / float64(w*h)
	if mask.Coverage > d.cfg.MaxCoverage {
		d.logger.Warn("text mask coverage too high, skipping protection",
			zap.Float64("coverage", mask.Coverage),
			zap.Float64("max", d.cfg.MaxCoverage))
		return NewEmptyMask(w, h), nil
	}

	return mask, nil
}

// candidateBoxes flood-fills the white bitmap into components and keeps
// those that look like text bubbles.
func (d *Detector) candidateBoxes(gray *image.Gray, white []bool, w, h int) []image.Rectangle {
	visited := make([]bool, w*h)
	queue := make([]int, 0, 1024)
	var boxes []image.Rectangle

	for start := 0; start < w*h; start++ {
		if !white[start] || visited[start] {
			continue
		}

		// BFS over the 4-connected component.
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		area := 0
		visited[start] = true
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			area++
			x, y := idx%w, idx/w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= w*h || visited[n] || !white[n] {
					continue
				}
				// Reject horizontal wrap-around neighbors.
				if (n == idx-1 && x == 0) || (n == idx+1 && x == w-1) {
					continue
				}
				visited[n] = true
				queue = append(queue, n)
			}
		}

		if area < d.cfg.MinArea {
			continue
		}

		box := image.Rect(minX, minY, maxX+1, maxY+1)
		if aspect(box) > d.cfg.MaxAspect {
			continue
		}
		if countInk(gray, box, d.cfg.DarkThreshold) < d.cfg.MinInkPixels {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}

// padBoxes grows each box by padding on all sides, clamped to the page.
func padBoxes(boxes []image.Rectangle, padding, w, h int) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		p := image.Rect(b.Min.X-padding, b.Min.Y-padding, b.Max.X+padding, b.Max.Y+padding)
		out = append(out, p.Intersect(image.Rect(0, 0, w, h)))
	}
	return out
}

// mergeBoxes unions overlapping boxes until no pair overlaps. The result is
// a fixed point: merging it again changes nothing.
func mergeBoxes(boxes []image.Rectangle) []image.Rectangle {
	merged := append([]image.Rectangle(nil), boxes...)
	for {
		changed := false
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if merged[i].Overlaps(merged[j]) {
					merged[i] = merged[i].Union(merged[j])
					merged = append(merged[:j], merged[j+1:]...)
					changed = true
					j--
				}
			}
		}
		if !changed {
			return merged
		}
	}
}

// threshold builds a bitmap of pixels at or above (or below) the cutoff.
func threshold(gray *image.Gray, cutoff uint8, above bool) []bool {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x, v := range row {
			if above {
				out[y*w+x] = v >= cutoff
			} else {
				out[y*w+x] = v <= cutoff
			}
		}
	}
	return out
}

// closeGaps applies one morphological closing pass (dilate then erode,
// 4-neighborhood) so glyph gaps do not split a bubble into fragments.
func closeGaps(bitmap []bool, w, h int) {
	dilated := make([]bool, len(bitmap))
	for i, v := range bitmap {
		if v {
			dilated[i] = true
			continue
		}
		x, y := i%w, i/w
		dilated[i] = (x > 0 && bitmap[i-1]) || (x < w-1 && bitmap[i+1]) ||
			(y > 0 && bitmap[i-w]) || (y < h-1 && bitmap[i+w])
	}
	for i := range bitmap {
		if !dilated[i] {
			bitmap[i] = false
			continue
		}
		x, y := i%w, i/w
		bitmap[i] = (x == 0 || dilated[i-1]) && (x == w-1 || dilated[i+1]) &&
			(y == 0 || dilated[i-w]) && (y == h-1 || dilated[i+w])
	}
}

// countInk counts pixels at or below the dark threshold inside a box.
func countInk(gray *image.Gray, box image.Rectangle, dark uint8) int {
	count := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if gray.GrayAt(x, y).Y <= dark {
				count++
			}
		}
	}
	return count
}

// aspect returns the long-over-short side ratio of a box.
func aspect(box image.Rectangle) float64 {
	w, h := float64(box.Dx()), float64(box.Dy())
	if w == 0 || h == 0 {
		return 0
	}
	if w > h {
		return w / h
	}
	return h / w
}

// toGray converts any image to grayscale with BT.601 weights.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			luma := (299*(r>>8) + 587*(g>>8) + 114*(bb>>8)) / 1000
			out.Pix[y*out.Stride+x] = uint8(luma)
		}
	}
	return out
}
