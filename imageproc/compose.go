package imageproc

import (
	"fmt"
	"image"
	"image/draw"
)

// Compose merges a generated coloring back over the original page.
//
// The rule, applied at every pixel: if the original luminance is at or below
// inkThreshold, or the text mask is set there, the original pixel wins;
// otherwise the generated pixel is used. Linework and dialogue therefore
// always survive colorization bit-exact.
//
// All three images must share dimensions. A nil mask protects nothing.
func Compose(generated, original *image.RGBA, mask *image.Gray, inkThreshold int) (*image.RGBA, error) {
	if generated == nil || original == nil {
		return nil, ErrInvalidImage
	}
	gb, ob := generated.Bounds(), original.Bounds()
	if gb.Dx() != ob.Dx() || gb.Dy() != ob.Dy() {
		return nil, fmt.Errorf("%w: generated %dx%d vs original %dx%d",
			ErrInvalidImage, gb.Dx(), gb.Dy(), ob.Dx(), ob.Dy())
	}
	if mask != nil {
		mb := mask.Bounds()
		if mb.Dx() != ob.Dx() || mb.Dy() != ob.Dy() {
			return nil, fmt.Errorf("%w: mask %dx%d vs original %dx%d",
				ErrInvalidImage, mb.Dx(), mb.Dy(), ob.Dx(), ob.Dy())
		}
	}
	if inkThreshold < 0 {
		inkThreshold = 0
	}
	if inkThreshold > 255 {
		inkThreshold = 255
	}

	w, h := ob.Dx(), ob.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			op := original.RGBAAt(ob.Min.X+x, ob.Min.Y+y)
			luma := (299*int(op.R) + 587*int(op.G) + 114*int(op.B)) / 1000

			keep := luma <= inkThreshold
			if !keep && mask != nil {
				mb := mask.Bounds()
				keep = mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y != 0
			}

			if keep {
				out.SetRGBA(x, y, op)
			} else {
				out.SetRGBA(x, y, generated.RGBAAt(gb.Min.X+x, gb.Min.Y+y))
			}
		}
	}
	return out, nil
}

// comparisonGutter is the spacer between the two panes, in pixels.
const comparisonGutter = 8

// Comparison renders original and colored side by side with a white gutter,
// for manual before/after review.
func Comparison(original, colored image.Image) (*image.RGBA, error) {
	if original == nil || colored == nil {
		return nil, ErrInvalidImage
	}
	ob, cb := original.Bounds(), colored.Bounds()
	if ob.Empty() || cb.Empty() {
		return nil, ErrInvalidImage
	}

	h := ob.Dy()
	if cb.Dy() > h {
		h = cb.Dy()
	}
	w := ob.Dx() + comparisonGutter + cb.Dx()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, ob.Dx(), ob.Dy()), original, ob.Min, draw.Src)
	right := ob.Dx() + comparisonGutter
	draw.Draw(out, image.Rect(right, 0, right+cb.Dx(), cb.Dy()), colored, cb.Min, draw.Src)
	return out, nil
}
