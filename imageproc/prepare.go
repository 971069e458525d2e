package imageproc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Granularity is the dimension multiple the engines require.
const Granularity = 8

// Meta records how a page was transformed into working resolution, so
// Postprocess can restore it.
type Meta struct {
	// OrigW and OrigH are the source dimensions.
	OrigW, OrigH int
	// WorkW and WorkH are the working dimensions (multiples of Granularity).
	WorkW, WorkH int
	// Scaled is true when working dims differ from the source dims.
	Scaled bool
}

// Prepare converts a page to the working resolution: scale to fit maxSide
// with aspect preserved (never upscaling), then round each side down to the
// nearest Granularity multiple. Resampling is Lanczos.
func Prepare(img image.Image, maxSide int) (*image.RGBA, Meta, error) {
	if img == nil {
		return nil, Meta{}, ErrInvalidImage
	}
	b := img.Bounds()
	origW, origH := b.Dx(), b.Dy()
	if origW <= 0 || origH <= 0 {
		return nil, Meta{}, ErrInvalidImage
	}
	if maxSide < Granularity {
		return nil, Meta{}, fmt.Errorf("%w: max side %d below granularity", ErrInvalidImage, maxSide)
	}

	scale := 1.0
	long := origW
	if origH > long {
		long = origH
	}
	if long > maxSide {
		scale = float64(maxSide) / float64(long)
	}

	workW := int(float64(origW)*scale) / Granularity * Granularity
	workH := int(float64(origH)*scale) / Granularity * Granularity
	if workW < Granularity {
		workW = Granularity
	}
	if workH < Granularity {
		workH = Granularity
	}

	meta := Meta{
		OrigW: origW, OrigH: origH,
		WorkW: workW, WorkH: workH,
		Scaled: workW != origW || workH != origH,
	}

	if !meta.Scaled {
		return ToRGBA(img), meta, nil
	}

	resized := imaging.Resize(img, workW, workH, imaging.Lanczos)
	return ToRGBA(resized), meta, nil
}

// Postprocess restores a working-resolution result to the original page
// dimensions. When no scaling happened the input is returned untouched.
func Postprocess(img *image.RGBA, meta Meta) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() != meta.WorkW || b.Dy() != meta.WorkH {
		return nil, fmt.Errorf("%w: got %dx%d, meta says %dx%d",
			ErrInvalidImage, b.Dx(), b.Dy(), meta.WorkW, meta.WorkH)
	}
	if !meta.Scaled {
		return img, nil
	}
	restored := imaging.Resize(img, meta.OrigW, meta.OrigH, imaging.Lanczos)
	return ToRGBA(restored), nil
}
