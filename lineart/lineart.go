// Package lineart extracts the structural line art map that conditions the
// colorization engines. The page is resized with aspect preserved, padded
// to the exact working resolution, and run through the extraction model;
// when no model is available a gradient edge detector stands in.
package lineart

import (
	"errors"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"colorizer_backend/mcruntime"
)

// ErrInvalidImage is returned when the source image is nil or zero-sized.
var ErrInvalidImage = errors.New("lineart: invalid source image")

// Map is a single-channel line art map at the working resolution.
// Dark values are lines, light values are background.
type Map struct {
	// Gray holds the map pixels, exactly Width x Height.
	Gray *image.Gray
	// Width and Height are the working resolution.
	Width  int
	Height int
	// ContentW and ContentH are the page content dims inside the padding.
	ContentW int
	ContentH int
}

// Extractor produces line art maps for the colorization pipeline.
//
// This organism composes:
//   - mcruntime.ExtractLineArt for the model pass
//   - a gradient-magnitude fallback when no model context is given
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract builds the line art map at exactly workW x workH.
// The source is scaled with aspect preserved and padded with white; padding
// never introduces lines. A nil model context selects the fallback detector.
func (e *Extractor) Extract(mctx *mcruntime.ModelContext, src image.Image, workW, workH int) (*Map, error) {
	if src == nil {
		return nil, ErrInvalidImage
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidImage
	}
	if workW <= 0 || workH <= 0 {
		return nil, ErrInvalidImage
	}

	gray, contentW, contentH := fitGray(src, workW, workH)

	var out *image.Gray
	if mctx != nil {
		model, err := mcruntime.ExtractLineArt(mctx, gray)
		if err != nil {
			e.logger.Warn("line art model pass failed, using fallback", zap.Error(err))
			out = edgeDetect(gray)
		} else {
			out = model
		}
	} else {
		out = edgeDetect(gray)
	}

	if ob := out.Bounds(); ob.Dx() != workW || ob.Dy() != workH {
		return nil, errors.New("lineart: extractor returned wrong dimensions")
	}

	return &Map{
		Gray:     out,
		Width:    workW,
		Height:   workH,
		ContentW: contentW,
		ContentH: contentH,
	}, nil
}

// fitGray scales src to fit workW x workH with aspect preserved, converts to
// grayscale, and pads the remainder with white. Never upscales.
func fitGray(src image.Image, workW, workH int) (*image.Gray, int, int) {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	scale := math.Min(float64(workW)/float64(srcW), float64(workH)/float64(srcH))
	if scale > 1 {
		scale = 1
	}
	contentW := int(float64(srcW) * scale)
	contentH := int(float64(srcH) * scale)
	if contentW < 1 {
		contentW = 1
	}
	if contentH < 1 {
		contentH = 1
	}
	if contentW > workW {
		contentW = workW
	}
	if contentH > workH {
		contentH = workH
	}

	scaled := image.NewRGBA(image.Rect(0, 0, contentW, contentH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Over, nil)

	out := image.NewGray(image.Rect(0, 0, workW, workH))
	for i := range out.Pix {
		out.Pix[i] = 255
	}
	for y := 0; y < contentH; y++ {
		for x := 0; x < contentW; x++ {
			px := scaled.RGBAAt(x, y)
			luma := 0.299*float64(px.R) + 0.587*float64(px.G) + 0.114*float64(px.B)
			out.SetGray(x, y, color.Gray{Y: uint8(luma + 0.5)})
		}
	}
	return out, contentW, contentH
}

// edgeDetect is the fallback structural extractor: gradient magnitude with
// inverted polarity so lines read dark on white.
func edgeDetect(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return int(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y) - at(x-1, y)
			gy := at(x, y+1) - at(x, y-1)
			mag := math.Sqrt(float64(gx*gx + gy*gy))
			v := 255.0 - math.Min(mag*2, 255.0)
			out.SetGray(x, y, color.Gray{Y: uint8(v + 0.5)})
		}
	}
	return out
}
