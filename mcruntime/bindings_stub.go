//go:build !native || stub

// Pure-Go implementation of the colorization runtime bindings.
// Build without the "native" tag to use these.
//
// The transforms here are deterministic: the fast path is a pure function of
// its inputs, and the generative path is a pure function of inputs plus seed.
// They stand in for the native model so the full pipeline (preparation,
// masking, compositing, batching) runs unchanged on any machine.

package mcruntime

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"os"
	"sync/atomic"
)

// stubContextCounter generates unique IDs for stub contexts
var stubContextCounter uint64

// loadModelImpl validates the weight path and returns a tracked context.
func loadModelImpl(weightPath string) (*ModelContext, error) {
	info, err := os.Stat(weightPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, weightPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, weightPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrModelCorrupted, weightPath)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrModelCorrupted, weightPath)
	}

	return &ModelContext{
		id:         atomic.AddUint64(&stubContextCounter, 1),
		weightPath: weightPath,
		valid:      true,
	}, nil
}

// freeContextImpl marks the context as invalid.
func freeContextImpl(ctx *ModelContext) {
	if ctx == nil {
		return
	}
	ctx.valid = false
}

// backendInfoImpl returns backend info for the stub runtime.
func backendInfoImpl() string {
	return "stub (no native colorization library linked)"
}

// lineArtImpl extracts a line art map by gradient magnitude.
// Dark lines on a white background, matching the native model's output space.
func lineArtImpl(ctx *ModelContext, src *image.Gray) (*image.Gray, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := int(sampleGray(src, x+1, y)) - int(sampleGray(src, x-1, y))
			gy := int(sampleGray(src, x, y+1)) - int(sampleGray(src, x, y-1))
			mag := math.Sqrt(float64(gx*gx + gy*gy))
			v := 255.0 - math.Min(mag*2, 255.0)
			out.SetGray(x, y, color.Gray{Y: color8(v)})
		}
	}
	return out, nil
}

// sampleGray reads a pixel clamped to the image bounds.
func sampleGray(img *image.Gray, x, y int) uint8 {
	b := img.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	return img.GrayAt(x, y).Y
}

// beginSampleImpl initializes generative sampling state from the page,
// the line art map, and the seed.
func beginSampleImpl(ctx *ModelContext, img *image.RGBA, lineArt *image.Gray, p Params, seed int64) (*sampleState, error) {
	if ctx == nil || !ctx.valid {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrEngineExecution)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h

	st := &sampleState{
		width:      w,
		height:     h,
		seed:       seed,
		strength:   p.Strength,
		guidance:   p.GuidanceScale,
		totalSteps: p.Steps,
		luma:       make([]float64, n),
		chromaA:    make([]float64, n),
		chromaB:    make([]float64, n),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			st.luma[y*w+x] = luminance(px.R, px.G, px.B) / 255.0
		}
	}

	// Seeded chroma noise, scaled by strength. Same seed, same field.
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		st.chromaA[i] = (rng.Float64() - 0.5) * p.Strength
		st.chromaB[i] = (rng.Float64() - 0.5) * p.Strength
	}

	// A seed-derived palette tint survives the smoothing passes, so distinct
	// seeds converge to visibly distinct colorings.
	st.tintA = (float64(seed%17)/16.0 - 0.5) * p.Strength * 0.5
	st.tintB = (float64((seed/17)%17)/16.0 - 0.5) * p.Strength * 0.5

	return st, nil
}

// sampleStepImpl performs one denoising step: smooth the chroma field and
// pull it toward a luminance-banded palette. The pull rate grows with the
// guidance scale.
func sampleStepImpl(ctx *ModelContext, st *sampleState, step int) error {
	if ctx == nil || !ctx.valid {
		return fmt.Errorf("%w: context is nil or invalid", ErrEngineExecution)
	}
	if st == nil {
		return fmt.Errorf("%w: nil sample state", ErrEngineExecution)
	}

	w, h := st.width, st.height
	pull := st.guidance / (st.guidance + float64(st.totalSteps))

	smoothA := boxBlur(st.chromaA, w, h)
	smoothB := boxBlur(st.chromaB, w, h)

	for i := range st.chromaA {
		ta, tb := paletteTarget(st.luma[i])
		st.chromaA[i] = smoothA[i]*(1-pull) + (ta+st.tintA)*pull
		st.chromaB[i] = smoothB[i]*(1-pull) + (tb+st.tintB)*pull
	}
	return nil
}

// decodeSampleImpl converts the sampled state back to an RGBA image.
func decodeSampleImpl(ctx *ModelContext, st *sampleState) (*image.RGBA, error) {
	if ctx == nil || !ctx.valid {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrEngineExecution)
	}
	out := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	for i := 0; i < st.width*st.height; i++ {
		r, g, b := chromaToRGB(st.luma[i], st.chromaA[i], st.chromaB[i])
		x, y := i%st.width, i/st.width
		out.SetRGBA(x, y, rgba(r, g, b))
	}
	return out, nil
}

// fastColorizeImpl is the single-pass feed-forward transform. It tints the
// page from a fixed luminance palette with no stochastic input, so output
// bytes depend only on input bytes.
func fastColorizeImpl(ctx *ModelContext, img *image.RGBA, lineArt *image.Gray) (*image.RGBA, error) {
	if ctx == nil || !ctx.valid {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrEngineExecution)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			luma := luminance(px.R, px.G, px.B) / 255.0

			// Line art darkens the result so edges stay crisp.
			edge := float64(lineArt.GrayAt(x, y).Y) / 255.0
			ca, cb := paletteTarget(luma)
			r, g, bb := chromaToRGB(luma*edge, ca, cb)
			out.SetRGBA(x, y, rgba(r, g, bb))
		}
	}
	return out, nil
}

// luminance computes ITU-R BT.601 luma from 8-bit channels.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// paletteTarget maps a luminance value to a chroma pair. Shadows pull cool,
// midtones warm, highlights near neutral.
func paletteTarget(luma float64) (float64, float64) {
	switch {
	case luma < 0.25:
		return -0.10, 0.15 // cool shadows
	case luma < 0.55:
		return 0.12, 0.08 // warm midtones
	case luma < 0.85:
		return 0.08, -0.05 // skin-ish lights
	default:
		return 0.0, 0.0 // neutral highlights
	}
}

// chromaToRGB converts luma plus two chroma offsets to 8-bit RGB.
func chromaToRGB(luma, ca, cb float64) (uint8, uint8, uint8) {
	y := luma * 255.0
	r := y + ca*255.0
	g := y - 0.3*ca*255.0 - 0.3*cb*255.0
	b := y + cb*255.0
	return color8(r), color8(g), color8(b)
}

// boxBlur applies one 3x3 box blur pass with clamped edges.
func boxBlur(src []float64, w, h int) []float64 {
	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			var count int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					sum += src[ny*w+nx]
					count++
				}
			}
			out[y*w+x] = sum / float64(count)
		}
	}
	return out
}

// rgba builds an opaque color.RGBA.
func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// color8 clamps a float to the 8-bit channel range.
func color8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
