// Package textdetect locates dialogue text regions on manga pages so the
// compositor can keep them untouched. Detection targets the common case of
// dark glyphs inside near-white speech bubbles.
package textdetect

// Config holds the detector tunables.
type Config struct {
	// WhiteThreshold is the minimum luminance of bubble background pixels.
	WhiteThreshold uint8

	// DarkThreshold is the maximum luminance of glyph (ink) pixels.
	DarkThreshold uint8

	// MinArea is the smallest candidate component kept, in pixels.
	MinArea int

	// MinInkPixels is the least ink a candidate box must contain to count
	// as text rather than a blank highlight.
	MinInkPixels int

	// MaxAspect is the widest allowed bounding box aspect ratio
	// (long side over short side). Panel borders exceed it.
	MaxAspect float64

	// MaxCoverage is the mask area fraction above which detection bails
	// out and returns the all-clear mask. A mask that large means the
	// thresholds matched the artwork, not the dialogue.
	MaxCoverage float64
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		WhiteThreshold: 245,
		DarkThreshold:  180,
		MinArea:        100,
		MinInkPixels:   20,
		MaxAspect:      8.0,
		MaxCoverage:    0.35,
	}
}

// sanitize clamps nonsensical values back to the defaults.
func (c Config) sanitize() Config {
	def := DefaultConfig()
	if c.MinArea <= 0 {
		c.MinArea = def.MinArea
	}
	if c.MinInkPixels <= 0 {
		c.MinInkPixels = def.MinInkPixels
	}
	if c.MaxAspect <= 1 {
		c.MaxAspect = def.MaxAspect
	}
	if c.MaxCoverage <= 0 || c.MaxCoverage > 1 {
		c.MaxCoverage = def.MaxCoverage
	}
	return c
}
