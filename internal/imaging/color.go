package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrNoColor is returned when an image has no opaque pixels to sample.
var ErrNoColor = errors.New("image has no opaque pixels")

// RGBColor represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Slice returns the color as [r, g, b], the shape light actions expect for
// an rgb_color parameter.
func (c RGBColor) Slice() []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

// Mean returns the arithmetic mean of the three channels.
func (c RGBColor) Mean() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// HSVColor represents a color in HSV (Hue, Saturation, Value) color space.
type HSVColor struct {
	H float64 `json:"h"` // Hue: 0-360 degrees
	S float64 `json:"s"` // Saturation: 0-100 percent
	V float64 `json:"v"` // Value: 0-100 percent
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H float64 `json:"h"` // Hue: 0-360 degrees
	S float64 `json:"s"` // Saturation: 0-100 percent
	L float64 `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"`
	HSV HSVColor `json:"hsv"`
	HSL HSLColor `json:"hsl"`
}

// NewColorResult expands an RGB color into hex, HSV and HSL forms.
func NewColorResult(c RGBColor) ColorResult {
	col := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
	h, s, v := col.Hsv()
	hl, sl, l := col.Hsl()

	return ColorResult{
		Hex: strings.ToUpper(col.Hex()),
		RGB: c,
		HSV: HSVColor{H: round1(h), S: round1(s * 100), V: round1(v * 100)},
		HSL: HSLColor{H: round1(hl), S: round1(sl * 100), L: round1(l * 100)},
	}
}

func round1(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*10) / 10
}

// QuantizeOptions tunes dominant color extraction.
type QuantizeOptions struct {
	// Clusters is the number of k-means clusters. The most populated cluster
	// is the dominant color. Values below 1 use prominentcolor.DefaultK.
	Clusters int

	// Size is the edge length the quantizer resizes to before clustering.
	// Zero uses prominentcolor.DefaultSize.
	Size uint

	// MaskBackground drops near-white, near-black and green-screen pixels
	// before clustering. If masking leaves nothing, extraction is retried
	// without masks.
	MaskBackground bool
}

// DefaultQuantizeOptions returns the options used when none are configured.
func DefaultQuantizeOptions() QuantizeOptions {
	return QuantizeOptions{
		Clusters: prominentcolor.DefaultK,
		Size:     prominentcolor.DefaultSize,
	}
}

// DominantColor returns the single color that best represents img.
//
// Pixels are clustered with k-means (prominentcolor) and the centroid of the
// most populated cluster is returned. The cluster count never exceeds the
// number of distinct opaque colors; an image made of one color returns that
// color without clustering. With a single cluster the result is the mean
// opaque color.
//
// # Errors
//
//   - Returns ErrNoColor if the image has no opaque pixels
//   - Returns an error if clustering fails for every fallback
func DominantColor(img image.Image, opts QuantizeOptions) (RGBColor, error) {
	k := opts.Clusters
	if k < 1 {
		k = prominentcolor.DefaultK
	}
	size := opts.Size
	if size == 0 {
		size = prominentcolor.DefaultSize
	}

	// Two colors are enough to know clustering is needed, even for k=1.
	distinct, only := distinctColors(img, max(k, 2))
	switch distinct {
	case 0:
		return RGBColor{}, ErrNoColor
	case 1:
		return only, nil
	}
	if k > distinct {
		k = distinct
	}

	var masks []prominentcolor.ColorBackgroundMask
	if opts.MaskBackground {
		masks = prominentcolor.GetDefaultMasks()
	}

	items, err := kmeans(k, img, size, masks)
	if err != nil && masks != nil {
		items, err = kmeans(k, img, size, nil)
	}
	if err != nil && k > 1 {
		items, err = kmeans(1, img, size, nil)
	}
	if err != nil {
		return RGBColor{}, err
	}

	var best *prominentcolor.ColorItem
	for i := range items {
		if best == nil || items[i].Cnt > best.Cnt {
			best = &items[i]
		}
	}
	if best == nil {
		return RGBColor{}, errors.New("quantizer returned no colors")
	}

	return RGBColor{
		R: clamp8(best.Color.R),
		G: clamp8(best.Color.G),
		B: clamp8(best.Color.B),
	}, nil
}

// kmeans runs the quantizer and converts a panic inside it into an error.
// prominentcolor can index an empty cluster when seeding degenerates.
func kmeans(k int, img image.Image, size uint, masks []prominentcolor.ColorBackgroundMask) (items []prominentcolor.ColorItem, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = fmt.Errorf("quantizer panic: %v", rec)
		}
	}()

	items, err = prominentcolor.KmeansWithAll(k, img, prominentcolor.ArgumentNoCropping, size, masks)
	if err != nil {
		return nil, fmt.Errorf("failed to quantize colors: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("quantizer returned no colors")
	}
	return items, nil
}

// distinctColors counts distinct opaque 8-bit colors in img, stopping once
// limit is reached. When exactly one color is present it is also returned.
func distinctColors(img image.Image, limit int) (int, RGBColor) {
	bounds := img.Bounds()
	seen := make(map[RGBColor]struct{}, limit)
	var first RGBColor

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := opaqueAt(img, x, y)
			if !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			if len(seen) == 0 {
				first = c
			}
			seen[c] = struct{}{}
			if len(seen) >= limit {
				return len(seen), first
			}
		}
	}
	return len(seen), first
}

// opaqueAt reads the un-premultiplied 8-bit color at (x, y). Fully
// transparent pixels report ok=false.
func opaqueAt(img image.Image, x, y int) (RGBColor, bool) {
	r, g, b, a := img.At(x, y).RGBA()
	if a == 0 {
		return RGBColor{}, false
	}
	if a != 0xffff {
		r = r * 0xffff / a
		g = g * 0xffff / a
		b = b * 0xffff / a
	}
	return RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, true
}

func clamp8(v uint32) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
