package imaging

import (
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
)

// BrightnessMode selects the formula used to reduce an image to a single
// brightness value in [0, 255].
type BrightnessMode string

const (
	// BrightnessMean is the mean of the grayscale image.
	BrightnessMean BrightnessMode = "mean"
	// BrightnessRMS is the root-mean-square of the grayscale image.
	BrightnessRMS BrightnessMode = "rms"
	// BrightnessNatural is sqrt(0.241*R² + 0.691*G² + 0.068*B²) over the
	// per-channel means.
	BrightnessNatural BrightnessMode = "natural"
	// BrightnessDominant is the mean of the dominant color's channels.
	BrightnessDominant BrightnessMode = "dominant"
)

// BrightnessModes lists every supported mode.
var BrightnessModes = []BrightnessMode{
	BrightnessMean, BrightnessRMS, BrightnessNatural, BrightnessDominant,
}

// Luma weights used for the grayscale conversion (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ParseBrightnessMode maps a mode name to a BrightnessMode. Unknown names
// return BrightnessMean with ok=false.
func ParseBrightnessMode(s string) (BrightnessMode, bool) {
	switch m := BrightnessMode(strings.ToLower(strings.TrimSpace(s))); m {
	case BrightnessMean, BrightnessRMS, BrightnessNatural, BrightnessDominant:
		return m, true
	case "":
		return BrightnessMean, true
	default:
		return BrightnessMean, false
	}
}

// ChannelStats holds first and second moment statistics for one channel.
type ChannelStats struct {
	Mean float64 `json:"mean"`
	RMS  float64 `json:"rms"`
}

// statsFromBins computes mean and RMS from a 256-bin histogram.
func statsFromBins(bins []int) ChannelStats {
	var n, sum, sumSq float64
	for v, count := range bins {
		c := float64(count)
		n += c
		sum += c * float64(v)
		sumSq += c * float64(v) * float64(v)
	}
	if n == 0 {
		return ChannelStats{}
	}
	return ChannelStats{Mean: sum / n, RMS: math.Sqrt(sumSq / n)}
}

// GrayStats converts img to 8-bit grayscale and returns its statistics.
func GrayStats(img image.Image) ChannelStats {
	var gray image.Image = effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	hist := histogram.NewRGBAHistogram(gray)
	return statsFromBins(hist.R.Bins)
}

// RGBMeans returns the mean of each color channel.
func RGBMeans(img image.Image) (r, g, b float64) {
	hist := histogram.NewRGBAHistogram(img)
	return statsFromBins(hist.R.Bins).Mean,
		statsFromBins(hist.G.Bins).Mean,
		statsFromBins(hist.B.Bins).Mean
}

// Brightness estimates the brightness of img using mode.
//
// The dominant color is only read in BrightnessDominant mode, and the image
// is only read in the other modes. Unknown modes behave like BrightnessMean.
func Brightness(img image.Image, mode BrightnessMode, dominant RGBColor) float64 {
	switch mode {
	case BrightnessDominant:
		return dominant.Mean()
	case BrightnessNatural:
		r, g, b := RGBMeans(img)
		return math.Sqrt(0.241*r*r + 0.691*g*g + 0.068*b*b)
	case BrightnessRMS:
		return GrayStats(img).RMS
	default:
		return GrayStats(img).Mean
	}
}
