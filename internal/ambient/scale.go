package ambient

// ScaleBrightness maps a brightness in [0, 255] linearly onto [lo, hi].
// When lo >= hi the result is lo.
func ScaleBrightness(b float64, lo, hi int) float64 {
	if lo >= hi {
		return float64(lo)
	}
	return float64(lo) + (b/255)*float64(hi-lo)
}
