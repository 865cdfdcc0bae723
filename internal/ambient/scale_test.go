package ambient

import (
	"errors"
	"math"
	"testing"
)

func TestScaleBrightness(t *testing.T) {
	tests := []struct {
		name   string
		b      float64
		lo, hi int
		want   float64
	}{
		{"zero maps to min", 0, 2, 70, 2},
		{"full maps to max", 255, 2, 70, 70},
		{"midpoint", 127.5, 0, 100, 50},
		{"gray 128", 128, 10, 110, 10 + 128.0/255*100},
		{"equal bounds", 200, 40, 40, 40},
		{"inverted bounds", 200, 90, 10, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleBrightness(tt.b, tt.lo, tt.hi)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaleBrightness_StaysInRange(t *testing.T) {
	for b := 0.0; b <= 255; b += 0.5 {
		got := ScaleBrightness(b, 2, 70)
		if got < 2 || got > 70 {
			t.Fatalf("b=%v: %v outside [2,70]", b, got)
		}
	}
}

func TestError_KindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(newError(ErrFetch, "http://cam.local/snap.jpg", cause))

	if !errors.Is(err, ErrFetch) {
		t.Error("errors.Is(err, ErrFetch) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("errors.Is(err, ErrDecode) = true")
	}
	if got := KindName(err); got != "fetch" {
		t.Errorf("KindName: got %s, want fetch", got)
	}
	if got := KindName(errors.New("boom")); got != "internal" {
		t.Errorf("KindName: got %s, want internal", got)
	}
	want := "fetch failed: http://cam.local/snap.jpg: connection refused"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
}
