package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropRect is a crop rectangle expressed in percentages of the source image.
//
// X and Y are the left and top offsets, W and H the width and height. The
// rectangle is active only when both W and H are positive; an inactive
// rectangle means "analyze the whole image".
type CropRect struct {
	X int `json:"x"` // Left offset, percent of image width
	Y int `json:"y"` // Top offset, percent of image height
	W int `json:"w"` // Width, percent of image width (0 = whole image)
	H int `json:"h"` // Height, percent of image height (0 = whole image)
}

// NewCropRect builds a CropRect and clamps it so the rectangle never extends
// past the right or bottom edge: X+W and Y+H are capped at 100 by shrinking
// W and H. Inactive rectangles are returned unchanged.
func NewCropRect(x, y, w, h int) CropRect {
	r := CropRect{X: x, Y: y, W: w, H: h}
	if !r.Active() {
		return r
	}
	if r.X+r.W > 100 {
		r.W = 100 - r.X
	}
	if r.Y+r.H > 100 {
		r.H = 100 - r.Y
	}
	return r
}

// Active reports whether the rectangle selects a sub-region.
func (r CropRect) Active() bool {
	return r.W > 0 && r.H > 0
}

// PixelBounds converts the percentage rectangle into pixel bounds for an
// image of the given size. The returned rectangle is relative to (0,0).
//
// Edges are floored: left = floor(width*X/100), top = floor(height*Y/100),
// right = floor(width*(X+W)/100), bottom = floor(height*(Y+H)/100). A
// rectangle that floors to zero pixels on a tiny image is widened to one
// pixel so there is always something to sample.
func (r CropRect) PixelBounds(width, height int) image.Rectangle {
	if !r.Active() {
		return image.Rect(0, 0, width, height)
	}

	x0 := width * r.X / 100
	y0 := height * r.Y / 100
	x1 := width * (r.X + r.W) / 100
	y1 := height * (r.Y + r.H) / 100

	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
}

// CropPercent returns the region of img selected by r. An inactive rectangle
// returns img itself, unmodified.
func CropPercent(img image.Image, r CropRect) (image.Image, image.Rectangle) {
	bounds := img.Bounds()
	if !r.Active() {
		return img, image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	}

	rel := r.PixelBounds(bounds.Dx(), bounds.Dy())
	return imaging.Crop(img, rel.Add(bounds.Min)), rel
}

// NamedRegion returns the percentage rectangle for a named region of the
// image: top-left, top-right, bottom-left, bottom-right, top-half,
// bottom-half, left-half, right-half or center (the middle 50%).
func NamedRegion(region string) (CropRect, error) {
	switch region {
	case "top-left":
		return CropRect{X: 0, Y: 0, W: 50, H: 50}, nil
	case "top-right":
		return CropRect{X: 50, Y: 0, W: 50, H: 50}, nil
	case "bottom-left":
		return CropRect{X: 0, Y: 50, W: 50, H: 50}, nil
	case "bottom-right":
		return CropRect{X: 50, Y: 50, W: 50, H: 50}, nil
	case "top-half":
		return CropRect{X: 0, Y: 0, W: 100, H: 50}, nil
	case "bottom-half":
		return CropRect{X: 0, Y: 50, W: 100, H: 50}, nil
	case "left-half":
		return CropRect{X: 0, Y: 0, W: 50, H: 100}, nil
	case "right-half":
		return CropRect{X: 50, Y: 0, W: 50, H: 100}, nil
	case "center":
		return CropRect{X: 25, Y: 25, W: 50, H: 50}, nil
	default:
		return CropRect{}, fmt.Errorf("unknown region: %s", region)
	}
}

// RegionNames lists the names accepted by NamedRegion.
var RegionNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// PreviewResult contains an encoded image region
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// MaxPreviewScale is the largest scale factor EncodePreview accepts.
const MaxPreviewScale = 4.0

// ErrPreviewScale is returned by EncodePreview for a scale above
// MaxPreviewScale.
var ErrPreviewScale = errors.New("preview scale out of range")

// EncodePreview encodes img as a base64 PNG, optionally rescaled. A scale of
// zero or below leaves the image unscaled.
func EncodePreview(img image.Image, scale float64) (*PreviewResult, error) {
	if scale > MaxPreviewScale {
		return nil, fmt.Errorf("%w: %g exceeds %g", ErrPreviewScale, scale, MaxPreviewScale)
	}
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(img.Bounds().Dx()) * scale)
		newHeight := int(float64(img.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview image: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
