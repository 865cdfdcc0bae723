package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrNotImage is returned when a byte stream cannot be interpreted as any
// registered image format.
var ErrNotImage = errors.New("not an image")

// ImageInfo contains metadata about a decoded image.
//
// This struct provides essential information about an image without requiring
// the caller to analyze the image data directly.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation is applied.
	Height int `json:"height"`

	// Format is the format name reported by the decoder: "png", "jpeg", "gif",
	// "webp", "bmp" or "tiff".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded image in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Decoded pairs a decoded image with its metadata.
type Decoded struct {
	Image image.Image
	Info  ImageInfo
}

// Decode interprets raw bytes as an image.
//
// The format is sniffed from the content, never from a file name or a
// Content-Type header. JPEG images are rotated according to their EXIF
// orientation tag so that crop percentages refer to the image as displayed.
//
// # Errors
//
//   - Returns an error wrapping ErrNotImage if the data is empty or no
//     registered decoder accepts it
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrNotImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	bounds := img.Bounds()
	hasAlpha := false
	if o, ok := img.(interface{ Opaque() bool }); ok {
		hasAlpha = !o.Opaque()
	}

	return &Decoded{
		Image: img,
		Info: ImageInfo{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			Format:     format,
			ColorDepth: colorDepth(cfg.ColorModel),
			HasAlpha:   hasAlpha,
			SizeBytes:  int64(len(data)),
		},
	}, nil
}

// colorDepth reports the channel depth of a source color model.
// Rotated images come back as NRGBA whatever their source depth, so this
// reads the DecodeConfig result rather than the decoded image type.
func colorDepth(m color.Model) string {
	// Palettes are slices and must not reach the comparison below.
	if _, ok := m.(color.Palette); ok {
		return "8-bit"
	}

	switch m {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return "16-bit"
	}
	return "8-bit"
}
