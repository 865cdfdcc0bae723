// Package imaging provides the image operations behind ambient extraction.
//
// This package decodes image bytes, crops images by percentage rectangles,
// extracts a dominant color and estimates brightness. All operations work
// with standard Go image.Image types, are stateless and can be called
// concurrently on different images.
//
// # Coordinate System
//
// Crop rectangles are expressed in percent of the source image, not pixels:
//   - X, Y: left and top offsets (0 = left/top edge)
//   - W, H: width and height; a rectangle with W or H of 0 selects the whole image
//   - X+W and Y+H are clamped to 100 so a rectangle never leaves the image
//
// Pixel bounds derived from a rectangle use the image width for the
// horizontal edges and the image height for the vertical edges.
//
// # Color Extraction
//
// DominantColor clusters pixels with k-means (github.com/EdlinOrg/prominentcolor)
// and returns the centroid of the most populated cluster. Colors can be
// expanded into several representations with NewColorResult:
//   - Hex: 6-character format "#RRGGBB"
//   - RGB: 8-bit components (0-255)
//   - HSV: Hue (0-360), Saturation (0-100), Value (0-100)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Brightness
//
// Brightness reduces an image to one value in [0, 255]:
//   - mean: mean of the grayscale image
//   - rms: root-mean-square of the grayscale image
//   - natural: sqrt(0.241*R² + 0.691*G² + 0.068*B²) over channel means
//   - dominant: mean of the dominant color's channels
//
// Grayscale conversion uses BT.601 luma weights (0.299, 0.587, 0.114).
//
// # Error Handling
//
// Decode wraps ErrNotImage for empty or unrecognized input. DominantColor
// returns ErrNoColor when an image has no opaque pixels.
package imaging
