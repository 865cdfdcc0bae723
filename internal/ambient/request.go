package ambient

import (
	"math"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/ironsheep/ambient-extractor/internal/imaging"
)

// Parameter names accepted by ParseRequest.
const (
	ParamURL            = "url"
	ParamPath           = "path"
	ParamURLAlias       = "ambient_extract_url"
	ParamPathAlias      = "ambient_extract_path"
	ParamBrightnessAuto = "brightness_auto"
	ParamBrightnessMode = "brightness_mode"
	ParamBrightnessMin  = "brightness_min"
	ParamBrightnessMax  = "brightness_max"
	ParamCropLeft       = "crop_offset_left"
	ParamCropTop        = "crop_offset_top"
	ParamCropWidth      = "crop_width"
	ParamCropHeight     = "crop_height"
	ParamCropRegion     = "crop_region"
)

// Parameter names set on the light action.
const (
	ParamRGBColor   = "rgb_color"
	ParamBrightness = "brightness"
)

// Brightness range used when a request does not set one.
const (
	DefaultBrightnessMin = 2
	DefaultBrightnessMax = 70
)

// ownParams are consumed by ParseRequest and never forwarded to the light.
var ownParams = map[string]bool{
	ParamURL: true, ParamPath: true, ParamURLAlias: true, ParamPathAlias: true,
	ParamBrightnessAuto: true, ParamBrightnessMode: true,
	ParamBrightnessMin: true, ParamBrightnessMax: true,
	ParamCropLeft: true, ParamCropTop: true, ParamCropWidth: true, ParamCropHeight: true,
	ParamCropRegion: true,
}

// Request is a normalized extraction request. Exactly one of URL and Path
// is set.
type Request struct {
	URL  string
	Path string

	CheckBrightness bool
	BrightnessMode  imaging.BrightnessMode
	BrightnessMin   int
	BrightnessMax   int

	Crop imaging.CropRect

	// LightParams holds every parameter ParseRequest did not consume. They
	// are forwarded to the light action unchanged.
	LightParams map[string]any
}

// Source returns the URL or path the image is loaded from.
func (r *Request) Source() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Path
}

// ParseRequest normalizes raw action parameters into a Request.
//
// Numbers may arrive as JSON numbers, integral floats or numeric strings.
// Brightness is computed unless brightness_auto is explicitly false. An
// unknown brightness_mode falls back to mean.
//
// # Errors
//
//   - Returns an *Error of kind ErrValidation if neither or both sources are
//     set, the URL is not absolute http(s), a numeric field is negative or not
//     an integer, crop_region is unknown, or an active crop rectangle starts
//     at or beyond the right or bottom edge
func ParseRequest(args map[string]any) (*Request, error) {
	req := &Request{
		CheckBrightness: true,
		BrightnessMode:  imaging.BrightnessMean,
		BrightnessMin:   DefaultBrightnessMin,
		BrightnessMax:   DefaultBrightnessMax,
		LightParams:     make(map[string]any),
	}

	rawURL, err := stringParam(args, ParamURL, ParamURLAlias)
	if err != nil {
		return nil, err
	}
	rawPath, err := stringParam(args, ParamPath, ParamPathAlias)
	if err != nil {
		return nil, err
	}
	switch {
	case rawURL == "" && rawPath == "":
		return nil, validationf("one of %s or %s is required", ParamURL, ParamPath)
	case rawURL != "" && rawPath != "":
		return nil, validationf("%s and %s are mutually exclusive", ParamURL, ParamPath)
	case rawURL != "":
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, validationf("%s must be an absolute http or https URL: %q", ParamURL, rawURL)
		}
		req.URL = rawURL
	default:
		req.Path = rawPath
	}

	if v, ok := args[ParamBrightnessAuto]; ok && v != nil {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, validationf("%s must be a boolean: %v", ParamBrightnessAuto, v)
		}
		req.CheckBrightness = b
	}

	if v, ok := args[ParamBrightnessMode]; ok && v != nil {
		raw := cast.ToString(v)
		mode, known := imaging.ParseBrightnessMode(raw)
		if !known {
			log.Warn().Str("mode", raw).Msg("unknown brightness mode, using mean")
		}
		req.BrightnessMode = mode
	}

	if req.BrightnessMin, err = intParam(args, ParamBrightnessMin, DefaultBrightnessMin); err != nil {
		return nil, err
	}
	if req.BrightnessMax, err = intParam(args, ParamBrightnessMax, DefaultBrightnessMax); err != nil {
		return nil, err
	}

	if req.Crop, err = parseCrop(args); err != nil {
		return nil, err
	}

	for k, v := range args {
		if !ownParams[k] {
			req.LightParams[k] = v
		}
	}

	return req, nil
}

// parseCrop builds the crop rectangle from a named region and/or explicit
// percentages. An explicit width and height override the region.
func parseCrop(args map[string]any) (imaging.CropRect, error) {
	var rect imaging.CropRect

	if v, ok := args[ParamCropRegion]; ok && v != nil {
		name := strings.TrimSpace(cast.ToString(v))
		if name != "" {
			r, err := imaging.NamedRegion(name)
			if err != nil {
				return rect, validationf("%s: %v (valid: %s)", ParamCropRegion, err, strings.Join(imaging.RegionNames, ", "))
			}
			rect = r
		}
	}

	x, err := intParam(args, ParamCropLeft, 0)
	if err != nil {
		return rect, err
	}
	y, err := intParam(args, ParamCropTop, 0)
	if err != nil {
		return rect, err
	}
	w, err := intParam(args, ParamCropWidth, 0)
	if err != nil {
		return rect, err
	}
	h, err := intParam(args, ParamCropHeight, 0)
	if err != nil {
		return rect, err
	}

	if w > 0 && h > 0 {
		if x >= 100 || y >= 100 {
			return rect, validationf("crop offset must be below 100%%, got left=%d top=%d", x, y)
		}
		rect = imaging.NewCropRect(x, y, w, h)
	}
	return rect, nil
}

// stringParam returns the first non-empty string among keys.
func stringParam(args map[string]any, keys ...string) (string, error) {
	for _, k := range keys {
		v, ok := args[k]
		if !ok || v == nil {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", validationf("%s must be a string", k)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
	return "", nil
}

// intParam reads a non-negative integer parameter, returning def when the
// key is absent.
func intParam(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	if f, ok := v.(float32); ok {
		v = float64(f)
	}

	var n int
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, validationf("%s must be an integer, got %v", key, t)
		}
		if t < 0 {
			return 0, validationf("%s must not be negative, got %v", key, t)
		}
		if t > math.MaxInt32 {
			return 0, validationf("%s is out of range, got %v", key, t)
		}
		n = int(t)
	case bool:
		return 0, validationf("%s must be an integer, got %v", key, t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return def, nil
		}
		i, err := cast.ToIntE(t)
		if err != nil {
			return 0, validationf("%s must be an integer, got %q", key, t)
		}
		n = i
	default:
		i, err := cast.ToIntE(v)
		if err != nil {
			return 0, validationf("%s must be an integer, got %v", key, v)
		}
		n = i
	}

	if n < 0 {
		return 0, validationf("%s must not be negative, got %d", key, n)
	}
	if n > math.MaxInt32 {
		return 0, validationf("%s is out of range, got %d", key, n)
	}
	return n, nil
}

// ParsePreviewScale reads the preview scale factor. A nil value means 1.
// The scale must be positive and at most imaging.MaxPreviewScale.
func ParsePreviewScale(v any) (float64, error) {
	if v == nil {
		return 1.0, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 1.0, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || f <= 0 || f > imaging.MaxPreviewScale {
		return 0, validationf("scale must be a number in (0, %g], got %v", imaging.MaxPreviewScale, v)
	}
	return f, nil
}
