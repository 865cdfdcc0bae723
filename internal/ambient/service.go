package ambient

import (
	"context"
	"errors"
	"image"
	"maps"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/ambient-extractor/internal/imaging"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Allow         AllowList
	HTTPClient    *http.Client
	FetchTimeout  time.Duration
	MaxImageBytes int64
	Quantize      imaging.QuantizeOptions
}

// Region is the analyzed part of the image in pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the outcome of running the extraction pipeline on one image.
type Result struct {
	Source string              `json:"source"`
	Color  imaging.ColorResult `json:"color"`

	// Brightness is the raw estimate in [0, 255], nil when not requested.
	Brightness *float64 `json:"brightness,omitempty"`

	// ScaledBrightness is Brightness mapped onto the request's range. It is
	// nil when Brightness is nil or zero.
	ScaledBrightness *float64 `json:"scaled_brightness,omitempty"`

	BrightnessMode imaging.BrightnessMode `json:"brightness_mode,omitempty"`
	Image          imaging.ImageInfo      `json:"image"`
	Region         Region                 `json:"region"`
}

// Outcome reports what TurnOn did.
type Outcome struct {
	// Dispatched is true when the light action was invoked.
	Dispatched bool `json:"dispatched"`

	// Params are the parameters handed to the light action.
	Params map[string]any `json:"params"`

	Result *Result `json:"result"`
}

// Service runs the extraction pipeline and dispatches light actions.
type Service struct {
	loader   *Loader
	action   LightAction
	quantize imaging.QuantizeOptions
}

// NewService creates a Service that forwards to action.
func NewService(action LightAction, opts Options) *Service {
	return &Service{
		loader:   NewLoader(opts.Allow, opts.HTTPClient, opts.FetchTimeout, opts.MaxImageBytes),
		action:   action,
		quantize: opts.Quantize,
	}
}

// analysis is a loaded, decoded and cropped image.
type analysis struct {
	decoded *imaging.Decoded
	region  image.Image
	bounds  image.Rectangle
}

func (s *Service) analyze(ctx context.Context, req *Request) (*analysis, error) {
	data, err := s.loader.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	decoded, err := imaging.Decode(data)
	if err != nil {
		return nil, newError(ErrDecode, req.Source(), err)
	}

	region, bounds := imaging.CropPercent(decoded.Image, req.Crop)
	return &analysis{decoded: decoded, region: region, bounds: bounds}, nil
}

// Extract runs the pipeline without dispatching.
//
// # Errors
//
//   - ErrAccessDenied, ErrFetch from loading
//   - ErrDecode if the bytes are not a supported image
//   - ErrExtract if no color can be extracted
func (s *Service) Extract(ctx context.Context, req *Request) (*Result, error) {
	res, err := s.extract(ctx, req)
	if err != nil {
		logFailure(req, err)
		return nil, err
	}
	return res, nil
}

func (s *Service) extract(ctx context.Context, req *Request) (*Result, error) {
	a, err := s.analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	dominant, err := imaging.DominantColor(a.region, s.quantize)
	if err != nil {
		return nil, newError(ErrExtract, req.Source(), err)
	}

	res := &Result{
		Source: req.Source(),
		Color:  imaging.NewColorResult(dominant),
		Image:  a.decoded.Info,
		Region: Region{
			X:      a.bounds.Min.X,
			Y:      a.bounds.Min.Y,
			Width:  a.bounds.Dx(),
			Height: a.bounds.Dy(),
		},
	}

	if req.CheckBrightness {
		b := imaging.Brightness(a.region, req.BrightnessMode, dominant)
		res.Brightness = &b
		res.BrightnessMode = req.BrightnessMode
		if b != 0 {
			scaled := ScaleBrightness(b, req.BrightnessMin, req.BrightnessMax)
			res.ScaledBrightness = &scaled
		}
	}

	log.Debug().
		Str("source", res.Source).
		Str("color", res.Color.Hex).
		Str("mode", string(res.BrightnessMode)).
		Msg("extracted ambient color")

	return res, nil
}

// TurnOn runs the pipeline and invokes the light action with the request's
// light parameters plus rgb_color and, when computed and non-zero,
// brightness. A successful extraction always yields a color, so the action
// runs exactly when extraction succeeds.
//
// # Errors
//
//   - Any error from Extract; the light action is not invoked
//   - ErrDispatch if the light action fails
func (s *Service) TurnOn(ctx context.Context, req *Request) (*Outcome, error) {
	res, err := s.extract(ctx, req)
	if err != nil {
		logFailure(req, err)
		return nil, err
	}

	params := make(map[string]any, len(req.LightParams)+2)
	maps.Copy(params, req.LightParams)
	params[ParamRGBColor] = res.Color.RGB.Slice()
	if res.ScaledBrightness != nil {
		params[ParamBrightness] = *res.ScaledBrightness
	}

	if err := s.action.TurnOn(ctx, params); err != nil {
		derr := newError(ErrDispatch, req.Source(), err)
		logFailure(req, derr)
		return nil, derr
	}

	ev := log.Info().
		Str("source", res.Source).
		Str("color", res.Color.Hex)
	if res.ScaledBrightness != nil {
		ev = ev.Float64("brightness", *res.ScaledBrightness)
	}
	if entity, ok := params["entity_id"]; ok {
		ev = ev.Interface("entity", entity)
	}
	ev.Msg("light turned on")

	return &Outcome{Dispatched: true, Params: params, Result: res}, nil
}

// Preview returns the analyzed region of the request's image as a PNG,
// rescaled by scale. A scale outside (0, imaging.MaxPreviewScale] is an
// ErrValidation.
func (s *Service) Preview(ctx context.Context, req *Request, scale float64) (*imaging.PreviewResult, error) {
	if _, err := ParsePreviewScale(scale); err != nil {
		logFailure(req, err)
		return nil, err
	}

	a, err := s.analyze(ctx, req)
	if err != nil {
		logFailure(req, err)
		return nil, err
	}

	preview, err := imaging.EncodePreview(a.region, scale)
	if err != nil {
		return nil, newError(ErrExtract, req.Source(), err)
	}
	return preview, nil
}

func logFailure(req *Request, err error) {
	level := zerolog.ErrorLevel
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrAccessDenied) {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Err(err).
		Str("source", req.Source()).
		Str("kind", KindName(err)).
		Msg("ambient extraction failed")
}
