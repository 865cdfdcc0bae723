// Package ambient turns an image into light parameters.
//
// A request names an image by URL or local path. The Service loads it
// (subject to an AllowList), decodes it, optionally crops it to a percentage
// rectangle, extracts the dominant color and a brightness estimate, scales
// the brightness into the request's range and finally hands rgb_color and
// brightness, merged with any other request parameters, to a LightAction.
//
// Failures are reported as *Error values whose Kind is one of ErrValidation,
// ErrAccessDenied, ErrFetch, ErrDecode, ErrExtract or ErrDispatch. The light
// action is never invoked when any step before dispatch fails.
package ambient
