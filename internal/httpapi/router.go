package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
	"github.com/ironsheep/ambient-extractor/internal/imaging"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// Ambient is the extraction service behind the API.
type Ambient interface {
	Extract(ctx context.Context, req *ambient.Request) (*ambient.Result, error)
	TurnOn(ctx context.Context, req *ambient.Request) (*ambient.Outcome, error)
	Preview(ctx context.Context, req *ambient.Request, scale float64) (*imaging.PreviewResult, error)
}

type handler struct {
	svc Ambient
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewRouter returns the gin engine serving the ambient API. lights, when
// non-nil, is mounted at /v1/lights/ws for light controllers.
func NewRouter(svc Ambient, lights http.Handler) *gin.Engine {
	h := &handler{svc: svc}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), limitBody(MaxBodyBytes))

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	v1.POST("/ambient/turn_on", h.turnOn)
	v1.POST("/ambient/extract", h.extract)
	v1.POST("/ambient/preview", h.preview)
	if lights != nil {
		v1.GET("/lights/ws", gin.WrapH(lights))
	}
	return r
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) turnOn(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	out, err := h.svc.TurnOn(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) extract(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	res, err := h.svc.Extract(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) preview(c *gin.Context) {
	scale, err := ambient.ParsePreviewScale(c.Query("scale"))
	if err != nil {
		writeErr(c, err)
		return
	}

	req, ok := bindRequest(c)
	if !ok {
		return
	}
	p, err := h.svc.Preview(c.Request.Context(), req, scale)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// bindRequest decodes the body as an action parameter object. It writes the
// error response itself and reports whether the handler should continue.
func bindRequest(c *gin.Context) (*ambient.Request, bool) {
	args := map[string]any{}
	if err := c.ShouldBindJSON(&args); err != nil {
		writeErr(c, &ambient.Error{Kind: ambient.ErrValidation, Err: err})
		return nil, false
	}
	req, err := ambient.ParseRequest(args)
	if err != nil {
		writeErr(c, err)
		return nil, false
	}
	return req, true
}

func writeErr(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), apiError{Error: err.Error(), Kind: ambient.KindName(err)})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ambient.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ambient.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ambient.ErrDecode), errors.Is(err, ambient.ErrExtract):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ambient.ErrFetch), errors.Is(err, ambient.ErrDispatch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
