// Package renderhandler serves renders of a fixed scene over HTTP.
package renderhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"raycaster/camera"
	"raycaster/framebuffer"
	"raycaster/framestore"
	"raycaster/render"
	"raycaster/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// MaxDimension bounds the width and height of a requested image.
const MaxDimension = 4096

const maxRequestBytes = 1 << 16

type Handler struct {
	producer   *render.Producer
	sceneBytes []byte

	cache   framestore.Store
	limiter *rate.Limiter
}

type HandlerOpt func(*Handler)

// WithCache makes the handler consult and fill store.
func WithCache(store framestore.Store) HandlerOpt {
	return func(h *Handler) {
		h.cache = store
	}
}

// WithRateLimit rejects renders beyond limit per second (after burst) with
// 429.
func WithRateLimit(limit rate.Limit, burst int) HandlerOpt {
	return func(h *Handler) {
		h.limiter = rate.NewLimiter(limit, burst)
	}
}

// New builds a handler rendering with p.  sceneBytes is the encoded form of
// p's scene, used to key the cache.
func New(p *render.Producer, sceneBytes []byte, opts ...HandlerOpt) *Handler {
	h := &Handler{
		producer:   p,
		sceneBytes: sceneBytes,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

type renderRequest struct {
	Eye    vec3.T `json:"eye"`
	View   vec3.T `json:"view"`
	ViewUp vec3.T `json:"viewUp"`

	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`

	Width  int `json:"width"`
	Height int `json:"height"`

	RequestNo int64 `json:"requestNo"`
}

func (req *renderRequest) params() camera.Params {
	return camera.Params{
		Eye:        req.Eye,
		View:       req.View,
		ViewUp:     req.ViewUp,
		Horizontal: req.Horizontal,
		Vertical:   req.Vertical,
		Width:      req.Width,
		Height:     req.Height,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tracer := otel.Tracer("raycaster/renderhandler")
	ctx, span := tracer.Start(r.Context(), "Handler.ServeHTTP")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	reqBody, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	req := &renderRequest{}
	if err := json.Unmarshal(reqBody, req); err != nil {
		http.Error(w, fmt.Sprintf("bad request: invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int64("requestNo", req.RequestNo),
		attribute.Int("width", req.Width),
		attribute.Int("height", req.Height),
	)

	if req.Width > MaxDimension || req.Height > MaxDimension {
		http.Error(w, fmt.Sprintf("bad request: image dimensions may not exceed %d", MaxDimension), http.StatusBadRequest)
		return
	}

	params := req.params()
	key := framestore.Key(params, h.sceneBytes)

	var f *framebuffer.Frame
	cacheStatus := "miss"
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			glog.Errorf("Error reading frame cache for key %s: %v", key, err)
		}
		if ok {
			hit := *cached
			hit.RequestNo = req.RequestNo
			f = &hit
			cacheStatus = "hit"
		}
	}

	if f == nil {
		f, err = h.producer.Frame(ctx, params, req.RequestNo)
		if errors.Is(err, camera.ErrDegenerateGeometry) {
			http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
			return
		}
		if err != nil {
			glog.Errorf("Error rendering request %d: %v", req.RequestNo, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if h.cache != nil {
			if err := h.cache.Put(ctx, key, f); err != nil {
				glog.Errorf("Error writing frame cache for key %s: %v", key, err)
			}
		}
	}

	respBody := &bytes.Buffer{}
	if err := png.Encode(respBody, f.Image()); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "image/png")
	w.Header().Add("X-Request-No", strconv.FormatInt(f.RequestNo, 10))
	w.Header().Add("X-Cache", cacheStatus)
	w.Write(respBody.Bytes())

	glog.Infof("Served request %d (%dx%d, cache %s)", req.RequestNo, req.Width, req.Height, cacheStatus)
	span.SetStatus(codes.Ok, "")
}
