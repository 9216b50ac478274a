// Package render schedules the pixels of an image across goroutines.
//
// The row range of the image is split in half recursively until a range is
// shorter than the threshold; such ranges are rendered directly.  Every
// direct range writes only its own rows of the shared frame, so the frame
// needs no locking.
package render

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"raycaster/camera"
	"raycaster/framebuffer"
	"raycaster/rendermetrics"
	"raycaster/scene"
	"raycaster/shading"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultThreshold is the row count below which a range is not split.
const DefaultThreshold = 16

// minThreshold keeps a one-row range from splitting into an empty half and
// itself forever.
const minThreshold = 2

// ErrPixelFailed wraps a panic raised while computing a pixel.
var ErrPixelFailed = errors.New("pixel computation failed")

type Renderer struct {
	threshold int
	workers   int
}

type RendererOpt func(*Renderer)

// WithThreshold sets the split cutoff in rows.  Values below 2 are raised to
// 2.  math.MaxInt renders the whole image in one task.
func WithThreshold(rows int) RendererOpt {
	return func(r *Renderer) {
		r.threshold = rows
	}
}

// WithWorkers bounds how many direct ranges are rendered at once.
func WithWorkers(n int) RendererOpt {
	return func(r *Renderer) {
		r.workers = n
	}
}

func New(opts ...RendererOpt) *Renderer {
	r := &Renderer{
		threshold: DefaultThreshold,
		workers:   runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.threshold < minThreshold {
		r.threshold = minThreshold
	}
	if r.workers < 1 {
		r.workers = 1
	}

	return r
}

func (r *Renderer) Threshold() int {
	return r.threshold
}

func (r *Renderer) Workers() int {
	return r.workers
}

// Render computes every pixel of cam's image of s.  The frame is returned
// only once all tasks have finished.  s must not be modified while Render
// runs.
//
// If any pixel fails, or ctx is cancelled, Render returns an error and no
// frame.
func (r *Renderer) Render(ctx context.Context, cam *camera.Camera, s *scene.Scene) (*framebuffer.Frame, error) {
	tracer := otel.Tracer("raycaster/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Renderer.Render")
	defer span.End()

	span.SetAttributes(
		attribute.Int("width", cam.Width()),
		attribute.Int("height", cam.Height()),
		attribute.Int("threshold", r.threshold),
		attribute.Int("workers", r.workers),
	)

	start := time.Now()
	pixels := cam.Width() * cam.Height()

	glog.Infof("Rendering %dx%d image of %d objects and %d lights (threshold=%d workers=%d)", cam.Width(), cam.Height(), len(s.Objects), len(s.Lights), r.threshold, r.workers)

	j := &job{
		cam:       cam,
		scene:     s,
		frame:     framebuffer.New(cam.Width(), cam.Height()),
		sem:       semaphore.NewWeighted(int64(r.workers)),
		threshold: r.threshold,
	}

	if err := j.render(ctx, 0, cam.Height()); err != nil {
		err = fmt.Errorf("while rendering: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if merr := rendermetrics.Record(ctx, rendermetrics.OutcomeError, pixels, time.Since(start)); merr != nil {
			glog.Errorf("Failed to record render metrics: %v", merr)
		}
		return nil, err
	}

	elapsed := time.Since(start)
	glog.Infof("Rendered %d pixels in %v", pixels, elapsed)
	if err := rendermetrics.Record(ctx, rendermetrics.OutcomeOK, pixels, elapsed); err != nil {
		glog.Errorf("Failed to record render metrics: %v", err)
	}

	span.SetStatus(codes.Ok, "")
	return j.frame, nil
}

// job is the shared, read-only state of one render.  Only frame is written,
// and only at rows owned by the calling task.
type job struct {
	cam   *camera.Camera
	scene *scene.Scene
	frame *framebuffer.Frame

	// Held by direct ranges only.  Splitting tasks never hold it while they
	// wait for their children.
	sem *semaphore.Weighted

	threshold int
}

// render fills rows [yMin, yMax).
func (j *job) render(ctx context.Context, yMin, yMax int) error {
	if yMax-yMin < j.threshold {
		return j.renderDirect(ctx, yMin, yMax)
	}

	mid := yMin + (yMax-yMin)/2
	glog.V(2).Infof("Splitting rows [%d, %d) at %d", yMin, yMax, mid)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return j.render(ctx, yMin, mid)
	})
	eg.Go(func() error {
		return j.render(ctx, mid, yMax)
	})
	return eg.Wait()
}

func (j *job) renderDirect(ctx context.Context, yMin, yMax int) (err error) {
	if err := j.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("while acquiring worker slot: %w", err)
	}
	defer j.sem.Release(1)

	// Acquire may succeed on an already-cancelled context.
	if err := ctx.Err(); err != nil {
		return err
	}

	glog.V(2).Infof("Rendering rows [%d, %d) directly", yMin, yMax)

	var x, y int
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w at pixel (%d, %d): %v", ErrPixelFailed, x, y, p)
		}
	}()

	eye := j.cam.Eye()
	width := j.cam.Width()
	for y = yMin; y < yMax; y++ {
		for x = 0; x < width; x++ {
			c := shading.Trace(j.scene, j.cam.PrimaryRay(x, y), eye)
			j.frame.Set(x, y, c)
		}
	}

	return nil
}
