package render

import (
	"context"
	"fmt"

	"raycaster/camera"
	"raycaster/framebuffer"
	"raycaster/scene"

	"github.com/golang/glog"
)

// Observer receives finished images.  The channels are row-major and
// requestNo is echoed unchanged from the request.
type Observer interface {
	AcceptResult(red, green, blue []uint8, requestNo int64)
}

type ObserverFunc func(red, green, blue []uint8, requestNo int64)

func (f ObserverFunc) AcceptResult(red, green, blue []uint8, requestNo int64) {
	f(red, green, blue, requestNo)
}

// Producer renders a fixed scene for a stream of camera requests.
type Producer struct {
	renderer *Renderer
	scene    *scene.Scene
}

func NewProducer(r *Renderer, s *scene.Scene) *Producer {
	return &Producer{
		renderer: r,
		scene:    s,
	}
}

// Frame validates params and renders one image tagged with requestNo.
func (p *Producer) Frame(ctx context.Context, params camera.Params, requestNo int64) (*framebuffer.Frame, error) {
	cam, err := camera.New(params)
	if err != nil {
		return nil, fmt.Errorf("while building camera for request %d: %w", requestNo, err)
	}

	glog.Infof("Starting computations for request %d", requestNo)
	f, err := p.renderer.Render(ctx, cam, p.scene)
	if err != nil {
		return nil, fmt.Errorf("while rendering request %d: %w", requestNo, err)
	}
	glog.Infof("Computations finished for request %d", requestNo)

	f.RequestNo = requestNo
	return f, nil
}

// Produce renders one image and hands it to obs.  obs is not called if the
// render fails.
func (p *Producer) Produce(ctx context.Context, params camera.Params, requestNo int64, obs Observer) error {
	f, err := p.Frame(ctx, params, requestNo)
	if err != nil {
		return err
	}

	obs.AcceptResult(f.Red, f.Green, f.Blue, f.RequestNo)
	glog.Infof("Result delivered for request %d", requestNo)
	return nil
}
