// Package framebuffer holds rendered 8-bit RGB images.
package framebuffer

import (
	"fmt"
	"image"
	"image/color"

	"raycaster/rgb"
)

// Frame stores three parallel row-major channels.  Pixel (x, y) lives at
// index y*Width + x of each channel.
//
// Distinct goroutines may call Set concurrently as long as they write
// disjoint pixels.
type Frame struct {
	Width, Height int

	// Opaque correlation token supplied by whoever requested the frame.
	RequestNo int64

	Red   []uint8
	Green []uint8
	Blue  []uint8
}

func New(width, height int) *Frame {
	f := &Frame{}
	f.Resize(width, height)
	return f
}

// Resize reallocates the channels, discarding their contents.
func (f *Frame) Resize(width, height int) {
	f.Width = width
	f.Height = height

	f.Red = make([]uint8, width*height)
	f.Green = make([]uint8, width*height)
	f.Blue = make([]uint8, width*height)
}

func (f *Frame) Index(x, y int) int {
	return y*f.Width + x
}

// Set quantizes c and stores it at (x, y).  Channels above 255 saturate;
// negative channels become 0.
func (f *Frame) Set(x, y int, c rgb.T) {
	idx := f.Index(x, y)
	f.Red[idx] = rgb.Quantize(c[0])
	f.Green[idx] = rgb.Quantize(c[1])
	f.Blue[idx] = rgb.Quantize(c[2])
}

func (f *Frame) At(x, y int) (r, g, b uint8) {
	idx := f.Index(x, y)
	return f.Red[idx], f.Green[idx], f.Blue[idx]
}

func (f *Frame) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("bad frame dimensions %dx%d", f.Width, f.Height)
	}
	n := f.Width * f.Height
	if len(f.Red) != n || len(f.Green) != n || len(f.Blue) != n {
		return fmt.Errorf("channel lengths (%d, %d, %d) do not match %dx%d frame", len(f.Red), len(f.Green), len(f.Blue), f.Width, f.Height)
	}
	return nil
}

// Image converts the frame to an opaque RGBA image.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
