// Package framestore persists encoded frames under content-derived keys.
package framestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"raycaster/camera"
	"raycaster/framebuffer"
)

type Store interface {
	// Put stores f under key, replacing anything already there.
	Put(ctx context.Context, key string, f *framebuffer.Frame) error

	// Get returns the frame stored under key, and false if there is none.
	Get(ctx context.Context, key string) (*framebuffer.Frame, bool, error)
}

// Key derives a stable key from the camera parameters and the encoded scene.
// The request number is not part of the key.
func Key(p camera.Params, sceneBytes []byte) string {
	h := sha256.New()

	buf := make([]byte, 8)
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, v := range [][3]float64{p.Eye, p.View, p.ViewUp} {
		putFloat(v[0])
		putFloat(v[1])
		putFloat(v[2])
	}
	putFloat(p.Horizontal)
	putFloat(p.Vertical)
	binary.LittleEndian.PutUint64(buf, uint64(p.Width))
	h.Write(buf)
	binary.LittleEndian.PutUint64(buf, uint64(p.Height))
	h.Write(buf)

	h.Write(sceneBytes)

	return hex.EncodeToString(h.Sum(nil))
}

func encode(f *framebuffer.Frame) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := framebuffer.Write(f, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*framebuffer.Frame, error) {
	return framebuffer.Read(bytes.NewReader(data))
}
