package framestore

import (
	"context"
	"testing"

	"raycaster/camera"
	"raycaster/framebuffer"
	"raycaster/rgb"
	"raycaster/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func params() camera.Params {
	return camera.Params{
		Eye:        vec3.T{10, 0, 0},
		View:       vec3.T{0, 0, 0},
		ViewUp:     vec3.T{0, 0, 10},
		Horizontal: 20,
		Vertical:   20,
		Width:      20,
		Height:     20,
	}
}

func TestKey(t *testing.T) {
	base := Key(params(), []byte("scene"))

	if again := Key(params(), []byte("scene")); again != base {
		t.Errorf("Key is not stable: %q vs %q", base, again)
	}
	if len(base) != 64 {
		t.Errorf("Key %q has length %d, want 64", base, len(base))
	}

	variants := map[string]func(p *camera.Params) []byte{
		"eye":    func(p *camera.Params) []byte { p.Eye[2] = 1e-9; return []byte("scene") },
		"up":     func(p *camera.Params) []byte { p.ViewUp = vec3.T{0, 0, 1}; return []byte("scene") },
		"width":  func(p *camera.Params) []byte { p.Width = 21; return []byte("scene") },
		"height": func(p *camera.Params) []byte { p.Height = 21; return []byte("scene") },
		"scene":  func(p *camera.Params) []byte { return []byte("scene2") },
	}
	for name, mutate := range variants {
		p := params()
		sceneBytes := mutate(&p)
		if got := Key(p, sceneBytes); got == base {
			t.Errorf("Changing %s did not change the key", name)
		}
	}
}

func TestBadgerStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error opening store: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get of missing key = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	want := framebuffer.New(3, 2)
	want.RequestNo = 99
	want.Set(1, 1, rgb.T{1, 2, 3})

	key := Key(params(), nil)
	if err := store.Put(ctx, key, want); err != nil {
		t.Fatalf("Unexpected error in Put: %v", err)
	}

	got, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Unexpected error in Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get did not find the stored frame")
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad frame; diff (-got +want)\n%s", diff)
	}

	// Put replaces.
	want.Set(0, 0, rgb.Gray(200))
	if err := store.Put(ctx, key, want); err != nil {
		t.Fatalf("Unexpected error in Put: %v", err)
	}
	got, _, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Unexpected error in Get: %v", err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad replaced frame; diff (-got +want)\n%s", diff)
	}
}
