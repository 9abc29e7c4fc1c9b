package systems

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/assets"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/headless"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type testRenderer struct {
	factory *renderer.ResourceFactory
	retire  *renderer.RetireList
}

func newTestRenderer(t *testing.T) *testRenderer {
	t.Helper()
	backend := headless.New()
	if err := backend.Initialize(&renderer.BackendConfig{FramesInFlight: 2, Width: 4, Height: 4}, nil); err != nil {
		t.Fatal(err)
	}
	retire := renderer.NewRetireList(2)
	t.Cleanup(func() {
		retire.DrainAll()
		backend.Shutdown()
	})
	return &testRenderer{factory: renderer.NewResourceFactory(backend, retire), retire: retire}
}

func writeTexturePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLibrary(t *testing.T, r *testRenderer, am *assets.AssetManager, js *JobSystem, maxCount uint32) *TextureLibrary {
	t.Helper()
	tl, err := NewTextureLibrary(TextureLibraryConfig{MaxTextureCount: maxCount}, r.factory, am, js)
	if err != nil {
		t.Fatal(err)
	}
	if err := tl.Initialize(); err != nil {
		t.Fatal(err)
	}
	return tl
}

func TestTextureLibraryDefaults(t *testing.T) {
	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, nil, nil, 4)

	for name, h := range map[string]*renderer.Handle[renderer.Texture2D]{
		metadata.DEFAULT_TEXTURE_NAME:          tl.GetDefaultTexture(),
		metadata.DEFAULT_DIFFUSE_TEXTURE_NAME:  tl.GetDefaultDiffuseTexture(),
		metadata.DEFAULT_SPECULAR_TEXTURE_NAME: tl.GetDefaultSpecularTexture(),
		metadata.DEFAULT_NORMAL_TEXTURE_NAME:   tl.GetDefaultNormalTexture(),
	} {
		if h == nil || h.Get().Name() != name {
			t.Errorf("default texture %s missing", name)
		}
	}

	tex, err := tl.Acquire(metadata.DEFAULT_TEXTURE_NAME, true)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Handle() != tl.GetDefaultTexture() || tl.Count() != 0 {
		t.Error("acquiring a default name registered a texture")
	}

	if _, err := tl.Acquire("anything", true); !errors.Is(err, ErrNoAssets) {
		t.Errorf("acquire without assets: %v", err)
	}
	if err := tl.Initialize(); err == nil {
		t.Error("second Initialize succeeded")
	}

	if err := tl.Shutdown(); err != nil {
		t.Fatal(err)
	}
	r.retire.DrainAll()
	if live := r.factory.LiveResources(); live != 0 {
		t.Errorf("%d resources alive after shutdown", live)
	}
}

func TestAcquireLoadsAndReleases(t *testing.T) {
	dir := t.TempDir()
	writeTexturePNG(t, filepath.Join(dir, "textures", "cobblestone.png"), 8, 4)
	am, err := assets.NewAssetManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, am, nil, 2)
	defer tl.Shutdown()

	tex, err := tl.Acquire("cobblestone", true)
	if err != nil {
		t.Fatal(err)
	}
	if !tex.Loaded() || tex.Generation != 0 || tex.Path != "textures/cobblestone.png" {
		t.Fatalf("texture %+v", tex)
	}
	if w, h := tex.Handle().Get().Width(), tex.Handle().Get().Height(); w != 8 || h != 4 {
		t.Fatalf("size %dx%d", w, h)
	}

	again, err := tl.Acquire("cobblestone", true)
	if err != nil || again != tex || tex.ReferenceCount() != 2 {
		t.Fatalf("second acquire: %v, refs %d", err, tex.ReferenceCount())
	}

	if _, err := tl.Acquire("missing", true); !errors.Is(err, assets.ErrAssetNotFound) {
		t.Errorf("missing texture: %v", err)
	}

	tl.Release("cobblestone")
	if _, ok := tl.Get("cobblestone"); !ok {
		t.Fatal("released while still referenced")
	}
	tl.Release("cobblestone")
	if _, ok := tl.Get("cobblestone"); ok {
		t.Fatal("auto release texture kept after last release")
	}
	if tex.Loaded() {
		t.Error("handle kept after release")
	}
}

func TestReleaseKeepsManualTextures(t *testing.T) {
	dir := t.TempDir()
	writeTexturePNG(t, filepath.Join(dir, "ui.png"), 2, 2)
	am, err := assets.NewAssetManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, am, nil, 4)
	defer tl.Shutdown()

	if _, err := tl.Acquire("ui", false); err != nil {
		t.Fatal(err)
	}
	tl.Release("ui")
	tex, ok := tl.Get("ui")
	if !ok || !tex.Loaded() || tex.ReferenceCount() != 0 {
		t.Fatal("texture without auto release was freed")
	}
}

func TestTextureLimit(t *testing.T) {
	dir := t.TempDir()
	writeTexturePNG(t, filepath.Join(dir, "a.png"), 1, 1)
	writeTexturePNG(t, filepath.Join(dir, "b.png"), 1, 1)
	am, err := assets.NewAssetManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, am, nil, 1)
	defer tl.Shutdown()

	if _, err := tl.Acquire("a", true); err != nil {
		t.Fatal(err)
	}
	if _, err := tl.Acquire("b", true); !errors.Is(err, ErrTextureLimit) {
		t.Fatalf("expected ErrTextureLimit, got %v", err)
	}
	if _, err := tl.AcquireWritable("c", 1, 1, 4); !errors.Is(err, ErrTextureLimit) {
		t.Fatalf("writable past the limit: %v", err)
	}

	if _, err := NewTextureLibrary(TextureLibraryConfig{}, r.factory, am, nil); err == nil {
		t.Error("zero MaxTextureCount accepted")
	}
}

func TestWritableTexture(t *testing.T) {
	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, nil, nil, 4)
	defer tl.Shutdown()

	tex, err := tl.AcquireWritable("canvas", 2, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !tex.Writable || tex.Generation != 0 || tex.Handle().Get().Format() != metadata.TextureFormatRGBA8 {
		t.Fatalf("writable texture %+v", tex)
	}

	pixels := bytes.Repeat([]byte{1, 2, 3, 4}, 4)
	if err := tl.WriteData("canvas", pixels); err != nil {
		t.Fatal(err)
	}
	if tex.Generation != 1 {
		t.Errorf("generation %d after write", tex.Generation)
	}
	got, err := r.factory.ReadTexture(tex.Handle())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pixels) {
		t.Errorf("readback %v", got)
	}

	if err := tl.WriteData("canvas", []byte{1}); err == nil {
		t.Error("short write accepted")
	}
	if err := tl.WriteData("nope", pixels); !errors.Is(err, ErrTextureUnknown) {
		t.Errorf("write to unknown texture: %v", err)
	}

	// Writable textures survive their last release.
	tl.Release("canvas")
	if _, ok := tl.Get("canvas"); !ok {
		t.Error("writable texture dropped")
	}
}

func TestAsyncLoadFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeTexturePNG(t, filepath.Join(dir, "grass.png"), 4, 4)
	am, err := assets.NewAssetManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	js := newTestJobSystem(t, 2, 8)
	defer js.Shutdown()

	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, am, js, 4)
	defer tl.Shutdown()

	tex, err := tl.Acquire("grass", true)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Loaded() {
		t.Fatal("loaded before the job system was updated")
	}
	if tex.Handle() != tl.GetDefaultTexture() || tex.Generation != InvalidGeneration {
		t.Fatal("unloaded texture does not use the default texture")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !tex.Loaded() {
		if time.Now().After(deadline) {
			t.Fatal("texture never loaded")
		}
		js.Update()
		time.Sleep(time.Millisecond)
	}
	if tex.Handle().Get().Width() != 4 || tex.Generation != 0 {
		t.Errorf("loaded texture width %d, generation %d", tex.Handle().Get().Width(), tex.Generation)
	}
}

func TestHotReload(t *testing.T) {
	if testing.Short() {
		t.Skip("file watching")
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "textures", "lava.png")
	writeTexturePNG(t, file, 2, 2)
	am, err := assets.NewAssetManager(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	r := newTestRenderer(t)
	tl := newTestLibrary(t, r, am, nil, 4)
	defer tl.Shutdown()

	tex, err := tl.Acquire("lava", true)
	if err != nil {
		t.Fatal(err)
	}
	old := tex.Handle()

	writeTexturePNG(t, file, 8, 8)
	deadline := time.Now().Add(5 * time.Second)
	for tex.Generation == 0 {
		if time.Now().After(deadline) {
			t.Fatal("texture not reloaded")
		}
		tl.Update()
		time.Sleep(10 * time.Millisecond)
	}

	if tex.Handle() == old || tex.Handle().Get().Width() != 8 {
		t.Fatal("reload did not swap the GPU texture")
	}
	// The previous texture waits for the frames in flight.
	if r.retire.Pending() == 0 {
		t.Error("old texture not retired")
	}
}
