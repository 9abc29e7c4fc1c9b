package assets

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "textures", "wall.png"), pngBytes(t, 4, 2))
	writeFile(t, filepath.Join(dir, "textures", "floor.jpg"), []byte("not decoded until loaded"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("ignored"))

	am, err := NewAssetManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	images := am.Assets(AssetTypeImage)
	if len(images) != 2 || images[0].Path != "textures/floor.jpg" || images[1].Path != "textures/wall.png" {
		t.Fatalf("indexed images: %+v", images)
	}
	if _, ok := am.Lookup("readme.txt"); ok {
		t.Error("text file indexed")
	}

	res, err := am.LoadAsset("textures/wall.png", &metadata.ImageResourceParams{})
	if err != nil {
		t.Fatal(err)
	}
	img, ok := res.Data.(*metadata.ImageResourceData)
	if !ok || img.Width != 4 || img.Height != 2 {
		t.Fatalf("loaded %+v", res.Data)
	}
	if err := am.UnloadAsset("textures/wall.png", res); err != nil || res.Data != nil {
		t.Fatalf("unload: %v, data %v", err, res.Data)
	}

	if _, err := am.LoadAsset("textures/missing.png", nil); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
	if _, err := am.LoadAsset("textures/floor.jpg", nil); err == nil {
		t.Error("corrupt jpeg loaded")
	}
	if changes := am.PollChanges(); changes != nil {
		t.Errorf("initial index reported changes: %v", changes)
	}
}

func TestRootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.png")
	writeFile(t, file, []byte{})
	if _, err := NewAssetManager(file, false); err == nil {
		t.Fatal("file accepted as asset root")
	}
	if _, err := NewAssetManager(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Fatal("missing root accepted")
	}
}

func waitForChange(t *testing.T, am *AssetManager, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, p := range am.PollChanges() {
			if p == want {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no change reported for %s", want)
}

func TestWatchReportsChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("file watching")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.png"), pngBytes(t, 1, 1))

	am, err := NewAssetManager(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	writeFile(t, filepath.Join(dir, "a.png"), pngBytes(t, 2, 2))
	waitForChange(t, am, "a.png")

	writeFile(t, filepath.Join(dir, "sub", "b.png"), pngBytes(t, 1, 1))
	waitForChange(t, am, "sub/b.png")
	if _, ok := am.Lookup("sub/b.png"); !ok {
		t.Fatal("file in new directory not indexed")
	}

	if err := os.Remove(filepath.Join(dir, "a.png")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := am.Lookup("a.png"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("removed file still indexed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownTwice(t *testing.T) {
	am, err := NewAssetManager(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]AssetType{
		"a.png":     AssetTypeImage,
		"b.JPEG":    AssetTypeImage,
		"c.webp":    AssetTypeImage,
		"d.tiff":    AssetTypeImage,
		"e.shader":  AssetTypeNone,
		"no_suffix": AssetTypeNone,
	}
	for in, want := range tests {
		if got := DetermineAssetType(in); got != want {
			t.Errorf("DetermineAssetType(%s) = %s, want %s", in, got, want)
		}
	}
}
