package systems

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/Algor1tm/Athena-sub002/engine/assets"
	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

var (
	ErrTextureLimit   = errors.New("maximum texture count reached")
	ErrTextureUnknown = errors.New("texture not registered")
	ErrNoAssets       = errors.New("texture library has no asset manager")
)

// InvalidGeneration marks a texture whose file has not been loaded yet.
const InvalidGeneration = ^uint32(0)

type TextureLibraryConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	// Options applied to textures loaded by name.
	Options loaders.TextureOptions
}

/**
 * @brief A named texture owned by the library. Until its file is loaded,
 * and whenever loading fails, Handle returns the default texture.
 */
type Texture struct {
	Name       string
	Path       string
	Generation uint32
	Writable   bool

	handle         *renderer.Handle[renderer.Texture2D]
	fallback       *renderer.Handle[renderer.Texture2D]
	referenceCount uint32
	autoRelease    bool
	// Incremented by every load request so stale completions are dropped.
	loadToken uint32
}

func (t *Texture) Handle() *renderer.Handle[renderer.Texture2D] {
	if t.handle != nil {
		return t.handle
	}
	return t.fallback
}

func (t *Texture) Loaded() bool { return t.handle != nil }

func (t *Texture) ReferenceCount() uint32 { return t.referenceCount }

func (t *Texture) replace(h *renderer.Handle[renderer.Texture2D]) {
	if t.handle != nil {
		// The retire list keeps it alive while frames in flight use it.
		t.handle.Release()
	}
	t.handle = h
	if t.Generation == InvalidGeneration {
		t.Generation = 0
	} else {
		t.Generation++
	}
}

/**
 * @brief The texture library. Textures are registered by name, reference
 * counted, loaded on the job system when one is given and reloaded when the
 * asset manager reports their file changed. Not safe for concurrent use:
 * every call happens on the frame thread.
 */
type TextureLibrary struct {
	config   TextureLibraryConfig
	factory  loaders.TextureFactory
	assets   *assets.AssetManager
	jobs     *JobSystem
	textures map[string]*Texture
	defaults map[string]*renderer.Handle[renderer.Texture2D]

	initialized bool
}

// NewTextureLibrary creates the library. am and js may be nil: without an
// asset manager only writable textures exist, without a job system files
// load synchronously.
func NewTextureLibrary(config TextureLibraryConfig, factory loaders.TextureFactory, am *assets.AssetManager, js *JobSystem) (*TextureLibrary, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("%w: texture library MaxTextureCount must be > 0", core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureLibrary{
		config:   config,
		factory:  factory,
		assets:   am,
		jobs:     js,
		textures: make(map[string]*Texture),
		defaults: make(map[string]*renderer.Handle[renderer.Texture2D]),
	}, nil
}

// Initialize creates the default textures.
func (tl *TextureLibrary) Initialize() error {
	if tl.initialized {
		return core.ErrAlreadyInitialized
	}
	for _, def := range metadata.DefaultTextures() {
		h, err := tl.factory.CreateTexture(def.Info, def.Pixels)
		if err != nil {
			tl.releaseDefaults()
			return fmt.Errorf("default texture '%s': %w", def.Info.Name, err)
		}
		tl.defaults[def.Info.Name] = h
	}
	tl.initialized = true
	core.LogDebug("texture library initialized with %d default textures", len(tl.defaults))
	return nil
}

func (tl *TextureLibrary) releaseDefaults() {
	for name, h := range tl.defaults {
		h.Release()
		delete(tl.defaults, name)
	}
}

// Shutdown releases every texture, referenced or not.
func (tl *TextureLibrary) Shutdown() error {
	if !tl.initialized {
		return core.ErrNotInitialized
	}
	for name, t := range tl.textures {
		if t.handle != nil {
			t.handle.Release()
			t.handle = nil
		}
		delete(tl.textures, name)
	}
	tl.releaseDefaults()
	tl.initialized = false
	return nil
}

func (tl *TextureLibrary) isDefaultName(name string) bool {
	_, ok := tl.defaults[name]
	return ok
}

func (tl *TextureLibrary) GetDefaultTexture() *renderer.Handle[renderer.Texture2D] {
	return tl.defaults[metadata.DEFAULT_TEXTURE_NAME]
}

func (tl *TextureLibrary) GetDefaultDiffuseTexture() *renderer.Handle[renderer.Texture2D] {
	return tl.defaults[metadata.DEFAULT_DIFFUSE_TEXTURE_NAME]
}

func (tl *TextureLibrary) GetDefaultSpecularTexture() *renderer.Handle[renderer.Texture2D] {
	return tl.defaults[metadata.DEFAULT_SPECULAR_TEXTURE_NAME]
}

func (tl *TextureLibrary) GetDefaultNormalTexture() *renderer.Handle[renderer.Texture2D] {
	return tl.defaults[metadata.DEFAULT_NORMAL_TEXTURE_NAME]
}

// Count is the number of registered textures, defaults excluded.
func (tl *TextureLibrary) Count() int {
	return len(tl.textures)
}

func (tl *TextureLibrary) Get(name string) (*Texture, bool) {
	t, ok := tl.textures[name]
	return t, ok
}

/**
 * @brief Acquires the texture with the given name, loading its file the first
 * time. Further calls only increment the reference count.
 * @param name A texture name, resolved against the asset directory with or
 * without extension (e.g. "cobblestone" finds "textures/cobblestone.png").
 * @param autoRelease Release the GPU texture when the last reference goes away.
 */
func (tl *TextureLibrary) Acquire(name string, autoRelease bool) (*Texture, error) {
	if !tl.initialized {
		return nil, core.ErrNotInitialized
	}
	if tl.isDefaultName(name) {
		core.LogWarn("texture library Acquire called for default texture '%s'. Use the default texture getters instead", name)
		return &Texture{Name: name, Generation: 0, fallback: tl.defaults[name], referenceCount: 1}, nil
	}
	if t, ok := tl.textures[name]; ok {
		t.referenceCount++
		return t, nil
	}
	if uint32(len(tl.textures)) >= tl.config.MaxTextureCount {
		err := fmt.Errorf("%w (%d): cannot acquire '%s'", ErrTextureLimit, tl.config.MaxTextureCount, name)
		core.LogError(err.Error())
		return nil, err
	}
	if tl.assets == nil {
		return nil, ErrNoAssets
	}
	assetPath, err := tl.resolve(name)
	if err != nil {
		core.LogError("texture library failed to acquire '%s': %s", name, err)
		return nil, err
	}

	t := &Texture{
		Name:           name,
		Path:           assetPath,
		Generation:     InvalidGeneration,
		fallback:       tl.GetDefaultTexture(),
		referenceCount: 1,
		autoRelease:    autoRelease,
	}
	tl.textures[name] = t
	tl.load(t)
	return t, nil
}

var textureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp", ".gif"}

func (tl *TextureLibrary) resolve(name string) (string, error) {
	candidates := []string{name, path.Join("textures", name)}
	for _, base := range []string{name, path.Join("textures", name)} {
		for _, ext := range textureExtensions {
			candidates = append(candidates, base+ext)
		}
	}
	for _, c := range candidates {
		if info, ok := tl.assets.Lookup(c); ok && info.Type == assets.AssetTypeImage {
			return info.Path, nil
		}
	}
	return "", fmt.Errorf("%w: no image asset for '%s'", assets.ErrAssetNotFound, name)
}

// load decodes the file of t, on the job system when there is one, and
// swaps the GPU texture on completion.
func (tl *TextureLibrary) load(t *Texture) {
	t.loadToken++
	token := t.loadToken
	opts := tl.config.Options
	opts.Name = t.Name
	params := &metadata.ImageResourceParams{FlipY: opts.FlipY}

	decode := func(ctx context.Context) (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := tl.assets.LoadAsset(t.Path, params)
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}
	complete := func(result interface{}) {
		// Released or reloaded again while the job ran.
		if current, ok := tl.textures[t.Name]; !ok || current != t || t.loadToken != token {
			return
		}
		img, ok := result.(*metadata.ImageResourceData)
		if !ok {
			core.LogError("texture '%s': loader returned %T", t.Name, result)
			return
		}
		h, err := loaders.CreateTextureFromImage(tl.factory, img, opts)
		if err != nil {
			return
		}
		t.replace(h)
		core.LogDebug("texture '%s' loaded from '%s' (generation %d)", t.Name, t.Path, t.Generation)
	}
	fail := func(err error) {
		core.LogError("failed to load texture '%s' from '%s': %s", t.Name, t.Path, err)
	}

	if tl.jobs != nil {
		err := tl.jobs.Submit(Job{
			Type:       JobTypeResourceLoad,
			Priority:   JobPriorityNormal,
			Run:        decode,
			OnComplete: complete,
			OnFailure:  fail,
		})
		if err == nil {
			return
		}
		core.LogWarn("texture '%s': %s, loading synchronously", t.Name, err)
	}
	result, err := decode(context.Background())
	if err != nil {
		fail(err)
		return
	}
	complete(result)
}

/**
 * @brief Creates an empty texture whose pixels are written by the caller
 * through WriteData. Writable textures are never auto released.
 */
func (tl *TextureLibrary) AcquireWritable(name string, width, height uint32, channelCount uint8) (*Texture, error) {
	if !tl.initialized {
		return nil, core.ErrNotInitialized
	}
	if t, ok := tl.textures[name]; ok {
		if !t.Writable {
			return nil, fmt.Errorf("texture '%s' already registered from '%s'", name, t.Path)
		}
		t.referenceCount++
		return t, nil
	}
	if uint32(len(tl.textures)) >= tl.config.MaxTextureCount {
		err := fmt.Errorf("%w (%d): cannot create '%s'", ErrTextureLimit, tl.config.MaxTextureCount, name)
		core.LogError(err.Error())
		return nil, err
	}
	format, err := metadata.ColorFormat(channelCount, 8, false)
	if err != nil {
		core.LogError("writable texture '%s': %s", name, err)
		return nil, err
	}
	h, err := tl.factory.CreateTexture(metadata.TextureCreateInfo{
		Name:    name,
		Format:  format,
		Width:   width,
		Height:  height,
		Usage:   metadata.TextureUsageDefault,
		Sampler: metadata.DefaultSampler(),
	}, nil)
	if err != nil {
		return nil, err
	}
	t := &Texture{
		Name:           name,
		Generation:     InvalidGeneration,
		Writable:       true,
		fallback:       tl.GetDefaultTexture(),
		referenceCount: 1,
	}
	t.replace(h)
	tl.textures[name] = t
	return t, nil
}

// WriteData replaces the pixels of a writable texture.
func (tl *TextureLibrary) WriteData(name string, pixels []byte) error {
	t, ok := tl.textures[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTextureUnknown, name)
	}
	if !t.Writable {
		return fmt.Errorf("texture '%s' is not writable", name)
	}
	if err := t.handle.Get().Upload(pixels); err != nil {
		core.LogError("failed to write texture '%s': %s", name, err)
		return err
	}
	t.Generation++
	return nil
}

/**
 * @brief Releases a reference. The GPU texture of an auto released texture
 * is released with the last reference.
 */
func (tl *TextureLibrary) Release(name string) {
	// Ignore release requests for the default textures.
	if tl.isDefaultName(name) {
		return
	}
	t, ok := tl.textures[name]
	if !ok || t.referenceCount == 0 {
		core.LogWarn("texture library: release of unknown texture '%s'", name)
		return
	}
	t.referenceCount--
	if t.referenceCount > 0 || !t.autoRelease {
		return
	}
	if t.handle != nil {
		t.handle.Release()
		t.handle = nil
	}
	t.Generation = InvalidGeneration
	delete(tl.textures, name)
	core.LogDebug("texture '%s' released", name)
}

// Update reloads the textures whose files changed on disk. It returns the
// names of the reloaded textures.
func (tl *TextureLibrary) Update() []string {
	if tl.assets == nil || !tl.initialized {
		return nil
	}
	changed := tl.assets.PollChanges()
	if len(changed) == 0 {
		return nil
	}
	byPath := make(map[string][]*Texture)
	for _, t := range tl.textures {
		if t.Path != "" {
			byPath[t.Path] = append(byPath[t.Path], t)
		}
	}
	var reloaded []string
	for _, p := range changed {
		for _, t := range byPath[p] {
			core.LogInfo("texture '%s' changed on disk, reloading", t.Name)
			tl.load(t)
			reloaded = append(reloaded, t.Name)
		}
	}
	sort.Strings(reloaded)
	return reloaded
}
