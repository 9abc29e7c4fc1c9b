// Package assets indexes the asset directory, loads files through the
// registered loaders and, when watching, collects the textures changed on
// disk so they can be reloaded on the frame thread.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/core"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoLoader      = errors.New("no loader registered")
	ErrClosed        = errors.New("asset manager already shut down")
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeImage
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeImage:
		return "image"
	default:
		return "none"
	}
}

type AssetInfo struct {
	// Path is relative to the asset directory, with forward slashes.
	Path         string
	Type         AssetType
	LastModified time.Time
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader
	// Changed paths not yet handed out by PollChanges.
	changed map[string]struct{}

	mutex sync.RWMutex

	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

/**
 * @brief Creates the asset manager over the given directory and indexes it.
 * @param root The asset directory.
 * @param watch Start watching the directory tree for changes.
 */
func NewAssetManager(root string, watch bool) (*AssetManager, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("asset root '%s' is not a directory", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		root:    abs,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		changed: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	am.registerLoader(AssetTypeImage, &loaders.ImageLoader{})

	if watch {
		if am.watcher, err = fsnotify.NewWatcher(); err != nil {
			return nil, err
		}
		am.wg.Add(1)
		go am.start()
	}
	if err := am.walk(am.root, watch, false); err != nil {
		am.Shutdown()
		return nil, err
	}
	core.LogInfo("Asset manager indexed %d assets in '%s' (watch: %t).", len(am.assets), abs, watch)
	return am, nil
}

func (am *AssetManager) Root() string { return am.root }

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Resolve turns an asset path into a file path.
func (am *AssetManager) Resolve(name string) string {
	return filepath.Join(am.root, filepath.FromSlash(name))
}

func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.ToSlash(name)]
	return info, ok
}

// Assets lists the indexed assets of a type, sorted by path.
func (am *AssetManager) Assets(assetType AssetType) []AssetInfo {
	am.mutex.RLock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		if info.Type == assetType {
			out = append(out, info)
		}
	}
	am.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// LoadAsset loads an indexed asset with the loader of its type.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*loaders.Resource, error) {
	info, ok := am.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	loader, ok := am.loaders[info.Type]
	if !ok {
		return nil, fmt.Errorf("%w for %s assets", ErrNoLoader, info.Type)
	}
	return loader.Load(am.Resolve(info.Path), params)
}

func (am *AssetManager) UnloadAsset(name string, res *loaders.Resource) error {
	info, ok := am.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	if loader, ok := am.loaders[info.Type]; ok {
		return loader.Unload(res)
	}
	return nil
}

// PollChanges hands out the assets created or modified since the last call,
// sorted by path. Each change is reported once.
func (am *AssetManager) PollChanges() []string {
	am.mutex.Lock()
	if len(am.changed) == 0 {
		am.mutex.Unlock()
		return nil
	}
	out := make([]string, 0, len(am.changed))
	for p := range am.changed {
		out = append(out, p)
	}
	am.changed = make(map[string]struct{})
	am.mutex.Unlock()
	sort.Strings(out)
	return out
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return ErrClosed
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.watcher != nil {
		close(am.done)
		am.wg.Wait()
	}
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.watcher.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.watcher.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			// New directories are indexed as a whole; their files never
			// produce a create event of their own.
			if err := am.walk(e.Name, true, true); err != nil {
				core.LogWarn("asset watcher: %s", err)
			}
			return
		}
	}
	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		am.handleFileEvent(e.Name, true)
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		am.removeAsset(e.Name)
	}
}

// walk indexes every file under path and, when watching, adds every
// directory to the watch list.
func (am *AssetManager) walk(path string, watch, changed bool) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if watch {
				return am.watcher.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath, changed)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// handleFileEvent indexes a created or modified file. changed marks it for
// PollChanges.
func (am *AssetManager) handleFileEvent(path string, changed bool) {
	assetType := DetermineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	modified := time.Now()
	if fi, err := os.Stat(path); err == nil {
		modified = fi.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path:         rel,
		Type:         assetType,
		LastModified: modified,
	}
	if changed {
		am.changed[rel] = struct{}{}
	}
}

func (am *AssetManager) removeAsset(path string) {
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, rel)
	delete(am.changed, rel)
	// Removed directories take their files with them.
	prefix := rel + "/"
	for p := range am.assets {
		if strings.HasPrefix(p, prefix) {
			delete(am.assets, p)
		}
	}
}

func DetermineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	default:
		return AssetTypeNone
	}
}
