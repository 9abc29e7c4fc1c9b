// Package systems holds the engine services that outlive a frame: the job
// system and the texture library.
package systems

import (
	"runtime"

	"github.com/Algor1tm/Athena-sub002/engine/assets"
	"github.com/Algor1tm/Athena-sub002/engine/assets/loaders"
	"github.com/Algor1tm/Athena-sub002/engine/core"
)

type SystemManagerConfig struct {
	// Zero picks one worker per CPU, minus the frame thread.
	JobWorkers      int
	MaxTextureCount uint32
	TextureOptions  loaders.TextureOptions
}

type SystemManager struct {
	jobSystem      *JobSystem
	textureLibrary *TextureLibrary
}

// NewSystemManager starts the job system and initializes the texture
// library on top of the given factory. am may be nil.
func NewSystemManager(config SystemManagerConfig, factory loaders.TextureFactory, am *assets.AssetManager) (*SystemManager, error) {
	workers := config.JobWorkers
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	if config.MaxTextureCount == 0 {
		config.MaxTextureCount = 1024
	}

	js, err := NewJobSystem(JobSystemConfig{
		NumWorkers:   workers,
		QueueSize:    256,
		MaxCompleted: 256,
	})
	if err != nil {
		return nil, err
	}
	tl, err := NewTextureLibrary(TextureLibraryConfig{
		MaxTextureCount: config.MaxTextureCount,
		Options:         config.TextureOptions,
	}, factory, am, js)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	if err := tl.Initialize(); err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		jobSystem:      js,
		textureLibrary: tl,
	}, nil
}

func (sm *SystemManager) JobSystem() *JobSystem           { return sm.jobSystem }
func (sm *SystemManager) TextureLibrary() *TextureLibrary { return sm.textureLibrary }

// Update runs once per frame on the frame thread: job completions first,
// then hot reload of changed textures.
func (sm *SystemManager) Update() {
	sm.jobSystem.Update()
	sm.textureLibrary.Update()
}

// Shutdown stops the workers, delivering pending completions, then releases
// every texture. The renderer must still be alive.
func (sm *SystemManager) Shutdown() error {
	if err := sm.jobSystem.Shutdown(); err != nil {
		core.LogWarn("job system: %s", err)
	}
	return sm.textureLibrary.Shutdown()
}
