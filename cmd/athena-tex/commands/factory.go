package commands

import (
	"github.com/Algor1tm/Athena-sub002/engine/renderer"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/headless"
)

// headlessFactory is a resource factory on a CPU backend. close destroys
// every texture created through it.
type headlessFactory struct {
	*renderer.ResourceFactory
	backend *headless.Backend
	retire  *renderer.RetireList
}

func newHeadlessFactory() (*headlessFactory, error) {
	backend := headless.New()
	if err := backend.Initialize(&renderer.BackendConfig{
		ApplicationName: "athena-tex",
		FramesInFlight:  1,
		Width:           1,
		Height:          1,
	}, nil); err != nil {
		return nil, err
	}
	retire := renderer.NewRetireList(1)
	return &headlessFactory{
		ResourceFactory: renderer.NewResourceFactory(backend, retire),
		backend:         backend,
		retire:          retire,
	}, nil
}

func (f *headlessFactory) close() {
	f.retire.DrainAll()
	f.backend.Shutdown()
}
