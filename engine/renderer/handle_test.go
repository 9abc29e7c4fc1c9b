package renderer

import "testing"

type fakeResource struct {
	name      string
	destroyed int
}

func (r *fakeResource) Name() string { return r.name }
func (r *fakeResource) Destroy()     { r.destroyed++ }

func TestHandleRetiresOnLastRelease(t *testing.T) {
	retire := NewRetireList(2)
	res := &fakeResource{name: "tex"}
	h := newHandle[Resource](0, res, func(id uint32, r Resource) { retire.Retire(r) })

	h.Acquire()
	if h.RefCount() != 2 {
		t.Fatalf("refcount %d", h.RefCount())
	}
	h.Release()
	if retire.Pending() != 0 {
		t.Fatal("retired while still referenced")
	}
	h.Release()
	if retire.Pending() != 1 {
		t.Fatalf("pending %d after last release", retire.Pending())
	}
	if res.destroyed != 0 {
		t.Fatal("destroyed on release instead of being retired")
	}
}

func TestHandleOverRelease(t *testing.T) {
	h := newHandle[Resource](3, &fakeResource{}, func(uint32, Resource) {})
	h.Release()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	h.Release()
}

func TestRetireListWaitsForFramesInFlight(t *testing.T) {
	const framesInFlight = 3
	retire := NewRetireList(framesInFlight)

	// Frame 0.
	retire.AdvanceFrame()
	res := &fakeResource{name: "buffer"}
	retire.Retire(res)

	for frame := 1; frame < framesInFlight; frame++ {
		retire.AdvanceFrame()
		if res.destroyed != 0 {
			t.Fatalf("destroyed at frame %d, before its slot was reused", frame)
		}
	}
	// Frame 3 reuses the slot of frame 0.
	if n := retire.AdvanceFrame(); n != 1 || res.destroyed != 1 {
		t.Fatalf("destroyed %d resources, resource destroyed %d times", n, res.destroyed)
	}
	retire.AdvanceFrame()
	if res.destroyed != 1 {
		t.Fatal("destroyed twice")
	}
}

func TestRetireListDrainAll(t *testing.T) {
	retire := NewRetireList(2)
	a, b := &fakeResource{name: "a"}, &fakeResource{name: "b"}
	retire.Retire(a)
	retire.AdvanceFrame()
	retire.Retire(b)
	if n := retire.DrainAll(); n != 2 {
		t.Fatalf("drained %d", n)
	}
	if a.destroyed != 1 || b.destroyed != 1 || retire.Pending() != 0 {
		t.Fatal("drain incomplete")
	}
}

func TestParseBackendType(t *testing.T) {
	for _, bt := range []BackendType{BackendHeadless, BackendOpenGL, BackendVulkan} {
		got, err := ParseBackendType(bt.String())
		if err != nil || got != bt {
			t.Errorf("%s: got %s, %v", bt, got, err)
		}
	}
	if _, err := ParseBackendType("metal"); err == nil {
		t.Error("expected an error for metal")
	}
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	const bt = BackendType(200)
	Register(bt, func() Backend { return nil })
	defer func() {
		registryMu.Lock()
		delete(registry, bt)
		registryMu.Unlock()
		if recover() == nil {
			t.Fatal("expected a panic on duplicate registration")
		}
	}()
	Register(bt, func() Backend { return nil })
}
