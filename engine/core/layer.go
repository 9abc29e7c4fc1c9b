package core

// Layer is one listener in the application's event chain. Layers also get
// a per-frame update, which is where they record rendering work.
type Layer interface {
	Name() string
	OnAttach()
	OnDetach()
	OnUpdate(deltaTime float64)
	// OnEvent may mark the event as handled to stop propagation.
	OnEvent(e Event)
}

// LayerStack keeps regular layers below overlays. Events travel from the
// most recently pushed overlay down to the first pushed layer.
type LayerStack struct {
	layers      []Layer
	insertIndex int
}

func NewLayerStack() *LayerStack {
	return &LayerStack{}
}

// PushLayer inserts l above the existing layers but below every overlay.
func (ls *LayerStack) PushLayer(l Layer) {
	ls.layers = append(ls.layers, nil)
	copy(ls.layers[ls.insertIndex+1:], ls.layers[ls.insertIndex:])
	ls.layers[ls.insertIndex] = l
	ls.insertIndex++
	l.OnAttach()
}

// PushOverlay puts l on top of the stack.
func (ls *LayerStack) PushOverlay(l Layer) {
	ls.layers = append(ls.layers, l)
	l.OnAttach()
}

func (ls *LayerStack) PopLayer(l Layer) bool {
	for i := 0; i < ls.insertIndex; i++ {
		if ls.layers[i] == l {
			l.OnDetach()
			ls.layers = append(ls.layers[:i], ls.layers[i+1:]...)
			ls.insertIndex--
			return true
		}
	}
	return false
}

func (ls *LayerStack) PopOverlay(l Layer) bool {
	for i := ls.insertIndex; i < len(ls.layers); i++ {
		if ls.layers[i] == l {
			l.OnDetach()
			ls.layers = append(ls.layers[:i], ls.layers[i+1:]...)
			return true
		}
	}
	return false
}

// OnEvent delivers e top-down and stops at the first layer that handles it.
func (ls *LayerStack) OnEvent(e Event) {
	for i := len(ls.layers) - 1; i >= 0; i-- {
		if e.Handled() {
			return
		}
		ls.layers[i].OnEvent(e)
	}
}

// OnUpdate runs bottom-up so overlays draw last.
func (ls *LayerStack) OnUpdate(deltaTime float64) {
	for _, l := range ls.layers {
		l.OnUpdate(deltaTime)
	}
}

func (ls *LayerStack) Len() int {
	return len(ls.layers)
}

// Clear detaches every layer, top first.
func (ls *LayerStack) Clear() {
	for i := len(ls.layers) - 1; i >= 0; i-- {
		ls.layers[i].OnDetach()
	}
	ls.layers = nil
	ls.insertIndex = 0
}
