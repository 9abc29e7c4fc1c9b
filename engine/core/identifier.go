package core

import "fmt"

// IDPool hands out small integer ids and reuses released ones, lowest first.
type IDPool struct {
	owners []interface{}
}

func NewIDPool(capacity int) *IDPool {
	return &IDPool{
		owners: make([]interface{}, 0, capacity),
	}
}

func (p *IDPool) Acquire(owner interface{}) uint32 {
	for i := range p.owners {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return uint32(i)
		}
	}
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners) - 1)
}

func (p *IDPool) Release(id uint32) error {
	if int(id) >= len(p.owners) {
		return fmt.Errorf("release id '%d' out of range (max=%d). Nothing was done", id, len(p.owners))
	}
	p.owners[id] = nil
	return nil
}

func (p *IDPool) Owner(id uint32) interface{} {
	if int(id) >= len(p.owners) {
		return nil
	}
	return p.owners[id]
}

// InUse counts the ids currently owned.
func (p *IDPool) InUse() int {
	n := 0
	for _, o := range p.owners {
		if o != nil {
			n++
		}
	}
	return n
}
