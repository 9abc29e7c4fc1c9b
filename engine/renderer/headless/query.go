package headless

import (
	"fmt"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type QuerySet struct {
	backend   *Backend
	kind      metadata.QueryKind
	capacity  uint32
	values    []uint64
	begin     []metadata.PipelineStatistics
	destroyed bool
}

func newQuerySet(b *Backend, kind metadata.QueryKind, count uint32) *QuerySet {
	q := &QuerySet{backend: b, kind: kind, capacity: count}
	if kind == metadata.QueryKindPipelineStatistics {
		q.values = make([]uint64, count*metadata.PipelineStatisticsCount)
		q.begin = make([]metadata.PipelineStatistics, count)
	} else {
		q.values = make([]uint64, count)
	}
	return q
}

func (q *QuerySet) Kind() metadata.QueryKind { return q.kind }
func (q *QuerySet) Capacity() uint32         { return q.capacity }

func (q *QuerySet) Reset() {
	for i := range q.values {
		q.values[i] = 0
	}
}

func (q *QuerySet) WriteTimestamp(index uint32) {
	if index < q.capacity {
		q.values[index] = q.backend.now()
	}
}

func (q *QuerySet) BeginQuery(index uint32) {
	if index < q.capacity && q.begin != nil {
		q.begin[index] = q.backend.stats
	}
}

func (q *QuerySet) EndQuery(index uint32) {
	if index >= q.capacity || q.begin == nil {
		return
	}
	b, e := q.begin[index], q.backend.stats
	copy(q.values[index*metadata.PipelineStatisticsCount:], []uint64{
		e.InputAssemblyVertices - b.InputAssemblyVertices,
		e.InputAssemblyPrimitives - b.InputAssemblyPrimitives,
		e.VertexShaderInvocations - b.VertexShaderInvocations,
		e.ClippingInvocations - b.ClippingInvocations,
		e.ClippingPrimitives - b.ClippingPrimitives,
		e.FragmentShaderInvocations - b.FragmentShaderInvocations,
		e.ComputeShaderInvocations - b.ComputeShaderInvocations,
	})
}

func (q *QuerySet) Results(count uint32, dst []uint64) error {
	if count > q.capacity {
		return fmt.Errorf("headless query set: %d results requested from %d queries", count, q.capacity)
	}
	n := count
	if q.kind == metadata.QueryKindPipelineStatistics {
		n *= metadata.PipelineStatisticsCount
	}
	copy(dst, q.values[:n])
	return nil
}

// TimestampPeriod is one nanosecond per tick.
func (q *QuerySet) TimestampPeriod() float64 { return 1 }

func (q *QuerySet) Destroy() {
	q.values = nil
	q.begin = nil
	q.destroyed = true
}
