package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

// QuerySet holds one GL query object per timestamp, or one per counter for
// pipeline statistics. GL timestamps are already in nanoseconds.
type QuerySet struct {
	backend   *Backend
	kind      metadata.QueryKind
	capacity  uint32
	ids       []uint32
	validMask uint64
	written   []bool
}

func newQuerySet(b *Backend, kind metadata.QueryKind, count uint32) (*QuerySet, error) {
	q := &QuerySet{
		backend:   b,
		kind:      kind,
		capacity:  count,
		validMask: ^uint64(0),
		written:   make([]bool, count),
	}
	switch kind {
	case metadata.QueryKindTimestamp:
		if b.timestampBits == 0 {
			return nil, fmt.Errorf("%w: %s on '%s'", profiler.ErrQueryUnsupported, kind, b.deviceName)
		}
		if b.timestampBits < 64 {
			q.validMask = (uint64(1) << b.timestampBits) - 1
		}
		q.ids = make([]uint32, count)
		gl.CreateQueries(gl.TIMESTAMP, int32(count), &q.ids[0])
	case metadata.QueryKindPipelineStatistics:
		q.ids = make([]uint32, count*metadata.PipelineStatisticsCount)
		for j, target := range pipelineStatisticTargets {
			for i := uint32(0); i < count; i++ {
				gl.CreateQueries(target, 1, &q.ids[i*metadata.PipelineStatisticsCount+uint32(j)])
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", profiler.ErrQueryUnsupported, kind)
	}
	if err := checkError("glCreateQueries"); err != nil {
		q.Destroy()
		return nil, err
	}
	return q, nil
}

func (q *QuerySet) Kind() metadata.QueryKind { return q.kind }
func (q *QuerySet) Capacity() uint32         { return q.capacity }
func (q *QuerySet) TimestampPeriod() float64 { return 1 }
func (q *QuerySet) recording() bool          { return q.backend.context != nil && q.backend.context.recording }
func (q *QuerySet) statID(index, j uint32) uint32 {
	return q.ids[index*metadata.PipelineStatisticsCount+j]
}

// Reset forgets what was written. GL query objects need no reset command.
func (q *QuerySet) Reset() {
	for i := range q.written {
		q.written[i] = false
	}
}

func (q *QuerySet) WriteTimestamp(index uint32) {
	if !q.recording() || index >= q.capacity || q.kind != metadata.QueryKindTimestamp {
		return
	}
	gl.QueryCounter(q.ids[index], gl.TIMESTAMP)
	q.written[index] = true
}

func (q *QuerySet) BeginQuery(index uint32) {
	if !q.recording() || index >= q.capacity || q.kind != metadata.QueryKindPipelineStatistics {
		return
	}
	for j, target := range pipelineStatisticTargets {
		gl.BeginQuery(target, q.statID(index, uint32(j)))
	}
}

func (q *QuerySet) EndQuery(index uint32) {
	if !q.recording() || index >= q.capacity || q.kind != metadata.QueryKindPipelineStatistics {
		return
	}
	for _, target := range pipelineStatisticTargets {
		gl.EndQuery(target)
	}
	q.written[index] = true
}

func (q *QuerySet) Results(count uint32, dst []uint64) error {
	if count > q.capacity {
		return fmt.Errorf("query set: %d results requested from %d queries", count, q.capacity)
	}
	values := uint32(1)
	if q.kind == metadata.QueryKindPipelineStatistics {
		values = metadata.PipelineStatisticsCount
	}
	if uint32(len(dst)) < count*values {
		return fmt.Errorf("query set: destination holds %d values, %d needed", len(dst), count*values)
	}

	for i := uint32(0); i < count; i++ {
		for j := uint32(0); j < values; j++ {
			slot := i*values + j
			dst[slot] = 0
			if !q.written[i] {
				continue
			}
			// The frame fence has signaled, results never block here.
			gl.GetQueryObjectui64v(q.ids[slot], gl.QUERY_RESULT_NO_WAIT, &dst[slot])
		}
		if q.written[i] && q.kind == metadata.QueryKindTimestamp {
			dst[i] &= q.validMask
		}
	}
	return checkError("glGetQueryObjectui64v")
}

func (q *QuerySet) Destroy() {
	if len(q.ids) > 0 {
		gl.DeleteQueries(int32(len(q.ids)), &q.ids[0])
		q.ids = nil
	}
}
