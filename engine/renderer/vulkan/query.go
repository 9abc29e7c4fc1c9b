package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/profiler"
)

// The counters enabled on pipeline statistics pools. Vulkan writes results
// in bit order, which is the field order of metadata.PipelineStatistics.
const pipelineStatisticFlags = vk.QueryPipelineStatisticInputAssemblyVerticesBit |
	vk.QueryPipelineStatisticInputAssemblyPrimitivesBit |
	vk.QueryPipelineStatisticVertexShaderInvocationsBit |
	vk.QueryPipelineStatisticClippingInvocationsBit |
	vk.QueryPipelineStatisticClippingPrimitivesBit |
	vk.QueryPipelineStatisticFragmentShaderInvocationsBit |
	vk.QueryPipelineStatisticComputeShaderInvocationsBit

// QuerySet wraps a VkQueryPool. Commands are recorded into the frame
// command buffer of the context; a reset requested while no frame is
// recording is deferred to the next BeginFrame.
type QuerySet struct {
	backend   *Backend
	kind      metadata.QueryKind
	capacity  uint32
	pool      vk.QueryPool
	validMask uint64
	// Queries actually written since the last reset. Results of the others
	// are reported as zero instead of waiting on them forever.
	written []bool
}

func newQuerySet(b *Backend, kind metadata.QueryKind, count uint32) (*QuerySet, error) {
	device := b.device
	createInfo := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryCount: count,
	}
	q := &QuerySet{
		backend:   b,
		kind:      kind,
		capacity:  count,
		validMask: ^uint64(0),
		written:   make([]bool, count),
	}

	switch kind {
	case metadata.QueryKindTimestamp:
		if device.TimestampValidBits == 0 || device.TimestampPeriod == 0 {
			return nil, fmt.Errorf("%w: %s on '%s'", profiler.ErrQueryUnsupported, kind, device.Name)
		}
		createInfo.QueryType = vk.QueryTypeTimestamp
		if device.TimestampValidBits < 64 {
			q.validMask = (uint64(1) << device.TimestampValidBits) - 1
		}
	case metadata.QueryKindPipelineStatistics:
		if !device.PipelineStatistics {
			return nil, fmt.Errorf("%w: %s on '%s'", profiler.ErrQueryUnsupported, kind, device.Name)
		}
		createInfo.QueryType = vk.QueryTypePipelineStatistics
		createInfo.PipelineStatistics = vk.QueryPipelineStatisticFlags(pipelineStatisticFlags)
	default:
		return nil, fmt.Errorf("%w: %s", profiler.ErrQueryUnsupported, kind)
	}

	var pool vk.QueryPool
	if err := check(vk.CreateQueryPool(device.LogicalDevice, &createInfo, device.Allocator, &pool), "vkCreateQueryPool"); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	q.pool = pool

	// Queries must be reset before their first use.
	q.Reset()
	return q, nil
}

func (q *QuerySet) Kind() metadata.QueryKind { return q.kind }
func (q *QuerySet) Capacity() uint32         { return q.capacity }

// TimestampPeriod is the device tick length in nanoseconds.
func (q *QuerySet) TimestampPeriod() float64 { return q.backend.device.TimestampPeriod }

func (q *QuerySet) Reset() {
	for i := range q.written {
		q.written[i] = false
	}
	if cb := q.backend.recordingCommandBuffer(); cb != nil {
		q.recordReset(cb)
		return
	}
	q.backend.deferQueryReset(q)
}

func (q *QuerySet) recordReset(cb vk.CommandBuffer) {
	vk.CmdResetQueryPool(cb, q.pool, 0, q.capacity)
}

func (q *QuerySet) WriteTimestamp(index uint32) {
	cb := q.backend.recordingCommandBuffer()
	if cb == nil || index >= q.capacity {
		return
	}
	vk.CmdWriteTimestamp(cb, vk.PipelineStageBottomOfPipeBit, q.pool, index)
	q.written[index] = true
}

func (q *QuerySet) BeginQuery(index uint32) {
	cb := q.backend.recordingCommandBuffer()
	if cb == nil || index >= q.capacity {
		return
	}
	vk.CmdBeginQuery(cb, q.pool, index, 0)
}

func (q *QuerySet) EndQuery(index uint32) {
	cb := q.backend.recordingCommandBuffer()
	if cb == nil || index >= q.capacity {
		return
	}
	vk.CmdEndQuery(cb, q.pool, index)
	q.written[index] = true
}

func (q *QuerySet) Results(count uint32, dst []uint64) error {
	if count > q.capacity {
		return fmt.Errorf("query set: %d results requested from %d queries", count, q.capacity)
	}
	if count == 0 {
		return nil
	}
	values := uint32(1)
	if q.kind == metadata.QueryKindPipelineStatistics {
		values = metadata.PipelineStatisticsCount
	}
	if uint32(len(dst)) < count*values {
		return fmt.Errorf("query set: destination holds %d values, %d needed", len(dst), count*values)
	}

	stride := uint64(values) * 8
	// No wait flag: the frame fence has signaled, so every written query
	// is available and the others must not block.
	res := vk.GetQueryPoolResults(
		q.backend.device.LogicalDevice,
		q.pool, 0, count,
		uint(uint64(count)*stride), unsafe.Pointer(&dst[0]),
		vk.DeviceSize(stride),
		vk.QueryResultFlags(vk.QueryResult64Bit))
	if res != vk.Success && res != vk.NotReady {
		return check(res, "vkGetQueryPoolResults")
	}

	for i := uint32(0); i < count; i++ {
		first := i * values
		if !q.written[i] {
			for j := first; j < first+values; j++ {
				dst[j] = 0
			}
			continue
		}
		if q.kind == metadata.QueryKindTimestamp {
			dst[first] &= q.validMask
		}
	}
	return nil
}

func (q *QuerySet) Destroy() {
	if q.pool != nil {
		q.backend.cancelQueryReset(q)
		vk.DestroyQueryPool(q.backend.device.LogicalDevice, q.pool, q.backend.device.Allocator)
		q.pool = nil
	}
}
