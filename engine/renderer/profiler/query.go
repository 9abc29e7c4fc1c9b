package profiler

import (
	"errors"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

var (
	ErrQueryInProgress   = errors.New("a query of this kind is already recording")
	ErrNoQueryInProgress = errors.New("no query of this kind is recording")
	ErrQueryCapacity     = errors.New("query capacity exhausted for this frame")
	ErrQueryUnsupported  = errors.New("query kind not supported by the backend")
)

// QuerySet is a fixed array of GPU queries of a single kind. Write
// operations are recorded into the current frame's command stream; Results
// must only be called once that frame's GPU work is known to be complete.
type QuerySet interface {
	Kind() metadata.QueryKind
	Capacity() uint32
	// Reset makes every query of the set available for recording again.
	Reset()
	// WriteTimestamp records the GPU clock into query index.
	WriteTimestamp(index uint32)
	// BeginQuery and EndQuery bracket a pipeline statistics query.
	BeginQuery(index uint32)
	EndQuery(index uint32)
	// Results copies the first count results into dst. Timestamps take one
	// value per query, pipeline statistics take
	// metadata.PipelineStatisticsCount values per query.
	Results(count uint32, dst []uint64) error
	// TimestampPeriod is the number of nanoseconds per timestamp tick.
	TimestampPeriod() float64
	Destroy()
}

// QueryBackend is the part of a graphics backend the profiler needs.
type QueryBackend interface {
	CreateQuerySet(kind metadata.QueryKind, count uint32) (QuerySet, error)
}
