// Package profiler measures GPU time and pipeline statistics without
// stalling: results are read back FramesInFlight frames after they were
// recorded, when the GPU is guaranteed to be done with them.
package profiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/core"
	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

type QueryID uint32

// slot holds the queries of one frame in flight.
type slot struct {
	timestamps    QuerySet
	pipeline      QuerySet
	timeCount     uint32
	pipelineCount uint32
}

func (s *slot) reset() {
	if s.timestamps != nil {
		s.timestamps.Reset()
	}
	if s.pipeline != nil {
		s.pipeline.Reset()
	}
	s.timeCount = 0
	s.pipelineCount = 0
}

// GPUProfiler must only be driven from the frame thread.
type GPUProfiler struct {
	slots          []slot
	framesInFlight uint32
	frameIndex     uint32

	maxTimestamps      uint32
	maxPipelineQueries uint32

	timeRecording     bool
	pipelineRecording bool

	resolvedTimes      []time.Duration
	resolvedTimeCount  uint32
	resolvedStats      []metadata.PipelineStatistics
	resolvedStatsCount uint32
	scratch            []uint64
}

// New allocates framesInFlight slots of queries. A kind the backend cannot
// provide is disabled: its Begin calls fail with ErrQueryUnsupported.
func New(backend QueryBackend, framesInFlight, maxTimestamps, maxPipelineQueries uint32) (*GPUProfiler, error) {
	if framesInFlight == 0 {
		return nil, fmt.Errorf("profiler: frames in flight must be non-zero")
	}
	p := &GPUProfiler{
		slots:              make([]slot, framesInFlight),
		framesInFlight:     framesInFlight,
		frameIndex:         framesInFlight - 1,
		maxTimestamps:      maxTimestamps,
		maxPipelineQueries: maxPipelineQueries,
		resolvedTimes:      make([]time.Duration, maxTimestamps),
		resolvedStats:      make([]metadata.PipelineStatistics, maxPipelineQueries),
	}

	scratch := 2 * maxTimestamps
	if n := maxPipelineQueries * metadata.PipelineStatisticsCount; n > scratch {
		scratch = n
	}
	p.scratch = make([]uint64, scratch)

	for i := range p.slots {
		if maxTimestamps > 0 {
			set, err := p.createSet(backend, metadata.QueryKindTimestamp, 2*maxTimestamps)
			if err != nil {
				p.Destroy()
				return nil, err
			}
			p.slots[i].timestamps = set
		}
		if maxPipelineQueries > 0 {
			set, err := p.createSet(backend, metadata.QueryKindPipelineStatistics, maxPipelineQueries)
			if err != nil {
				p.Destroy()
				return nil, err
			}
			p.slots[i].pipeline = set
		}
	}
	if p.slots[0].timestamps == nil {
		p.maxTimestamps = 0
	}
	if p.slots[0].pipeline == nil {
		p.maxPipelineQueries = 0
	}
	core.LogDebug("GPU profiler created: %d frames in flight, %d timestamps, %d pipeline queries", framesInFlight, p.maxTimestamps, p.maxPipelineQueries)
	return p, nil
}

func (p *GPUProfiler) createSet(backend QueryBackend, kind metadata.QueryKind, count uint32) (QuerySet, error) {
	set, err := backend.CreateQuerySet(kind, count)
	if errors.Is(err, ErrQueryUnsupported) {
		core.LogWarn("%s queries are not supported by the backend, disabling them", kind)
		return nil, nil
	}
	if err != nil {
		core.LogError("failed to create %s query set: %s", kind, err)
		return nil, err
	}
	return set, nil
}

// Reset is called once per frame boundary, after the frame's fence has been
// waited on. It advances to the next slot, reads back what was recorded in
// it FramesInFlight frames ago and makes it available for recording.
func (p *GPUProfiler) Reset() {
	p.CloseOpenQueries()
	p.frameIndex = (p.frameIndex + 1) % p.framesInFlight
	s := &p.slots[p.frameIndex]
	p.resolve(s)
	s.reset()
}

// CloseOpenQueries ends any query left open in the current frame so the
// frame is never submitted with an active query. The renderer calls it before
// submitting; an open query at that point is a usage error and is logged.
func (p *GPUProfiler) CloseOpenQueries() {
	if p.timeRecording {
		core.LogError("GPU time query %d still open at end of frame, closing it", p.slots[p.frameIndex].timeCount)
		p.EndTimeQuery()
	}
	if p.pipelineRecording {
		core.LogError("GPU pipeline statistics query %d still open at end of frame, closing it", p.slots[p.frameIndex].pipelineCount)
		p.EndPipelineStatsQuery()
	}
}

func (p *GPUProfiler) resolve(s *slot) {
	p.resolvedTimeCount = 0
	if s.timeCount > 0 {
		values := p.scratch[:2*s.timeCount]
		if err := s.timestamps.Results(2*s.timeCount, values); err != nil {
			core.LogError("failed to read timestamp queries: %s", err)
		} else {
			period := s.timestamps.TimestampPeriod()
			for i := uint32(0); i < s.timeCount; i++ {
				begin, end := values[2*i], values[2*i+1]
				var ticks uint64
				if end > begin {
					ticks = end - begin
				}
				p.resolvedTimes[i] = time.Duration(float64(ticks) * period)
			}
			p.resolvedTimeCount = s.timeCount
		}
	}

	p.resolvedStatsCount = 0
	if s.pipelineCount > 0 {
		values := p.scratch[:s.pipelineCount*metadata.PipelineStatisticsCount]
		if err := s.pipeline.Results(s.pipelineCount, values); err != nil {
			core.LogError("failed to read pipeline statistics queries: %s", err)
		} else {
			for i := uint32(0); i < s.pipelineCount; i++ {
				first := i * metadata.PipelineStatisticsCount
				p.resolvedStats[i] = metadata.PipelineStatisticsFromSlice(values[first : first+metadata.PipelineStatisticsCount])
			}
			p.resolvedStatsCount = s.pipelineCount
		}
	}
}

// BeginTimeQuery starts a timed region in the current frame.
func (p *GPUProfiler) BeginTimeQuery() (QueryID, error) {
	s := &p.slots[p.frameIndex]
	if s.timestamps == nil {
		return 0, ErrQueryUnsupported
	}
	if p.timeRecording {
		return 0, ErrQueryInProgress
	}
	if s.timeCount >= p.maxTimestamps {
		return 0, fmt.Errorf("%w: %d time queries", ErrQueryCapacity, p.maxTimestamps)
	}
	id := s.timeCount
	s.timestamps.WriteTimestamp(2 * id)
	p.timeRecording = true
	return QueryID(id), nil
}

func (p *GPUProfiler) EndTimeQuery() error {
	if !p.timeRecording {
		return ErrNoQueryInProgress
	}
	s := &p.slots[p.frameIndex]
	s.timestamps.WriteTimestamp(2*s.timeCount + 1)
	s.timeCount++
	p.timeRecording = false
	return nil
}

// BeginPipelineStatsQuery starts a pipeline statistics region in the
// current frame.
func (p *GPUProfiler) BeginPipelineStatsQuery() (QueryID, error) {
	s := &p.slots[p.frameIndex]
	if s.pipeline == nil {
		return 0, ErrQueryUnsupported
	}
	if p.pipelineRecording {
		return 0, ErrQueryInProgress
	}
	if s.pipelineCount >= p.maxPipelineQueries {
		return 0, fmt.Errorf("%w: %d pipeline queries", ErrQueryCapacity, p.maxPipelineQueries)
	}
	id := s.pipelineCount
	s.pipeline.BeginQuery(id)
	p.pipelineRecording = true
	return QueryID(id), nil
}

func (p *GPUProfiler) EndPipelineStatsQuery() error {
	if !p.pipelineRecording {
		return ErrNoQueryInProgress
	}
	s := &p.slots[p.frameIndex]
	s.pipeline.EndQuery(s.pipelineCount)
	s.pipelineCount++
	p.pipelineRecording = false
	return nil
}

// TimeQueryResult is the duration measured by query id FramesInFlight frames
// ago, or zero when no such query was recorded.
func (p *GPUProfiler) TimeQueryResult(id QueryID) time.Duration {
	if uint32(id) >= p.resolvedTimeCount {
		return 0
	}
	return p.resolvedTimes[id]
}

// PipelineStatsResult is the statistics gathered by query id FramesInFlight
// frames ago, or zero statistics when no such query was recorded.
func (p *GPUProfiler) PipelineStatsResult(id QueryID) metadata.PipelineStatistics {
	if uint32(id) >= p.resolvedStatsCount {
		return metadata.PipelineStatistics{}
	}
	return p.resolvedStats[id]
}

func (p *GPUProfiler) TimeQueryCount() uint32 {
	return p.resolvedTimeCount
}

func (p *GPUProfiler) PipelineStatsCount() uint32 {
	return p.resolvedStatsCount
}

// TotalTime sums every resolved time query.
func (p *GPUProfiler) TotalTime() time.Duration {
	var total time.Duration
	for _, d := range p.resolvedTimes[:p.resolvedTimeCount] {
		total += d
	}
	return total
}

// TotalPipelineStats sums every resolved pipeline statistics query.
func (p *GPUProfiler) TotalPipelineStats() metadata.PipelineStatistics {
	var total metadata.PipelineStatistics
	for _, s := range p.resolvedStats[:p.resolvedStatsCount] {
		total = total.Add(s)
	}
	return total
}

func (p *GPUProfiler) FramesInFlight() uint32 {
	return p.framesInFlight
}

func (p *GPUProfiler) Destroy() {
	for i := range p.slots {
		if p.slots[i].timestamps != nil {
			p.slots[i].timestamps.Destroy()
			p.slots[i].timestamps = nil
		}
		if p.slots[i].pipeline != nil {
			p.slots[i].pipeline.Destroy()
			p.slots[i].pipeline = nil
		}
	}
}
