package profiler

import (
	"errors"
	"testing"
	"time"

	"github.com/Algor1tm/Athena-sub002/engine/renderer/metadata"
)

// fakeGPU hands out query sets whose timestamps come from a manually driven
// clock and whose pipeline statistics come from a vertex counter.
type fakeGPU struct {
	clock             uint64
	vertices          uint64
	pipelineSupported bool
	sets              []*fakeQuerySet
}

func (g *fakeGPU) CreateQuerySet(kind metadata.QueryKind, count uint32) (QuerySet, error) {
	if kind == metadata.QueryKindPipelineStatistics && !g.pipelineSupported {
		return nil, ErrQueryUnsupported
	}
	set := &fakeQuerySet{gpu: g, kind: kind, values: make([]uint64, count*metadata.PipelineStatisticsCount)}
	set.capacity = count
	g.sets = append(g.sets, set)
	return set, nil
}

type fakeQuerySet struct {
	gpu       *fakeGPU
	kind      metadata.QueryKind
	capacity  uint32
	values    []uint64
	begin     uint64
	resets    int
	destroyed bool
}

func (s *fakeQuerySet) Kind() metadata.QueryKind { return s.kind }
func (s *fakeQuerySet) Capacity() uint32         { return s.capacity }
func (s *fakeQuerySet) Reset() {
	s.resets++
	for i := range s.values {
		s.values[i] = 0
	}
}
func (s *fakeQuerySet) WriteTimestamp(index uint32) { s.values[index] = s.gpu.clock }
func (s *fakeQuerySet) BeginQuery(index uint32)     { s.begin = s.gpu.vertices }
func (s *fakeQuerySet) EndQuery(index uint32) {
	s.values[index*metadata.PipelineStatisticsCount] = s.gpu.vertices - s.begin
}
func (s *fakeQuerySet) Results(count uint32, dst []uint64) error {
	n := count
	if s.kind == metadata.QueryKindPipelineStatistics {
		n = count * metadata.PipelineStatisticsCount
	}
	copy(dst, s.values[:n])
	return nil
}
func (s *fakeQuerySet) TimestampPeriod() float64 { return 1000 } // one tick is a microsecond
func (s *fakeQuerySet) Destroy()                 { s.destroyed = true }

func recordFrame(t *testing.T, p *GPUProfiler, gpu *fakeGPU, micros uint64, vertices uint64) {
	t.Helper()
	id, err := p.BeginTimeQuery()
	if err != nil || id != 0 {
		t.Fatalf("begin time query: %d, %v", id, err)
	}
	sid, err := p.BeginPipelineStatsQuery()
	if err != nil || sid != 0 {
		t.Fatalf("begin pipeline query: %d, %v", sid, err)
	}
	gpu.clock += micros
	gpu.vertices += vertices
	if err := p.EndPipelineStatsQuery(); err != nil {
		t.Fatal(err)
	}
	if err := p.EndTimeQuery(); err != nil {
		t.Fatal(err)
	}
}

func TestResultsAreDelayedByFramesInFlight(t *testing.T) {
	for _, framesInFlight := range []uint32{1, 2, 3} {
		gpu := &fakeGPU{pipelineSupported: true}
		p, err := New(gpu, framesInFlight, 4, 4)
		if err != nil {
			t.Fatal(err)
		}
		const frames = 8
		for frame := uint64(0); frame < frames; frame++ {
			p.Reset()
			got := p.TimeQueryResult(0)
			stats := p.PipelineStatsResult(0)
			if frame < uint64(framesInFlight) {
				if got != 0 || stats != (metadata.PipelineStatistics{}) || p.TimeQueryCount() != 0 {
					t.Fatalf("N=%d frame %d: expected zero warm-up result, got %s %+v", framesInFlight, frame, got, stats)
				}
			} else {
				recorded := frame - uint64(framesInFlight)
				want := time.Duration(recorded+1) * time.Microsecond
				if got != want {
					t.Fatalf("N=%d frame %d: got %s, want %s (frame %d)", framesInFlight, frame, got, want, recorded)
				}
				if stats.InputAssemblyVertices != (recorded+1)*3 {
					t.Fatalf("N=%d frame %d: vertices %d", framesInFlight, frame, stats.InputAssemblyVertices)
				}
			}
			// Frame F lasts F+1 microseconds and draws 3(F+1) vertices.
			recordFrame(t, p, gpu, frame+1, (frame+1)*3)
		}
		p.Destroy()
	}
}

func TestQuerySequencingErrors(t *testing.T) {
	gpu := &fakeGPU{pipelineSupported: true}
	p, err := New(gpu, 2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.Reset()

	if err := p.EndTimeQuery(); !errors.Is(err, ErrNoQueryInProgress) {
		t.Fatalf("end without begin: %v", err)
	}
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.BeginTimeQuery(); !errors.Is(err, ErrQueryInProgress) {
		t.Fatalf("nested begin: %v", err)
	}
	if err := p.EndTimeQuery(); err != nil {
		t.Fatal(err)
	}

	// The kind is reusable within the frame until capacity runs out.
	id, err := p.BeginTimeQuery()
	if err != nil || id != 1 {
		t.Fatalf("second query: %d, %v", id, err)
	}
	if err := p.EndTimeQuery(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.BeginTimeQuery(); !errors.Is(err, ErrQueryCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}

	// Kinds are independent.
	if _, err := p.BeginTimeQuery(); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := p.BeginPipelineStatsQuery(); err != nil {
		t.Fatalf("pipeline query blocked by time query state: %v", err)
	}
	if err := p.EndPipelineStatsQuery(); err != nil {
		t.Fatal(err)
	}
	if err := p.EndPipelineStatsQuery(); !errors.Is(err, ErrNoQueryInProgress) {
		t.Fatalf("double end: %v", err)
	}

	// A new frame restores the budget.
	p.Reset()
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatalf("budget not restored: %v", err)
	}
}

func TestOpenQueriesClosedAtFrameEnd(t *testing.T) {
	gpu := &fakeGPU{pipelineSupported: true}
	p, err := New(gpu, 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	p.Reset()
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.BeginPipelineStatsQuery(); err != nil {
		t.Fatal(err)
	}
	gpu.clock += 7
	gpu.vertices += 9
	p.CloseOpenQueries()

	if err := p.EndTimeQuery(); !errors.Is(err, ErrNoQueryInProgress) {
		t.Fatalf("time query still open: %v", err)
	}
	if err := p.EndPipelineStatsQuery(); !errors.Is(err, ErrNoQueryInProgress) {
		t.Fatalf("pipeline query still open: %v", err)
	}

	p.Reset()
	if got := p.TimeQueryResult(0); got != 7*time.Microsecond {
		t.Errorf("closed time query = %s", got)
	}
	if got := p.PipelineStatsResult(0).InputAssemblyVertices; got != 9 {
		t.Errorf("closed pipeline query vertices = %d", got)
	}

	// A query left open across Reset is closed too, not leaked into the
	// next frame.
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatal(err)
	}
	p.Reset()
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatalf("begin after reset: %v", err)
	}
}

func TestUnsupportedPipelineStatistics(t *testing.T) {
	gpu := &fakeGPU{pipelineSupported: false}
	p, err := New(gpu, 2, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	p.Reset()
	if _, err := p.BeginPipelineStatsQuery(); !errors.Is(err, ErrQueryUnsupported) {
		t.Fatalf("expected ErrQueryUnsupported, got %v", err)
	}
	if _, err := p.BeginTimeQuery(); err != nil {
		t.Fatalf("timestamps must still work: %v", err)
	}
}

func TestSlotsAllocatedOnceAndReused(t *testing.T) {
	gpu := &fakeGPU{pipelineSupported: true}
	p, err := New(gpu, 3, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(gpu.sets) != 6 {
		t.Fatalf("expected 6 query sets, got %d", len(gpu.sets))
	}
	for i := 0; i < 9; i++ {
		p.Reset()
	}
	if len(gpu.sets) != 6 {
		t.Fatalf("query sets allocated after creation: %d", len(gpu.sets))
	}
	for _, s := range gpu.sets {
		if s.resets != 3 {
			t.Fatalf("each set should be reset once per cycle, got %d", s.resets)
		}
	}
	p.Destroy()
	for _, s := range gpu.sets {
		if !s.destroyed {
			t.Fatal("query set not destroyed")
		}
	}
}

func TestTotals(t *testing.T) {
	gpu := &fakeGPU{pipelineSupported: true}
	p, err := New(gpu, 1, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	p.Reset()
	for i := 0; i < 3; i++ {
		if _, err := p.BeginTimeQuery(); err != nil {
			t.Fatal(err)
		}
		gpu.clock += 10
		if err := p.EndTimeQuery(); err != nil {
			t.Fatal(err)
		}
	}
	p.Reset()
	if p.TimeQueryCount() != 3 {
		t.Fatalf("count %d", p.TimeQueryCount())
	}
	if p.TotalTime() != 30*time.Microsecond {
		t.Fatalf("total %s", p.TotalTime())
	}
}
