package metadata

type QueryKind int

const (
	QueryKindTimestamp QueryKind = iota
	QueryKindPipelineStatistics
)

func (k QueryKind) String() string {
	switch k {
	case QueryKindTimestamp:
		return "timestamp"
	case QueryKindPipelineStatistics:
		return "pipeline-statistics"
	default:
		return "unknown"
	}
}

// PipelineStatistics are the counters gathered by a pipeline statistics
// query. The zero value means nothing was recorded.
type PipelineStatistics struct {
	InputAssemblyVertices     uint64
	InputAssemblyPrimitives   uint64
	VertexShaderInvocations   uint64
	ClippingInvocations       uint64
	ClippingPrimitives        uint64
	FragmentShaderInvocations uint64
	ComputeShaderInvocations  uint64
}

// PipelineStatisticsCount is the number of counters in PipelineStatistics,
// in declaration order.
const PipelineStatisticsCount = 7

func PipelineStatisticsFromSlice(v []uint64) PipelineStatistics {
	var counters [PipelineStatisticsCount]uint64
	copy(counters[:], v)
	return PipelineStatistics{
		InputAssemblyVertices:     counters[0],
		InputAssemblyPrimitives:   counters[1],
		VertexShaderInvocations:   counters[2],
		ClippingInvocations:       counters[3],
		ClippingPrimitives:        counters[4],
		FragmentShaderInvocations: counters[5],
		ComputeShaderInvocations:  counters[6],
	}
}

func (s PipelineStatistics) Add(o PipelineStatistics) PipelineStatistics {
	return PipelineStatistics{
		InputAssemblyVertices:     s.InputAssemblyVertices + o.InputAssemblyVertices,
		InputAssemblyPrimitives:   s.InputAssemblyPrimitives + o.InputAssemblyPrimitives,
		VertexShaderInvocations:   s.VertexShaderInvocations + o.VertexShaderInvocations,
		ClippingInvocations:       s.ClippingInvocations + o.ClippingInvocations,
		ClippingPrimitives:        s.ClippingPrimitives + o.ClippingPrimitives,
		FragmentShaderInvocations: s.FragmentShaderInvocations + o.FragmentShaderInvocations,
		ComputeShaderInvocations:  s.ComputeShaderInvocations + o.ComputeShaderInvocations,
	}
}
