// Package persist drains an engine's stream lifecycle and pattern-history
// events into a datarecording.DataRecorder, following the teacher's own
// DBTracer-over-DataRecorder wiring.
package persist

// StreamEvent is one row of a stream's lifecycle: creation, an issued
// prefetch, a mid-life reclassification, or termination.
type StreamEvent struct {
	TaskID string
	Time   float64
	Kind   string
	Detail string
}

// PatternRecord is one row recording a terminated transformer-variant
// stream's pattern being folded into the pattern history table.
type PatternRecord struct {
	Time         float64
	Direction    int8
	Stride       int64
	RegionBase   int64
	StreamLength uint32
	Class        int8
}
