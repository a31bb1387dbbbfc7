package persist

import (
	"github.com/sarchlab/streamprefetch/datarecording"
	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/sim/hooking"
)

const (
	streamEventsTable   = "stream_events"
	patternRecordsTable = "pattern_records"
)

// Recorder is a hooking.Hook that drains an Engine's stream lifecycle and
// pattern-history hook invocations into a datarecording.DataRecorder.
type Recorder struct {
	db         datarecording.DataRecorder
	timeTeller hooking.TimeTeller
}

// New creates a Recorder writing into db, timestamping every row with
// timeTeller.Now(). A *prefetcher.Engine satisfies hooking.TimeTeller
// directly, so it can be passed as both the hook target being registered
// on and the timeTeller here.
func New(db datarecording.DataRecorder, timeTeller hooking.TimeTeller) *Recorder {
	r := &Recorder{db: db, timeTeller: timeTeller}
	r.db.CreateTable(streamEventsTable, StreamEvent{})
	r.db.CreateTable(patternRecordsTable, PatternRecord{})
	return r
}

// Func implements hooking.Hook. Hook positions it does not recognize are
// ignored, so a Recorder can share a hook list with unrelated tracers.
func (r *Recorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosTaskStart:
		r.recordTaskStart(ctx.Item.(hooking.TaskStart))
	case hooking.HookPosTaskStep:
		r.recordTaskStep(ctx.Item.(hooking.TaskStep))
	case hooking.HookPosTaskTag:
		r.recordTaskTag(ctx.Item.(hooking.TaskTag))
	case hooking.HookPosTaskEnd:
		r.recordTaskEnd(ctx.Item.(hooking.TaskEnd))
	case prefetcher.HookPosPatternRecorded:
		r.recordPattern(ctx.Item.(prefetcher.PatternRecordedEvent))
	}
}

func (r *Recorder) recordTaskStart(ts hooking.TaskStart) {
	r.db.InsertData(streamEventsTable, StreamEvent{
		TaskID: ts.ID,
		Time:   r.timeTeller.Now(),
		Kind:   "start",
		Detail: ts.What,
	})
}

func (r *Recorder) recordTaskStep(ts hooking.TaskStep) {
	r.db.InsertData(streamEventsTable, StreamEvent{
		TaskID: ts.TaskID,
		Time:   r.timeTeller.Now(),
		Kind:   "prefetch",
		Detail: ts.What,
	})
}

func (r *Recorder) recordTaskTag(tt hooking.TaskTag) {
	r.db.InsertData(streamEventsTable, StreamEvent{
		TaskID: tt.TaskID,
		Time:   r.timeTeller.Now(),
		Kind:   "tag:" + tt.What,
		Detail: tt.Detail,
	})
}

func (r *Recorder) recordTaskEnd(te hooking.TaskEnd) {
	r.db.InsertData(streamEventsTable, StreamEvent{
		TaskID: te.ID,
		Time:   r.timeTeller.Now(),
		Kind:   "end",
	})
}

func (r *Recorder) recordPattern(ev prefetcher.PatternRecordedEvent) {
	r.db.InsertData(patternRecordsTable, PatternRecord{
		Time:         r.timeTeller.Now(),
		Direction:    int8(ev.Direction),
		Stride:       ev.Stride,
		RegionBase:   int64(ev.RegionBase),
		StreamLength: ev.StreamLength,
		Class:        int8(ev.Class),
	})
}

// Flush drains any buffered rows to the underlying recorder.
func (r *Recorder) Flush() {
	r.db.Flush()
}
