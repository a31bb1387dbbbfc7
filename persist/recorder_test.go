package persist_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streamprefetch/persist"
	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/sim/hooking"
)

type fakeTimeTeller struct {
	now float64
}

func (t *fakeTimeTeller) Now() float64 { return t.now }

var _ = Describe("Recorder", func() {
	var (
		db  *fakeRecorder
		tt  *fakeTimeTeller
		rec *persist.Recorder
	)

	BeforeEach(func() {
		db = newFakeRecorder()
		tt = &fakeTimeTeller{}
		rec = persist.New(db, tt)
	})

	It("creates both tables up front", func() {
		Expect(db.tables).To(HaveKey("stream_events"))
		Expect(db.tables).To(HaveKey("pattern_records"))
	})

	It("records a task start as a stream_events row", func() {
		tt.now = 5
		rec.Func(hooking.HookCtx{
			Pos: hooking.HookPosTaskStart,
			Item: hooking.TaskStart{
				ID: "s1", Kind: "stream", What: "dense", Where: "transformer",
			},
		})

		Expect(db.rows).To(HaveLen(1))
		row := db.rows[0].entry.(persist.StreamEvent)
		Expect(row.TaskID).To(Equal("s1"))
		Expect(row.Kind).To(Equal("start"))
		Expect(row.Detail).To(Equal("dense"))
		Expect(row.Time).To(Equal(5.0))
	})

	It("records a task step as a prefetch row", func() {
		rec.Func(hooking.HookCtx{
			Pos:  hooking.HookPosTaskStep,
			Item: hooking.TaskStep{TaskID: "s1", StepID: "1", What: "issue"},
		})

		Expect(db.rows).To(HaveLen(1))
		row := db.rows[0].entry.(persist.StreamEvent)
		Expect(row.Kind).To(Equal("prefetch"))
	})

	It("records a task end", func() {
		rec.Func(hooking.HookCtx{
			Pos:  hooking.HookPosTaskEnd,
			Item: hooking.TaskEnd{ID: "s1"},
		})

		Expect(db.rows).To(HaveLen(1))
		row := db.rows[0].entry.(persist.StreamEvent)
		Expect(row.Kind).To(Equal("end"))
		Expect(row.TaskID).To(Equal("s1"))
	})

	It("records a pattern-recorded event into pattern_records", func() {
		rec.Func(hooking.HookCtx{
			Pos: prefetcher.HookPosPatternRecorded,
			Item: prefetcher.PatternRecordedEvent{
				Direction:    prefetcher.DirectionPositive,
				Stride:       4,
				RegionBase:   1024,
				StreamLength: 12,
				Class:        prefetcher.ClassDense,
			},
		})

		Expect(db.rows).To(HaveLen(1))
		Expect(db.rows[0].table).To(Equal("pattern_records"))
		row := db.rows[0].entry.(persist.PatternRecord)
		Expect(row.Stride).To(Equal(int64(4)))
		Expect(row.StreamLength).To(Equal(uint32(12)))
	})

	It("ignores hook positions it does not recognize", func() {
		rec.Func(hooking.HookCtx{Pos: &hooking.HookPos{Name: "unrelated"}})
		Expect(db.rows).To(BeEmpty())
	})

	It("flushes through to the underlying recorder", func() {
		rec.Flush()
		Expect(db.flushes).To(Equal(1))
	})
})
