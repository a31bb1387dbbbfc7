package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streamprefetch/prefetcher"
)

type fakeSnapshotSource struct {
	snapshot Snapshot
}

func (f *fakeSnapshotSource) Snapshot() Snapshot { return f.snapshot }

var _ = Describe("Server", func() {
	var (
		source *fakeSnapshotSource
		server *Server
	)

	BeforeEach(func() {
		source = &fakeSnapshotSource{
			snapshot: Snapshot{
				Enhanced:       prefetcher.Stats{StreamsCreated: 3},
				Transformer:    prefetcher.Stats{StreamsCreated: 5},
				PolicySelector: -2,
			},
		}
		server = NewServer(source)
	})

	It("reports the current snapshot as JSON on /stats", func() {
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		w := httptest.NewRecorder()

		server.stats(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))

		var got Snapshot
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Enhanced.StreamsCreated).To(Equal(uint64(3)))
		Expect(got.Transformer.StreamsCreated).To(Equal(uint64(5)))
		Expect(got.PolicySelector).To(Equal(-2))
	})

	It("reports 200 on /health", func() {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		server.health(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("falls back to a random port when given an unsafe port number", func() {
		server.WithPortNumber(80)
		Expect(server.portNumber).To(Equal(0))
	})

	It("keeps a valid high port number", func() {
		server.WithPortNumber(9090)
		Expect(server.portNumber).To(Equal(9090))
	})
})
