package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
)

// Server turns a SnapshotSource into a small HTTP endpoint an external
// tool can scrape or curl.
type Server struct {
	source     SnapshotSource
	portNumber int
	profileFor time.Duration
}

// NewServer creates a Server reporting on source.
func NewServer(source SnapshotSource) *Server {
	return &Server{source: source, profileFor: time.Second}
}

// WithPortNumber sets the port the server listens on. Values below 1000
// are rejected in favor of an OS-assigned port, matching the teacher's
// own guard against binding a privileged port by mistake.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server, "+
				"using a random port instead.\n", portNumber)
		portNumber = 0
	}
	s.portNumber = portNumber
	return s
}

// StartServer starts serving in the background and returns immediately.
func (s *Server) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/stats", s.stats)
	r.HandleFunc("/health", s.health)
	r.HandleFunc("/resource", s.resource)
	r.HandleFunc("/debug/profile", s.collectProfile)

	actualPort := ":0"
	if s.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(os.Stderr, "Monitoring streamprefetch with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	body, err := json.Marshal(s.source.Snapshot())
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(body)
	dieOnErr(err)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) resource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	body, err := json.Marshal(resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memInfo.RSS,
	})
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(s.profileFor)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	body, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(body)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
