// Package monitoring serves the state of an address translator over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/addresstranslator"
	"github.com/sarchlab/vmsim/monitoring/web"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns an address translator into a server that can be inspected
// while it runs.
//
// The translator is not safe for concurrent use. Every handler holds the
// locker while it reads the translator, so the owner of the translator must
// hold the same locker around each of its operations.
type Monitor struct {
	translator *addresstranslator.Comp
	lock       sync.Locker
	portNumber int

	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor(
	translator *addresstranslator.Comp,
	lock sync.Locker,
) *Monitor {
	return &Monitor{
		translator:      translator,
		lock:            lock,
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of all the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.showConfig)
	r.HandleFunc("/api/stats", m.showStats)
	r.HandleFunc("/api/report", m.showReport)
	r.HandleFunc("/api/tlb", m.listTLBEntries)
	r.HandleFunc("/api/pagetable", m.listPageTableEntries)
	r.HandleFunc("/api/pagetable/{vpn}", m.showPageTableEntry)
	r.HandleFunc("/api/frame/{pfn}", m.showFrame)
	r.HandleFunc("/api/component", m.showComponent)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) showConfig(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	config := m.translator.Config()
	m.lock.Unlock()

	writeJSON(w, config)
}

type statsRsp struct {
	addresstranslator.Statistics

	TLBLookupHits   uint64  `json:"tlb_lookup_hits"`
	TLBLookupMisses uint64  `json:"tlb_lookup_misses"`
	TLBHitRate      float64 `json:"tlb_lookup_hit_rate"`
	FramesFaulted   uint64  `json:"frames_faulted"`
}

func (m *Monitor) showStats(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	rsp := statsRsp{
		Statistics:      m.translator.Statistics(),
		TLBLookupHits:   m.translator.TLB().Hits(),
		TLBLookupMisses: m.translator.TLB().Misses(),
		TLBHitRate:      m.translator.TLB().HitRate(),
		FramesFaulted:   m.translator.Allocator().PageFaults(),
	}
	m.lock.Unlock()

	writeJSON(w, rsp)
}

func (m *Monitor) showReport(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	report := m.translator.Report()
	m.lock.Unlock()

	writeJSON(w, report)
}

type tlbEntryRsp struct {
	VPN         vm.PageNumber  `json:"vpn"`
	FrameNumber vm.FrameNumber `json:"frame_number"`
}

type tlbRsp struct {
	Capacity int           `json:"capacity"`
	Entries  []tlbEntryRsp `json:"entries"`
}

func (m *Monitor) listTLBEntries(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	t := m.translator.TLB()
	rsp := tlbRsp{
		Capacity: t.Capacity(),
		Entries:  make([]tlbEntryRsp, 0, t.Len()),
	}

	for _, b := range t.Entries() {
		rsp.Entries = append(rsp.Entries, tlbEntryRsp{
			VPN:         b.VPN,
			FrameNumber: b.FrameNumber,
		})
	}
	m.lock.Unlock()

	writeJSON(w, rsp)
}

type pageTableEntryRsp struct {
	VPN         vm.PageNumber  `json:"vpn"`
	FrameNumber vm.FrameNumber `json:"frame_number"`
	Dirty       bool           `json:"dirty"`
	Referenced  bool           `json:"referenced"`
}

type pageTableRsp struct {
	NumEntries uint64              `json:"num_entries"`
	NumNodes   uint64              `json:"num_nodes"`
	Entries    []pageTableEntryRsp `json:"entries"`
}

func (m *Monitor) listPageTableEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.lock.Lock()
	pt := m.translator.PageTable()
	rsp := pageTableRsp{
		NumEntries: pt.NumEntries(),
		NumNodes:   pt.NumNodes(),
		Entries:    []pageTableEntryRsp{},
	}

	skipped := 0
	pt.Walk(func(vpn vm.PageNumber, e vm.PageTableEntry) bool {
		if skipped < offset {
			skipped++
			return true
		}

		rsp.Entries = append(rsp.Entries, toPageTableEntryRsp(vpn, e))

		return limit == 0 || len(rsp.Entries) < limit
	})
	m.lock.Unlock()

	writeJSON(w, rsp)
}

func parseLimitOffset(r *http.Request) (limit, offset int, err error) {
	limit, err = queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}

	if limit < 0 || offset < 0 {
		return 0, 0, errors.New("limit and offset must not be negative")
	}

	return limit, offset, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}

	return strconv.Atoi(s)
}

func toPageTableEntryRsp(
	vpn vm.PageNumber,
	e vm.PageTableEntry,
) pageTableEntryRsp {
	return pageTableEntryRsp{
		VPN:         vpn,
		FrameNumber: e.FrameNumber,
		Dirty:       e.Dirty,
		Referenced:  e.Referenced,
	}
}

func (m *Monitor) showPageTableEntry(w http.ResponseWriter, r *http.Request) {
	vpn, ok := parseNumberOr400(w, mux.Vars(r)["vpn"])
	if !ok {
		return
	}

	m.lock.Lock()
	entry, found := m.translator.PageTable().Entry(vpn)
	m.lock.Unlock()

	if !found || !entry.Valid {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Page not mapped"))
		dieOnErr(err)

		return
	}

	writeJSON(w, toPageTableEntryRsp(vpn, entry))
}

type frameRsp struct {
	FrameNumber vm.FrameNumber `json:"frame_number"`
	Allocated   bool           `json:"allocated"`
	OwnerVPN    vm.PageNumber  `json:"owner_vpn"`
	Pinned      bool           `json:"pinned"`
}

func (m *Monitor) showFrame(w http.ResponseWriter, r *http.Request) {
	pfn, ok := parseNumberOr400(w, mux.Vars(r)["pfn"])
	if !ok {
		return
	}

	m.lock.Lock()
	f, err := m.translator.Allocator().Frame(pfn)
	m.lock.Unlock()

	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, err = w.Write([]byte(err.Error()))
		dieOnErr(err)

		return
	}

	writeJSON(w, frameRsp{
		FrameNumber: pfn,
		Allocated:   f.Allocated,
		OwnerVPN:    f.OwnerVPN,
		Pinned:      f.Pinned,
	})
}

// parseNumberOr400 accepts decimal numbers and numbers with a 0x prefix.
func parseNumberOr400(w http.ResponseWriter, s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return 0, false
	}

	return n, true
}

func (m *Monitor) showComponent(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.translator)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
