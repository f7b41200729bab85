package vmm

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support. Samples
// are kept in a ring in arrival order; percentiles read a sorted copy.
type Histogram struct {
	samples []float64 // Latencies in microseconds, ring ordered
	next    int       // Ring slot overwritten by the next sample once full
	view    []float64 // samples sorted ascending, valid when !stale
	stale   bool
	mu      sync.Mutex
	maxSize int // Maximum samples to retain
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a latency sample (in microseconds)
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// At capacity: overwrite the oldest sample
	if len(h.samples) < h.maxSize {
		h.samples = append(h.samples, latencyUs)
	} else {
		h.samples[h.next] = latencyUs
		h.next = (h.next + 1) % h.maxSize
	}
	h.stale = true
}

// percentileLocked expects h.mu held and the sorted view fresh
func (h *Histogram) percentileLocked(p float64) float64 {
	if len(h.view) == 0 {
		return 0
	}

	rank := (p / 100.0) * float64(len(h.view)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return h.view[lower]
	}

	weight := rank - float64(lower)
	return h.view[lower]*(1-weight) + h.view[upper]*weight
}

func (h *Histogram) sortLocked() {
	if h.stale {
		h.view = append(h.view[:0], h.samples...)
		sort.Float64s(h.view)
		h.stale = false
	}
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sortLocked()
	return h.percentileLocked(p)
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
	h.view = h.view[:0]
	h.next = 0
	h.stale = false
}

// HistogramSnapshot holds percentile statistics at one point in time
type HistogramSnapshot struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Snapshot captures current histogram statistics under a single lock
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == 0 {
		return HistogramSnapshot{}
	}

	h.sortLocked()

	sum := 0.0
	for _, v := range h.view {
		sum += v
	}

	return HistogramSnapshot{
		Count: len(h.view),
		Min:   h.view[0],
		Max:   h.view[len(h.view)-1],
		Mean:  sum / float64(len(h.view)),
		P50:   h.percentileLocked(50),
		P95:   h.percentileLocked(95),
		P99:   h.percentileLocked(99),
	}
}

// Metrics tracks memory manager activity. A nil *Metrics records nothing.
type Metrics struct {
	// Region metrics
	allocations     atomic.Uint64
	allocationFails atomic.Uint64
	vmaGrowths      atomic.Uint64
	frees           atomic.Uint64

	// Paging metrics
	pageFaults   atomic.Uint64
	firstTouches atomic.Uint64
	swapIns      atomic.Uint64
	evictions    atomic.Uint64

	// Byte accessor metrics
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64

	faultLatency *Histogram

	startTime time.Time
	mu        sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:    time.Now(),
		faultLatency: NewHistogram(10000),
	}
}

func (m *Metrics) RecordAllocation() {
	if m != nil {
		m.allocations.Add(1)
	}
}

func (m *Metrics) RecordAllocationFailure() {
	if m != nil {
		m.allocationFails.Add(1)
	}
}

func (m *Metrics) RecordVMAGrowth() {
	if m != nil {
		m.vmaGrowths.Add(1)
	}
}

func (m *Metrics) RecordFree() {
	if m != nil {
		m.frees.Add(1)
	}
}

func (m *Metrics) RecordFirstTouch() {
	if m != nil {
		m.pageFaults.Add(1)
		m.firstTouches.Add(1)
	}
}

func (m *Metrics) RecordSwapIn() {
	if m != nil {
		m.pageFaults.Add(1)
		m.swapIns.Add(1)
	}
}

func (m *Metrics) RecordEviction() {
	if m != nil {
		m.evictions.Add(1)
	}
}

func (m *Metrics) RecordRead() {
	if m != nil {
		m.bytesRead.Add(1)
	}
}

func (m *Metrics) RecordWrite() {
	if m != nil {
		m.bytesWritten.Add(1)
	}
}

// RecordFaultLatency records how long a page fault took to resolve
func (m *Metrics) RecordFaultLatency(d time.Duration) {
	if m != nil {
		m.faultLatency.Record(float64(d.Microseconds()))
	}
}

// Getters

func (m *Metrics) GetAllocations() uint64 { return m.allocations.Load() }
func (m *Metrics) GetAllocationFailures() uint64 { return m.allocationFails.Load() }
func (m *Metrics) GetVMAGrowths() uint64 { return m.vmaGrowths.Load() }
func (m *Metrics) GetFrees() uint64 { return m.frees.Load() }
func (m *Metrics) GetPageFaults() uint64 { return m.pageFaults.Load() }
func (m *Metrics) GetFirstTouches() uint64 { return m.firstTouches.Load() }
func (m *Metrics) GetSwapIns() uint64 { return m.swapIns.Load() }
func (m *Metrics) GetEvictions() uint64 { return m.evictions.Load() }
func (m *Metrics) GetBytesRead() uint64 { return m.bytesRead.Load() }
func (m *Metrics) GetBytesWritten() uint64 { return m.bytesWritten.Load() }

// GetFaultLatency returns a snapshot of the fault latency distribution
func (m *Metrics) GetFaultLatency() HistogramSnapshot {
	return m.faultLatency.Snapshot()
}

func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// LogMetrics logs all metrics using structured logging
func (m *Metrics) LogMetrics(logger *slog.Logger) {
	fault := m.GetFaultLatency()

	logger.Info("Memory Manager Metrics",
		slog.Group("regions",
			slog.Uint64("allocations", m.GetAllocations()),
			slog.Uint64("allocation_failures", m.GetAllocationFailures()),
			slog.Uint64("vma_growths", m.GetVMAGrowths()),
			slog.Uint64("frees", m.GetFrees()),
		),
		slog.Group("paging",
			slog.Uint64("page_faults", m.GetPageFaults()),
			slog.Uint64("first_touches", m.GetFirstTouches()),
			slog.Uint64("swap_ins", m.GetSwapIns()),
			slog.Uint64("evictions", m.GetEvictions()),
		),
		slog.Group("io",
			slog.Uint64("bytes_read", m.GetBytesRead()),
			slog.Uint64("bytes_written", m.GetBytesWritten()),
		),
		slog.Group("fault_latency_us",
			slog.Int("count", fault.Count),
			slog.Float64("mean", fault.Mean),
			slog.Float64("p50", fault.P50),
			slog.Float64("p95", fault.P95),
			slog.Float64("p99", fault.P99),
		),
		slog.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.allocations.Store(0)
	m.allocationFails.Store(0)
	m.vmaGrowths.Store(0)
	m.frees.Store(0)
	m.pageFaults.Store(0)
	m.firstTouches.Store(0)
	m.swapIns.Store(0)
	m.evictions.Store(0)
	m.bytesRead.Store(0)
	m.bytesWritten.Store(0)
	m.faultLatency.Reset()

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
