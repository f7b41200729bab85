package vmm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sibexico/HexVM/memphy"
)

// Manager owns the physical devices shared by every process and hands out
// address spaces backed by them.
type Manager struct {
	config  *Config
	ram     memphy.Device
	swaps   []memphy.Device
	metrics *Metrics
	logger  *slog.Logger

	processes map[uint32]*Process
	closed    bool
	mu        sync.Mutex
}

// NewManager builds RAM and swap devices from config
func NewManager(config *Config, logger *slog.Logger) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ram, err := memphy.NewMemory(config.RAMFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to create ram: %w", err)
	}

	swaps := make([]memphy.Device, 0, len(config.SwapFrames))
	for i, frames := range config.SwapFrames {
		swap, err := newSwapDevice(config, i, frames)
		if err != nil {
			closeDevices(swaps)
			return nil, fmt.Errorf("failed to create swap device %d: %w", i, err)
		}
		swaps = append(swaps, swap)
	}

	m, err := NewManagerWithDevices(config, logger, ram, swaps...)
	if err != nil {
		closeDevices(swaps)
		return nil, err
	}
	return m, nil
}

// NewManagerWithDevices uses caller supplied devices. config.SwapFrames and
// the swap backend settings are ignored.
func NewManagerWithDevices(config *Config, logger *slog.Logger, ram memphy.Device, swaps ...memphy.Device) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if ram == nil || len(swaps) == 0 {
		return nil, errInvalidArgument("NewManager", "ram and at least one swap device are required")
	}
	if int(config.ActiveSwap) >= len(swaps) {
		return nil, errInvalidArgument("NewManager", fmt.Sprintf("active swap %d out of range", config.ActiveSwap))
	}
	if logger == nil {
		logger = discardLogger()
	}

	var metrics *Metrics
	if config.EnableMetrics {
		metrics = NewMetrics()
	}

	m := &Manager{
		config:    config.Clone(),
		ram:       ram,
		swaps:     swaps,
		metrics:   metrics,
		logger:    logger,
		processes: make(map[uint32]*Process),
	}

	logger.Info("memory manager started",
		slog.Group("ram", slog.Uint64("frames", uint64(ram.FrameCount()))),
		slog.Int("swap_devices", len(swaps)),
		slog.Uint64("active_swap", uint64(config.ActiveSwap)),
		slog.Bool("lazy_mapping", config.LazyMapping),
	)
	return m, nil
}

func newSwapDevice(config *Config, index int, frames uint32) (memphy.Device, error) {
	switch config.SwapBackend {
	case SwapBackendCompressed:
		ct, err := memphy.ParseCompressionType(config.SwapCompression)
		if err != nil {
			return nil, err
		}
		return memphy.NewCompressedMemory(frames, ct)

	case SwapBackendMmap:
		// an empty mapping is not allowed; an empty device needs no file
		if frames == 0 {
			return memphy.NewMemory(0)
		}
		if err := os.MkdirAll(config.SwapDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create swap directory: %w", err)
		}
		path := filepath.Join(config.SwapDirectory, fmt.Sprintf("swap%d.bin", index))
		return memphy.NewMmapMemory(path, frames)

	default:
		return memphy.NewMemory(frames)
	}
}

func closeDevices(devs []memphy.Device) error {
	var errs []error
	for _, d := range devs {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// NewProcess creates a process with a fresh address space
func (m *Manager) NewProcess(pid uint32) (*Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errInvalidArgument("NewProcess", "manager is closed")
	}
	if _, ok := m.processes[pid]; ok {
		return nil, errInvalidArgument("NewProcess", fmt.Sprintf("pid %d already exists", pid))
	}

	logger := m.logger.With("pid", pid)
	mm, err := NewAddressSpace(m.config, m.ram, m.swaps, m.metrics, logger)
	if err != nil {
		return nil, err
	}

	p := &Process{
		PID:    pid,
		mm:     mm,
		logger: mm.logger,
		onExit: m.forget,
	}
	m.processes[pid] = p

	p.logger.Info("process created")
	return p, nil
}

func (m *Manager) forget(p *Process) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.processes[p.PID]; ok && cur == p {
		delete(m.processes, p.PID)
	}
}

// Process returns a live process by pid
func (m *Manager) Process(pid uint32) (*Process, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.processes[pid]
	return p, ok
}

// PIDs returns the live pids in ascending order
func (m *Manager) PIDs() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	pids := make([]uint32, 0, len(m.processes))
	for pid := range m.processes {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

// Metrics returns the shared metrics, or nil when disabled
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Config returns a copy of the configuration in use
func (m *Manager) Config() *Config {
	return m.config.Clone()
}

// RAM returns the shared RAM device
func (m *Manager) RAM() memphy.Device {
	return m.ram
}

// Swap returns swap device i, or nil
func (m *Manager) Swap(i int) memphy.Device {
	if i < 0 || i >= len(m.swaps) {
		return nil
	}
	return m.swaps[i]
}

// Close exits every live process, logs metrics and closes file backed swap
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	live := make([]*Process, 0, len(m.processes))
	for _, p := range m.processes {
		live = append(live, p)
	}
	m.mu.Unlock()

	var errs []error
	for _, p := range live {
		if err := p.Exit(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.metrics != nil {
		m.metrics.LogMetrics(m.logger)
	}

	if err := closeDevices(m.swaps); err != nil {
		errs = append(errs, err)
	}

	m.logger.Info("memory manager stopped")
	return errors.Join(errs...)
}
