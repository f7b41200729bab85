// Package vmm implements a paged virtual memory manager for simulated
// processes. Each process owns an AddressSpace: a flat page table, a list of
// growable VMAs with first-fit free lists, a symbol table of named regions
// and a FIFO queue of mapped pages. RAM frames and swap slots are leased
// from memphy devices shared by every address space.
package vmm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/sibexico/HexVM/memphy"
)

// AddressSpace is the private virtual memory of one process
type AddressSpace struct {
	// ID correlates log lines of one address space
	ID string

	pgd    []PTE
	vmas   []*VMA
	symtab *SymbolTable
	fifo   *FIFOQueue

	ram        memphy.Device
	swaps      []memphy.Device
	activeSwap uint32

	ceiling      uint32
	strictBounds bool
	lazy         bool
	reclaimed    bool

	metrics *Metrics
	logger  *slog.Logger

	// mu serializes region mutation, faults and evictions
	mu sync.Mutex
}

// NewAddressSpace creates an address space with an empty data segment at 0.
// metrics and logger may be nil.
func NewAddressSpace(config *Config, ram memphy.Device, swaps []memphy.Device, metrics *Metrics, logger *slog.Logger) (*AddressSpace, error) {
	const op = "NewAddressSpace"

	if config == nil {
		config = DefaultConfig()
	}
	if ram == nil {
		return nil, errInvalidArgument(op, "ram device is required")
	}
	if ram.FrameCount() > MaxFrames {
		return nil, errInvalidArgument(op, fmt.Sprintf("ram has %d frames, entries address at most %d", ram.FrameCount(), MaxFrames))
	}
	if len(swaps) == 0 || len(swaps) > MaxSwapDevices {
		return nil, errInvalidArgument(op, fmt.Sprintf("need 1 to %d swap devices, got %d", MaxSwapDevices, len(swaps)))
	}
	for i, s := range swaps {
		if s == nil {
			return nil, errInvalidArgument(op, fmt.Sprintf("swap device %d is nil", i))
		}
		if s.FrameCount() > MaxSwapFrames {
			return nil, errInvalidArgument(op, fmt.Sprintf("swap device %d has %d frames, entries address at most %d", i, s.FrameCount(), MaxSwapFrames))
		}
	}
	if int(config.ActiveSwap) >= len(swaps) {
		return nil, errInvalidArgument(op, fmt.Sprintf("active swap %d out of range", config.ActiveSwap))
	}
	if config.MaxRegions <= 0 {
		return nil, errInvalidArgument(op, "max regions must be greater than 0")
	}
	if config.VirtualMemorySize == 0 || config.VirtualMemorySize > MaxVirtualSize {
		return nil, errInvalidArgument(op, fmt.Sprintf("virtual memory size must be between 1 and %d", MaxVirtualSize))
	}
	if logger == nil {
		logger = discardLogger()
	}

	as := &AddressSpace{
		ID:           xid.New().String(),
		pgd:          make([]PTE, MaxPages),
		symtab:       NewSymbolTable(config.MaxRegions),
		fifo:         NewFIFOQueue(),
		ram:          ram,
		swaps:        append([]memphy.Device(nil), swaps...),
		activeSwap:   config.ActiveSwap,
		ceiling:      config.VirtualMemorySize,
		strictBounds: config.StrictBounds,
		lazy:         config.LazyMapping,
		metrics:      metrics,
	}
	as.logger = logger.With("as", as.ID)
	as.vmas = []*VMA{newVMA(as, DefaultVMA, 0)}

	return as, nil
}

// PTE returns the page table entry of pgn
func (as *AddressSpace) PTE(pgn uint32) (PTE, error) {
	if pgn >= MaxPages {
		return 0, errInvalidAddress("PTE", pgn<<PageShift)
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	return as.pgd[pgn], nil
}

// Region returns the live region bound to rgid
func (as *AddressSpace) Region(rgid int) (Region, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.symtab.Get(rgid)
}

// VMAs returns the segments in id order
func (as *AddressSpace) VMAs() []*VMA {
	as.mu.Lock()
	defer as.mu.Unlock()
	return append([]*VMA(nil), as.vmas...)
}

// FIFO returns the mapped pages, oldest first
func (as *AddressSpace) FIFO() []uint32 {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.fifo.Pages()
}

// ResidentPages returns the number of pages currently held in RAM
func (as *AddressSpace) ResidentPages() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.fifo.Len()
}

// Reclaimed reports whether Reclaim has run
func (as *AddressSpace) Reclaimed() bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.reclaimed
}
