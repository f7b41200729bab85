package vmm

import (
	"fmt"

	"github.com/sibexico/HexVM/memphy"
)

const (
	// PageShift is log2 of PageSize. Pages and frames are the same size.
	PageShift = memphy.FrameShift
	// PageSize is the size of a virtual page in bytes
	PageSize = memphy.FrameSize
	// BusWidth is the width of a virtual address in bits
	BusWidth = 22
	// MaxPages is the length of every page table
	MaxPages = 1 << (BusWidth - PageShift)
	// MaxVirtualSize is the largest address space a process may have
	MaxVirtualSize = MaxPages * PageSize
)

// Page table entry layout (32 bits):
//
//	Bit 31: present (bound to a frame or a swap slot)
//	Bit 30: swapped (payload holds swap coordinates)
//	Bit 28: dirty
//	Frame payload:  bits 0-12 frame number
//	Swap payload:   bits 0-4 swap type, bits 5-25 swap offset
const (
	ptePresentMask uint32 = 1 << 31
	pteSwappedMask uint32 = 1 << 30
	pteDirtyMask   uint32 = 1 << 28

	pteFrameBits  = 13
	pteFrameMask  = uint32(1)<<pteFrameBits - 1
	pteSwpTypBits = 5
	pteSwpTypMask = uint32(1)<<pteSwpTypBits - 1
	pteSwpOffLo   = 5
	pteSwpOffBits = 21
	pteSwpOffMask = (uint32(1)<<pteSwpOffBits - 1) << pteSwpOffLo

	ptePayloadMask = pteFrameMask | pteSwpTypMask | pteSwpOffMask

	// MaxFrames is the number of RAM frames a frame payload can address
	MaxFrames = 1 << pteFrameBits
	// MaxSwapDevices is the number of swap types a swap payload can address
	MaxSwapDevices = 1 << pteSwpTypBits
	// MaxSwapFrames is the number of slots a swap payload can address
	MaxSwapFrames = 1 << pteSwpOffBits
)

// PTE is one packed page table entry
type PTE uint32

// InitPTE builds an entry from its fields. A present, non-swapped entry with
// frame 0 is rejected: callers always bind fresh pages through SetFrame.
// A fresh binding always starts clean, whatever dirty says.
func InitPTE(present bool, fpn uint32, dirty, swapped bool, swpType, swpOff uint32) (PTE, error) {
	if !present {
		return 0, nil
	}

	var pte PTE
	if !swapped {
		if fpn == 0 {
			return 0, errInvalidArgument("InitPTE", "present page needs a non-zero frame number")
		}
		if fpn > pteFrameMask {
			return 0, errInvalidArgument("InitPTE", fmt.Sprintf("frame %d does not fit the entry", fpn))
		}
		pte.SetFrame(fpn)
	} else {
		if swpType > pteSwpTypMask || swpOff > pteSwpOffMask>>pteSwpOffLo {
			return 0, errInvalidArgument("InitPTE", fmt.Sprintf("swap coordinates %d/%d do not fit the entry", swpType, swpOff))
		}
		pte.SetSwap(swpType, swpOff)
	}

	return pte, nil
}

// SetFrame binds the entry to a RAM frame. Swapped and dirty are cleared.
func (p *PTE) SetFrame(fpn uint32) {
	w := uint32(*p)
	w |= ptePresentMask
	w &^= pteSwappedMask | pteDirtyMask | ptePayloadMask
	w |= fpn & pteFrameMask
	*p = PTE(w)
}

// SetSwap binds the entry to a swap slot. Dirty is cleared.
func (p *PTE) SetSwap(swpType, swpOff uint32) {
	w := uint32(*p)
	w |= ptePresentMask | pteSwappedMask
	w &^= pteDirtyMask | ptePayloadMask
	w |= swpType & pteSwpTypMask
	w |= (swpOff << pteSwpOffLo) & pteSwpOffMask
	*p = PTE(w)
}

// MarkDirty records a write to a resident page
func (p *PTE) MarkDirty() {
	*p |= PTE(pteDirtyMask)
}

// Clear unbinds the entry
func (p *PTE) Clear() {
	*p = 0
}

func (p PTE) Present() bool { return uint32(p)&ptePresentMask != 0 }

func (p PTE) Swapped() bool { return uint32(p)&pteSwappedMask != 0 }

func (p PTE) Dirty() bool { return uint32(p)&pteDirtyMask != 0 }

// Frame returns the frame payload; meaningful only when !Swapped
func (p PTE) Frame() uint32 { return uint32(p) & pteFrameMask }

// SwapType returns the swap device index; meaningful only when Swapped
func (p PTE) SwapType() uint32 { return uint32(p) & pteSwpTypMask }

// SwapOffset returns the swap slot; meaningful only when Swapped
func (p PTE) SwapOffset() uint32 { return (uint32(p) & pteSwpOffMask) >> pteSwpOffLo }

// Resident reports whether the page currently lives in a RAM frame
func (p PTE) Resident() bool { return p.Present() && !p.Swapped() }

func (p PTE) String() string {
	switch {
	case !p.Present():
		return "unbound"
	case p.Swapped():
		return fmt.Sprintf("swap[%d:%d]", p.SwapType(), p.SwapOffset())
	case p.Dirty():
		return fmt.Sprintf("frame[%d]*", p.Frame())
	default:
		return fmt.Sprintf("frame[%d]", p.Frame())
	}
}

// PageNumber returns the virtual page number of addr
func PageNumber(addr uint32) uint32 {
	return addr >> PageShift
}

// PageOffset returns the offset of addr inside its page
func PageOffset(addr uint32) uint32 {
	return addr & (PageSize - 1)
}

// PhysAddr builds a physical byte address from a frame and an in-page offset
func PhysAddr(fpn, offset uint32) uint32 {
	return fpn<<PageShift | offset
}

// PageAlign rounds size up to the page granularity
func PageAlign(size uint32) uint32 {
	return (size + PageSize - 1) &^ (PageSize - 1)
}
