package vmm

import "fmt"

// DefaultVMA is the data segment every address space starts with
const DefaultVMA = 0

// VMA is one growable segment of an address space. Invariant:
// Start <= Brk <= End, and no two VMAs of one address space overlap.
type VMA struct {
	ID    int
	Start uint32
	End   uint32
	Brk   uint32

	freeList FreeList
	mm       *AddressSpace
}

func newVMA(mm *AddressSpace, id int, start uint32) *VMA {
	return &VMA{
		ID:    id,
		Start: start,
		End:   start,
		Brk:   start,
		mm:    mm,
	}
}

// Extent returns [Start, End) as a region
func (v *VMA) Extent() Region {
	return Region{Start: v.Start, End: v.End, VMA: v.ID}
}

// Contains reports whether addr lies inside [Start, End)
func (v *VMA) Contains(addr uint32) bool {
	return addr >= v.Start && addr < v.End
}

// FreeRegions returns the free list, head first
func (v *VMA) FreeRegions() []Region {
	return v.freeList.Regions()
}

// AddressSpace returns the owner of v
func (v *VMA) AddressSpace() *AddressSpace {
	return v.mm
}

func (v *VMA) String() string {
	return fmt.Sprintf("vma %d [%d, %d) brk %d", v.ID, v.Start, v.End, v.Brk)
}

// FindVMA looks up a VMA by id
func (as *AddressSpace) FindVMA(id int) (*VMA, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.findVMA(id)
}

func (as *AddressSpace) findVMA(id int) (*VMA, error) {
	for _, v := range as.vmas {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, errInvalidVMAID("FindVMA", id)
}

// vmaForAddr returns the VMA whose extent holds addr, or nil
func (as *AddressSpace) vmaForAddr(addr uint32) *VMA {
	for _, v := range as.vmas {
		if v.Contains(addr) {
			return v
		}
	}
	return nil
}

// AddVMA opens a new empty segment at start with the next sequential id.
// start must be page aligned and must not fall inside another segment.
func (as *AddressSpace) AddVMA(start uint32) (*VMA, error) {
	const op = "AddVMA"

	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return nil, errReclaimed(op)
	}
	if PageOffset(start) != 0 {
		return nil, errInvalidArgument(op, fmt.Sprintf("start %d is not page aligned", start))
	}
	if start >= as.ceiling {
		return nil, errCeiling(op, start, as.ceiling)
	}

	id := len(as.vmas)
	if err := as.checkOverlap(op, id, start, start+1); err != nil {
		return nil, err
	}

	v := newVMA(as, id, start)
	as.vmas = append(as.vmas, v)
	as.logger.Debug("vma added", "vma", id, "start", start)
	return v, nil
}

// checkOverlap rejects [start, end) if it intersects any VMA other than
// vmaID. A sibling that is still empty occupies its start address.
func (as *AddressSpace) checkOverlap(op string, vmaID int, start, end uint32) error {
	want := Region{Start: start, End: end}
	for _, v := range as.vmas {
		if v.ID == vmaID {
			continue
		}
		if want.Overlaps(v.Extent()) || (v.Start >= start && v.Start < end) {
			return errOverlap(op, vmaID, v.ID)
		}
	}
	return nil
}
