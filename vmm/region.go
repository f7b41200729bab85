package vmm

import "fmt"

// Region is a virtual interval [Start, End). In the symbol table it is a
// live allocation owned by VMA; in a free list it is reclaimable space.
type Region struct {
	Start uint32
	End   uint32
	VMA   int
}

// Size returns the length of the interval
func (r Region) Size() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the interval holds no bytes (a freed slot)
func (r Region) Empty() bool {
	return r.Start == r.End
}

// Overlaps reports whether two intervals share at least one byte
func (r Region) Overlaps(o Region) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("rg[%d->%d)", r.Start, r.End)
}

// FreeList holds the reclaimable intervals of one VMA. New entries go to the
// head, lookups are first-fit from the head, and neighbours are never merged.
type FreeList struct {
	regions []Region
}

// Push prepends r. Intervals with Start >= End are rejected.
func (fl *FreeList) Push(r Region) error {
	if r.Start >= r.End {
		return errInvalidArgument("FreeList.Push", fmt.Sprintf("empty interval %s", r))
	}

	fl.regions = append(fl.regions, Region{})
	copy(fl.regions[1:], fl.regions)
	fl.regions[0] = r
	return nil
}

// Carve takes the first interval of at least size bytes and returns its
// prefix. The remainder stays in place; an exact fit removes the entry.
func (fl *FreeList) Carve(size uint32) (Region, bool) {
	for i, r := range fl.regions {
		if r.Size() < size {
			continue
		}

		carved := Region{Start: r.Start, End: r.Start + size, VMA: r.VMA}
		if r.End > carved.End {
			fl.regions[i].Start = carved.End
		} else {
			fl.regions = append(fl.regions[:i], fl.regions[i+1:]...)
		}
		return carved, true
	}

	return Region{}, false
}

// Regions returns a copy of the list, head first
func (fl *FreeList) Regions() []Region {
	out := make([]Region, len(fl.regions))
	copy(out, fl.regions)
	return out
}

// Len returns the number of free intervals
func (fl *FreeList) Len() int {
	return len(fl.regions)
}
