package vmm

import "math"

// AllocRegion binds rgid to a new region of size bytes inside VMA vmaID and
// returns its start address. Free space is reused first fit; otherwise the
// VMA grows by whole pages and the unused tail goes to its free list. On
// failure the address space is left as it was.
func (as *AddressSpace) AllocRegion(vmaID, rgid int, size uint32) (uint32, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	start, err := as.allocRegion(vmaID, rgid, size)
	if err != nil {
		as.metrics.RecordAllocationFailure()
		as.logger.Debug("allocation failed", "vma", vmaID, "rgid", rgid, "size", size, "error", err)
		return 0, err
	}

	as.metrics.RecordAllocation()
	as.logger.Debug("region allocated", "vma", vmaID, "rgid", rgid, "size", size, "start", start)
	return start, nil
}

func (as *AddressSpace) allocRegion(vmaID, rgid int, size uint32) (uint32, error) {
	const op = "AllocRegion"

	if as.reclaimed {
		return 0, errReclaimed(op)
	}
	if size == 0 {
		return 0, errInvalidArgument(op, "size must be greater than 0")
	}
	if rgid < 0 || rgid >= as.symtab.Cap() {
		return 0, errInvalidRegionID(op, rgid)
	}
	if as.symtab.Live(rgid) {
		return 0, errRegionInUse(op, rgid)
	}

	vma, err := as.findVMA(vmaID)
	if err != nil {
		return 0, err
	}

	if rg, ok := vma.freeList.Carve(size); ok {
		if rg.Size() < size {
			return 0, NewVMError(ErrCodeAllocationTooSmall, op, "carved region is smaller than requested", nil)
		}
		if err := as.symtab.Set(rgid, rg); err != nil {
			return 0, err
		}
		return rg.Start, nil
	}

	return as.growAndAlloc(vma, rgid, size)
}

// growAndAlloc extends vma at its break by size rounded up to whole pages
func (as *AddressSpace) growAndAlloc(vma *VMA, rgid int, size uint32) (uint32, error) {
	const op = "AllocRegion"

	if size > math.MaxUint32-PageSize {
		return 0, errCeiling(op, math.MaxUint32, as.ceiling)
	}
	aligned := PageAlign(size)

	start := vma.Brk
	end := start + aligned
	if end < start || end > as.ceiling {
		return 0, errCeiling(op, end, as.ceiling)
	}
	if err := as.checkOverlap(op, vma.ID, start, end); err != nil {
		return 0, err
	}

	oldBrk, oldEnd := vma.Brk, vma.End
	vma.Brk = end
	if end > vma.End {
		vma.End = end
	}

	if !as.lazy {
		if err := as.mapRange(PageNumber(start), PageNumber(end)); err != nil {
			vma.Brk, vma.End = oldBrk, oldEnd
			return 0, err
		}
	}

	rg := Region{Start: start, End: start + size, VMA: vma.ID}
	if aligned > size {
		// Push cannot fail: the tail is non-empty
		_ = vma.freeList.Push(Region{Start: rg.End, End: end, VMA: vma.ID})
	}
	if err := as.symtab.Set(rgid, rg); err != nil {
		return 0, err
	}

	as.metrics.RecordVMAGrowth()
	return start, nil
}

// FreeRegion returns rgid's interval to the head of its VMA's free list.
// Neighbouring free intervals are never merged.
func (as *AddressSpace) FreeRegion(rgid int) error {
	const op = "FreeRegion"

	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return errReclaimed(op)
	}
	if !as.symtab.Live(rgid) {
		return errInvalidRegionID(op, rgid)
	}

	rg, _ := as.symtab.Get(rgid)
	vma, err := as.findVMA(rg.VMA)
	if err != nil {
		return err
	}
	if err := vma.freeList.Push(rg); err != nil {
		return err
	}
	if err := as.symtab.Clear(rgid); err != nil {
		return err
	}

	as.metrics.RecordFree()
	as.logger.Debug("region freed", "rgid", rgid, "start", rg.Start, "end", rg.End)
	return nil
}
