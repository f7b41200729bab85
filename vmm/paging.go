package vmm

import (
	"errors"
	"time"

	"github.com/sibexico/HexVM/memphy"
)

// eviction records one page moved from RAM to swap
type eviction struct {
	victim  uint32
	prev    PTE // victim entry before it was swapped out
	fpn     uint32
	swpType uint32
	swpOff  uint32
}

// journalStep is either a bind (ev == nil) or an eviction
type journalStep struct {
	pgn    uint32
	fpn    uint32
	pooled bool // frame came straight from the RAM pool
	ev     *eviction
}

// pagingJournal records what a multi-page mapping did so a failure can put
// the page table, the FIFO and both pools back as they were.
type pagingJournal struct {
	steps []journalStep
}

func (j *pagingJournal) evicted(ev *eviction) {
	if j != nil && ev != nil {
		j.steps = append(j.steps, journalStep{ev: ev})
	}
}

func (j *pagingJournal) bound(pgn, fpn uint32, pooled bool) {
	if j != nil {
		j.steps = append(j.steps, journalStep{pgn: pgn, fpn: fpn, pooled: pooled})
	}
}

// EnsureResident makes pgn resident in RAM and returns its frame
func (as *AddressSpace) EnsureResident(pgn uint32) (uint32, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return 0, errReclaimed("EnsureResident")
	}
	return as.ensureResident(pgn)
}

// ensureResident is the fault handler. Caller holds as.mu.
func (as *AddressSpace) ensureResident(pgn uint32) (uint32, error) {
	const op = "EnsureResident"

	if pgn >= MaxPages {
		return 0, errInvalidAddress(op, pgn<<PageShift)
	}

	pte := as.pgd[pgn]
	if pte.Resident() {
		return pte.Frame(), nil
	}

	start := time.Now()
	defer func() {
		as.metrics.RecordFaultLatency(time.Since(start))
	}()

	if pte.Swapped() {
		return as.swapIn(pgn, pte)
	}

	if as.vmaForAddr(pgn<<PageShift) == nil {
		return 0, errInvalidAddress(op, pgn<<PageShift)
	}

	fpn, err := as.bindFresh(pgn, nil)
	if err != nil {
		return 0, err
	}
	as.metrics.RecordFirstTouch()
	as.logger.Debug("page fault", "pgn", pgn, "fpn", fpn, "kind", "first_touch")
	return fpn, nil
}

// bindFresh maps an unbound page to a zeroed frame and queues it
func (as *AddressSpace) bindFresh(pgn uint32, j *pagingJournal) (uint32, error) {
	fpn, ev, err := as.acquireFrame()
	if err != nil {
		return 0, err
	}
	j.evicted(ev)

	if err := zeroFrame(as.ram, fpn); err != nil {
		if j == nil || ev == nil {
			as.releaseFrame(fpn)
		}
		return 0, errDevice("bindFresh", err)
	}

	as.pgd[pgn].SetFrame(fpn)
	as.fifo.Push(pgn)
	j.bound(pgn, fpn, ev == nil)
	return fpn, nil
}

// swapIn copies a swapped page back into RAM and frees its slot
func (as *AddressSpace) swapIn(pgn uint32, pte PTE) (uint32, error) {
	const op = "swapIn"

	typ, off := pte.SwapType(), pte.SwapOffset()
	if int(typ) >= len(as.swaps) {
		return 0, errInternal(op, "entry names an unknown swap device")
	}
	swap := as.swaps[typ]

	fpn, _, err := as.acquireFrame()
	if err != nil {
		return 0, err
	}

	if err := CopyFrame(swap, off, as.ram, fpn); err != nil {
		as.releaseFrame(fpn)
		return 0, errDevice(op, err)
	}
	if err := swap.PutFreeFrame(off); err != nil {
		as.logger.Error("failed to release swap slot", "swap", typ, "slot", off, "error", err)
	}

	as.pgd[pgn].SetFrame(fpn)
	as.fifo.Push(pgn)

	as.metrics.RecordSwapIn()
	as.logger.Debug("page fault", "pgn", pgn, "fpn", fpn, "kind", "swap_in", "swap", typ, "slot", off)
	return fpn, nil
}

// acquireFrame leases a RAM frame, evicting the oldest page when the pool is
// empty. ev is non-nil when the frame was freed by an eviction.
func (as *AddressSpace) acquireFrame() (uint32, *eviction, error) {
	fpn, err := as.ram.GetFreeFrame()
	if err == nil {
		return fpn, nil, nil
	}
	if !errors.Is(err, memphy.ErrNoFreeFrame) {
		return 0, nil, errDevice("acquireFrame", err)
	}

	ev, err := as.evictOne()
	if err != nil {
		return 0, nil, err
	}
	return ev.fpn, ev, nil
}

// evictOne moves the oldest mapped page to the active swap device. When no
// swap slot is free nothing is changed.
func (as *AddressSpace) evictOne() (*eviction, error) {
	const op = "evictOne"

	victim, ok := as.fifo.Oldest()
	if !ok {
		as.logger.Warn("ram exhausted with nothing to evict")
		return nil, errFrameExhausted(op)
	}

	prev := as.pgd[victim]
	if !prev.Resident() {
		return nil, errInternal(op, "fifo holds a page that is not resident")
	}
	fpn := prev.Frame()

	swap := as.swaps[as.activeSwap]
	slot, err := swap.GetFreeFrame()
	if err != nil {
		if errors.Is(err, memphy.ErrNoFreeFrame) {
			as.logger.Warn("swap exhausted", "swap", as.activeSwap, "victim", victim)
			return nil, errSwapExhausted(op, as.activeSwap)
		}
		return nil, errDevice(op, err)
	}

	if err := CopyFrame(as.ram, fpn, swap, slot); err != nil {
		if perr := swap.PutFreeFrame(slot); perr != nil {
			as.logger.Error("failed to release swap slot", "swap", as.activeSwap, "slot", slot, "error", perr)
		}
		return nil, errDevice(op, err)
	}

	as.pgd[victim].SetSwap(as.activeSwap, slot)
	as.fifo.Pop()

	as.metrics.RecordEviction()
	as.logger.Debug("page evicted", "pgn", victim, "fpn", fpn, "swap", as.activeSwap, "slot", slot)

	return &eviction{
		victim:  victim,
		prev:    prev,
		fpn:     fpn,
		swpType: as.activeSwap,
		swpOff:  slot,
	}, nil
}

// mapRange binds pages [first, last) eagerly. On failure every step is
// undone, including evictions of pages that were already mapped.
func (as *AddressSpace) mapRange(first, last uint32) error {
	j := &pagingJournal{}

	for pgn := first; pgn < last; pgn++ {
		if as.pgd[pgn].Present() {
			continue
		}
		if _, err := as.bindFresh(pgn, j); err != nil {
			as.rollback(j)
			return err
		}
	}
	return nil
}

// rollback undoes a journal newest step first
func (as *AddressSpace) rollback(j *pagingJournal) {
	for i := len(j.steps) - 1; i >= 0; i-- {
		step := j.steps[i]

		if step.ev == nil {
			as.pgd[step.pgn].Clear()
			as.fifo.Remove(step.pgn)
			if step.pooled {
				as.releaseFrame(step.fpn)
			}
			continue
		}

		ev := step.ev
		swap := as.swaps[ev.swpType]
		if err := CopyFrame(swap, ev.swpOff, as.ram, ev.fpn); err != nil {
			as.logger.Error("failed to restore evicted page", "pgn", ev.victim, "error", err)
		}
		if err := swap.PutFreeFrame(ev.swpOff); err != nil {
			as.logger.Error("failed to release swap slot", "swap", ev.swpType, "slot", ev.swpOff, "error", err)
		}
		as.pgd[ev.victim] = ev.prev
		as.fifo.PushFront(ev.victim)
	}

	as.logger.Debug("mapping rolled back", "steps", len(j.steps))
}

func (as *AddressSpace) releaseFrame(fpn uint32) {
	if err := as.ram.PutFreeFrame(fpn); err != nil {
		as.logger.Error("failed to release frame", "fpn", fpn, "error", err)
	}
}

// Reclaim returns every frame and swap slot of the address space to its
// pool and resets the page table and FIFO. Later calls do nothing.
func (as *AddressSpace) Reclaim() error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return nil
	}

	var errs []error
	frames, slots := 0, 0

	for pgn, pte := range as.pgd {
		switch {
		case pte.Resident():
			if err := as.ram.PutFreeFrame(pte.Frame()); err != nil {
				errs = append(errs, err)
			}
			frames++
		case pte.Swapped():
			typ := pte.SwapType()
			if int(typ) < len(as.swaps) {
				if err := as.swaps[typ].PutFreeFrame(pte.SwapOffset()); err != nil {
					errs = append(errs, err)
				}
			}
			slots++
		}
		as.pgd[pgn].Clear()
	}

	as.fifo.Reset()
	as.reclaimed = true
	as.logger.Debug("address space reclaimed", "frames", frames, "swap_slots", slots)

	if len(errs) > 0 {
		return errDevice("Reclaim", errors.Join(errs...))
	}
	return nil
}
