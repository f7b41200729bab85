package vmm

import (
	"fmt"
	"io"
	"strings"
)

// DumpPageTable writes the entries of pages covering [start, end), one per
// line as "<entry byte offset>: <raw word>". end 0 means the end of the
// default data segment.
func (as *AddressSpace) DumpPageTable(w io.Writer, start, end uint32) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if end == 0 {
		end = as.vmas[0].End
	}
	if end > MaxVirtualSize {
		end = MaxVirtualSize
	}

	if _, err := fmt.Fprintf(w, "page table [%d, %d)\n", start, end); err != nil {
		return err
	}

	first, last := PageNumber(start), PageNumber(PageAlign(end))
	for pgn := first; pgn < last; pgn++ {
		if _, err := fmt.Fprintf(w, "%08d: %08x\n", pgn*4, uint32(as.pgd[pgn])); err != nil {
			return err
		}
	}
	return nil
}

// DumpRegions writes every live region of the symbol table
func (as *AddressSpace) DumpRegions(w io.Writer) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	var err error
	as.symtab.Each(func(rgid int, r Region) {
		if err == nil {
			_, err = fmt.Fprintf(w, "rgid %d: [%d -> %d) vma %d\n", rgid, r.Start, r.End, r.VMA)
		}
	})
	return err
}

// DumpVMAs writes every segment with its free list
func (as *AddressSpace) DumpVMAs(w io.Writer) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	for _, v := range as.vmas {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
		for _, r := range v.freeList.Regions() {
			if _, err := fmt.Fprintf(w, "  free [%d -> %d)\n", r.Start, r.End); err != nil {
				return err
			}
		}
	}
	return nil
}

// DumpFIFO writes the mapped pages, oldest first
func (as *AddressSpace) DumpFIFO(w io.Writer) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	pages := as.fifo.Pages()
	parts := make([]string, len(pages))
	for i, pgn := range pages {
		parts[i] = fmt.Sprint(pgn)
	}

	_, err := fmt.Fprintf(w, "fifo: [%s]\n", strings.Join(parts, " "))
	return err
}
