package vmm

import "fmt"

// Read returns the byte at offset inside region rgid, faulting its page in
// when needed.
func (as *AddressSpace) Read(rgid int, offset uint32) (byte, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.readByte("Read", rgid, offset)
}

// Write stores v at offset inside region rgid and marks the page dirty
func (as *AddressSpace) Write(rgid int, offset uint32, v byte) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.writeByte("Write", rgid, offset, v)
}

// ReadString reads bytes from the start of rgid up to a NUL or the region end
func (as *AddressSpace) ReadString(rgid int) (string, error) {
	const op = "ReadString"

	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return "", errReclaimed(op)
	}
	rg, err := as.symtab.Get(rgid)
	if err != nil {
		return "", errInvalidRegionID(op, rgid)
	}

	buf := make([]byte, 0, rg.Size())
	for off := uint32(0); off < rg.Size(); off++ {
		b, err := as.readByte(op, rgid, off)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// WriteString stores s followed by a NUL at the start of rgid. The whole
// string must fit; nothing is written otherwise.
func (as *AddressSpace) WriteString(rgid int, s string) error {
	const op = "WriteString"

	as.mu.Lock()
	defer as.mu.Unlock()

	if as.reclaimed {
		return errReclaimed(op)
	}
	rg, err := as.symtab.Get(rgid)
	if err != nil {
		return errInvalidRegionID(op, rgid)
	}
	if uint64(len(s))+1 > uint64(rg.Size()) {
		return errOutOfBounds(op, rgid, uint32(len(s)), rg.Size())
	}

	for i := 0; i < len(s); i++ {
		if err := as.writeByte(op, rgid, uint32(i), s[i]); err != nil {
			return err
		}
	}
	return as.writeByte(op, rgid, uint32(len(s)), 0)
}

// resolve turns (rgid, offset) into a virtual address. Caller holds as.mu.
func (as *AddressSpace) resolve(op string, rgid int, offset uint32) (uint32, error) {
	if as.reclaimed {
		return 0, errReclaimed(op)
	}

	rg, err := as.symtab.Get(rgid)
	if err != nil {
		return 0, errInvalidRegionID(op, rgid)
	}
	if as.strictBounds && offset >= rg.Size() {
		return 0, errOutOfBounds(op, rgid, offset, rg.Size())
	}

	addr := rg.Start + offset
	if addr < rg.Start {
		return 0, errInvalidAddress(op, addr)
	}
	return addr, nil
}

func (as *AddressSpace) readByte(op string, rgid int, offset uint32) (byte, error) {
	addr, err := as.resolve(op, rgid, offset)
	if err != nil {
		return 0, err
	}

	fpn, err := as.ensureResident(PageNumber(addr))
	if err != nil {
		return 0, err
	}

	b, err := as.ram.Read(PhysAddr(fpn, PageOffset(addr)))
	if err != nil {
		return 0, errDevice(op, fmt.Errorf("frame %d: %w", fpn, err))
	}

	as.metrics.RecordRead()
	return b, nil
}

func (as *AddressSpace) writeByte(op string, rgid int, offset uint32, v byte) error {
	addr, err := as.resolve(op, rgid, offset)
	if err != nil {
		return err
	}

	pgn := PageNumber(addr)
	fpn, err := as.ensureResident(pgn)
	if err != nil {
		return err
	}

	if err := as.ram.Write(PhysAddr(fpn, PageOffset(addr)), v); err != nil {
		return errDevice(op, fmt.Errorf("frame %d: %w", fpn, err))
	}
	as.pgd[pgn].MarkDirty()

	as.metrics.RecordWrite()
	return nil
}
