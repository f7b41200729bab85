package vmm

import "log/slog"

// Process is the process-facing view of an address space. Every call works
// on the default data segment.
type Process struct {
	PID uint32

	mm     *AddressSpace
	logger *slog.Logger
	onExit func(*Process)
}

// AddressSpace returns the process's address space
func (p *Process) AddressSpace() *AddressSpace {
	return p.mm
}

// Alloc binds rgid to a new region of size bytes and returns its start
func (p *Process) Alloc(size uint32, rgid int) (uint32, error) {
	return p.mm.AllocRegion(DefaultVMA, rgid, size)
}

// Free releases region rgid
func (p *Process) Free(rgid int) error {
	return p.mm.FreeRegion(rgid)
}

// Read returns the byte at offset inside region rgid
func (p *Process) Read(rgid int, offset uint32) (byte, error) {
	return p.mm.Read(rgid, offset)
}

// Write stores v at offset inside region rgid
func (p *Process) Write(rgid int, offset uint32, v byte) error {
	return p.mm.Write(rgid, offset, v)
}

// ReadString reads a NUL-terminated string from region rgid
func (p *Process) ReadString(rgid int) (string, error) {
	return p.mm.ReadString(rgid)
}

// WriteString stores s and a terminating NUL in region rgid
func (p *Process) WriteString(rgid int, s string) error {
	return p.mm.WriteString(rgid, s)
}

// Exit releases every frame and swap slot the process holds
func (p *Process) Exit() error {
	if p.mm.Reclaimed() {
		return nil
	}

	err := p.mm.Reclaim()
	if p.onExit != nil {
		p.onExit(p)
	}

	if err != nil {
		p.logger.Error("process exit failed to release memory", "error", err)
		return err
	}
	p.logger.Info("process exited")
	return nil
}
