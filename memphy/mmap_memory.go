//go:build linux || darwin || freebsd

package memphy

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// MmapMemory is a swap device backed by a memory-mapped file, so evicted
// pages survive in the page cache instead of the Go heap.
type MmapMemory struct {
	file     *os.File
	mmapData []byte
	pool     *framePool
	mutex    sync.RWMutex // Protects mmapData
}

// NewMmapMemory creates (or truncates) fileName to hold frames frames and maps it
func NewMmapMemory(fileName string, frames uint32) (*MmapMemory, error) {
	if frames == 0 {
		return nil, fmt.Errorf("memory size must be greater than 0 frames")
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create file %s: %w", fileName, err)
	}

	size := int(frames) * FrameSize
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size file: %w", err)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap %s: %w", fileName, err)
	}

	// Swap slots are touched in no particular order
	_ = unix.Madvise(data, unix.MADV_RANDOM)

	return &MmapMemory{
		file:     file,
		mmapData: data,
		pool:     newFramePool(frames),
	}, nil
}

// Read returns the byte at addr
func (mm *MmapMemory) Read(addr uint32) (byte, error) {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	if int(addr) >= len(mm.mmapData) {
		return 0, fmt.Errorf("read %d: %w", addr, ErrAddressOutOfRange)
	}
	return mm.mmapData[addr], nil
}

// Write stores b at addr
func (mm *MmapMemory) Write(addr uint32, b byte) error {
	mm.mutex.Lock()
	defer mm.mutex.Unlock()

	if int(addr) >= len(mm.mmapData) {
		return fmt.Errorf("write %d: %w", addr, ErrAddressOutOfRange)
	}
	mm.mmapData[addr] = b
	return nil
}

// ReadFrame copies frame fpn into buf
func (mm *MmapMemory) ReadFrame(fpn uint32, buf []byte) error {
	if err := checkFrameBuf(buf); err != nil {
		return err
	}

	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	start := int(frameAddr(fpn))
	if start+FrameSize > len(mm.mmapData) {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}
	copy(buf, mm.mmapData[start:start+FrameSize])
	return nil
}

// WriteFrame overwrites frame fpn with data
func (mm *MmapMemory) WriteFrame(fpn uint32, data []byte) error {
	if err := checkFrameBuf(data); err != nil {
		return err
	}

	mm.mutex.Lock()
	defer mm.mutex.Unlock()

	start := int(frameAddr(fpn))
	if start+FrameSize > len(mm.mmapData) {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}
	copy(mm.mmapData[start:start+FrameSize], data)
	return nil
}

// GetFreeFrame leases a free slot
func (mm *MmapMemory) GetFreeFrame() (uint32, error) {
	return mm.pool.get()
}

// PutFreeFrame returns fpn to the pool
func (mm *MmapMemory) PutFreeFrame(fpn uint32) error {
	return mm.pool.put(fpn)
}

// FrameCount returns the device size in frames
func (mm *MmapMemory) FrameCount() uint32 {
	return mm.pool.total
}

// FreeFrames returns the number of unleased slots
func (mm *MmapMemory) FreeFrames() uint32 {
	return mm.pool.free()
}

// Flush writes dirty mapped pages back to the file
func (mm *MmapMemory) Flush() error {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	if mm.mmapData == nil {
		return nil
	}

	if err := unix.Msync(mm.mmapData, unix.MS_SYNC); err != nil {
		return fmt.Errorf("failed to msync: %w", err)
	}
	return nil
}

// Close unmaps the file and closes it
func (mm *MmapMemory) Close() error {
	mm.mutex.Lock()
	defer mm.mutex.Unlock()

	if mm.mmapData != nil {
		if err := unix.Munmap(mm.mmapData); err != nil {
			return fmt.Errorf("failed to munmap: %w", err)
		}
		mm.mmapData = nil
	}

	if mm.file != nil {
		err := mm.file.Close()
		mm.file = nil
		return err
	}
	return nil
}
