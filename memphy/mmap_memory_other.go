//go:build !(linux || darwin || freebsd)

package memphy

import (
	"errors"
)

// MmapMemory is only available on platforms with mmap(2).
type MmapMemory struct {
	Memory
}

// NewMmapMemory always fails on this platform
func NewMmapMemory(fileName string, frames uint32) (*MmapMemory, error) {
	return nil, errors.New("mmap swap backend is not supported on this platform")
}

// Flush is a no-op
func (mm *MmapMemory) Flush() error { return nil }

// Close is a no-op
func (mm *MmapMemory) Close() error { return nil }
