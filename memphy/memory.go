package memphy

import (
	"fmt"
	"sync"
)

// Memory is an in-process byte array device. It serves as RAM and as the
// plain swap backend.
type Memory struct {
	storage []byte
	pool    *framePool
	mutex   sync.RWMutex // Protects storage only
}

// NewMemory creates a device of the given number of frames. A zero-frame
// device is valid: every GetFreeFrame on it fails with ErrNoFreeFrame.
func NewMemory(frames uint32) (*Memory, error) {
	if frames > maxDeviceFrames {
		return nil, fmt.Errorf("memory size must not exceed %d frames", maxDeviceFrames)
	}

	return &Memory{
		storage: make([]byte, int(frames)*FrameSize),
		pool:    newFramePool(frames),
	}, nil
}

// Read returns the byte at addr
func (m *Memory) Read(addr uint32) (byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if int(addr) >= len(m.storage) {
		return 0, fmt.Errorf("read %d: %w", addr, ErrAddressOutOfRange)
	}
	return m.storage[addr], nil
}

// Write stores b at addr
func (m *Memory) Write(addr uint32, b byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if int(addr) >= len(m.storage) {
		return fmt.Errorf("write %d: %w", addr, ErrAddressOutOfRange)
	}
	m.storage[addr] = b
	return nil
}

// ReadFrame copies frame fpn into buf
func (m *Memory) ReadFrame(fpn uint32, buf []byte) error {
	if err := checkFrameBuf(buf); err != nil {
		return err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	start := int(frameAddr(fpn))
	if start+FrameSize > len(m.storage) {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}
	copy(buf, m.storage[start:start+FrameSize])
	return nil
}

// WriteFrame overwrites frame fpn with data
func (m *Memory) WriteFrame(fpn uint32, data []byte) error {
	if err := checkFrameBuf(data); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	start := int(frameAddr(fpn))
	if start+FrameSize > len(m.storage) {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}
	copy(m.storage[start:start+FrameSize], data)
	return nil
}

// GetFreeFrame leases a free frame
func (m *Memory) GetFreeFrame() (uint32, error) {
	return m.pool.get()
}

// PutFreeFrame returns fpn to the pool
func (m *Memory) PutFreeFrame(fpn uint32) error {
	return m.pool.put(fpn)
}

// FrameCount returns the device size in frames
func (m *Memory) FrameCount() uint32 {
	return m.pool.total
}

// FreeFrames returns the number of unleased frames
func (m *Memory) FreeFrames() uint32 {
	return m.pool.free()
}
