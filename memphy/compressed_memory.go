package memphy

import (
	"fmt"
	"sync"
)

// CompressedMemory is a swap device that keeps every slot compressed.
// A nil slot reads as a zero frame.
type CompressedMemory struct {
	slots       [][]byte
	compression CompressionType
	pool        *framePool
	stats       CompressionStats
	mutex       sync.RWMutex // Protects slots and stats
}

// NewCompressedMemory creates a compressed device of the given number of frames
func NewCompressedMemory(frames uint32, compression CompressionType) (*CompressedMemory, error) {
	if frames > maxDeviceFrames {
		return nil, fmt.Errorf("memory size must not exceed %d frames", maxDeviceFrames)
	}

	return &CompressedMemory{
		slots:       make([][]byte, frames),
		compression: compression,
		pool:        newFramePool(frames),
	}, nil
}

// load returns the decompressed contents of slot fpn. Caller holds the lock.
func (cm *CompressedMemory) load(fpn uint32) ([]byte, error) {
	if fpn >= uint32(len(cm.slots)) {
		return nil, fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}

	raw := cm.slots[fpn]
	if raw == nil {
		return make([]byte, FrameSize), nil
	}

	cf, err := UnmarshalCompressedFrame(raw)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", fpn, err)
	}
	return DecompressFrame(cf)
}

// store compresses data into slot fpn. Caller holds the lock.
func (cm *CompressedMemory) store(fpn uint32, data []byte) error {
	if fpn >= uint32(len(cm.slots)) {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}

	cf, err := CompressFrame(data, cm.compression)
	if err != nil {
		return fmt.Errorf("frame %d: %w", fpn, err)
	}

	cm.slots[fpn] = cf.Marshal()
	cm.stats.add(cf)
	return nil
}

// Read returns the byte at addr
func (cm *CompressedMemory) Read(addr uint32) (byte, error) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := cm.load(addr >> FrameShift)
	if err != nil {
		return 0, err
	}
	return data[addr&(FrameSize-1)], nil
}

// Write stores b at addr, recompressing the whole slot
func (cm *CompressedMemory) Write(addr uint32, b byte) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	fpn := addr >> FrameShift
	data, err := cm.load(fpn)
	if err != nil {
		return err
	}
	data[addr&(FrameSize-1)] = b
	return cm.store(fpn, data)
}

// ReadFrame decompresses slot fpn into buf
func (cm *CompressedMemory) ReadFrame(fpn uint32, buf []byte) error {
	if err := checkFrameBuf(buf); err != nil {
		return err
	}

	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := cm.load(fpn)
	if err != nil {
		return err
	}
	copy(buf, data)
	return nil
}

// WriteFrame compresses data into slot fpn
func (cm *CompressedMemory) WriteFrame(fpn uint32, data []byte) error {
	if err := checkFrameBuf(data); err != nil {
		return err
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	return cm.store(fpn, data)
}

// GetFreeFrame leases a free slot
func (cm *CompressedMemory) GetFreeFrame() (uint32, error) {
	return cm.pool.get()
}

// PutFreeFrame returns fpn to the pool and drops its contents. The slot
// lock is held across both steps so a new lessee cannot write the slot
// before it is cleared.
func (cm *CompressedMemory) PutFreeFrame(fpn uint32) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if err := cm.pool.put(fpn); err != nil {
		return err
	}
	cm.slots[fpn] = nil
	return nil
}

// FrameCount returns the device size in frames
func (cm *CompressedMemory) FrameCount() uint32 {
	return cm.pool.total
}

// FreeFrames returns the number of unleased slots
func (cm *CompressedMemory) FreeFrames() uint32 {
	return cm.pool.free()
}

// Compression returns the configured algorithm
func (cm *CompressedMemory) Compression() CompressionType {
	return cm.compression
}

// Stats returns a copy of the compression statistics
func (cm *CompressedMemory) Stats() CompressionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.stats
}
