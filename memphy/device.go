// Package memphy models the physical memory devices a simulated machine
// exposes to its memory manager: a RAM store and one or more swap stores.
// Every device is frame addressable and keeps its own pool of free frames.
package memphy

import (
	"errors"
	"fmt"
)

const (
	// FrameShift is log2 of FrameSize.
	FrameShift = 8
	// FrameSize is the size of one frame (and one virtual page) in bytes.
	FrameSize = 1 << FrameShift

	// maxDeviceFrames keeps every byte address inside a uint32
	maxDeviceFrames = 1 << (32 - FrameShift)
)

var (
	// ErrNoFreeFrame is returned by GetFreeFrame when the pool is empty.
	ErrNoFreeFrame = errors.New("no free frame")
	// ErrAddressOutOfRange is returned for byte or frame accesses past the device end.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrFrameNotInUse is returned when a frame that is already free is released again.
	ErrFrameNotInUse = errors.New("frame is not in use")
)

// Device is a frame-addressable byte store. RAM and swap share it.
type Device interface {
	// Read returns the byte at addr
	Read(addr uint32) (byte, error)

	// Write stores b at addr
	Write(addr uint32, b byte) error

	// GetFreeFrame leases a free frame, or returns ErrNoFreeFrame
	GetFreeFrame() (uint32, error)

	// PutFreeFrame returns a leased frame to the pool
	PutFreeFrame(fpn uint32) error

	// FrameCount returns the total number of frames
	FrameCount() uint32

	// FreeFrames returns the number of frames currently in the pool
	FreeFrames() uint32
}

// FrameIO is implemented by devices that can move a whole frame at once.
type FrameIO interface {
	ReadFrame(fpn uint32, buf []byte) error
	WriteFrame(fpn uint32, data []byte) error
}

// frameAddr returns the byte address of the first cell of fpn.
func frameAddr(fpn uint32) uint32 {
	return fpn << FrameShift
}

func checkFrameBuf(buf []byte) error {
	if len(buf) != FrameSize {
		return fmt.Errorf("frame data must be exactly %d bytes, got %d", FrameSize, len(buf))
	}
	return nil
}
