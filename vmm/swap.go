package vmm

import (
	"fmt"

	"github.com/sibexico/HexVM/memphy"
)

// CopyFrame copies one whole frame from src to dst. Devices that implement
// memphy.FrameIO move the frame in one call; others go byte by byte.
func CopyFrame(src memphy.Device, srcFpn uint32, dst memphy.Device, dstFpn uint32) error {
	buf := make([]byte, PageSize)

	if err := readFrame(src, srcFpn, buf); err != nil {
		return fmt.Errorf("copy frame %d: %w", srcFpn, err)
	}
	if err := writeFrame(dst, dstFpn, buf); err != nil {
		return fmt.Errorf("copy frame to %d: %w", dstFpn, err)
	}
	return nil
}

// zeroFrame clears a frame before it is handed to a new page
func zeroFrame(dev memphy.Device, fpn uint32) error {
	return writeFrame(dev, fpn, make([]byte, PageSize))
}

func readFrame(dev memphy.Device, fpn uint32, buf []byte) error {
	if fio, ok := dev.(memphy.FrameIO); ok {
		return fio.ReadFrame(fpn, buf)
	}

	for off := uint32(0); off < PageSize; off++ {
		b, err := dev.Read(PhysAddr(fpn, off))
		if err != nil {
			return err
		}
		buf[off] = b
	}
	return nil
}

func writeFrame(dev memphy.Device, fpn uint32, data []byte) error {
	if fio, ok := dev.(memphy.FrameIO); ok {
		return fio.WriteFrame(fpn, data)
	}

	for off := uint32(0); off < PageSize; off++ {
		if err := dev.Write(PhysAddr(fpn, off), data[off]); err != nil {
			return err
		}
	}
	return nil
}
