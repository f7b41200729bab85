package memphy

import (
	"fmt"
	"io"
)

// Dump writes every non-zero cell of dev as "address: value" lines.
func Dump(w io.Writer, dev Device) error {
	size := dev.FrameCount() * FrameSize

	if _, err := fmt.Fprintf(w, "memory dump: %d frames, %d free\n", dev.FrameCount(), dev.FreeFrames()); err != nil {
		return err
	}

	for addr := uint32(0); addr < size; addr++ {
		b, err := dev.Read(addr)
		if err != nil {
			return err
		}
		if b == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%08x: %02x\n", addr, b); err != nil {
			return err
		}
	}

	return nil
}
