package memphy

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

// TestMemoryReadWrite tests byte access round trips
func TestMemoryReadWrite(t *testing.T) {
	mem, err := NewMemory(4)
	if err != nil {
		t.Fatalf("Failed to create memory: %v", err)
	}

	if err := mem.Write(300, 0x7A); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	b, err := mem.Read(300)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if b != 0x7A {
		t.Errorf("Expected 0x7A, got %#x", b)
	}

	if _, err := mem.Read(4 * FrameSize); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
	if err := mem.Write(4*FrameSize, 1); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
}

// TestMemoryZeroFrames tests that an empty device is valid but never leases a frame
func TestMemoryZeroFrames(t *testing.T) {
	mem, err := NewMemory(0)
	if err != nil {
		t.Fatalf("NewMemory(0) failed: %v", err)
	}

	if _, err := mem.GetFreeFrame(); !errors.Is(err, ErrNoFreeFrame) {
		t.Errorf("Expected ErrNoFreeFrame, got %v", err)
	}

	if _, err := mem.Read(0); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
}

// TestFramePoolOrder tests that frames are leased lowest first and recycled at the back
func TestFramePoolOrder(t *testing.T) {
	mem, _ := NewMemory(3)

	for want := uint32(0); want < 3; want++ {
		fpn, err := mem.GetFreeFrame()
		if err != nil {
			t.Fatalf("GetFreeFrame failed: %v", err)
		}
		if fpn != want {
			t.Errorf("Expected frame %d, got %d", want, fpn)
		}
	}

	if _, err := mem.GetFreeFrame(); !errors.Is(err, ErrNoFreeFrame) {
		t.Fatalf("Expected ErrNoFreeFrame, got %v", err)
	}

	if err := mem.PutFreeFrame(1); err != nil {
		t.Fatalf("PutFreeFrame failed: %v", err)
	}
	if mem.FreeFrames() != 1 {
		t.Errorf("Expected 1 free frame, got %d", mem.FreeFrames())
	}

	fpn, err := mem.GetFreeFrame()
	if err != nil || fpn != 1 {
		t.Errorf("Expected frame 1, got %d (%v)", fpn, err)
	}
}

func TestFramePoolDoubleFree(t *testing.T) {
	mem, _ := NewMemory(2)

	if err := mem.PutFreeFrame(0); !errors.Is(err, ErrFrameNotInUse) {
		t.Errorf("Expected ErrFrameNotInUse for never-leased frame, got %v", err)
	}

	fpn, _ := mem.GetFreeFrame()
	if err := mem.PutFreeFrame(fpn); err != nil {
		t.Fatalf("PutFreeFrame failed: %v", err)
	}
	if err := mem.PutFreeFrame(fpn); !errors.Is(err, ErrFrameNotInUse) {
		t.Errorf("Expected ErrFrameNotInUse on double free, got %v", err)
	}
	if err := mem.PutFreeFrame(9); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
}

func TestMemoryFrameIO(t *testing.T) {
	mem, _ := NewMemory(2)

	data := make([]byte, FrameSize)
	for i := range data {
		data[i] = byte(i)
	}

	if err := mem.WriteFrame(1, data); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	b, _ := mem.Read(FrameSize + 5)
	if b != 5 {
		t.Errorf("Expected byte 5, got %d", b)
	}

	buf := make([]byte, FrameSize)
	if err := mem.ReadFrame(1, buf); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Error("Frame contents mismatch")
	}

	if err := mem.ReadFrame(2, buf); !errors.Is(err, ErrAddressOutOfRange) {
		t.Errorf("Expected ErrAddressOutOfRange, got %v", err)
	}
	if err := mem.WriteFrame(0, data[:10]); err == nil {
		t.Error("Expected error for short frame")
	}
}

// TestFramePoolConcurrent tests that concurrent leases never hand out the same frame
func TestFramePoolConcurrent(t *testing.T) {
	const frames = 64
	mem, _ := NewMemory(frames)

	var mu sync.Mutex
	seen := make(map[uint32]bool)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				fpn, err := mem.GetFreeFrame()
				if err != nil {
					return
				}
				mu.Lock()
				if seen[fpn] {
					t.Errorf("Frame %d leased twice", fpn)
				}
				seen[fpn] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != frames {
		t.Errorf("Expected %d leased frames, got %d", frames, len(seen))
	}
}

func TestDump(t *testing.T) {
	mem, _ := NewMemory(1)
	mem.Write(3, 0xAB)

	var sb strings.Builder
	if err := Dump(&sb, mem); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "00000003: ab") {
		t.Errorf("Dump missing cell, got:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("Expected header plus one cell, got:\n%s", out)
	}
}
