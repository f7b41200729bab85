package memphy

import (
	"fmt"
	"sync"
)

// framePool is the free-frame list shared by every device implementation.
// Frames are handed out from the front and returned to the back.
type framePool struct {
	total    uint32
	freeList []uint32
	inUse    []bool
	mutex    sync.Mutex
}

func newFramePool(total uint32) *framePool {
	fp := &framePool{
		total:    total,
		freeList: make([]uint32, 0, total),
		inUse:    make([]bool, total),
	}

	for i := uint32(0); i < total; i++ {
		fp.freeList = append(fp.freeList, i)
	}

	return fp
}

func (fp *framePool) get() (uint32, error) {
	fp.mutex.Lock()
	defer fp.mutex.Unlock()

	if len(fp.freeList) == 0 {
		return 0, ErrNoFreeFrame
	}

	fpn := fp.freeList[0]
	fp.freeList = fp.freeList[1:]
	fp.inUse[fpn] = true
	return fpn, nil
}

func (fp *framePool) put(fpn uint32) error {
	if fpn >= fp.total {
		return fmt.Errorf("frame %d: %w", fpn, ErrAddressOutOfRange)
	}

	fp.mutex.Lock()
	defer fp.mutex.Unlock()

	if !fp.inUse[fpn] {
		return fmt.Errorf("frame %d: %w", fpn, ErrFrameNotInUse)
	}

	fp.inUse[fpn] = false
	fp.freeList = append(fp.freeList, fpn)
	return nil
}

func (fp *framePool) free() uint32 {
	fp.mutex.Lock()
	defer fp.mutex.Unlock()
	return uint32(len(fp.freeList))
}
