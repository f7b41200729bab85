package vmm

import (
	"testing"
)

func BenchmarkResidentRead(b *testing.B) {
	as, _, _ := newTestSpace(b, 16, 16)
	if _, err := as.AllocRegion(DefaultVMA, 0, 4*PageSize); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := as.Read(0, uint32(i)%(4*PageSize)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFaultWithEviction(b *testing.B) {
	as, _, _ := newTestSpace(b, 4, 64, lazyMapping)
	if _, err := as.AllocRegion(DefaultVMA, 0, 32*PageSize); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// stride one page so every access misses
		off := uint32(i%32) * PageSize
		if err := as.Write(0, off, byte(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAllocFree(b *testing.B) {
	as, _, _ := newTestSpace(b, 64, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := as.AllocRegion(DefaultVMA, 0, 100); err != nil {
			b.Fatal(err)
		}
		if err := as.FreeRegion(0); err != nil {
			b.Fatal(err)
		}
	}
}
