package vmm

import "testing"

func TestRegionBasics(t *testing.T) {
	r := Region{Start: 100, End: 200}

	if r.Size() != 100 {
		t.Errorf("Expected size 100, got %d", r.Size())
	}
	if r.Empty() {
		t.Error("Region should not be empty")
	}
	if !(Region{}).Empty() {
		t.Error("Zero region should be empty")
	}

	overlapTests := []struct {
		other Region
		want  bool
	}{
		{Region{Start: 0, End: 100}, false},
		{Region{Start: 0, End: 101}, true},
		{Region{Start: 150, End: 160}, true},
		{Region{Start: 199, End: 300}, true},
		{Region{Start: 200, End: 300}, false},
	}
	for _, tt := range overlapTests {
		if got := r.Overlaps(tt.other); got != tt.want {
			t.Errorf("%s.Overlaps(%s) = %v, want %v", r, tt.other, got, tt.want)
		}
	}
}

func TestFreeListPushPrepends(t *testing.T) {
	var fl FreeList

	fl.Push(Region{Start: 0, End: 10})
	fl.Push(Region{Start: 50, End: 60})

	regions := fl.Regions()
	if len(regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(regions))
	}
	if regions[0].Start != 50 {
		t.Errorf("Newest region should be at the head, got %s", regions[0])
	}

	if err := fl.Push(Region{Start: 5, End: 5}); err == nil {
		t.Error("Expected empty interval to be rejected")
	}
	if err := fl.Push(Region{Start: 9, End: 5}); err == nil {
		t.Error("Expected inverted interval to be rejected")
	}
}

func TestFreeListCarveFirstFit(t *testing.T) {
	var fl FreeList
	fl.Push(Region{Start: 0, End: 100})   // large, pushed first
	fl.Push(Region{Start: 300, End: 320}) // small, at the head

	// first fit from the head, not best fit
	r, ok := fl.Carve(10)
	if !ok {
		t.Fatal("Expected carve to succeed")
	}
	if r.Start != 300 || r.End != 310 {
		t.Errorf("Expected [300, 310), got %s", r)
	}

	regions := fl.Regions()
	if regions[0].Start != 310 || regions[0].End != 320 {
		t.Errorf("Remainder should stay in place, got %s", regions[0])
	}

	// 30 bytes only fit the second entry
	r, ok = fl.Carve(30)
	if !ok || r.Start != 0 || r.End != 30 {
		t.Errorf("Expected [0, 30), got %s (ok=%v)", r, ok)
	}

	// exact fit removes the entry
	r, ok = fl.Carve(10)
	if !ok || r.Start != 310 {
		t.Errorf("Expected [310, 320), got %s", r)
	}
	if fl.Len() != 1 {
		t.Errorf("Expected 1 region left, got %d", fl.Len())
	}

	if _, ok := fl.Carve(1000); ok {
		t.Error("Expected carve larger than any entry to fail")
	}
}

func TestFreeListNoCoalescing(t *testing.T) {
	var fl FreeList
	fl.Push(Region{Start: 0, End: 100})
	fl.Push(Region{Start: 100, End: 200})

	if _, ok := fl.Carve(150); ok {
		t.Error("Adjacent free regions must not be merged")
	}
	if fl.Len() != 2 {
		t.Errorf("Expected 2 regions, got %d", fl.Len())
	}
}

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable(4)

	if st.Cap() != 4 {
		t.Errorf("Expected capacity 4, got %d", st.Cap())
	}

	if _, err := st.Get(0); !IsErrorCode(err, ErrCodeInvalidRegionID) {
		t.Errorf("Expected InvalidRegionID for empty slot, got %v", err)
	}
	if _, err := st.Get(4); !IsErrorCode(err, ErrCodeInvalidRegionID) {
		t.Errorf("Expected InvalidRegionID for out of range slot, got %v", err)
	}
	if err := st.Set(-1, Region{Start: 0, End: 1}); !IsErrorCode(err, ErrCodeInvalidRegionID) {
		t.Errorf("Expected InvalidRegionID for negative slot, got %v", err)
	}

	st.Set(2, Region{Start: 10, End: 20})
	st.Set(1, Region{Start: 0, End: 5})

	r, err := st.Get(2)
	if err != nil || r.Start != 10 {
		t.Errorf("Expected [10, 20), got %s (%v)", r, err)
	}
	if !st.Live(2) || st.Live(3) {
		t.Error("Unexpected liveness")
	}

	var ids []int
	st.Each(func(rgid int, r Region) { ids = append(ids, rgid) })
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("Expected live ids [1 2], got %v", ids)
	}

	st.Clear(2)
	if st.Live(2) {
		t.Error("Cleared slot should not be live")
	}
}
