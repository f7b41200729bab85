package vmm

// SymbolTable maps small integer region ids to live regions. Capacity is
// fixed at creation; every access is bounds checked.
type SymbolTable struct {
	slots []Region
}

// NewSymbolTable creates a table with capacity slots
func NewSymbolTable(capacity int) *SymbolTable {
	return &SymbolTable{slots: make([]Region, capacity)}
}

// Cap returns the number of slots
func (st *SymbolTable) Cap() int {
	return len(st.slots)
}

func (st *SymbolTable) inRange(rgid int) bool {
	return rgid >= 0 && rgid < len(st.slots)
}

// Get returns the region bound to rgid. Out-of-range and empty slots fail.
func (st *SymbolTable) Get(rgid int) (Region, error) {
	if !st.inRange(rgid) || st.slots[rgid].Empty() {
		return Region{}, errInvalidRegionID("SymbolTable.Get", rgid)
	}
	return st.slots[rgid], nil
}

// Live reports whether rgid holds an allocation
func (st *SymbolTable) Live(rgid int) bool {
	return st.inRange(rgid) && !st.slots[rgid].Empty()
}

// Set binds rgid to r
func (st *SymbolTable) Set(rgid int, r Region) error {
	if !st.inRange(rgid) {
		return errInvalidRegionID("SymbolTable.Set", rgid)
	}
	st.slots[rgid] = r
	return nil
}

// Clear marks rgid as freed
func (st *SymbolTable) Clear(rgid int) error {
	if !st.inRange(rgid) {
		return errInvalidRegionID("SymbolTable.Clear", rgid)
	}
	st.slots[rgid] = Region{}
	return nil
}

// Each calls fn for every live slot in id order
func (st *SymbolTable) Each(fn func(rgid int, r Region)) {
	for id, r := range st.slots {
		if !r.Empty() {
			fn(id, r)
		}
	}
}
