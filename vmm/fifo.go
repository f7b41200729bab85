package vmm

import "container/list"

// FIFOQueue orders resident pages by the time they were mapped, oldest
// first. Accesses never reorder it.
type FIFOQueue struct {
	order *list.List               // front is the oldest mapping
	index map[uint32]*list.Element // pgn -> element in order
}

// NewFIFOQueue creates an empty queue
func NewFIFOQueue() *FIFOQueue {
	return &FIFOQueue{
		order: list.New(),
		index: make(map[uint32]*list.Element),
	}
}

// Push appends pgn as the newest mapping. A page already queued keeps its
// place.
func (q *FIFOQueue) Push(pgn uint32) {
	if _, exists := q.index[pgn]; exists {
		return
	}
	q.index[pgn] = q.order.PushBack(pgn)
}

// PushFront reinstates pgn as the oldest mapping
func (q *FIFOQueue) PushFront(pgn uint32) {
	if elem, exists := q.index[pgn]; exists {
		q.order.MoveToFront(elem)
		return
	}
	q.index[pgn] = q.order.PushFront(pgn)
}

// Oldest returns the page mapped first, without removing it
func (q *FIFOQueue) Oldest() (uint32, bool) {
	front := q.order.Front()
	if front == nil {
		return 0, false
	}
	return front.Value.(uint32), true
}

// Pop removes and returns the page mapped first
func (q *FIFOQueue) Pop() (uint32, bool) {
	front := q.order.Front()
	if front == nil {
		return 0, false
	}

	pgn := q.order.Remove(front).(uint32)
	delete(q.index, pgn)
	return pgn, true
}

// Remove drops pgn wherever it sits in the queue
func (q *FIFOQueue) Remove(pgn uint32) bool {
	elem, exists := q.index[pgn]
	if !exists {
		return false
	}

	q.order.Remove(elem)
	delete(q.index, pgn)
	return true
}

// Len returns the number of queued pages
func (q *FIFOQueue) Len() int {
	return q.order.Len()
}

// Pages returns the queue contents, oldest first
func (q *FIFOQueue) Pages() []uint32 {
	out := make([]uint32, 0, q.order.Len())
	for e := q.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(uint32))
	}
	return out
}

// Reset empties the queue
func (q *FIFOQueue) Reset() {
	q.order.Init()
	q.index = make(map[uint32]*list.Element)
}
