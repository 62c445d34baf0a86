package uthreads

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// tidNodePool recycles readyQueue nodes instead of letting the allocator
// and GC churn on every Enqueue/Dequeue pair.
var tidNodePool = sync.Pool{New: func() any { return new(tidNode) }}

type tidNode struct {
	tid  int
	next unsafe.Pointer // *tidNode
}

// readyQueue is the READY set: a Michael & Scott lock-free FIFO queue of
// thread ids.
//
// theory -> https://www.cs.rochester.edu/u/scott/papers/1996_PODC_queues.pdf
type readyQueue struct {
	head unsafe.Pointer
	tail unsafe.Pointer
}

// newReadyQueue returns an empty READY queue.
func newReadyQueue() *readyQueue {
	n := tidNodePool.Get().(*tidNode)
	n.tid, n.next = 0, nil
	ptr := unsafe.Pointer(n)
	return &readyQueue{head: ptr, tail: ptr}
}

// Enqueue appends tid to the tail of READY.
func (q *readyQueue) Enqueue(tid int) {
	n := tidNodePool.Get().(*tidNode)
	n.tid, n.next = tid, nil
	for {
		tail := loadTidNode(&q.tail)
		next := loadTidNode(&tail.next)
		if tail == loadTidNode(&q.tail) {
			if next == nil {
				if casTidNode(&tail.next, next, n) {
					casTidNode(&q.tail, tail, n)
					return
				}
			} else {
				casTidNode(&q.tail, tail, next)
			}
		}
	}
}

// Dequeue removes and returns the tid at the head of READY.
func (q *readyQueue) Dequeue() (tid int, ok bool) {
	for {
		head := loadTidNode(&q.head)
		tail := loadTidNode(&q.tail)
		next := loadTidNode(&head.next)
		if head == loadTidNode(&q.head) {
			if head == tail {
				if next == nil {
					return 0, false
				}
				casTidNode(&q.tail, tail, next)
			} else {
				tid = next.tid
				if casTidNode(&q.head, head, next) {
					head.tid, head.next = 0, nil
					tidNodePool.Put(head)
					return tid, true
				}
			}
		}
	}
}

// Remove drops every occurrence of tid from READY, wherever it sits
// in the FIFO order -- Block and Terminate both need to pull an arbitrary,
// not-necessarily-head tid out of READY, so this drains and rebuilds the
// queue around it. MaxThreadNum is small enough that the O(n) rebuild is
// cheap relative to a goroutine hand-off.
func (q *readyQueue) Remove(tid int) (removed bool) {
	var kept []int
	for {
		t, ok := q.Dequeue()
		if !ok {
			break
		}
		if t == tid {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	for _, t := range kept {
		q.Enqueue(t)
	}
	return removed
}

func loadTidNode(p *unsafe.Pointer) *tidNode {
	return (*tidNode)(atomic.LoadPointer(p))
}

func casTidNode(p *unsafe.Pointer, old, new *tidNode) bool {
	return atomic.CompareAndSwapPointer(p, unsafe.Pointer(old), unsafe.Pointer(new))
}
