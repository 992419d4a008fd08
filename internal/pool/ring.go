package pool

import (
	"runtime"
	"sync/atomic"
)

// bufferCapacity is the fixed size of every worker's ring buffer. It is a
// power of two so index masking replaces modulo.
const bufferCapacity = 256

// ringBuffer is a bounded queue of tasks owned by one worker. The owner
// appends at tail; the owner and stealers remove at head via CAS. head and
// tail are modular counters, so tail-head is the size at every observable
// point and stays within [0, bufferCapacity].
type ringBuffer struct {
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [bufferCapacity]atomic.Pointer[Task]
}

func (b *ringBuffer) size() uint32 {
	return b.tail.Load() - b.head.Load()
}

// push enqueues as much of batch as fits. Owner only. When the buffer fills
// it claims the older half and returns it, linked ahead of whatever remains
// of the batch, for migration to the overflow queue.
func (b *ringBuffer) push(batch *Batch) (overflow Batch) {
	head := b.head.Load()
	tail := b.tail.Load()
	for {
		if batch.Empty() {
			return Batch{}
		}
		size := tail - head
		if size < bufferCapacity {
			for size < bufferCapacity {
				t := batch.pop()
				if t == nil {
					break
				}
				b.slots[tail%bufferCapacity].Store(t)
				tail++
				size++
			}
			b.tail.Store(tail)
			if batch.Empty() {
				return Batch{}
			}
			head = b.head.Load()
			continue
		}

		migrate := size / 2
		if !b.head.CompareAndSwap(head, head+migrate) {
			head = b.head.Load()
			continue
		}
		var list Batch
		for i := uint32(0); i < migrate; i++ {
			list.Push(b.slots[(head+i)%bufferCapacity].Load())
		}
		list.Extend(*batch)
		*batch = Batch{}
		return list
	}
}

// pop removes one task from the head. The head is shared with stealers, so
// even the owner commits with a CAS.
func (b *ringBuffer) pop() *Task {
	head := b.head.Load()
	tail := b.tail.Load()
	for tail != head {
		if b.head.CompareAndSwap(head, head+1) {
			return b.slots[head%bufferCapacity].Load()
		}
		head = b.head.Load()
	}
	return nil
}

// steal moves roughly half of the victim's buffer into b (the caller's own,
// assumed empty enough) and returns the first stolen task. pushed reports
// whether any tasks beyond the returned one landed in b.
func (b *ringBuffer) steal(victim *ringBuffer) (first *Task, pushed bool) {
	for {
		vhead := victim.head.Load()
		vtail := victim.tail.Load()
		size := vtail - vhead
		if size > bufferCapacity {
			// Torn read of a moving buffer; sizes are modular. Yield before
			// rereading instead of spinning on the victim's cache line.
			runtime.Gosched()
			continue
		}
		take := size - size/2
		if take == 0 {
			return nil, false
		}

		tail := b.tail.Load()
		first = victim.slots[vhead%bufferCapacity].Load()
		for i := uint32(1); i < take; i++ {
			t := victim.slots[(vhead+i)%bufferCapacity].Load()
			b.slots[(tail+i-1)%bufferCapacity].Store(t)
		}
		if !victim.head.CompareAndSwap(vhead, vhead+take) {
			continue
		}
		if take > 1 {
			b.tail.Store(tail + take - 1)
			pushed = true
		}
		return first, pushed
	}
}

// consume drains the queue into the buffer, up to its free capacity, and
// returns one task for immediate execution. first is nil when the queue was
// empty or another consumer holds it; pushed reports whether the buffer
// gained tasks.
func (b *ringBuffer) consume(q *taskQueue) (first *Task, pushed bool) {
	c, ok := q.tryAcquire()
	if !ok {
		return nil, false
	}

	head := b.head.Load()
	tail := b.tail.Load()
	free := bufferCapacity - (tail - head)
	var n uint32
	for n < free {
		t := c.pop()
		if t == nil {
			break
		}
		b.slots[(tail+n)%bufferCapacity].Store(t)
		n++
	}

	first = c.pop()
	if first == nil && n > 0 {
		n--
		first = b.slots[(tail+n)%bufferCapacity].Load()
	}
	if n > 0 {
		b.tail.Store(tail + n)
		pushed = true
	}
	c.release()
	return first, pushed
}
