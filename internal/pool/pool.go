// Package pool implements a work-stealing scheduler for parse jobs. Workers
// each own a bounded ring buffer and an overflow queue; externally submitted
// batches land on a shared injection queue. A single packed coordination word
// drives the idle/wake/spawn/shutdown state machine, so the pool takes no
// locks on the scheduling hot path.
package pool

import (
	"sync/atomic"
)

// Config controls pool construction.
type Config struct {
	// MaxWorkers bounds the number of workers. Workers are spawned lazily as
	// notifications arrive, never ahead of demand. New clamps the value to
	// [1, MaxWorkers].
	MaxWorkers uint32
}

// Pool schedules batches of tasks across a bounded set of workers.
//
// Lifecycle: New, any number of Schedule calls, exactly one Shutdown, then
// exactly one Join. Schedule remains safe after Shutdown but execution of
// late work is not guaranteed.
type Pool struct {
	maxWorkers uint32
	sync       atomic.Uint32 // packed syncWord
	injected   taskQueue
	workers    atomic.Pointer[Worker] // registration LIFO
	idleEvent  event
	joinEvent  event
}

// Worker is the execution context handed to task callbacks. Scheduling
// through it targets the worker's own buffer, which is the fast path for
// tasks that fan out into subtasks.
type Worker struct {
	pool   *Pool
	next   *Worker
	target *Worker // rotating steal victim
	buffer ringBuffer
	queue  taskQueue
	join   event
}

// New constructs a pool. No workers are spawned until work arrives.
func New(cfg Config) *Pool {
	max := cfg.MaxWorkers
	if max < 1 {
		max = 1
	}
	if max > MaxWorkers {
		max = MaxWorkers
	}
	p := &Pool{maxWorkers: max}
	p.idleEvent.init()
	p.joinEvent.init()
	return p
}

// Schedule enqueues a batch from outside the pool. Safe from any goroutine;
// returns promptly.
func (p *Pool) Schedule(batch Batch) {
	if batch.Empty() {
		return
	}
	p.injected.push(batch)
	p.notify(false)
}

// Schedule enqueues a batch from within a running task. The batch lands in
// the worker's own ring buffer; on overflow, the older half of the buffer
// migrates to the worker's overflow queue together with the remainder.
func (w *Worker) Schedule(batch Batch) {
	if batch.Empty() {
		return
	}
	if overflow := w.buffer.push(&batch); !overflow.Empty() {
		w.queue.push(overflow)
	}
	w.pool.notify(false)
}

// Shutdown announces termination. Tasks already picked up run to completion;
// tasks still queued may never run. Idempotent after the first transition.
func (p *Pool) Shutdown() {
	for {
		v := p.sync.Load()
		s := unpackSync(v)
		if s.state == stateShutdown {
			break
		}
		n := s
		n.state = stateShutdown
		n.notified = true
		n.idle = 0
		if p.sync.CompareAndSwap(v, n.pack()) {
			break
		}
	}
	p.idleEvent.shutdown()
}

// Join blocks until every worker has exited. Must be called exactly once,
// after Shutdown.
func (p *Pool) Join() {
	// The last exiting worker posts to joinEvent. Consume that signal unless
	// no worker was ever spawned; checking spawned alone would race with a
	// worker that has already decremented it but not yet parked.
	if p.workers.Load() != nil || unpackSync(p.sync.Load()).spawned > 0 {
		p.joinEvent.wait()
	}

	// Tear workers down one at a time: waking the most recent registrant
	// starts a cascade where each worker forwards the signal to the next
	// link before exiting, and the last one reports back.
	if head := p.workers.Load(); head != nil {
		head.join.notify()
		p.joinEvent.wait()
		p.workers.Store(nil)
	}
}

// notify publishes that work is available. isWaking is set when the caller
// holds the waking token and is handing it off.
func (p *Pool) notify(isWaking bool) {
	for {
		v := p.sync.Load()
		s := unpackSync(v)
		if s.state == stateShutdown {
			return
		}
		canWake := isWaking || s.state == statePending

		n := s
		n.notified = true
		switch {
		case canWake && s.idle > 0:
			n.state = stateSignaled
		case canWake && s.spawned < p.maxWorkers:
			n.state = stateSignaled
			n.spawned++
		case isWaking:
			n.state = statePending
		case s.notified:
			return
		}

		if p.sync.CompareAndSwap(v, n.pack()) {
			switch {
			case canWake && s.idle > 0:
				p.idleEvent.notify()
			case canWake && s.spawned < p.maxWorkers:
				p.spawn()
			}
			return
		}
	}
}

func (p *Pool) spawn() {
	w := &Worker{pool: p}
	w.join.init()
	go w.run()
}

// wait parks the caller until work is signaled. Returns the caller's new
// waking status, or shutdown=true when the pool is terminating.
func (p *Pool) wait(isWaking bool) (waking bool, shutdown bool) {
	isIdle := false
	for {
		v := p.sync.Load()
		s := unpackSync(v)
		if s.state == stateShutdown {
			return false, true
		}

		if s.notified {
			n := s
			n.notified = false
			if isIdle {
				n.idle--
			}
			if s.state == stateSignaled {
				n.state = stateWaking
			}
			if p.sync.CompareAndSwap(v, n.pack()) {
				return isWaking || s.state == stateSignaled, false
			}
			continue
		}

		if !isIdle {
			n := s
			n.idle++
			if isWaking {
				n.state = statePending
			}
			if p.sync.CompareAndSwap(v, n.pack()) {
				isWaking = false
				isIdle = true
			}
			continue
		}

		p.idleEvent.wait()
	}
}

func (p *Pool) register(w *Worker) {
	for {
		head := p.workers.Load()
		w.next = head
		if p.workers.CompareAndSwap(head, w) {
			return
		}
	}
}

// unregister reverses the spawned count and, once the pool is shutting down
// and this was the last worker, wakes Join. The worker then blocks until the
// teardown cascade reaches it and forwards the signal down the LIFO.
func (p *Pool) unregister(w *Worker) {
	for {
		v := p.sync.Load()
		s := unpackSync(v)
		n := s
		n.spawned--
		if p.sync.CompareAndSwap(v, n.pack()) {
			if s.state == stateShutdown && s.spawned == 1 {
				p.joinEvent.notify()
			}
			break
		}
	}

	w.join.wait()
	if next := w.next; next != nil {
		next.join.notify()
	} else {
		p.joinEvent.notify()
	}
}

func (w *Worker) run() {
	p := w.pool
	p.register(w)
	defer p.unregister(w)

	isWaking := false
	for {
		var shutdown bool
		isWaking, shutdown = p.wait(isWaking)
		if shutdown {
			return
		}
		for {
			task, pushed := w.pop()
			if task == nil {
				break
			}
			// Hand the waking token off (or re-publish freshly buffered
			// work) exactly once before running the task.
			if pushed || isWaking {
				p.notify(isWaking)
				isWaking = false
			}
			task.Callback(w, task)
		}
	}
}

// pop finds the next task: own buffer, own overflow queue, injection queue,
// then stealing from peers via the rotating target. pushed reports that the
// pop also shifted extra work into the local buffer, which obliges the
// caller to notify.
func (w *Worker) pop() (task *Task, pushed bool) {
	if t := w.buffer.pop(); t != nil {
		return t, false
	}
	if t, moved := w.buffer.consume(&w.queue); t != nil {
		return t, moved
	}
	if t, moved := w.buffer.consume(&w.pool.injected); t != nil {
		return t, moved
	}

	peers := unpackSync(w.pool.sync.Load()).spawned
	for i := uint32(0); i < peers; i++ {
		target := w.target
		if target == nil {
			target = w.pool.workers.Load()
			if target == nil {
				break
			}
		}
		w.target = target.next

		if t, moved := w.buffer.consume(&target.queue); t != nil {
			return t, moved
		}
		if target != w {
			if t, moved := w.buffer.steal(&target.buffer); t != nil {
				return t, moved
			}
		}
	}
	return nil, false
}
