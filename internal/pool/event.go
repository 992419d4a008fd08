package pool

import (
	"sync"
	"sync/atomic"
)

// event states. empty -> waiting -> notified is the normal cycle; shutdown
// absorbs every state and is never left.
const (
	eventEmpty uint32 = iota
	eventWaiting
	eventNotified
	eventShutdown
)

// event parks workers until a wake arrives. The state word carries the
// hand-off; the mutex and condition variable are only the parking primitive
// (the Go stand-in for a futex), so a notify that lands before the sleeper
// reaches the condition variable is never lost.
type event struct {
	state atomic.Uint32
	mu    sync.Mutex
	cond  sync.Cond
}

func (e *event) init() {
	e.cond.L = &e.mu
}

// wait blocks until a notify or shutdown is observed. Consuming a notify
// re-arms the word: the first waiter resets it to empty, a waiter that was
// already parked resets it to waiting so that a pending notify still reaches
// sleepers that have not woken yet.
func (e *event) wait() {
	acquireWith := eventEmpty
	for {
		switch e.state.Load() {
		case eventShutdown:
			return
		case eventNotified:
			if e.state.CompareAndSwap(eventNotified, acquireWith) {
				return
			}
			continue
		case eventEmpty:
			if !e.state.CompareAndSwap(eventEmpty, eventWaiting) {
				continue
			}
		}

		e.mu.Lock()
		for e.state.Load() == eventWaiting {
			e.cond.Wait()
		}
		e.mu.Unlock()
		acquireWith = eventWaiting
	}
}

// notify wakes one parked waiter.
func (e *event) notify() {
	e.wake(eventNotified, false)
}

// shutdown moves the event to its terminal state and wakes every waiter.
func (e *event) shutdown() {
	e.wake(eventShutdown, true)
}

func (e *event) wake(to uint32, broadcast bool) {
	for {
		state := e.state.Load()
		if state == eventShutdown {
			return
		}
		if !e.state.CompareAndSwap(state, to) {
			continue
		}
		if state == eventWaiting {
			// Taking the lock orders the signal after any in-flight
			// sleeper's last state check.
			e.mu.Lock()
			if broadcast {
				e.cond.Broadcast()
			} else {
				e.cond.Signal()
			}
			e.mu.Unlock()
		}
		return
	}
}
