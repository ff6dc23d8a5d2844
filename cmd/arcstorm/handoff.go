package main

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/llxisdsh/arc"
)

// handoff is a FIFO of owned handles shared by all workers of a round. A
// worker that puts a handle gives up ownership; the worker that takes it
// becomes responsible for dropping it.
//
// It also holds at most one Weak kept back by a finishing worker, for the
// round's final checks.
type handoff struct {
	mu   sync.Mutex
	q    *queue.Queue
	last atomic.Pointer[arc.Weak[payload]]
}

func newHandoff() *handoff {
	return &handoff{q: queue.New()}
}

func (h *handoff) put(a *arc.Arc[payload]) {
	h.mu.Lock()
	h.q.Add(a)
	h.mu.Unlock()
}

func (h *handoff) take() (*arc.Arc[payload], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.q.Length() == 0 {
		return nil, false
	}
	return h.q.Remove().(*arc.Arc[payload]), true
}

// drain drops every queued handle and reports how many there were.
func (h *handoff) drain() int {
	n := 0
	for {
		a, ok := h.take()
		if !ok {
			return n
		}
		a.Drop()
		n++
	}
}

// keep takes ownership of wk if no Weak has been kept yet.
func (h *handoff) keep(wk *arc.Weak[payload]) bool {
	return h.last.CompareAndSwap(nil, wk)
}

// kept returns the kept Weak, if any, and hands its ownership to the caller.
func (h *handoff) kept() *arc.Weak[payload] {
	return h.last.Swap(nil)
}
