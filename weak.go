package arc

import "sync/atomic"

// Weak is a non-owning handle to a value shared through Arc. Holding a Weak
// keeps the control block alive but not the value; use Upgrade to get at
// the value while it still exists.
//
// The zero Weak observes nothing: Upgrade fails and Drop is a no-op.
type Weak[T any] struct {
	_ noCopy
	c atomic.Pointer[ctrl[T]]
}

func newWeak[T any](c *ctrl[T]) *Weak[T] {
	w := &Weak[T]{}
	w.c.Store(c)
	return w
}

// Clone returns a new Weak observing the same value. Cloning a dropped or
// zero Weak returns a zero Weak.
func (w *Weak[T]) Clone() *Weak[T] {
	c := w.c.Load()
	if c == nil {
		return &Weak[T]{}
	}
	c.retainTotal()
	return newWeak(c)
}

// Drop releases the handle. It never destroys the value; if it was the last
// handle of either kind, the control block is retired.
//
// Drop is idempotent. A nil Weak is ignored.
func (w *Weak[T]) Drop() {
	if w == nil {
		return
	}
	if c := w.c.Swap(nil); c != nil {
		c.releaseTotal()
	}
}

// Upgrade returns a new Arc if the value has not been destroyed. A false
// result is final: the value can never come back.
//
// Upgrade does not block. It retries only while other goroutines change the
// strong count concurrently.
func (w *Weak[T]) Upgrade() (*Arc[T], bool) {
	c := w.c.Load()
	if c == nil || !c.tryRetainStrong() {
		return nil, false
	}
	// The new Arc carries its own seat in the total count.
	c.retainTotal()
	return wrap(c), true
}

// Expired reports whether the value has been destroyed.
func (w *Weak[T]) Expired() bool {
	return w.StrongCount() == 0
}

// StrongCount returns a snapshot of the number of Arc handles.
func (w *Weak[T]) StrongCount() int {
	c := w.c.Load()
	if c == nil {
		return 0
	}
	return int(c.strong.Load())
}

// WeakCount returns a snapshot of the number of Weak handles, not counting
// the seats embedded in Arc handles.
func (w *Weak[T]) WeakCount() int {
	c := w.c.Load()
	if c == nil {
		return 0
	}
	strong := c.strong.Load()
	n := c.total.Load() - strong
	if n < 0 {
		return 0
	}
	return int(n)
}

// Same reports whether w and o observe the same value.
func (w *Weak[T]) Same(o *Weak[T]) bool {
	return w.c.Load() == o.c.Load()
}
