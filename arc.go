package arc

// Arc is an owning, atomically reference-counted handle to a value of type T.
//
// Every Arc is independent: Clone returns a new handle that must be dropped
// on its own, and copying an Arc struct does not create a counted reference.
// Handles may be passed between goroutines freely.
//
// Usage:
//
//	a := arc.New(conn)
//	b := a.Clone()
//	go func() {
//		defer b.Drop()
//		use(b.Get())
//	}()
//	a.Drop()
//
// The value is destroyed (see Dropper) when the last Arc is dropped,
// regardless of how many Weak handles remain.
type Arc[T any] struct {
	// weak is the handle's seat in the total count.
	weak Weak[T]
}

// New returns the sole handle to value. If T or *T implements Dropper, its
// Drop method runs when the last Arc is dropped.
func New[T any](value T) *Arc[T] {
	c := newCtrl(value, nil)
	c.drop = dropperOf(&c.value)
	return wrap(c)
}

// NewFunc is like New but runs drop instead of any Dropper implementation.
// drop may be nil.
func NewFunc[T any](value T, drop func(*T)) *Arc[T] {
	return wrap(newCtrl(value, drop))
}

// wrap makes a handle for references already counted on c.
func wrap[T any](c *ctrl[T]) *Arc[T] {
	a := &Arc[T]{}
	a.weak.c.Store(c)
	return a
}

func (a *Arc[T]) ctrl() *ctrl[T] {
	return a.weak.c.Load()
}

// Get returns a pointer to the shared value. It stays valid while a is
// alive. Writes through it race with readers holding other handles; use
// GetMut to mutate.
func (a *Arc[T]) Get() *T {
	return &a.ctrl().value
}

// Clone returns a new handle to the same value.
//
// The process is terminated if the handle count approaches overflow.
func (a *Arc[T]) Clone() *Arc[T] {
	c := a.ctrl()
	c.retainTotal()
	c.retainStrong()
	return wrap(c)
}

// Drop releases the handle. The goroutine that drops the last Arc runs the
// value's destructor; the one that drops the last handle of either kind
// retires the control block.
//
// Drop is idempotent: dropping a handle twice releases it once. A nil Arc
// is ignored.
func (a *Arc[T]) Drop() {
	if a == nil {
		return
	}
	c := a.weak.c.Swap(nil)
	if c == nil {
		return
	}
	c.releaseStrong()
	c.releaseTotal()
}

// GetMut returns a pointer for exclusive mutation when a is the only handle
// of either kind. A live Weak blocks it, since the Weak could be upgraded
// concurrently. It never blocks or retries.
//
// The pointer must not be used after a is cloned or downgraded.
func (a *Arc[T]) GetMut() (*T, bool) {
	c := a.ctrl()
	if c.total.Load() != 1 {
		return nil, false
	}
	return &c.value, true
}

// Downgrade returns a new Weak handle observing the same value.
func (a *Arc[T]) Downgrade() *Weak[T] {
	c := a.ctrl()
	c.retainTotal()
	return newWeak(c)
}

// TryUnwrap takes the value out of a when a is the only handle of either
// kind. On success a is consumed, the destructor does not run and the
// block is retired. Otherwise a is left untouched.
func (a *Arc[T]) TryUnwrap() (T, bool) {
	var zero T
	c := a.ctrl()
	if c == nil || c.total.Load() != 1 {
		return zero, false
	}
	// Lost to a concurrent Drop of this same handle.
	if !a.weak.c.CompareAndSwap(c, nil) {
		return zero, false
	}
	v := c.value
	c.clear()
	c.strong.Store(0)
	c.total.Store(0)
	c.release()
	return v, true
}

// StrongCount returns a snapshot of the number of Arc handles. It is
// advisory only and must not be used for synchronization.
func (a *Arc[T]) StrongCount() int {
	return a.weak.StrongCount()
}

// WeakCount returns a snapshot of the number of Weak handles.
func (a *Arc[T]) WeakCount() int {
	return a.weak.WeakCount()
}

// Same reports whether a and b refer to the same value.
func (a *Arc[T]) Same(b *Arc[T]) bool {
	return a.ctrl() == b.ctrl()
}
