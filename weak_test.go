package arc

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestWeakZero(t *testing.T) {
	var w Weak[int]
	_, ok := w.Upgrade()
	assert.That(t, !ok)
	assert.That(t, w.Expired())
	assert.Equal(t, w.StrongCount(), 0)
	assert.Equal(t, w.WeakCount(), 0)

	c := w.Clone()
	_, ok = c.Upgrade()
	assert.That(t, !ok)
	c.Drop()
	w.Drop()

	var nilWeak *Weak[int]
	nilWeak.Drop()
}

func TestWeakCloneUpgrade(t *testing.T) {
	a, drops := newCounted("v")
	w1 := a.Downgrade()
	w2 := w1.Clone()
	assert.That(t, w1.Same(w2))
	assert.Equal(t, a.WeakCount(), 2)
	assert.Equal(t, w1.StrongCount(), 1)

	b, ok := w2.Upgrade()
	assert.That(t, ok)
	assert.That(t, a.Same(b))
	assert.Equal(t, b.Get().name, "v")
	assert.Equal(t, a.StrongCount(), 2)
	assert.Equal(t, a.ctrl().total.Load(), int64(4))

	a.Drop()
	b.Drop()
	assert.Equal(t, drops.Load(), int32(1))
	assert.That(t, w1.Expired())

	_, ok = w1.Upgrade()
	assert.That(t, !ok)
	_, ok = w2.Upgrade()
	assert.That(t, !ok)
}

func TestWeakKeepsBlock(t *testing.T) {
	a, drops := newCounted("v")
	c := a.ctrl()
	w := a.Downgrade()
	a.Drop()

	assert.Equal(t, drops.Load(), int32(1))
	assert.That(t, !c.released.Load())
	assert.Equal(t, w.WeakCount(), 1)

	w2 := w.Clone()
	w.Drop()
	assert.That(t, !c.released.Load())
	w2.Drop()
	assert.That(t, c.released.Load())
	assert.Equal(t, drops.Load(), int32(1))
}

func TestWeakDropIdempotent(t *testing.T) {
	a := New(1)
	w := a.Downgrade()
	w.Drop()
	w.Drop()
	assert.Equal(t, a.ctrl().total.Load(), int64(1))
	_, ok := w.Upgrade()
	assert.That(t, !ok)
	_, ok = a.GetMut()
	assert.That(t, ok)
	a.Drop()
}
