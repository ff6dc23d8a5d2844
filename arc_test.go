package arc

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/zeebo/assert"
)

func TestHandleSize(t *testing.T) {
	ptr := unsafe.Sizeof(uintptr(0))
	if size := unsafe.Sizeof(Arc[int]{}); size != ptr {
		t.Errorf("Arc size = %d, want %d", size, ptr)
	}
	if size := unsafe.Sizeof(Weak[int]{}); size != ptr {
		t.Errorf("Weak size = %d, want %d", size, ptr)
	}
}

type detectDrop struct {
	drops *atomic.Int32
}

func (d detectDrop) Drop() {
	d.drops.Add(1)
}

type greeting struct {
	text string
	d    detectDrop
}

func (g greeting) Drop() {
	g.d.Drop()
}

func TestArcWeakScenario(t *testing.T) {
	var drops atomic.Int32
	x := New(greeting{"hello", detectDrop{&drops}})
	y := x.Downgrade()
	z := x.Downgrade()
	c := x.ctrl()

	// The other goroutine reports back; assertions stay on the test goroutine.
	type upgraded struct {
		ok   bool
		text string
	}
	res := make(chan upgraded, 1)
	go func() {
		y2, ok := y.Upgrade()
		if !ok {
			res <- upgraded{}
			return
		}
		defer y2.Drop()
		res <- upgraded{ok: true, text: y2.Get().text}
	}()

	assert.Equal(t, x.Get().text, "hello")
	got := <-res
	assert.That(t, got.ok)
	assert.Equal(t, got.text, "hello")
	assert.Equal(t, drops.Load(), int32(0))

	x.Drop()
	assert.Equal(t, drops.Load(), int32(1))

	_, ok := z.Upgrade()
	assert.That(t, !ok)
	assert.That(t, !c.released.Load())

	y.Drop()
	z.Drop()
	assert.That(t, c.released.Load())
	assert.Equal(t, drops.Load(), int32(1))
}

func TestArcCloneDrop(t *testing.T) {
	a, drops := newCounted("a")
	c := a.ctrl()

	b := a.Clone()
	assert.That(t, a.Same(b))
	assert.Equal(t, a.StrongCount(), 2)
	assert.Equal(t, a.WeakCount(), 0)
	assert.Equal(t, c.total.Load(), int64(2))

	a.Drop()
	assert.Equal(t, drops.Load(), int32(0))
	assert.Equal(t, b.Get().name, "a")

	b.Drop()
	assert.Equal(t, drops.Load(), int32(1))
	assert.That(t, !c.present)
	assert.That(t, c.released.Load())
	assert.Equal(t, c.strong.Load(), int64(0))
	assert.Equal(t, c.total.Load(), int64(0))
}

func TestArcDropIdempotent(t *testing.T) {
	a, drops := newCounted("a")
	b := a.Clone()
	a.Drop()
	a.Drop()
	assert.Equal(t, b.StrongCount(), 1)
	assert.Equal(t, drops.Load(), int32(0))
	b.Drop()
	assert.Equal(t, drops.Load(), int32(1))

	var nilArc *Arc[int]
	nilArc.Drop()
}

func TestArcGetMut(t *testing.T) {
	a := New(10)

	p, ok := a.GetMut()
	assert.That(t, ok)
	*p = 11
	assert.Equal(t, *a.Get(), 11)

	b := a.Clone()
	_, ok = a.GetMut()
	assert.That(t, !ok)
	b.Drop()

	w := a.Downgrade()
	_, ok = a.GetMut()
	assert.That(t, !ok)
	w.Drop()

	p, ok = a.GetMut()
	assert.That(t, ok)
	*p = 12
	assert.Equal(t, *a.Get(), 12)
	a.Drop()
}

func TestArcTryUnwrap(t *testing.T) {
	a, drops := newCounted("x")
	b := a.Clone()
	_, ok := a.TryUnwrap()
	assert.That(t, !ok)
	assert.Equal(t, a.Get().name, "x")
	b.Drop()

	w := a.Downgrade()
	_, ok = a.TryUnwrap()
	assert.That(t, !ok)
	w.Drop()

	c := a.ctrl()
	v, ok := a.TryUnwrap()
	assert.That(t, ok)
	assert.Equal(t, v.name, "x")
	assert.Equal(t, drops.Load(), int32(0))
	assert.That(t, c.released.Load())
	assert.That(t, !c.present)

	// a is consumed.
	a.Drop()
	_, ok = a.TryUnwrap()
	assert.That(t, !ok)
	assert.Equal(t, drops.Load(), int32(0))
}

type valueDropper struct {
	drops *atomic.Int32
}

func (v valueDropper) Drop() { v.drops.Add(1) }

func TestArcDropperReceivers(t *testing.T) {
	var drops atomic.Int32
	New(valueDropper{&drops}).Drop()
	assert.Equal(t, drops.Load(), int32(1))

	a, ptrDrops := newCounted("ptr")
	a.Drop()
	assert.Equal(t, ptrDrops.Load(), int32(1))

	// No Dropper at all.
	New("plain").Drop()
	NewFunc(struct{}{}, nil).Drop()
}

func TestNewFunc(t *testing.T) {
	var got []int
	a := NewFunc([]int{1, 2, 3}, func(p *[]int) {
		got = append(got, *p...)
	})
	b := a.Clone()
	a.Drop()
	assert.Equal(t, len(got), 0)
	b.Drop()
	assert.DeepEqual(t, got, []int{1, 2, 3})
}

func TestArcNested(t *testing.T) {
	inner, drops := newCounted("inner")
	outer := New(inner.Clone())
	inner.Drop()
	assert.Equal(t, drops.Load(), int32(0))
	assert.Equal(t, (*outer.Get()).Get().name, "inner")

	outer.Drop()
	assert.Equal(t, drops.Load(), int32(1))
}

func TestArcClearsSlot(t *testing.T) {
	a := New(&struct{ buf []byte }{make([]byte, 16)})
	w := a.Downgrade()
	c := a.ctrl()
	a.Drop()
	assert.That(t, c.value == nil)
	assert.That(t, !c.present)
	assert.That(t, w.Expired())
	w.Drop()
}
