package arc

import (
	"github.com/llxisdsh/pb"
)

// Registry hands out at most one live value per key. It holds each value
// only through a Weak handle, so an entry vanishes once the last Arc
// obtained from the registry is dropped.
//
// It is zero-value usable and must not be copied after first use.
type Registry[K comparable, V any] struct {
	// Each entry owns one Weak; whoever removes or replaces an entry
	// drops it.
	m pb.MapOf[K, *Weak[V]]
}

// Acquire returns a handle to the live value for key, creating it with
// create if there is none. Concurrent calls for the same key agree on one
// value.
//
// create runs while the key's entry is locked; it must not use the same
// Registry.
func (r *Registry[K, V]) Acquire(key K, create func(K) V) *Arc[V] {
	var a *Arc[V]
	var stale *Weak[V]
	r.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Weak[V]]) (*pb.EntryOf[K, *Weak[V]], *Weak[V], bool) {
			if l != nil {
				if s, ok := l.Value.Upgrade(); ok {
					a = s
					return l, l.Value, true
				}
				// Destroyed value whose eviction has not run yet.
				stale = l.Value
			}
			var w *Weak[V]
			a, w = r.newEntry(key, create(key))
			return &pb.EntryOf[K, *Weak[V]]{Value: w}, w, false
		},
	)
	stale.Drop()
	return a
}

// newEntry builds a value whose destructor evicts it from the registry.
func (r *Registry[K, V]) newEntry(key K, v V) (*Arc[V], *Weak[V]) {
	var w *Weak[V]
	var own func(*V)
	a := NewFunc(v, func(p *V) {
		if own != nil {
			own(p)
		}
		r.evict(key, w)
	})
	own = dropperOf(a.Get())
	w = a.Downgrade()
	return a, w
}

// evict removes key if its entry still refers to w.
func (r *Registry[K, V]) evict(key K, w *Weak[V]) {
	var hit bool
	r.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Weak[V]]) (*pb.EntryOf[K, *Weak[V]], *Weak[V], bool) {
			if l != nil && l.Value == w {
				hit = true
				return nil, nil, true
			}
			return l, nil, false
		},
	)
	if hit {
		w.Drop()
	}
}

// Lookup returns a handle to the live value for key, if any. It never
// creates one.
func (r *Registry[K, V]) Lookup(key K) (*Arc[V], bool) {
	var a *Arc[V]
	// The entry's Weak is owned by the table; upgrading it under the key's
	// lock keeps Forget and evict from dropping it mid-upgrade.
	r.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Weak[V]]) (*pb.EntryOf[K, *Weak[V]], *Weak[V], bool) {
			if l == nil {
				return nil, nil, false
			}
			a, _ = l.Value.Upgrade()
			return l, l.Value, true
		},
	)
	return a, a != nil
}

// Forget removes key from the registry. Handles already handed out keep the
// value alive; later calls to Acquire create a new one.
func (r *Registry[K, V]) Forget(key K) {
	var w *Weak[V]
	r.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Weak[V]]) (*pb.EntryOf[K, *Weak[V]], *Weak[V], bool) {
			if l != nil {
				w = l.Value
				return nil, nil, true
			}
			return nil, nil, false
		},
	)
	w.Drop()
}

// Range calls f with a temporary handle for each live value. The handle is
// dropped when f returns; Clone it to keep the value. Range stops if f
// returns false.
//
// Values are pinned before f first runs, so f may use the Registry.
func (r *Registry[K, V]) Range(f func(key K, a *Arc[V]) bool) {
	type pinned struct {
		key K
		a   *Arc[V]
	}
	var keys []K
	r.m.Range(func(key K, _ *Weak[V]) bool {
		keys = append(keys, key)
		return true
	})
	var live []pinned
	for _, key := range keys {
		if a, ok := r.Lookup(key); ok {
			live = append(live, pinned{key, a})
		}
	}
	defer func() {
		for _, p := range live {
			p.a.Drop()
		}
	}()
	for _, p := range live {
		if !f(p.key, p.a) {
			return
		}
	}
}

// Len returns the number of entries, including values being destroyed
// whose eviction has not finished.
func (r *Registry[K, V]) Len() int {
	n := 0
	r.m.Range(func(K, *Weak[V]) bool {
		n++
		return true
	})
	return n
}
