package arc

import (
	"sync/atomic"
	"testing"
)

// fatalTrip is panicked by the fatal stand-in installed by catchFatal.
type fatalTrip string

// catchFatal runs f with fatal replaced by a panic and returns the message
// fatal was called with, or "" if it was not called.
func catchFatal(t *testing.T, f func()) (msg string) {
	t.Helper()
	old := fatal
	fatal = func(m string) { panic(fatalTrip(m)) }
	defer func() {
		fatal = old
		if r := recover(); r != nil {
			trip, ok := r.(fatalTrip)
			if !ok {
				panic(r)
			}
			msg = string(trip)
		}
	}()
	f()
	return ""
}

// countFatal replaces fatal with a counter for the rest of the test, for
// checks that run fatal paths from several goroutines.
func countFatal(t *testing.T) *atomic.Int32 {
	t.Helper()
	var n atomic.Int32
	old := fatal
	fatal = func(string) { n.Add(1) }
	t.Cleanup(func() { fatal = old })
	return &n
}

// counted counts destructor runs.
type counted struct {
	name  string
	drops *atomic.Int32
}

func (c *counted) Drop() {
	c.drops.Add(1)
}

func newCounted(name string) (*Arc[counted], *atomic.Int32) {
	drops := new(atomic.Int32)
	return New(counted{name: name, drops: drops}), drops
}
