package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/arc"
)

const payloadMagic = 0x5eed

// payload is the shared value of a round. Its destructor counts runs and
// catches a second destruction of the same value.
type payload struct {
	magic int
	drops *atomic.Int32
}

func (p *payload) Drop() {
	if p.magic != payloadMagic {
		panic("payload destroyed twice")
	}
	p.drops.Add(1)
}

// stats accumulates counts across rounds. Fields are updated atomically.
type stats struct {
	ops        atomic.Int64
	upgrades   atomic.Int64
	misses     atomic.Int64
	exclusive  atomic.Int64
	handedOff  atomic.Int64
	violations atomic.Int64
}

type op int

const (
	opClone op = iota
	opDrop
	opDowngrade
	opUpgrade
	opWeakClone
	opWeakDrop
	opGet
	opGetMut
	opPut
	opTake
	numOps
)

// ctxCheckEvery bounds how many operations a worker runs between
// cancellation checks.
const ctxCheckEvery = 1024

// worker owns the handles it holds; it must drop all of them before
// returning.
type worker struct {
	rng   *rand.Rand
	st    *stats
	box   *handoff
	arcs  []*arc.Arc[payload]
	weaks []*arc.Weak[payload]
}

// newWorker returns a worker seeded with one Arc and one Weak to root.
func newWorker(seed, stream uint64, st *stats, box *handoff, root *arc.Arc[payload]) *worker {
	return &worker{
		rng:   rand.New(rand.NewPCG(seed, stream)),
		st:    st,
		box:   box,
		arcs:  []*arc.Arc[payload]{root.Clone()},
		weaks: []*arc.Weak[payload]{root.Downgrade()},
	}
}

func (w *worker) violation(format string, args ...any) error {
	w.st.violations.Add(1)
	return fmt.Errorf(format, args...)
}

func (w *worker) step() error {
	return w.do(op(w.rng.IntN(int(numOps))))
}

func (w *worker) do(o op) error {
	switch o {
	case opClone:
		if a := w.pickArc(); a != nil {
			w.arcs = append(w.arcs, a.Clone())
		}
	case opDrop:
		if j := w.pick(len(w.arcs)); j >= 0 {
			w.arcs[j].Drop()
			w.arcs = remove(w.arcs, j)
		}
	case opDowngrade:
		if a := w.pickArc(); a != nil {
			w.weaks = append(w.weaks, a.Downgrade())
		}
	case opUpgrade:
		if j := w.pick(len(w.weaks)); j >= 0 {
			a, ok := w.weaks[j].Upgrade()
			if !ok {
				w.st.misses.Add(1)
				return nil
			}
			w.st.upgrades.Add(1)
			if a.Get().magic != payloadMagic {
				a.Drop()
				return w.violation("upgrade yielded a destroyed value")
			}
			w.arcs = append(w.arcs, a)
		}
	case opWeakClone:
		if j := w.pick(len(w.weaks)); j >= 0 {
			w.weaks = append(w.weaks, w.weaks[j].Clone())
		}
	case opWeakDrop:
		if j := w.pick(len(w.weaks)); j >= 0 {
			w.weaks[j].Drop()
			w.weaks = remove(w.weaks, j)
		}
	case opGet:
		if a := w.pickArc(); a != nil && a.Get().magic != payloadMagic {
			return w.violation("read a destroyed value")
		}
	case opGetMut:
		if a := w.pickArc(); a != nil {
			if _, ok := a.GetMut(); ok {
				w.st.exclusive.Add(1)
				if n := len(w.arcs) + len(w.weaks); n != 1 {
					return w.violation("exclusive access granted while this worker holds %d handles", n)
				}
			}
		}
	case opPut:
		if j := w.pick(len(w.arcs)); j >= 0 {
			w.box.put(w.arcs[j])
			w.arcs = remove(w.arcs, j)
			w.st.handedOff.Add(1)
		}
	case opTake:
		if a, ok := w.box.take(); ok {
			w.arcs = append(w.arcs, a)
		}
	}
	w.st.ops.Add(1)
	return nil
}

func (w *worker) pick(n int) int {
	if n == 0 {
		return -1
	}
	return w.rng.IntN(n)
}

func (w *worker) pickArc() *arc.Arc[payload] {
	if j := w.pick(len(w.arcs)); j >= 0 {
		return w.arcs[j]
	}
	return nil
}

func (w *worker) release() {
	for _, a := range w.arcs {
		a.Drop()
	}
	for _, wk := range w.weaks {
		if w.box.keep(wk) {
			continue
		}
		wk.Drop()
	}
	w.arcs, w.weaks = nil, nil
}

func remove[E any](s []E, i int) []E {
	s[i] = s[len(s)-1]
	return s[:len(s)-1]
}

// runRound builds one shared value, hands a strong and a weak handle to
// every worker, drops the constructing handle and lets the workers churn.
// Once all handles are gone it checks that the value was destroyed exactly
// once and, through the one Weak a finishing worker kept, that it can no
// longer be upgraded. No handle outlives the workers' own, so GetMut can
// succeed mid-round.
func runRound(ctx context.Context, cfg Config, round int, st *stats, log *slog.Logger) error {
	var drops atomic.Int32
	root := arc.New(payload{magic: payloadMagic, drops: &drops})
	box := newHandoff()

	g, ctx := errgroup.WithContext(ctx)
	start := make(chan struct{})
	for i := range cfg.Workers {
		w := newWorker(cfg.Seed, uint64(round)<<32|uint64(i), st, box, root)
		g.Go(func() error {
			defer w.release()
			<-start
			for n := range cfg.OpsPerWorker {
				if n%ctxCheckEvery == 0 && ctx.Err() != nil {
					return nil
				}
				if err := w.step(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	root.Drop()
	close(start)
	err := g.Wait()
	leftover := box.drain()
	probe := box.kept()
	defer probe.Drop()
	if err != nil {
		return fmt.Errorf("round %d: %w", round, err)
	}

	if d := drops.Load(); d != 1 {
		st.violations.Add(1)
		return fmt.Errorf("round %d: destructor ran %d times", round, d)
	}
	if probe == nil {
		log.Debug("no weak handle survived the round", "round", round)
		return nil
	}
	if _, ok := probe.Upgrade(); ok {
		st.violations.Add(1)
		return fmt.Errorf("round %d: upgrade succeeded after the last Arc was dropped", round)
	}
	if s, wk := probe.StrongCount(), probe.WeakCount(); s != 0 || wk != 1 {
		st.violations.Add(1)
		return fmt.Errorf("round %d: counts strong=%d weak=%d after drain", round, s, wk)
	}
	log.Debug("round done", "round", round, "leftover", leftover)
	return nil
}

// run executes cfg.Rounds rounds, reporting progress every cfg.Progress.
func run(ctx context.Context, cfg Config, log *slog.Logger) (*stats, error) {
	st := new(stats)
	began := time.Now()

	progressDone := make(chan struct{})
	stopProgress := make(chan struct{})
	go func() {
		defer close(progressDone)
		if cfg.Progress <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.Progress)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.Info("progress", "ops", st.ops.Load(), "upgrades", st.upgrades.Load(),
					"elapsed", time.Since(began).Round(time.Millisecond))
			case <-stopProgress:
				return
			}
		}
	}()
	defer func() {
		close(stopProgress)
		<-progressDone
	}()

	for round := range cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if err := runRound(ctx, cfg, round, st, log); err != nil {
			return st, err
		}
	}

	log.Info("storm complete",
		"rounds", cfg.Rounds,
		"ops", st.ops.Load(),
		"upgrades", st.upgrades.Load(),
		"upgrade_misses", st.misses.Load(),
		"exclusive", st.exclusive.Load(),
		"handed_off", st.handedOff.Load(),
		"elapsed", time.Since(began).Round(time.Millisecond))
	return st, nil
}
