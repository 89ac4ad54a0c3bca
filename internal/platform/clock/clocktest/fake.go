// Package clocktest provides a manually driven clock for timer tests.
package clocktest

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Clock and Ticker whose time only moves when told to. Periodic
// callbacks fire only on Tick or Step, which lets tests model a host that
// throttles or suspends timers while time keeps passing.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	tickers map[int]func()
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start, tickers: map[int]func(){}}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves time forward without firing any periodic callback.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Tick fires every registered callback once, in registration order.
func (f *Fake) Tick() {
	f.mu.Lock()
	ids := make([]int, 0, len(f.tickers))
	for id := range f.tickers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, f.tickers[id])
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Step advances by d and then fires one tick.
func (f *Fake) Step(d time.Duration) {
	f.Advance(d)
	f.Tick()
}

// Run steps in increments of interval until total has elapsed.
func (f *Fake) Run(total, interval time.Duration) {
	for total > 0 {
		step := interval
		if total < step {
			step = total
		}
		f.Step(step)
		total -= step
	}
}

// Active reports how many periodic callbacks are still registered.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *Fake) Every(_ time.Duration, fn func()) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.tickers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.tickers, id)
		f.mu.Unlock()
	}
}
