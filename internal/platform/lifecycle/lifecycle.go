// Package lifecycle carries host environment hints (the terminal losing focus,
// the process being suspended or hung up) to whoever needs to react to them.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type Signal int

const (
	// MaySuspend means the process may stop being scheduled soon.
	MaySuspend Signal = iota + 1
	// Resumed means the user is back.
	Resumed
)

func (s Signal) String() string {
	switch s {
	case MaySuspend:
		return "may-suspend"
	case Resumed:
		return "resumed"
	default:
		return "unknown"
	}
}

type Source interface {
	Subscribe(fn func(Signal)) (unsubscribe func())
}

// Hub fans a signal out to every subscriber. Subscribers run on the
// publishing goroutine, outside the hub lock.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Signal)
}

func NewHub() *Hub {
	return &Hub{subs: map[int]func(Signal){}}
}

func (h *Hub) Subscribe(fn func(Signal)) func() {
	h.mu.Lock()
	h.nextID++
	key := h.nextID
	h.subs[key] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, key)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Publish(s Signal) {
	h.mu.Lock()
	fns := make([]func(Signal), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// NotifyOS publishes MaySuspend when the process receives one of sigs
// (SIGHUP and SIGTERM when none are given), then calls after if set. It
// stops when ctx is done or the returned function is called.
func NotifyOS(ctx context.Context, hub *Hub, after func(os.Signal), sigs ...os.Signal) func() {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGHUP, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				hub.Publish(MaySuspend)
				if after != nil {
					after(sig)
				}
			}
		}
	}()
	return cancel
}
