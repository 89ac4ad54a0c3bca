package out

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	capabilityin "pahm/internal/modules/capability/port/in"
	practiceout "pahm/internal/modules/practice/port/out"
)

const releaseTimeout = 3 * time.Second

// CapabilityWakeGuard holds a wake_lock lease from a capability provider for
// the length of one session.
type CapabilityWakeGuard struct {
	caps capabilityin.Usecase
	log  hclog.Logger

	mu        sync.Mutex
	lease     capabilityin.WakeLease
	onRevoked func()
	stopWatch chan struct{}
}

func NewCapabilityWakeGuard(caps capabilityin.Usecase, logger hclog.Logger) practiceout.WakeGuard {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CapabilityWakeGuard{caps: caps, log: logger}
}

func (g *CapabilityWakeGuard) Acquire(ctx context.Context) bool {
	g.mu.Lock()
	if g.lease != nil {
		g.mu.Unlock()
		return true
	}
	g.mu.Unlock()

	if g.caps == nil {
		return false
	}
	lease, err := g.caps.AcquireWake(ctx, "meditation session")
	if err != nil {
		g.log.Info("wake lock unavailable", "error", err)
		return false
	}

	g.mu.Lock()
	if g.lease != nil {
		// Another Acquire got there first; one lease per session.
		g.mu.Unlock()
		g.drop(lease)
		return true
	}
	stop := make(chan struct{})
	g.lease = lease
	g.stopWatch = stop
	g.mu.Unlock()
	go g.watch(lease, stop)
	return true
}

func (g *CapabilityWakeGuard) watch(lease capabilityin.WakeLease, stop chan struct{}) {
	select {
	case <-stop:
		return
	case <-lease.Revoked():
	}
	g.mu.Lock()
	if g.lease != lease {
		g.mu.Unlock()
		return
	}
	g.lease = nil
	g.stopWatch = nil
	fn := g.onRevoked
	g.mu.Unlock()

	g.log.Info("wake lock revoked by host")
	if fn != nil {
		fn()
	}
}

func (g *CapabilityWakeGuard) Release() {
	g.mu.Lock()
	lease := g.lease
	stop := g.stopWatch
	g.lease = nil
	g.stopWatch = nil
	g.mu.Unlock()
	if lease == nil {
		return
	}
	close(stop)
	g.drop(lease)
}

func (g *CapabilityWakeGuard) drop(lease capabilityin.WakeLease) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := lease.Release(ctx); err != nil {
		g.log.Warn("release wake lock failed", "error", err)
	}
}

func (g *CapabilityWakeGuard) IsHeld() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lease != nil
}

func (g *CapabilityWakeGuard) OnRevoked(fn func()) {
	g.mu.Lock()
	g.onRevoked = fn
	g.mu.Unlock()
}
