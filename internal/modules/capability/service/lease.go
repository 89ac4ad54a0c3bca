package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"pahm/internal/modules/capability/domain"
	capabilityout "pahm/internal/modules/capability/port/out"
	"pahm/internal/platform/clock"
)

// WakeLease polls its provider and closes Revoked once the lock is gone
// without the holder releasing it.
type WakeLease struct {
	conn capabilityout.Connection
	log  hclog.Logger

	mu       sync.Mutex
	done     bool
	revoked  chan struct{}
	stopPoll func()
}

func newWakeLease(conn capabilityout.Connection, ticker clock.Ticker, interval time.Duration, logger hclog.Logger) *WakeLease {
	l := &WakeLease{conn: conn, log: logger, revoked: make(chan struct{})}
	if ticker != nil {
		l.mu.Lock()
		l.stopPoll = ticker.Every(interval, l.poll)
		l.mu.Unlock()
	}
	return l
}

func (l *WakeLease) Revoked() <-chan struct{} {
	return l.revoked
}

// Release is idempotent. Releasing a revoked lease only cleans up.
func (l *WakeLease) Release(ctx context.Context) error {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return nil
	}
	l.done = true
	stop := l.stopPoll
	l.mu.Unlock()

	if stop != nil {
		stop()
	}
	defer l.conn.Close()
	if err := l.conn.ReleaseWake(ctx); err != nil {
		return fmt.Errorf("release wake lease: %w", err)
	}
	return nil
}

func (l *WakeLease) poll() {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	reason := ""
	if l.conn.Exited() {
		reason = domain.ErrProviderExited.Error()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		held, err := l.conn.WakeHeld(ctx)
		cancel()
		switch {
		case err != nil:
			reason = err.Error()
		case !held:
			reason = "host released the lock"
		}
	}
	if reason == "" {
		return
	}
	l.revoke(reason)
}

func (l *WakeLease) revoke(reason string) {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.done = true
	stop := l.stopPoll
	l.mu.Unlock()

	if stop != nil {
		stop()
	}
	l.conn.Close()
	l.log.Info("wake lease revoked", "reason", reason)
	close(l.revoked)
}

// CueChannel plays cues over one provider connection.
type CueChannel struct {
	conn capabilityout.Connection

	mu     sync.Mutex
	closed bool
}

func (c *CueChannel) Play(ctx context.Context, cue string) error {
	kind := domain.Cue(cue)
	if err := kind.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.ErrConnectionClosed
	}
	return c.conn.PlayCue(ctx, kind)
}

func (c *CueChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}
