package clock

import (
	"sync"
	"time"
)

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Ticker runs fn every interval until the returned stop function is called.
// Stop is idempotent. A callback already in flight may still complete after stop returns.
type Ticker interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// SystemClock reads wall-clock time. Now strips the monotonic reading on purpose:
// the monotonic clock does not advance while the host sleeps, wall time does.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
