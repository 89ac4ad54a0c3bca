package out

import (
	"context"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"

	practiceout "pahm/internal/modules/practice/port/out"
)

// BellSignaler rings the terminal bell. It is the fallback when no audio
// provider is installed.
type BellSignaler struct {
	out io.Writer
	log hclog.Logger

	mu      sync.Mutex
	granted bool
}

func NewBellSignaler(out io.Writer, logger hclog.Logger) practiceout.Signaler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BellSignaler{out: out, log: logger}
}

func (b *BellSignaler) RequestPermission(context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.granted = b.out != nil
	return b.granted
}

func (b *BellSignaler) Granted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.granted
}

func (b *BellSignaler) PlayTapCue()        { b.ring("\a") }
func (b *BellSignaler) PlayCompletionCue() { b.ring("\a\a\a") }

func (b *BellSignaler) Close() {
	b.mu.Lock()
	b.granted = false
	b.mu.Unlock()
}

func (b *BellSignaler) ring(seq string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.granted {
		return
	}
	if _, err := io.WriteString(b.out, seq); err != nil {
		b.log.Debug("terminal bell failed", "error", err)
	}
}
