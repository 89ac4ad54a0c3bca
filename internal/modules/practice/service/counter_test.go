package service_test

import (
	"sync"
	"testing"

	"pahm/internal/modules/practice/domain"
	"pahm/internal/modules/practice/service"
)

func TestCounterConcurrentIncrementsAreNotLost(t *testing.T) {
	t.Parallel()
	counter := service.NewAttentionCounter()
	categories := domain.Categories()
	var wg sync.WaitGroup
	for i := 0; i < 90; i++ {
		wg.Add(1)
		go func(c domain.Category) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counter.Increment(c)
			}
		}(categories[i%len(categories)])
	}
	wg.Wait()
	tally := counter.Snapshot()
	if tally.Total() != 9000 {
		t.Fatalf("expected 9000 taps, got %d", tally.Total())
	}
	for _, c := range categories {
		if tally.Count(c) != 1000 {
			t.Fatalf("expected 1000 %s taps, got %d", c, tally.Count(c))
		}
	}
}

func TestCounterResetAndRestore(t *testing.T) {
	t.Parallel()
	counter := service.NewAttentionCounter()
	counter.Increment(domain.PresentNeutral)
	saved := counter.Snapshot()
	counter.Increment(domain.PastAversion)
	counter.Restore(saved)
	if got := counter.Snapshot(); got.Total() != 1 || got.Count(domain.PresentNeutral) != 1 {
		t.Fatalf("restore did not replace the tally: %v", got.Keys())
	}
	counter.Reset()
	if counter.Snapshot().Total() != 0 {
		t.Fatalf("reset must empty the tally")
	}
}
