package domain

import (
	"encoding/json"
	"fmt"

	apperrors "pahm/internal/platform/errors"
)

// Tally counts attention-noting taps per category. The zero value is an
// empty tally. Counts only ever grow through Increment.
type Tally struct {
	counts [CategoryCount]int
}

func (t *Tally) Increment(c Category) int {
	t.counts[c.index]++
	return t.counts[c.index]
}

func (t Tally) Count(c Category) int {
	return t.counts[c.index]
}

func (t Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// PresentTotal sums the present row: likes, present and dislikes.
func (t Tally) PresentTotal() int {
	total := 0
	for _, c := range Categories() {
		if c.Temporal() == Present {
			total += t.Count(c)
		}
	}
	return total
}

// Keys returns counts under storage keys, all nine present.
func (t Tally) Keys() map[string]int {
	out := make(map[string]int, CategoryCount)
	for _, c := range Categories() {
		out[c.Key()] = t.Count(c)
	}
	return out
}

// PAHM returns counts under practitioner-facing labels, all nine present.
func (t Tally) PAHM() map[string]int {
	out := make(map[string]int, CategoryCount)
	for _, c := range Categories() {
		out[c.Name()] = t.Count(c)
	}
	return out
}

// TallyFromMap rebuilds a tally from either naming. Missing keys count as zero.
func TallyFromMap(m map[string]int) (Tally, error) {
	var t Tally
	for raw, n := range m {
		c, err := ParseCategory(raw)
		if err != nil {
			return Tally{}, err
		}
		if n < 0 {
			return Tally{}, fmt.Errorf("%w: negative count %d for %s", apperrors.ErrInvalidInput, n, raw)
		}
		t.counts[c.index] = n
	}
	return t, nil
}

func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Keys())
}

func (t *Tally) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := TallyFromMap(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
