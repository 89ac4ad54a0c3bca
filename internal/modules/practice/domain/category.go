package domain

import (
	"fmt"
	"strings"

	apperrors "pahm/internal/platform/errors"
)

// Temporal is where a thought points in time.
type Temporal uint8

const (
	Past Temporal = iota
	Present
	Future
)

var temporalNames = [...]string{"past", "present", "future"}

func (t Temporal) String() string {
	if int(t) < len(temporalNames) {
		return temporalNames[t]
	}
	return fmt.Sprintf("temporal(%d)", uint8(t))
}

// Affective is the emotional tone of a thought.
type Affective uint8

const (
	Attachment Affective = iota
	Neutral
	Aversion
)

var affectiveNames = [...]string{"attachment", "neutral", "aversion"}

func (a Affective) String() string {
	if int(a) < len(affectiveNames) {
		return affectiveNames[a]
	}
	return fmt.Sprintf("affective(%d)", uint8(a))
}

// CategoryCount is the size of the PAHM matrix.
const CategoryCount = 9

// Category is one cell of the 3x3 PAHM matrix. Only the nine package
// variables below exist; there is no way to build another value outside
// this package, so an invalid category cannot reach a tally.
type Category struct {
	index uint8
}

var (
	PastAttachment    = Category{0}
	PastNeutral       = Category{1}
	PastAversion      = Category{2}
	PresentAttachment = Category{3}
	PresentNeutral    = Category{4}
	PresentAversion   = Category{5}
	FutureAttachment  = Category{6}
	FutureNeutral     = Category{7}
	FutureAversion    = Category{8}
)

// pahmNames are the labels shown to practitioners, indexed like Category.
var pahmNames = [CategoryCount]string{
	"nostalgia", "past", "regret",
	"likes", "present", "dislikes",
	"anticipation", "future", "worry",
}

// Categories lists every category, past row first.
func Categories() [CategoryCount]Category {
	var out [CategoryCount]Category
	for i := range out {
		out[i] = Category{uint8(i)}
	}
	return out
}

// CategoryAt returns the cell at the given row and column.
func CategoryAt(t Temporal, a Affective) (Category, error) {
	if int(t) >= len(temporalNames) || int(a) >= len(affectiveNames) {
		return Category{}, fmt.Errorf("%w: no category at %s/%s", apperrors.ErrInvalidInput, t, a)
	}
	return Category{uint8(t)*3 + uint8(a)}, nil
}

func (c Category) Temporal() Temporal   { return Temporal(c.index / 3) }
func (c Category) Affective() Affective { return Affective(c.index % 3) }

// Key is the storage name, e.g. "present_neutral".
func (c Category) Key() string {
	return c.Temporal().String() + "_" + c.Affective().String()
}

// Name is the PAHM label, e.g. "present" or "worry".
func (c Category) Name() string {
	return pahmNames[c.index]
}

func (c Category) String() string { return c.Key() }

// ParseCategory accepts either a storage key or a PAHM label.
func ParseCategory(raw string) (Category, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range Categories() {
		if s == c.Key() || s == c.Name() {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidInput, raw)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
