package domain

import (
	"fmt"
	"sort"

	apperrors "pahm/internal/platform/errors"
)

// Stage is the per-level duration policy supplied at controller construction.
type Stage struct {
	ID                     int
	Name                   string
	MinimumDurationSeconds int
	DefaultDurationSeconds int
}

func (s Stage) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("%w: stage id must be positive, got %d", apperrors.ErrInvalidInput, s.ID)
	}
	if s.MinimumDurationSeconds <= 0 {
		return fmt.Errorf("%w: stage %d minimum must be positive", apperrors.ErrInvalidInput, s.ID)
	}
	if s.DefaultDurationSeconds < s.MinimumDurationSeconds {
		return fmt.Errorf("%w: stage %d default %ds is below its minimum %ds", apperrors.ErrInvalidInput, s.ID, s.DefaultDurationSeconds, s.MinimumDurationSeconds)
	}
	return nil
}

// DefaultStages is the built-in six-stage progression.
func DefaultStages() []Stage {
	return []Stage{
		{ID: 1, Name: "Stillness", MinimumDurationSeconds: 5 * 60, DefaultDurationSeconds: 10 * 60},
		{ID: 2, Name: "PAHM Trainee", MinimumDurationSeconds: 10 * 60, DefaultDurationSeconds: 20 * 60},
		{ID: 3, Name: "PAHM Beginner", MinimumDurationSeconds: 30 * 60, DefaultDurationSeconds: 30 * 60},
		{ID: 4, Name: "PAHM Practitioner", MinimumDurationSeconds: 30 * 60, DefaultDurationSeconds: 30 * 60},
		{ID: 5, Name: "PAHM Master", MinimumDurationSeconds: 30 * 60, DefaultDurationSeconds: 45 * 60},
		{ID: 6, Name: "PAHM Illuminator", MinimumDurationSeconds: 30 * 60, DefaultDurationSeconds: 60 * 60},
	}
}

// Stages is an ordered, validated stage catalogue.
type Stages struct {
	byID  map[int]Stage
	order []int
}

func NewStages(stages []Stage) (Stages, error) {
	if len(stages) == 0 {
		return Stages{}, fmt.Errorf("%w: at least one stage is required", apperrors.ErrInvalidInput)
	}
	out := Stages{byID: make(map[int]Stage, len(stages))}
	for _, s := range stages {
		if err := s.Validate(); err != nil {
			return Stages{}, err
		}
		if _, dup := out.byID[s.ID]; dup {
			return Stages{}, fmt.Errorf("%w: duplicate stage id %d", apperrors.ErrInvalidInput, s.ID)
		}
		out.byID[s.ID] = s
		out.order = append(out.order, s.ID)
	}
	sort.Ints(out.order)
	return out, nil
}

func (s Stages) Get(id int) (Stage, error) {
	stage, ok := s.byID[id]
	if !ok {
		return Stage{}, fmt.Errorf("%w: %d", apperrors.ErrUnknownStage, id)
	}
	return stage, nil
}

func (s Stages) All() []Stage {
	out := make([]Stage, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
