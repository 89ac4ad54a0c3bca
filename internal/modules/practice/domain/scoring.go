package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "pahm/internal/platform/errors"
)

// ScoringPolicy holds every constant used to grade a session.
type ScoringPolicy struct {
	// DefaultPresentPercentage is reported when nothing was tallied.
	DefaultPresentPercentage int

	BaseOffset float64

	HighPresentThreshold int
	HighPresentBonus     float64
	GoodPresentThreshold int
	GoodPresentBonus     float64
	LowPresentThreshold  int
	LowPresentPenalty    float64

	CompletionBonus float64

	ReferenceDurationSeconds float64
	DurationFloor            float64

	OverTappingRate       float64
	OverTappingAdjustment float64
	CalmRate              float64
	CalmAdjustment        float64

	MinScore float64
	MaxScore float64
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		DefaultPresentPercentage: 85,
		BaseOffset:               6,
		HighPresentThreshold:     80,
		HighPresentBonus:         1.5,
		GoodPresentThreshold:     60,
		GoodPresentBonus:         1.0,
		LowPresentThreshold:      40,
		LowPresentPenalty:        -1.0,
		CompletionBonus:          0.5,
		ReferenceDurationSeconds: 1800,
		DurationFloor:            0.7,
		OverTappingRate:          15,
		OverTappingAdjustment:    -0.5,
		CalmRate:                 3,
		CalmAdjustment:           0.5,
		MinScore:                 1,
		MaxScore:                 10,
	}
}

// fields maps configuration keys onto policy fields.
func (p *ScoringPolicy) fields() map[string]func(float64) {
	return map[string]func(float64){
		"default_present_percentage": func(v float64) { p.DefaultPresentPercentage = int(v) },
		"base_offset":                func(v float64) { p.BaseOffset = v },
		"high_present_threshold":     func(v float64) { p.HighPresentThreshold = int(v) },
		"high_present_bonus":         func(v float64) { p.HighPresentBonus = v },
		"good_present_threshold":     func(v float64) { p.GoodPresentThreshold = int(v) },
		"good_present_bonus":         func(v float64) { p.GoodPresentBonus = v },
		"low_present_threshold":      func(v float64) { p.LowPresentThreshold = int(v) },
		"low_present_penalty":        func(v float64) { p.LowPresentPenalty = v },
		"completion_bonus":           func(v float64) { p.CompletionBonus = v },
		"reference_duration_seconds": func(v float64) { p.ReferenceDurationSeconds = v },
		"duration_floor":             func(v float64) { p.DurationFloor = v },
		"over_tapping_rate":          func(v float64) { p.OverTappingRate = v },
		"over_tapping_adjustment":    func(v float64) { p.OverTappingAdjustment = v },
		"calm_rate":                  func(v float64) { p.CalmRate = v },
		"calm_adjustment":            func(v float64) { p.CalmAdjustment = v },
		"min_score":                  func(v float64) { p.MinScore = v },
		"max_score":                  func(v float64) { p.MaxScore = v },
	}
}

// WithOverrides returns a copy of p with the named constants replaced.
func (p ScoringPolicy) WithOverrides(overrides map[string]float64) (ScoringPolicy, error) {
	out := p
	setters := out.fields()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set, ok := setters[strings.ToLower(k)]
		if !ok {
			return ScoringPolicy{}, fmt.Errorf("%w: unknown scoring key %q", apperrors.ErrInvalidInput, k)
		}
		set(overrides[k])
	}
	if err := out.Validate(); err != nil {
		return ScoringPolicy{}, err
	}
	return out, nil
}

func (p ScoringPolicy) Validate() error {
	switch {
	case p.MinScore > p.MaxScore:
		return fmt.Errorf("%w: min_score %.1f above max_score %.1f", apperrors.ErrInvalidInput, p.MinScore, p.MaxScore)
	case p.ReferenceDurationSeconds <= 0:
		return fmt.Errorf("%w: reference_duration_seconds must be positive", apperrors.ErrInvalidInput)
	case p.DurationFloor < 0 || p.DurationFloor > 1:
		return fmt.Errorf("%w: duration_floor must be within [0,1]", apperrors.ErrInvalidInput)
	case p.DefaultPresentPercentage < 0 || p.DefaultPresentPercentage > 100:
		return fmt.Errorf("%w: default_present_percentage must be within [0,100]", apperrors.ErrInvalidInput)
	}
	return nil
}

// PresentPercentage is the rounded share of taps in the present row.
func (p ScoringPolicy) PresentPercentage(t Tally) int {
	total := t.Total()
	if total == 0 {
		return p.DefaultPresentPercentage
	}
	return int(math.Round(float64(t.PresentTotal()) / float64(total) * 100))
}

// QualityScore grades a session on the policy's scale, rounded to one decimal.
// It is a pure function of its inputs.
func (p ScoringPolicy) QualityScore(t Tally, actualDurationSeconds int, fullyCompleted bool, stageID int) float64 {
	score := p.BaseOffset + float64(stageID)

	present := p.PresentPercentage(t)
	switch {
	case present >= p.HighPresentThreshold:
		score += p.HighPresentBonus
	case present >= p.GoodPresentThreshold:
		score += p.GoodPresentBonus
	case present < p.LowPresentThreshold:
		score += p.LowPresentPenalty
	}

	if fullyCompleted {
		score += p.CompletionBonus
	}

	factor := math.Max(0, math.Min(1, float64(actualDurationSeconds)/p.ReferenceDurationSeconds))
	score *= p.DurationFloor + (1-p.DurationFloor)*factor

	score += p.rateAdjustment(t.Total(), actualDurationSeconds)

	score = math.Max(p.MinScore, math.Min(p.MaxScore, score))
	return math.Round(score*10) / 10
}

// rateAdjustment scores tapping frequency. With no elapsed time any tap
// counts as over-tapping and no taps leave the score unchanged.
func (p ScoringPolicy) rateAdjustment(taps, actualDurationSeconds int) float64 {
	if actualDurationSeconds <= 0 {
		if taps > 0 {
			return p.OverTappingAdjustment
		}
		return 0
	}
	rate := float64(taps) / (float64(actualDurationSeconds) / 60)
	switch {
	case rate > p.OverTappingRate:
		return p.OverTappingAdjustment
	case rate < p.CalmRate:
		return p.CalmAdjustment
	}
	return 0
}
