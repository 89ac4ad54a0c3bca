package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "pahm/internal/platform/errors"
)

const (
	DefaultPosture   = "seated"
	maxPostureLength = 64
)

// Parameters are fixed when a session starts.
type Parameters struct {
	StageID          int    `json:"stage_id"`
	DurationSeconds  int    `json:"duration_seconds"`
	Posture          string `json:"posture"`
	DurationOverride *int   `json:"duration_override,omitempty"`
}

// NewParameters normalizes the posture and returns parameters for stage.
func NewParameters(stage Stage, durationSeconds int, posture string, override *int) Parameters {
	posture = strings.TrimSpace(posture)
	if posture == "" {
		posture = DefaultPosture
	}
	if durationSeconds == 0 {
		durationSeconds = stage.DefaultDurationSeconds
	}
	var ov *int
	if override != nil {
		v := *override
		ov = &v
	}
	return Parameters{StageID: stage.ID, DurationSeconds: durationSeconds, Posture: posture, DurationOverride: ov}
}

// EffectiveDuration is the override when supplied, otherwise the requested duration.
func (p Parameters) EffectiveDuration() int {
	if p.DurationOverride != nil {
		return *p.DurationOverride
	}
	return p.DurationSeconds
}

func (p Parameters) Validate(stage Stage) error {
	if p.StageID != stage.ID {
		return fmt.Errorf("%w: parameters for stage %d used with stage %d", apperrors.ErrInvalidInput, p.StageID, stage.ID)
	}
	if utf8.RuneCountInString(p.Posture) > maxPostureLength {
		return fmt.Errorf("%w: posture longer than %d characters", apperrors.ErrInvalidInput, maxPostureLength)
	}
	if d := p.EffectiveDuration(); d < stage.MinimumDurationSeconds {
		return fmt.Errorf("%w: %w: %ds requested, stage %d needs at least %ds", apperrors.ErrInvalidInput, apperrors.ErrDurationBelowMinimum, d, stage.ID, stage.MinimumDurationSeconds)
	}
	return nil
}
