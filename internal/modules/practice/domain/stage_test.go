package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pahm/internal/modules/practice/domain"
	apperrors "pahm/internal/platform/errors"
)

func TestDefaultStagesAreValid(t *testing.T) {
	t.Parallel()
	stages, err := domain.NewStages(domain.DefaultStages())
	require.NoError(t, err)
	all := stages.All()
	require.Len(t, all, 6)
	for i, s := range all {
		assert.Equal(t, i+1, s.ID)
	}
	_, err = stages.Get(9)
	require.ErrorIs(t, err, apperrors.ErrUnknownStage)
}

func TestNewStagesRejectsDuplicatesAndBadMinimums(t *testing.T) {
	t.Parallel()
	_, err := domain.NewStages([]domain.Stage{
		{ID: 1, MinimumDurationSeconds: 60, DefaultDurationSeconds: 60},
		{ID: 1, MinimumDurationSeconds: 60, DefaultDurationSeconds: 60},
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = domain.NewStages([]domain.Stage{{ID: 2, MinimumDurationSeconds: 120, DefaultDurationSeconds: 60}})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = domain.NewStages(nil)
	require.Error(t, err)
}

func TestParametersValidateAgainstStage(t *testing.T) {
	t.Parallel()
	stage := domain.Stage{ID: 3, MinimumDurationSeconds: 1800, DefaultDurationSeconds: 1800}

	short := domain.NewParameters(stage, 1200, "", nil)
	require.ErrorIs(t, short.Validate(stage), apperrors.ErrDurationBelowMinimum)
	assert.Equal(t, domain.DefaultPosture, short.Posture)

	defaulted := domain.NewParameters(stage, 0, " kneeling ", nil)
	require.NoError(t, defaulted.Validate(stage))
	assert.Equal(t, 1800, defaulted.EffectiveDuration())
	assert.Equal(t, "kneeling", defaulted.Posture)

	override := 2400
	withOverride := domain.NewParameters(stage, 1200, "seated", &override)
	require.NoError(t, withOverride.Validate(stage))
	assert.Equal(t, 2400, withOverride.EffectiveDuration())

	other := domain.NewParameters(domain.Stage{ID: 4}, 1800, "", nil)
	require.ErrorIs(t, other.Validate(stage), apperrors.ErrInvalidInput)
}
