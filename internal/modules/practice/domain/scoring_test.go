package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pahm/internal/modules/practice/domain"
)

func tallyOf(t *testing.T, counts map[string]int) domain.Tally {
	t.Helper()
	tally, err := domain.TallyFromMap(counts)
	require.NoError(t, err)
	return tally
}

func TestPresentPercentage(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultScoringPolicy()

	assert.Equal(t, 85, policy.PresentPercentage(domain.Tally{}))
	assert.Equal(t, 100, policy.PresentPercentage(tallyOf(t, map[string]int{"likes": 2, "present": 5, "dislikes": 1})))
	assert.Equal(t, 0, policy.PresentPercentage(tallyOf(t, map[string]int{"past": 2, "worry": 3})))
	assert.Equal(t, 83, policy.PresentPercentage(tallyOf(t, map[string]int{"present": 10, "past": 2})))
}

func TestQualityScoreIsPureAndBounded(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultScoringPolicy()
	tallies := []domain.Tally{
		{},
		tallyOf(t, map[string]int{"present": 40}),
		tallyOf(t, map[string]int{"regret": 500}),
		tallyOf(t, map[string]int{"present": 3, "worry": 3}),
	}
	for _, tally := range tallies {
		for _, duration := range []int{0, 1, 60, 600, 1800, 7200} {
			for _, full := range []bool{true, false} {
				for stage := 1; stage <= 6; stage++ {
					first := policy.QualityScore(tally, duration, full, stage)
					second := policy.QualityScore(tally, duration, full, stage)
					assert.Equal(t, first, second)
					assert.GreaterOrEqual(t, first, 1.0)
					assert.LessOrEqual(t, first, 10.0)
					assert.InDelta(t, first, float64(int(first*10+0.5))/10, 1e-9)
				}
			}
		}
	}
}

func TestQualityScoreOrdersSessions(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultScoringPolicy()
	// 30 minutes, all present, 6 taps per minute.
	good := policy.QualityScore(tallyOf(t, map[string]int{"present": 180}), 1800, true, 2)
	// 5 minutes, nothing present, 6 taps per minute.
	poor := policy.QualityScore(tallyOf(t, map[string]int{"past": 30}), 300, false, 2)
	assert.Greater(t, good, poor)
}

func TestQualityScoreFormula(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultScoringPolicy()

	// (6+1+1.5+0.5)*1.0 with 6 taps/min: 9.0
	assert.Equal(t, 9.0, policy.QualityScore(tallyOf(t, map[string]int{"present": 180}), 1800, true, 1))
	// (6+1+1.5)*(0.7+0.3*60/1800)=8.5*0.71=6.035, calm +0.5 -> 6.5
	assert.Equal(t, 6.5, policy.QualityScore(domain.Tally{}, 60, false, 1))
	// (6+2-1)*1.0 = 7, 20 taps/min over-tapping -> 6.5
	assert.Equal(t, 6.5, policy.QualityScore(tallyOf(t, map[string]int{"past": 600}), 1800, false, 2))
}

func TestQualityScoreZeroDuration(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultScoringPolicy()
	// (6+1+1.5)*0.7 lands just under 5.95 in float64; no taps leaves the rate alone.
	assert.Equal(t, 5.9, policy.QualityScore(domain.Tally{}, 0, false, 1))
	// Any tap with no elapsed time is over-tapping.
	assert.Equal(t, 5.4, policy.QualityScore(tallyOf(t, map[string]int{"present": 1}), 0, false, 1))
}

func TestScoringPolicyOverrides(t *testing.T) {
	t.Parallel()
	policy, err := domain.DefaultScoringPolicy().WithOverrides(map[string]float64{
		"default_present_percentage": 50,
		"max_score":                  9,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, policy.PresentPercentage(domain.Tally{}))
	assert.LessOrEqual(t, policy.QualityScore(tallyOf(t, map[string]int{"present": 90}), 1800, true, 6), 9.0)

	_, err = domain.DefaultScoringPolicy().WithOverrides(map[string]float64{"bogus": 1})
	require.Error(t, err)
	_, err = domain.DefaultScoringPolicy().WithOverrides(map[string]float64{"min_score": 11})
	require.Error(t, err)
}
