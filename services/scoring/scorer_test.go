package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tickWithJerk(yaw, pitch float64) TickSample {
	return TickSample{JerkYaw: yaw, JerkPitch: pitch}
}

func TestScoreEmptyTicks(t *testing.T) {
	scorer := NewJerkHeuristic()

	result := scorer.Score(nil)

	require.Equal(t, 0.0, result.AvgJerk)
	require.Equal(t, 0.0, result.Probability)
	require.Equal(t, VerdictLegit, result.Verdict)
}

func TestScoreHighSignalBranch(t *testing.T) {
	scorer := NewJerkHeuristic()

	// avg jerk 2.0 -> probability min(0.99, 1.0) = 0.99
	result := scorer.Score([]TickSample{tickWithJerk(2.0, 0)})

	require.Equal(t, 2.0, result.AvgJerk)
	require.Equal(t, 0.99, result.Probability)
	require.Equal(t, VerdictCheat, result.Verdict)
}

func TestScoreBoundaryAvgJerkOne(t *testing.T) {
	scorer := NewJerkHeuristic()

	ticks := make([]TickSample, 10)
	for i := range ticks {
		ticks[i] = tickWithJerk(1.0, 0.0)
	}

	result := scorer.Score(ticks)

	require.Equal(t, 1.0, result.AvgJerk)
	require.Equal(t, 0.5, result.Probability)
	// 0.5 is not strictly greater than the suspicious threshold.
	require.Equal(t, VerdictLegit, result.Verdict)
}

func TestScoreLowSignalDeterministic(t *testing.T) {
	scorer := NewJerkHeuristic()

	ticks := []TickSample{tickWithJerk(0.1, 0.1)}

	first := scorer.Score(ticks)
	second := scorer.Score(ticks)

	require.Equal(t, first, second)
	require.InDelta(t, 0.12, first.Probability, 1e-9)
	require.Less(t, first.Probability, 0.3)
	require.Equal(t, VerdictLegit, first.Verdict)
}

func TestScoreUsesAbsoluteJerk(t *testing.T) {
	scorer := NewJerkHeuristic()

	result := scorer.Score([]TickSample{tickWithJerk(-1.0, -0.5)})

	require.Equal(t, 1.5, result.AvgJerk)
	require.Equal(t, 0.75, result.Probability)
	require.Equal(t, VerdictSuspicious, result.Verdict)
}

func TestVerdictThresholds(t *testing.T) {
	cases := []struct {
		probability float64
		want        Verdict
	}{
		{0.0, VerdictLegit},
		{0.5, VerdictLegit},
		{0.50001, VerdictSuspicious},
		{0.8, VerdictSuspicious},
		{0.80001, VerdictCheat},
		{0.99, VerdictCheat},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, VerdictFor(tc.probability), "probability %v", tc.probability)
	}
}

func TestScoreVerdictConsistency(t *testing.T) {
	scorer := NewJerkHeuristic()

	for _, jerk := range []float64{0, 0.2, 0.5, 0.8, 1.0, 1.2, 1.7, 3.0} {
		result := scorer.Score([]TickSample{tickWithJerk(jerk, 0)})
		require.Equal(t, VerdictFor(result.Probability), result.Verdict, "jerk %v", jerk)
		require.GreaterOrEqual(t, result.Probability, 0.0)
		require.LessOrEqual(t, result.Probability, 0.99)
	}
}
