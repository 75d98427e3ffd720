package scoring

import "math"

// Verdict is the categorical outcome of scoring one telemetry submission.
type Verdict string

const (
	VerdictLegit      Verdict = "LEGIT"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictCheat      Verdict = "CHEAT"
)

// Fixed decision thresholds applied to the final probability.
const (
	CheatThreshold      = 0.8
	SuspiciousThreshold = 0.5
)

const (
	highSignalJerk = 0.5
	maxProbability = 0.99
	// lowSignalSlope maps avg jerk in [0, highSignalJerk] onto [0, 0.3],
	// replacing the random draw the first heuristic used for weak signals.
	lowSignalSlope = 0.6
)

// TickSample is one sampled interval of player orientation telemetry. Only the
// jerk components feed the current heuristic; the remaining features are
// accepted for future models.
type TickSample struct {
	DeltaYaw      float64 `json:"deltaYaw"`
	DeltaPitch    float64 `json:"deltaPitch"`
	AccelYaw      float64 `json:"accelYaw"`
	AccelPitch    float64 `json:"accelPitch"`
	JerkYaw       float64 `json:"jerkYaw"`
	JerkPitch     float64 `json:"jerkPitch"`
	GCDErrorYaw   float64 `json:"gcdErrorYaw"`
	GCDErrorPitch float64 `json:"gcdErrorPitch"`
}

// Result carries the probability of automation, the derived verdict, and the
// auxiliary jerk feature the verdict was computed from.
type Result struct {
	Probability float64
	Verdict     Verdict
	AvgJerk     float64
}

// Scorer maps an ordered tick sequence to a probability-of-automation score.
// Implementations must be pure: no hidden state, deterministic per input.
type Scorer interface {
	Score(ticks []TickSample) Result
}

// JerkHeuristic scores submissions from the average absolute combined jerk.
// It stands in for a learned model behind the same interface.
type JerkHeuristic struct{}

func NewJerkHeuristic() *JerkHeuristic {
	return &JerkHeuristic{}
}

func (h *JerkHeuristic) Score(ticks []TickSample) Result {
	avgJerk := 0.0
	if len(ticks) > 0 {
		sum := 0.0
		for _, t := range ticks {
			sum += math.Abs(t.JerkYaw) + math.Abs(t.JerkPitch)
		}
		avgJerk = sum / float64(len(ticks))
	}

	var probability float64
	if avgJerk > highSignalJerk {
		probability = math.Min(maxProbability, avgJerk/2.0)
	} else {
		probability = avgJerk * lowSignalSlope
	}

	return Result{
		Probability: probability,
		Verdict:     VerdictFor(probability),
		AvgJerk:     avgJerk,
	}
}

// VerdictFor applies the fixed thresholds to a probability.
func VerdictFor(probability float64) Verdict {
	switch {
	case probability > CheatThreshold:
		return VerdictCheat
	case probability > SuspiciousThreshold:
		return VerdictSuspicious
	default:
		return VerdictLegit
	}
}
