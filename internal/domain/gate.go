package domain

import "math"

// Accept reports whether score clears threshold. NaN scores never pass.
func Accept(score, threshold float64) bool {
	if math.IsNaN(score) || math.IsNaN(threshold) {
		return false
	}

	return score >= threshold
}

type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictRejected Verdict = "rejected"
)

// Decision is one gate evaluation. Kind names the signal the score came from.
type Decision struct {
	Kind      SignalKind
	Score     float64
	Threshold float64
	Verdict   Verdict
}

func (d Decision) Accepted() bool {
	return d.Verdict == VerdictAccepted
}

type SignalKind string

const (
	SignalSimilarity SignalKind = "similarity"
	SignalConfidence SignalKind = "confidence"
)

func Decide(kind SignalKind, score, threshold float64) Decision {
	verdict := VerdictRejected
	if Accept(score, threshold) {
		verdict = VerdictAccepted
	}

	return Decision{Kind: kind, Score: score, Threshold: threshold, Verdict: verdict}
}
