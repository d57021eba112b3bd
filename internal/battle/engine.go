package battle

import (
	"fmt"
	"strings"
)

const (
	confidenceFloor = 0.60
	confidenceCeil  = 0.95
	tieBreakCap     = 0.75
	drawConfidence  = 0.50

	// maxDelta is the widest possible spread between the two attack
	// multipliers (a 4.0x dual-weakness against a 0.0x immunity).
	maxDelta = 4.0
)

// Engine evaluates two attribute records against the effectiveness matrix.
// Evaluate is pure: no I/O, no clock, no randomness, and identical inputs
// always produce identical verdicts.
type Engine struct {
	matrix *Matrix
}

// NewEngine creates an engine over an immutable matrix.
func NewEngine(m *Matrix) *Engine {
	return &Engine{matrix: m}
}

// AttackMultiplier scores attacker categories against defender categories.
// Each attacker category multiplies its effectiveness across all defender
// categories (so an immunity zeroes that angle); the attacker then uses its
// single best angle, never an average.
func (e *Engine) AttackMultiplier(attacker, defender []string) float64 {
	best := 0.0
	for _, att := range attacker {
		total := 1.0
		for _, def := range defender {
			total *= e.matrix.Multiplier(att, def)
		}
		if total > best {
			best = total
		}
	}
	return best
}

// Evaluate judges a against b. Both records must satisfy Valid; passing a
// malformed record is a programming error and panics.
func (e *Engine) Evaluate(a, b AttributeSet) Verdict {
	if !a.Valid() || !b.Valid() {
		panic("battle: Evaluate called with invalid attribute set")
	}

	scoreAvsB := e.AttackMultiplier(a.Categories, b.Categories)
	scoreBvsA := e.AttackMultiplier(b.Categories, a.Categories)

	winner, reasoning, usedTieBreak := decide(a, b, scoreAvsB, scoreBvsA)

	confidence := drawConfidence
	if winner != WinnerDraw {
		confidence = deltaConfidence(scoreAvsB, scoreBvsA)
		if usedTieBreak && confidence > tieBreakCap {
			confidence = tieBreakCap
		}
	}

	return Verdict{
		Winner:     winner,
		ScoreAvsB:  scoreAvsB,
		ScoreBvsA:  scoreBvsA,
		Confidence: confidence,
		Reasoning:  reasoning,
		SideA:      a,
		SideB:      b,
	}
}

// decide applies the decision rule: higher multiplier wins; equal
// multipliers fall back to power totals; missing or equal totals draw.
func decide(a, b AttributeSet, scoreAvsB, scoreBvsA float64) (Winner, string, bool) {
	switch {
	case scoreAvsB > scoreBvsA:
		return WinnerSideA, offenseReason(a), false
	case scoreBvsA > scoreAvsB:
		return WinnerSideB, offenseReason(b), false
	}

	if a.PowerTotal == nil || b.PowerTotal == nil {
		return WinnerDraw, "a perfect tie, both sides are equally matched", false
	}
	switch {
	case *a.PowerTotal > *b.PowerTotal:
		return WinnerSideA, statReason(a, b), true
	case *b.PowerTotal > *a.PowerTotal:
		return WinnerSideB, statReason(b, a), true
	}
	return WinnerDraw, "a perfect tie, both sides are equally matched", false
}

// deltaConfidence maps the multiplier spread onto [0.60, 0.95], strictly
// increasing in the spread. Inputs live on the lattice {0, 0.25, 0.5, 1,
// 2, 4}, so the arithmetic stays exact in float64.
func deltaConfidence(scoreAvsB, scoreBvsA float64) float64 {
	delta := scoreAvsB - scoreBvsA
	if delta < 0 {
		delta = -delta
	}
	c := confidenceFloor + (confidenceCeil-confidenceFloor)*delta/maxDelta
	if c > confidenceCeil {
		c = confidenceCeil
	}
	return c
}

func offenseReason(winner AttributeSet) string {
	return fmt.Sprintf("%s's %s attacks were super effective",
		winner.Identifier, strings.Join(winner.Categories, "/"))
}

func statReason(winner, loser AttributeSet) string {
	return fmt.Sprintf("%s's superior power total overcame %s",
		winner.Identifier, loser.Identifier)
}
