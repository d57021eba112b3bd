// Package battle implements the deterministic type-effectiveness engine
// that judges a two-party contest from already-resolved attribute records.
package battle

// Winner identifies which side a verdict favors.
type Winner string

const (
	WinnerSideA Winner = "side_a"
	WinnerSideB Winner = "side_b"
	WinnerDraw  Winner = "draw"
)

// AttributeSet is the normalized record for one contestant. Identifier is
// lowercase, accent-stripped, and trimmed; Categories holds 1-2 type tags
// (order matters for display, not for scoring); PowerTotal is nil when the
// data service did not report a total, which is distinct from zero.
type AttributeSet struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	Categories []string `json:"categories" yaml:"categories"`
	PowerTotal *int     `json:"power_total,omitempty" yaml:"power_total,omitempty"`
	Provenance string   `json:"provenance" yaml:"provenance"`
}

// Valid reports whether the record satisfies the engine preconditions.
func (a AttributeSet) Valid() bool {
	return a.Identifier != "" && len(a.Categories) >= 1 && len(a.Categories) <= 2
}

// Verdict is the immutable outcome of one judgment run.
type Verdict struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Winner     Winner       `json:"winner" yaml:"winner"`
	ScoreAvsB  float64      `json:"score_a_vs_b" yaml:"score_a_vs_b"`
	ScoreBvsA  float64      `json:"score_b_vs_a" yaml:"score_b_vs_a"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
	Reasoning  string       `json:"reasoning" yaml:"reasoning"`
	SideA      AttributeSet `json:"side_a" yaml:"side_a"`
	SideB      AttributeSet `json:"side_b" yaml:"side_b"`
	Sources    []string     `json:"sources" yaml:"sources"`
}
