package battle

import "strings"

// superEffective lists, per attacking category, the defending categories
// that take doubled damage. Mirrors the official 18-type chart.
var superEffective = map[string][]string{
	"normal":   {},
	"fire":     {"grass", "ice", "bug", "steel"},
	"water":    {"fire", "ground", "rock"},
	"electric": {"water", "flying"},
	"grass":    {"water", "ground", "rock"},
	"ice":      {"grass", "ground", "flying", "dragon"},
	"fighting": {"normal", "ice", "rock", "dark", "steel"},
	"poison":   {"grass", "fairy"},
	"ground":   {"fire", "electric", "poison", "rock", "steel"},
	"flying":   {"grass", "fighting", "bug"},
	"psychic":  {"fighting", "poison"},
	"bug":      {"grass", "psychic", "dark"},
	"rock":     {"fire", "ice", "flying", "bug"},
	"ghost":    {"psychic", "ghost"},
	"dragon":   {"dragon"},
	"dark":     {"psychic", "ghost"},
	"steel":    {"ice", "rock", "fairy"},
	"fairy":    {"fighting", "dragon", "dark"},
}

// immunities lists, per defending category, the attacking categories it
// takes no damage from. Immunity overrides every other relation.
var immunities = map[string][]string{
	"normal":   {"ghost"},
	"fighting": {"ghost"},
	"ground":   {"electric"},
	"flying":   {"ground"},
	"ghost":    {"normal", "fighting"},
	"dark":     {"psychic"},
	"steel":    {"poison"},
}

// Matrix is the category-by-category effectiveness table. It is built once
// at startup and never mutated afterwards, so it is safe to share across
// concurrent evaluations without locking.
type Matrix struct {
	mult map[string]map[string]float64
}

// NewMatrix builds the full multiplier table from the relation lists.
func NewMatrix() *Matrix {
	m := &Matrix{mult: make(map[string]map[string]float64, len(superEffective))}
	for attacker := range superEffective {
		row := make(map[string]float64, len(superEffective))
		for defender := range superEffective {
			row[defender] = resolveMultiplier(attacker, defender)
		}
		m.mult[attacker] = row
	}
	return m
}

func resolveMultiplier(attacker, defender string) float64 {
	for _, immune := range immunities[defender] {
		if immune == attacker {
			return 0.0
		}
	}
	for _, weak := range superEffective[attacker] {
		if weak == defender {
			return 2.0
		}
	}
	for _, resisted := range superEffective[defender] {
		if resisted == attacker {
			return 0.5
		}
	}
	return 1.0
}

// Multiplier returns the single-category effectiveness of attacker against
// defender, one of 0.0, 0.5, 1.0, or 2.0. Unknown categories are neutral.
func (m *Matrix) Multiplier(attacker, defender string) float64 {
	row, ok := m.mult[strings.ToLower(attacker)]
	if !ok {
		return 1.0
	}
	v, ok := row[strings.ToLower(defender)]
	if !ok {
		return 1.0
	}
	return v
}

// Known reports whether the category appears in the table.
func (m *Matrix) Known(category string) bool {
	_, ok := m.mult[strings.ToLower(category)]
	return ok
}

// Categories returns every category name in the table, in no fixed order.
func (m *Matrix) Categories() []string {
	out := make([]string, 0, len(m.mult))
	for c := range m.mult {
		out = append(out, c)
	}
	return out
}
