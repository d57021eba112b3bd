package arena

import (
	"strings"

	"github.com/pokearena/arena-cli/pkg/pokedex"
)

// canonicalCapability is the known-good name for "fetch contestant by
// identifier" on conforming servers.
const canonicalCapability = "get-pokemon"

// Capability scoring tiers. Exact canonical match wins outright; keyword
// matches are usable fallbacks; zero never qualifies.
const (
	scoreExact      = 100
	scoreNameMatch  = 60
	scoreDescMatch  = 50
	scoreVocabulary = 20
	scoreUnusable   = 0
)

// vocabulary holds the fallback keywords hinting that a capability can
// look up a contestant.
var vocabulary = []string{"pokemon", "creature", "get", "fetch", "search"}

// ResolveCapability picks the single best capability for fetching a
// contestant by identifier. Pure function: the same descriptor list always
// yields the same pick, with ties broken by first occurrence.
func ResolveCapability(capabilities []pokedex.Capability) (pokedex.Capability, error) {
	best := scoreUnusable
	var pick pokedex.Capability
	for _, c := range capabilities {
		if s := scoreCapability(c); s > best {
			best = s
			pick = c
		}
	}
	if best == scoreUnusable {
		return pokedex.Capability{}, ErrNoCapability
	}
	return pick, nil
}

func scoreCapability(c pokedex.Capability) int {
	name := strings.ToLower(c.Name)
	desc := strings.ToLower(c.Description)

	switch {
	case name == canonicalCapability:
		return scoreExact
	case strings.Contains(name, "pokemon"):
		return scoreNameMatch
	case strings.Contains(desc, "pokemon"), strings.Contains(desc, "pokémon"):
		return scoreDescMatch
	}
	for _, word := range vocabulary {
		if strings.Contains(name, word) || strings.Contains(desc, word) {
			return scoreVocabulary
		}
	}
	return scoreUnusable
}
