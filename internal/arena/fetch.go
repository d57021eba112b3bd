package arena

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/internal/resilience"
	"github.com/pokearena/arena-cli/pkg/pokedex"
)

// identifierParams orders the input-schema parameter names that can carry
// the contestant identifier, most specific first.
var identifierParams = []string{
	"nameorid", "name", "pokemon", "pokemon_name", "identifier", "id", "query", "q", "search",
}

// categoryPaths and powerPaths are the response keys probed when parsing;
// the external schema is not assumed fixed.
var (
	categoryPaths = []string{"types", "categories", "type"}
	powerPaths    = []string{"base_total", "baseTotal", "base_stat_total", "power_total", "powerTotal", "stats_total", "total"}
)

// Fetcher resolves one identifier into an AttributeSet through a single
// capability invocation wrapped with normalization, retry, and defensive
// parsing.
type Fetcher struct {
	service pokedex.Service
	retry   resilience.RetryConfig
}

// NewFetcher creates a fetch agent over the data service.
func NewFetcher(service pokedex.Service, retry resilience.RetryConfig) *Fetcher {
	return &Fetcher{service: service, retry: retry}
}

// Fetch invokes the capability for the identifier under ctx's deadline.
// Transient failures are retried per the retry config; not-found,
// exhausted retries, and zero-category responses all come back as
// UnresolvableError.
func (f *Fetcher) Fetch(ctx context.Context, identifier string, capability pokedex.Capability) (battle.AttributeSet, error) {
	id := NormalizeIdentifier(identifier)
	if id == "" {
		return battle.AttributeSet{}, eris.New("arena: empty identifier")
	}

	args := buildArgs(capability, id)

	raw, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) ([]byte, error) {
		raw, err := f.service.Invoke(ctx, capability.Name, args)
		if err != nil {
			return nil, translateInvokeError(err)
		}
		return raw, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			// Deadline and cancellation belong to the orchestrator, not to
			// the identifier.
			return battle.AttributeSet{}, eris.Wrapf(err, "arena: fetch %q", id)
		case errors.Is(err, pokedex.ErrNotFound):
			return battle.AttributeSet{}, &UnresolvableError{Identifier: id, Err: err}
		case resilience.IsTransient(err), resilience.IsRateLimited(err):
			// Retries exhausted; terminal for this identifier.
			return battle.AttributeSet{}, &UnresolvableError{Identifier: id, Err: err}
		}
		return battle.AttributeSet{}, eris.Wrapf(err, "arena: fetch %q", id)
	}

	rec := parseRecord(raw, id, capability.Name)
	if len(rec.Categories) == 0 {
		return battle.AttributeSet{}, &UnresolvableError{
			Identifier: id,
			Err:        eris.New("response carried no categories"),
		}
	}
	return rec, nil
}

// translateInvokeError maps service-level sentinels onto the retry
// policy's error kinds. Not-found stays terminal.
func translateInvokeError(err error) error {
	if errors.Is(err, pokedex.ErrRateLimited) {
		return resilience.NewRateLimitError(err)
	}
	return err
}

// buildArgs maps the normalized identifier onto the capability's declared
// input schema, falling back to the first declared parameter, then to a
// plain "name" argument.
func buildArgs(capability pokedex.Capability, id string) map[string]any {
	for _, want := range identifierParams {
		for _, param := range capability.InputSchema {
			if strings.ToLower(param) == want {
				return map[string]any{param: id}
			}
		}
	}
	if len(capability.InputSchema) > 0 {
		return map[string]any{capability.InputSchema[0]: id}
	}
	return map[string]any{"name": id}
}

// parseRecord reads whatever keys are present in the raw response. Missing
// optional fields default to absence, never to fabricated values.
func parseRecord(raw []byte, requested, provenance string) battle.AttributeSet {
	rec := battle.AttributeSet{
		Identifier: requested,
		Provenance: provenance,
	}

	if name := gjson.GetBytes(raw, "name"); name.Type == gjson.String {
		if resolved := NormalizeIdentifier(name.String()); resolved != "" {
			rec.Identifier = resolved
		}
	}

	rec.Categories = parseCategories(raw)
	rec.PowerTotal = parsePowerTotal(raw)
	return rec
}

func parseCategories(raw []byte) []string {
	for _, path := range categoryPaths {
		v := gjson.GetBytes(raw, path)
		if !v.Exists() {
			continue
		}
		var cats []string
		for _, item := range v.Array() {
			name := item
			if item.IsObject() {
				// PokéAPI nests the tag as {"type": {"name": "..."}}.
				name = item.Get("type.name")
				if !name.Exists() {
					name = item.Get("name")
				}
			}
			if c := strings.ToLower(strings.TrimSpace(name.String())); c != "" {
				cats = append(cats, c)
			}
		}
		if len(cats) > 2 {
			zap.L().Debug("truncating categories to two", zap.Strings("categories", cats))
			cats = cats[:2]
		}
		if len(cats) > 0 {
			return cats
		}
	}
	return nil
}

func parsePowerTotal(raw []byte) *int {
	for _, path := range powerPaths {
		v := gjson.GetBytes(raw, path)
		if v.Type != gjson.Number {
			continue
		}
		if total := int(v.Int()); total >= 0 {
			return &total
		}
	}

	// Fall back to summing a per-stat breakdown when no total is present.
	stats := gjson.GetBytes(raw, "stats")
	if stats.IsArray() {
		sum := 0
		found := false
		for _, s := range stats.Array() {
			base := s.Get("base_stat")
			if !base.Exists() {
				base = s.Get("base")
			}
			if base.Type == gjson.Number {
				sum += int(base.Int())
				found = true
			}
		}
		if found && sum >= 0 {
			return &sum
		}
	}
	return nil
}
