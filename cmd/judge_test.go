package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/pokearena/arena-cli/internal/arena"
	"github.com/pokearena/arena-cli/internal/battle"
)

func sampleVerdict(winner battle.Winner) battle.Verdict {
	return battle.Verdict{
		RunID:      "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Winner:     winner,
		ScoreAvsB:  2.0,
		ScoreBvsA:  0.5,
		Confidence: 0.73,
		Reasoning:  "water is super effective against fire",
		SideA:      battle.AttributeSet{Identifier: "squirtle", Categories: []string{"water"}, Provenance: "get-pokemon"},
		SideB:      battle.AttributeSet{Identifier: "charmander", Categories: []string{"fire"}, Provenance: "get-pokemon"},
		Sources:    []string{"get-pokemon", "get-pokemon"},
	}
}

func TestWriteVerdictJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVerdict(&buf, sampleVerdict(battle.WinnerSideA), "json"))

	out := buf.String()
	assert.Equal(t, "side_a", gjson.Get(out, "winner").String())
	assert.Equal(t, "squirtle", gjson.Get(out, "side_a.identifier").String())
	assert.Equal(t, 2.0, gjson.Get(out, "score_a_vs_b").Float())
}

func TestWriteVerdictYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVerdict(&buf, sampleVerdict(battle.WinnerSideA), "yaml"))

	var decoded battle.Verdict
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, battle.WinnerSideA, decoded.Winner)
	assert.Equal(t, "charmander", decoded.SideB.Identifier)
}

func TestWriteVerdictText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVerdict(&buf, sampleVerdict(battle.WinnerSideA), "text"))

	out := buf.String()
	assert.Contains(t, out, "squirtle defeats charmander")
	assert.Contains(t, out, "confidence 73%")
	assert.Contains(t, out, "water is super effective against fire")
}

func TestWriteVerdictUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeVerdict(&buf, sampleVerdict(battle.WinnerSideA), "xml"))
}

func TestSummaryLine(t *testing.T) {
	t.Run("side b wins leads with side b", func(t *testing.T) {
		v := sampleVerdict(battle.WinnerSideB)
		v.ScoreAvsB, v.ScoreBvsA = 0.5, 2.0

		line := summaryLine(v)
		assert.True(t, strings.HasPrefix(line, "charmander defeats squirtle"), line)
	})

	t.Run("draw", func(t *testing.T) {
		v := sampleVerdict(battle.WinnerDraw)
		v.ScoreAvsB, v.ScoreBvsA = 1.0, 1.0
		v.Confidence = 0.50

		line := summaryLine(v)
		assert.Contains(t, line, "draw")
		assert.Contains(t, line, "confidence 50%")
	})
}

func TestJudgeErrorPrintsFriendlyMessageOnce(t *testing.T) {
	cause := &arena.OrchestrationError{
		Side: arena.SideB,
		Err:  &arena.UnresolvableError{Identifier: "missingno"},
	}
	err := &judgeError{msg: explainJudgeError(cause), err: cause}

	// Cobra prints Error() verbatim; no raw chain text may leak into it.
	assert.Equal(t, `Could not resolve "missingno" with the data service.`, err.Error())
	assert.NotContains(t, err.Error(), "side_b")

	// The wrapped cause still classifies for the exit code.
	assert.Equal(t, exitUnresolvable, exitCode(err))
}

func TestExplainJudgeError(t *testing.T) {
	assert.Contains(t, explainJudgeError(arena.ErrNoCapability), "does not advertise")

	timeout := &arena.OrchestrationError{Side: arena.SideB, Timeout: true, Err: eris.New("deadline")}
	assert.Contains(t, explainJudgeError(timeout), "Timed out")

	unresolvable := &arena.OrchestrationError{
		Side: arena.SideA,
		Err:  &arena.UnresolvableError{Identifier: "missingno"},
	}
	assert.Contains(t, explainJudgeError(unresolvable), `"missingno"`)

	assert.Contains(t, explainJudgeError(eris.New("boom")), "boom")
}
