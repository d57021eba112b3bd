package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/internal/store"
)

func TestFormatHistoryList(t *testing.T) {
	records := []store.Record{
		{
			Verdict:   sampleVerdict(battle.WinnerSideA),
			CreatedAt: time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatHistoryList(&buf, records)

	out := buf.String()
	assert.Contains(t, out, "7c9e6679")
	assert.Contains(t, out, "squirtle")
	assert.Contains(t, out, "charmander")
	assert.Contains(t, out, "side_a")
	assert.Contains(t, out, "73%")
	assert.Contains(t, out, "2026-08-29 14:30")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "7c9e6679", truncateID("7c9e6679-7425-40de-944b-e07fc1f90ae7"))
	assert.Equal(t, "short", truncateID("short"))
}
