package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/souschef/internal/domain"
)

func TestTurnLogAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "turns.jsonl")
	log := NewTurnLog(path)
	ctx := context.Background()

	recs, err := log.LoadSince(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, domain.TurnRecord{Timestamp: base, Input: "next", Intent: "NAVIGATION", Step: 0, Response: "Step 2: Wait 3 minutes"}))
	require.NoError(t, log.Append(ctx, domain.TurnRecord{Timestamp: base.Add(time.Hour), Input: "how long?", Intent: "TIMING", Step: 1, Response: "About 3 minutes."}))

	// A corrupt line is skipped, not fatal.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, log.Append(ctx, domain.TurnRecord{Timestamp: base.Add(2 * time.Hour), Input: "stop", Intent: "STOP", Step: 1}))

	all, err := log.LoadSince(time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "next", all[0].Input)
	assert.Equal(t, "STOP", all[2].Intent)

	recent, err := log.LoadSince(base.Add(30 * time.Minute))
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	assert.Equal(t, map[string]int{"NAVIGATION": 1, "TIMING": 1, "STOP": 1}, IntentCounts(all))
}
