package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointData_JSONFieldNames(t *testing.T) {
	cp := &CheckpointData{
		SchemaVersion:   CheckpointSchemaVersion,
		ChannelID:       "42",
		RunID:           "run-1",
		LastCursor:      "1005",
		BatchIndex:      3,
		MessagesFetched: 110,
		Status:          RunInProgress,
	}

	data, err := json.Marshal(cp)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "messages_fetched_count")
	assert.Contains(t, raw, "batch_index")
	assert.Contains(t, raw, "last_cursor")
	assert.Equal(t, "in_progress", raw["status"])
}

func TestCheckpointData_Roundtrip(t *testing.T) {
	cp := &CheckpointData{
		SchemaVersion:   CheckpointSchemaVersion,
		ChannelID:       "42",
		RunID:           "run-1",
		LastCursor:      "1005",
		BatchIndex:      3,
		MessagesFetched: 110,
		EarliestSeen:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		LatestSeen:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:          RunCompleted,
		UpdatedAt:       time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(cp)
	require.NoError(t, err)

	var got CheckpointData
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *cp, got)
}

func TestObserveTimestamps_WidensWindow(t *testing.T) {
	cp := &CheckpointData{}

	mid := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	cp.ObserveTimestamps(mid)
	assert.Equal(t, mid, cp.EarliestSeen)
	assert.Equal(t, mid, cp.LatestSeen)

	earlier := mid.AddDate(0, -1, 0)
	cp.ObserveTimestamps(earlier)
	assert.Equal(t, earlier, cp.EarliestSeen)
	assert.Equal(t, mid, cp.LatestSeen)

	later := mid.AddDate(0, 1, 0)
	cp.ObserveTimestamps(later)
	assert.Equal(t, earlier, cp.EarliestSeen)
	assert.Equal(t, later, cp.LatestSeen)

	// Inside the window: no change.
	cp.ObserveTimestamps(mid)
	assert.Equal(t, earlier, cp.EarliestSeen)
	assert.Equal(t, later, cp.LatestSeen)
}
