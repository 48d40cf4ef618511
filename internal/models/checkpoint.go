package models

import "time"

// CheckpointSchemaVersion is bumped whenever the on-disk checkpoint layout
// changes incompatibly. Loading a file with a different version is treated
// as corruption, never silently discarded.
const CheckpointSchemaVersion = 1

type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunAborted    RunStatus = "aborted"
)

// CheckpointData records durable retrieval progress. It always describes
// the last fully persisted batch; the fetcher advances it only after a
// batch artifact has been written.
type CheckpointData struct {
	SchemaVersion   int       `json:"schema_version"`
	ChannelID       string    `json:"channel_id"`
	RunID           string    `json:"run_id"`
	LastCursor      string    `json:"last_cursor"`
	BatchIndex      int       `json:"batch_index"`
	MessagesFetched int       `json:"messages_fetched_count"`
	EarliestSeen    time.Time `json:"earliest_seen"`
	LatestSeen      time.Time `json:"latest_seen"`
	StartDate       string    `json:"start_date,omitempty"`
	EndDate         string    `json:"end_date,omitempty"`
	Status          RunStatus `json:"status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ObserveTimestamps widens the earliest/latest window with a message time.
func (c *CheckpointData) ObserveTimestamps(ts time.Time) {
	if c.EarliestSeen.IsZero() || ts.Before(c.EarliestSeen) {
		c.EarliestSeen = ts
	}
	if c.LatestSeen.IsZero() || ts.After(c.LatestSeen) {
		c.LatestSeen = ts
	}
}
