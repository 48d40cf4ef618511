package controllers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"dmr/internal/fetcher"
	"dmr/internal/models"
	"dmr/internal/storage"
	"dmr/internal/structures"
	"dmr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressController(t *testing.T) (*ProgressController, *models.ProgressTracker, *fetcher.CheckpointManager) {
	t.Helper()
	conf := &structures.Config{
		Checkpoint: structures.CheckpointConfig{
			FilePath: filepath.Join(t.TempDir(), "checkpoint.json"),
		},
	}
	logger := &testutil.MockLogger{}
	store, err := storage.NewSecureStorage(conf, &testutil.MockCompressor{}, logger)
	require.NoError(t, err)
	ckpts := fetcher.NewCheckpointManager(conf, store, logger)
	progress := models.NewProgressTracker(0)

	return NewProgressController(logger, progress, ckpts), progress, ckpts
}

func TestGetProgress(t *testing.T) {
	pc, progress, _ := newProgressController(t)
	progress.RecordBatch(50)
	progress.RecordBatch(60)
	progress.RecordRedacted(4)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rr := httptest.NewRecorder()
	pc.GetProgress(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var snap models.ProgressSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, int64(110), snap.Messages)
	assert.Equal(t, int64(2), snap.Batches)
	assert.Equal(t, int64(4), snap.Redacted)
}

func TestGetCheckpoint(t *testing.T) {
	pc, _, ckpts := newProgressController(t)
	require.NoError(t, ckpts.Save(&models.CheckpointData{
		ChannelID:       "42",
		BatchIndex:      3,
		MessagesFetched: 110,
		Status:          models.RunInProgress,
	}))

	req := httptest.NewRequest(http.MethodGet, "/checkpoint", nil)
	rr := httptest.NewRecorder()
	pc.GetCheckpoint(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var cp models.CheckpointData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cp))
	assert.Equal(t, "42", cp.ChannelID)
	assert.Equal(t, 3, cp.BatchIndex)
	assert.Equal(t, 110, cp.MessagesFetched)
}

func TestGetCheckpoint_NotFoundBeforeFirstSave(t *testing.T) {
	pc, _, _ := newProgressController(t)

	req := httptest.NewRequest(http.MethodGet, "/checkpoint", nil)
	rr := httptest.NewRecorder()
	pc.GetCheckpoint(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
