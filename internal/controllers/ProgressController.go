package controllers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"dmr/internal/fetcher"
	"dmr/internal/models"
	"dmr/internal/providers"
)

// ProgressController serves read-only run state on the ops endpoint.
type ProgressController struct {
	logger   providers.Logger
	progress *models.ProgressTracker
	ckpts    *fetcher.CheckpointManager
}

func NewProgressController(logger providers.Logger, progress *models.ProgressTracker, ckpts *fetcher.CheckpointManager) *ProgressController {
	return &ProgressController{
		logger:   logger,
		progress: progress,
		ckpts:    ckpts,
	}
}

func (pc *ProgressController) GetProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, pc.progress.Snapshot())
}

func (pc *ProgressController) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := pc.ckpts.Load()
	if err != nil {
		if errors.Is(err, fetcher.ErrNoCheckpoint) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		pc.logger.Errorf(providers.TypeGet, "Checkpoint read failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, cp)
}

func writeJSON(w http.ResponseWriter, payload any) {
	gson, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}
