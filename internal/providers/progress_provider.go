package providers

import (
	"dmr/internal/models"
	"dmr/internal/structures"
)

func NewProgressProvider(conf *structures.Config) *models.ProgressTracker {
	return models.NewProgressTracker(conf.Fetcher.StallTimeout)
}
