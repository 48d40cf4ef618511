package fetcher

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"dmr/internal/models"
	"dmr/internal/providers"
	"dmr/internal/storage"
	"dmr/internal/structures"
)

// ErrNoCheckpoint signals a fresh run with no prior progress.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// CorruptCheckpointError is fatal: an unreadable or schema-mismatched
// checkpoint requires an explicit operator override, never an automatic
// restart from scratch.
type CorruptCheckpointError struct {
	Path   string
	Reason string
}

func (e *CorruptCheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s is corrupt: %s (set checkpoint.discardCorrupt to discard and restart)", e.Path, e.Reason)
}

// CheckpointManager durably records retrieval progress. Saves go through
// SecureStorage's atomic replacement, so a crash mid-write never damages
// the previously valid checkpoint.
type CheckpointManager struct {
	path   string
	store  *storage.SecureStorage
	logger providers.Logger

	mu sync.Mutex
}

func NewCheckpointManager(conf *structures.Config, store *storage.SecureStorage, logger providers.Logger) *CheckpointManager {
	return &CheckpointManager{
		path:   conf.Checkpoint.FilePath,
		store:  store,
		logger: logger,
	}
}

func (cm *CheckpointManager) Load() (*models.CheckpointData, error) {
	data, err := cm.store.ReadFile(cm.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCheckpoint
		}
		return nil, &CorruptCheckpointError{Path: cm.path, Reason: err.Error()}
	}

	var cp models.CheckpointData
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, &CorruptCheckpointError{Path: cm.path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if cp.SchemaVersion != models.CheckpointSchemaVersion {
		return nil, &CorruptCheckpointError{
			Path:   cm.path,
			Reason: fmt.Sprintf("schema version %d, expected %d", cp.SchemaVersion, models.CheckpointSchemaVersion),
		}
	}
	if cp.ChannelID == "" {
		return nil, &CorruptCheckpointError{Path: cm.path, Reason: "missing channel id"}
	}
	if cp.BatchIndex < 0 || cp.MessagesFetched < 0 {
		return nil, &CorruptCheckpointError{Path: cm.path, Reason: "negative progress counters"}
	}

	return &cp, nil
}

func (cm *CheckpointManager) Save(cp *models.CheckpointData) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cp.SchemaVersion = models.CheckpointSchemaVersion
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := cm.store.WriteFile(cm.path, data); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	cm.logger.Debugf(providers.TypeStore, "Checkpoint saved: batch=%d messages=%d cursor=%q",
		cp.BatchIndex, cp.MessagesFetched, cp.LastCursor)
	return nil
}

// Discard removes a corrupt checkpoint. Only called under the explicit
// operator override flag.
func (cm *CheckpointManager) Discard() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	err := cm.store.Remove(cm.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard checkpoint: %w", err)
	}
	cm.logger.Warnf(providers.TypeStore, "Discarded checkpoint %s by operator override", cm.path)
	return nil
}
