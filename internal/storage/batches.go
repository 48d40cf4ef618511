package storage

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"dmr/internal/models"
	"dmr/internal/providers"
	"dmr/internal/structures"
)

// BatchWriter persists one artifact per fetched page, named by the
// monotonically increasing batch index. Writing the same index twice
// replaces the artifact, which keeps resume-after-crash idempotent.
type BatchWriter struct {
	dir      string
	compress bool
	encrypt  bool
	store    *SecureStorage
	logger   providers.Logger
}

func NewBatchWriter(conf *structures.Config, store *SecureStorage, logger providers.Logger) (*BatchWriter, error) {
	if err := os.MkdirAll(conf.Storage.Directory, 0o700); err != nil {
		return nil, fmt.Errorf("create batch directory %s: %w", conf.Storage.Directory, err)
	}
	return &BatchWriter{
		dir:      conf.Storage.Directory,
		compress: conf.Storage.Compress,
		encrypt:  conf.Storage.Encrypt,
		store:    store,
		logger:   logger,
	}, nil
}

func (b *BatchWriter) BatchPath(index int) string {
	name := fmt.Sprintf("messages_batch_%06d.json", index)
	if b.compress {
		name += ".zst"
	}
	if b.encrypt {
		name += ".enc"
	}
	return filepath.Join(b.dir, name)
}

func (b *BatchWriter) WriteBatch(index int, messages []*models.Message) (string, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("encode batch %d: %w", index, err)
	}

	path := b.BatchPath(index)
	if err := b.store.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("write batch %d: %w", index, err)
	}

	b.logger.Debugf(providers.TypeStore, "Wrote batch %d (%d messages) to %s", index, len(messages), path)
	return path, nil
}

// ReadBatch loads a previously written artifact. A missing artifact is
// reported with os.IsNotExist semantics.
func (b *BatchWriter) ReadBatch(index int) ([]*models.Message, error) {
	data, err := b.store.ReadFile(b.BatchPath(index))
	if err != nil {
		return nil, err
	}
	var messages []*models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode batch %d: %w", index, err)
	}
	return messages, nil
}
