// Package storage persists batch and checkpoint artifacts. All writes go
// through SecureStorage, which layers optional zstd compression and
// symmetric encryption over atomic file replacement.
package storage

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"

	"dmr/internal/providers"
	"dmr/internal/structures"
)

const (
	keySize   = 32
	nonceSize = 24
	fileMode  = os.FileMode(0o600)
)

type SecureStorage struct {
	compressor Compressor
	compress   bool
	wipe       bool
	key        *[keySize]byte
	logger     providers.Logger
}

func NewSecureStorage(conf *structures.Config, compressor Compressor, logger providers.Logger) (*SecureStorage, error) {
	s := &SecureStorage{
		compressor: compressor,
		compress:   conf.Storage.Compress,
		wipe:       conf.Storage.SecureWipe,
		logger:     logger,
	}

	if conf.Storage.Encrypt {
		if conf.Storage.KeyFile == "" {
			return nil, fmt.Errorf("storage.encrypt is enabled but storage.keyFile is not set")
		}
		key, err := loadOrCreateKey(conf.Storage.KeyFile, logger)
		if err != nil {
			return nil, err
		}
		s.key = key
	}

	return s, nil
}

func loadOrCreateKey(path string, logger providers.Logger) (*[keySize]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != keySize {
			return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", path, keySize, len(raw))
		}
		key := new([keySize]byte)
		copy(key[:], raw)
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}

	key := new([keySize]byte)
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("generate encryption key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key[:], fileMode); err != nil {
		return nil, fmt.Errorf("save encryption key %s: %w", path, err)
	}
	logger.Infof(providers.TypeStore, "Generated new encryption key at %s", path)
	return key, nil
}

// Encode applies compression then encryption, in that order, so the
// ciphertext does not leak plaintext structure to the compressor ratio.
func (s *SecureStorage) Encode(data []byte) ([]byte, error) {
	var err error
	if s.compress {
		data, err = s.compressor.Compress(data)
		if err != nil {
			return nil, err
		}
	}
	if s.key != nil {
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return nil, fmt.Errorf("generate nonce: %w", err)
		}
		data = secretbox.Seal(nonce[:], data, &nonce, s.key)
	}
	return data, nil
}

func (s *SecureStorage) Decode(data []byte) ([]byte, error) {
	if s.key != nil {
		if len(data) < nonceSize {
			return nil, fmt.Errorf("encrypted payload too short: %d bytes", len(data))
		}
		var nonce [nonceSize]byte
		copy(nonce[:], data[:nonceSize])
		plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, s.key)
		if !ok {
			return nil, fmt.Errorf("decryption failed: wrong key or corrupted data")
		}
		data = plain
	}
	if s.compress {
		return s.compressor.Decompress(data)
	}
	return data, nil
}

// WriteFile encodes and atomically replaces path: data goes to a temp
// file which is fsynced before rename, so a crash mid-write never
// corrupts a previously valid artifact.
func (s *SecureStorage) WriteFile(path string, data []byte) error {
	encoded, err := s.Encode(data)
	if err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}

	_, err = file.Write(encoded)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}

func (s *SecureStorage) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Decode(data)
}

// Remove deletes an artifact. With secure wipe enabled the contents are
// overwritten with zeros and synced before the unlink, so recoverable
// plaintext is destroyed even on plain filesystems.
func (s *SecureStorage) Remove(path string) error {
	if !s.wipe {
		return os.Remove(path)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}
	zeros := make([]byte, 64*1024)
	remaining := fi.Size()
	for remaining > 0 {
		n := int64(len(zeros))
		if remaining < n {
			n = remaining
		}
		if _, err := file.Write(zeros[:n]); err != nil {
			file.Close()
			return err
		}
		remaining -= n
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *SecureStorage) Close() {
	s.compressor.Close()
}
