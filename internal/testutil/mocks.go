package testutil

import (
	"context"
	"sync"
	"time"

	"dmr/internal/models"
	"dmr/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockCompressor is a passthrough storage.Compressor that counts calls.
type MockCompressor struct {
	CompressCalls   int
	DecompressCalls int
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	m.CompressCalls++
	return val, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	m.DecompressCalls++
	return val, nil
}

func (m *MockCompressor) Close() {}

// MockCache is a map-backed providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockMetrics implements providers.MetricsProviderInterface and records counts.
type MockMetrics struct {
	mu            sync.Mutex
	Requests      int
	Pages         int
	Retries       int
	RateLimitHits int
	BreakerStates []int
	CacheHits     int
	CacheMisses   int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncPagesFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages++
}
func (m *MockMetrics) IncFetchRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Retries++
}
func (m *MockMetrics) IncRateLimitHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimitHits++
}
func (m *MockMetrics) SetBreakerState(state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BreakerStates = append(m.BreakerStates, state)
}
func (m *MockMetrics) ObservePageDuration(_ time.Duration)        {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

// SourceCall records one page request made against MockSource.
type SourceCall struct {
	Before string
	Limit  int
}

// SourceResponse scripts one reply from MockSource.
type SourceResponse struct {
	Messages []*models.Message
	Err      error
}

// MockSource implements discord.MessageSource with a scripted response
// sequence. Once the script is exhausted it returns empty pages.
type MockSource struct {
	mu        sync.Mutex
	Responses []SourceResponse
	Calls     []SourceCall
}

func (m *MockSource) GetMessages(_ context.Context, _ string, before string, limit int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, SourceCall{Before: before, Limit: limit})
	if len(m.Responses) == 0 {
		return nil, nil
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp.Messages, resp.Err
}
