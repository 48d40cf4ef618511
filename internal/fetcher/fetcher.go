// Package fetcher orchestrates the resilient retrieval pipeline: cursor
// pagination through the remote service, guarded by the circuit breaker
// and rate limiter, with privacy redaction and checkpointed persistence
// per page.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/google/uuid"

	"dmr/internal/discord"
	"dmr/internal/models"
	"dmr/internal/privacy"
	"dmr/internal/providers"
	"dmr/internal/storage"
	"dmr/internal/structures"
)

// ErrStalled aborts a run that has made no progress within the configured
// stall timeout.
var ErrStalled = errors.New("fetch stalled: no progress within timeout")

type Fetcher struct {
	conf      *structures.Config
	source    discord.MessageSource
	breaker   *CircuitBreaker
	limiter   *RateLimiter
	ckpts     *CheckpointManager
	processor *privacy.Processor
	batches   *storage.BatchWriter
	progress  *models.ProgressTracker
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface

	// seen guards against the service returning overlapping pages:
	// a message persisted once in this run is never persisted again.
	seen *roaring64.Bitmap
}

func NewFetcher(
	conf *structures.Config,
	source discord.MessageSource,
	breaker *CircuitBreaker,
	limiter *RateLimiter,
	ckpts *CheckpointManager,
	processor *privacy.Processor,
	batches *storage.BatchWriter,
	progress *models.ProgressTracker,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *Fetcher {
	return &Fetcher{
		conf:      conf,
		source:    source,
		breaker:   breaker,
		limiter:   limiter,
		ckpts:     ckpts,
		processor: processor,
		batches:   batches,
		progress:  progress,
		logger:    logger,
		metrics:   metrics,
		seen:      roaring64.New(),
	}
}

// FetchAll retrieves the channel's full history and returns the total
// number of messages persisted across all runs of this channel.
func (f *Fetcher) FetchAll(ctx context.Context) (int, error) {
	cp, err := f.loadOrInitCheckpoint()
	if err != nil {
		return 0, err
	}

	channelID := f.conf.Fetcher.ChannelID
	f.logger.Infof(providers.TypeFetch, "Starting fetch for channel %s (run %s, resuming at batch %d, %d messages so far)",
		channelID, cp.RunID, cp.BatchIndex, cp.MessagesFetched)

	for {
		if err := ctx.Err(); err != nil {
			return cp.MessagesFetched, f.abort(cp, err)
		}
		if f.progress.IsStalled() {
			return cp.MessagesFetched, f.abort(cp, ErrStalled)
		}

		page, err := f.fetchPage(ctx, channelID, cp.LastCursor)
		if err != nil {
			return cp.MessagesFetched, f.abort(cp, err)
		}

		if len(page) == 0 {
			f.logger.Infof(providers.TypeFetch, "No more messages, fetch complete")
			return cp.MessagesFetched, f.complete(cp)
		}
		if err := validatePageOrder(page); err != nil {
			return cp.MessagesFetched, f.abort(cp, err)
		}

		oldest := page[len(page)-1]
		reachedStart := !f.conf.Fetcher.StartTime.IsZero() && oldest.Timestamp.Before(f.conf.Fetcher.StartTime)

		kept := f.redactPage(f.filterPage(page))

		// Persist-then-advance: the checkpoint may only move once the
		// redacted batch is durably on disk.
		if len(kept) > 0 {
			index := cp.BatchIndex + 1
			start := time.Now()
			path, err := f.batches.WriteBatch(index, kept)
			if err != nil {
				return cp.MessagesFetched, f.abort(cp, err)
			}
			f.metrics.ObservePersistenceDuration(time.Since(start))

			f.markSeen(kept)
			cp.BatchIndex = index
			cp.MessagesFetched += len(kept)
			for _, msg := range kept {
				cp.ObserveTimestamps(msg.Timestamp)
			}
			f.progress.RecordBatch(len(kept))
			f.logger.Infof(providers.TypeFetch, "Saved batch %d (%d messages) to %s, total %d",
				index, len(kept), path, cp.MessagesFetched)
		}

		cp.LastCursor = oldest.ID
		if err := f.ckpts.Save(cp); err != nil {
			return cp.MessagesFetched, err
		}
		f.progress.RecordAdvance()

		if reachedStart {
			f.logger.Infof(providers.TypeFetch, "Reached start date boundary, fetch complete")
			return cp.MessagesFetched, f.complete(cp)
		}
	}
}

// fetchPage retrieves one page, retrying the same page on transient
// failures with backoff. Exhausted retries report exactly one failure to
// the circuit breaker.
func (f *Fetcher) fetchPage(ctx context.Context, channelID, cursor string) ([]*models.Message, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := f.breaker.Allow(); err != nil {
			return nil, err
		}
		f.metrics.SetBreakerState(int(f.breaker.State()))

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		page, err := f.source.GetMessages(ctx, channelID, cursor, f.conf.Fetcher.PageSize)
		f.metrics.ObservePageDuration(time.Since(start))

		if err == nil {
			f.breaker.RecordSuccess()
			f.metrics.SetBreakerState(int(f.breaker.State()))
			f.metrics.IncPagesFetched()
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var rle *discord.RateLimitError
		var te *discord.TransientError
		switch {
		case errors.As(err, &rle):
			f.metrics.IncRateLimitHits()
		case errors.As(err, &te):
		default:
			f.breaker.RecordFailure()
			f.metrics.SetBreakerState(int(f.breaker.State()))
			return nil, err
		}

		// A failed half-open probe reopens the breaker immediately; the
		// retry budget is only for calls made against a healthy breaker.
		if f.breaker.State() == BreakerHalfOpen {
			f.breaker.RecordFailure()
			f.metrics.SetBreakerState(int(f.breaker.State()))
			return nil, err
		}

		if attempt >= f.conf.Fetcher.MaxRetries {
			f.breaker.RecordFailure()
			f.metrics.SetBreakerState(int(f.breaker.State()))
			return nil, fmt.Errorf("page fetch failed after %d attempts: %w", attempt+1, lastErr)
		}

		var retryAfter time.Duration
		if rle != nil {
			retryAfter = rle.RetryAfter
		}
		delay := f.limiter.RetryDelay(attempt, retryAfter)
		f.progress.RecordRetry()
		f.metrics.IncFetchRetries()
		f.logger.Warnf(providers.TypeFetch, "Page fetch failed (%v), retrying in %s (attempt %d/%d)",
			err, delay.Round(time.Millisecond), attempt+1, f.conf.Fetcher.MaxRetries)

		if err := f.limiter.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (f *Fetcher) loadOrInitCheckpoint() (*models.CheckpointData, error) {
	cp, err := f.ckpts.Load()

	var corrupt *CorruptCheckpointError
	switch {
	case err == nil:
		if cp.ChannelID != f.conf.Fetcher.ChannelID {
			f.logger.Warnf(providers.TypeFetch, "Checkpoint belongs to channel %s, starting fresh for %s",
				cp.ChannelID, f.conf.Fetcher.ChannelID)
			return f.freshCheckpoint(), nil
		}
		f.seedSeen(cp)
		cp.Status = models.RunInProgress
		return cp, nil

	case errors.Is(err, ErrNoCheckpoint):
		return f.freshCheckpoint(), nil

	case errors.As(err, &corrupt):
		if !f.conf.Checkpoint.DiscardCorrupt {
			return nil, err
		}
		f.logger.Warnf(providers.TypeFetch, "Discarding corrupt checkpoint by operator override: %s", corrupt.Reason)
		if err := f.ckpts.Discard(); err != nil {
			return nil, err
		}
		return f.freshCheckpoint(), nil

	default:
		return nil, err
	}
}

func (f *Fetcher) freshCheckpoint() *models.CheckpointData {
	return &models.CheckpointData{
		SchemaVersion: models.CheckpointSchemaVersion,
		ChannelID:     f.conf.Fetcher.ChannelID,
		RunID:         uuid.NewString(),
		StartDate:     f.conf.Fetcher.StartDate,
		EndDate:       f.conf.Fetcher.EndDate,
		Status:        models.RunInProgress,
	}
}

// seedSeen reloads the duplicate guard from the last persisted batch, the
// only artifact a resumed run can legitimately overlap with.
func (f *Fetcher) seedSeen(cp *models.CheckpointData) {
	if cp.BatchIndex == 0 {
		return
	}
	messages, err := f.batches.ReadBatch(cp.BatchIndex)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warnf(providers.TypeFetch, "Could not seed duplicate guard from batch %d: %v", cp.BatchIndex, err)
		}
		return
	}
	f.markSeen(messages)
}

func (f *Fetcher) markSeen(messages []*models.Message) {
	for _, msg := range messages {
		if id, err := msg.Snowflake(); err == nil {
			f.seen.Add(id)
		}
	}
}

// filterPage drops messages outside the configured date window and any
// message already persisted in this run.
func (f *Fetcher) filterPage(page []*models.Message) []*models.Message {
	start, end := f.conf.Fetcher.StartTime, f.conf.Fetcher.EndTime
	kept := make([]*models.Message, 0, len(page))
	for _, msg := range page {
		if !start.IsZero() && msg.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && msg.Timestamp.After(end) {
			continue
		}
		if id, err := msg.Snowflake(); err == nil && f.seen.Contains(id) {
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}

// redactPage runs the privacy pipeline over a page. A message that fails
// redaction is withheld rather than persisted unredacted.
func (f *Fetcher) redactPage(page []*models.Message) []*models.Message {
	kept := make([]*models.Message, 0, len(page))
	for _, msg := range page {
		out, dropped, err := f.processor.Process(msg)
		if err != nil {
			f.progress.RecordWithheld()
			f.logger.Warnf(providers.TypePrivacy, "Withholding message %s: %v", msg.ID, err)
			continue
		}
		if dropped {
			f.progress.RecordDropped(1)
			continue
		}
		if out.Content != msg.Content {
			f.progress.RecordRedacted(1)
		}
		kept = append(kept, out)
	}
	return kept
}

func validatePageOrder(page []*models.Message) error {
	for i := 1; i < len(page); i++ {
		if page[i].Timestamp.After(page[i-1].Timestamp) {
			return fmt.Errorf("page not in descending time order at message %s", page[i].ID)
		}
	}
	return nil
}

// complete marks the run finished and saves the final checkpoint.
func (f *Fetcher) complete(cp *models.CheckpointData) error {
	cp.Status = models.RunCompleted
	if err := f.ckpts.Save(cp); err != nil {
		return err
	}
	f.logger.Infof(providers.TypeFetch, "Fetch complete: %d messages in %d batches", cp.MessagesFetched, cp.BatchIndex)
	return nil
}

// abort preserves the last durable checkpoint, marks the run resumable
// and propagates the cause.
func (f *Fetcher) abort(cp *models.CheckpointData, cause error) error {
	cp.Status = models.RunAborted
	if err := f.ckpts.Save(cp); err != nil {
		f.logger.Errorf(providers.TypeFetch, "Failed to save checkpoint on abort: %v", err)
	}
	f.logger.Warnf(providers.TypeFetch, "Run aborted, resumable from batch %d: %v", cp.BatchIndex, cause)
	return cause
}
