// Package app wires the leaderboard source and file sink into export cycles
// and runs them on a fixed interval.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/boardsync/internal/adapters/source"
	"github.com/okian/boardsync/internal/domain/failure"
	"github.com/okian/boardsync/internal/domain/model"
	"github.com/okian/boardsync/pkg/logger"
	"github.com/okian/boardsync/pkg/metrics"
)

// Default exporter configuration constants.
const (
	defaultPageSize  = 100
	defaultPageDelay = time.Second
	microsPerMilli   = 1000
)

// PageFetcher returns one page of the leaderboard.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) (source.Page, error)
}

// Sink persists an export.
type Sink interface {
	WriteRecords(batch model.ExportBatch) error
	WriteMetadata(meta model.ExportMetadata) error
}

// State is the exporter's position in a cycle.
type State string

// Cycle states.
const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateExporting State = "exporting"
	StateAborted   State = "aborted"
)

// CycleReport summarises the most recent cycle.
type CycleReport struct {
	ID         string    `json:"id"`
	OK         bool      `json:"ok"`
	Records    int       `json:"records"`
	Pages      int       `json:"pages"`
	Skipped    int       `json:"skipped"`
	TopScore   float64   `json:"top_score"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// fetchSummary is what a pagination run produced.
type fetchSummary struct {
	batch   model.ExportBatch
	pages   int
	skipped int
	err     error // the failure that cut pagination short, if any
}

// Exporter fetches every leaderboard page and writes the result to the sink.
// Cycles are sequential; the mutex only guards the read-side snapshot.
type Exporter struct {
	fetcher   PageFetcher
	sink      Sink
	contest   string
	pageSize  int
	pageDelay time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	logger    logger.Logger

	mu        sync.RWMutex
	state     State
	last      CycleReport
	lastBatch model.ExportBatch
	cycles    int
}

// NewExporter constructs an Exporter reading from fetcher and writing to sink.
func NewExporter(fetcher PageFetcher, sink Sink, opts ...Option) *Exporter {
	e := &Exporter{
		fetcher:   fetcher,
		sink:      sink,
		pageSize:  defaultPageSize,
		pageDelay: defaultPageDelay,
		now:       time.Now,
		sleep:     sleepContext,
		state:     StateIdle,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.Named("exporter")
	}
	return e
}

// FetchPage requests a single page. Failures are not retried.
func (e *Exporter) FetchPage(ctx context.Context, offset, limit int) (source.Page, error) {
	return e.fetcher.FetchPage(ctx, offset, limit)
}

// FetchAll walks offsets 0, P, 2P, ... and concatenates the records in
// arrival order. It stops at the first failed page, the first empty page, the
// first page shorter than pageSize (kept), or a page flagged has_more=false
// (kept). The returned error is the page failure that ended pagination, if
// any; the records gathered before it are still returned.
func (e *Exporter) FetchAll(ctx context.Context, pageSize int) (model.ExportBatch, error) {
	s := e.fetchAll(ctx, pageSize)
	return s.batch, s.err
}

func (e *Exporter) fetchAll(ctx context.Context, pageSize int) fetchSummary {
	var s fetchSummary
	if pageSize <= 0 {
		s.err = failure.Fetch("app.fetch_all", 0, fmt.Errorf("%w: page size %d", source.ErrInvalidPage, pageSize))
		return s
	}

	for offset := 0; ; offset += pageSize {
		page, err := e.FetchPage(ctx, offset, pageSize)
		if err != nil {
			e.logger.Error(ctx, "page fetch failed; stopping pagination",
				logger.Int("offset", offset),
				logger.Int("collected", s.batch.Len()),
				logger.String("kind", failure.KindLabel(err)),
				logger.Error(err),
			)
			s.err = err
			return s
		}

		s.pages++
		s.skipped += page.Skipped
		if page.Received == 0 {
			return s
		}

		s.batch = append(s.batch, page.Records...)
		e.logger.Info(ctx, "fetched participants",
			logger.Int("offset", offset),
			logger.Int("count", page.Records.Len()),
			logger.Int("total", s.batch.Len()),
		)

		if page.Received < pageSize {
			return s
		}
		if page.HasMore != nil && !*page.HasMore {
			return s
		}

		if err := e.sleep(ctx, e.pageDelay); err != nil {
			e.logger.Warn(ctx, "pagination interrupted", logger.Int("offset", offset), logger.Error(err))
			return s
		}
	}
}

// Export writes batch as CSV followed by the metadata sidecar. An empty batch
// is refused and leaves the previous files untouched.
func (e *Exporter) Export(ctx context.Context, batch model.ExportBatch) error {
	const op = "app.export"
	if batch.Empty() {
		return failure.Empty(op)
	}

	start := time.Now()
	if err := e.sink.WriteRecords(batch); err != nil {
		metrics.RecordExportWriteError()
		return err
	}
	now := e.now()
	meta := model.NewMetadata(batch, e.contest, now)
	if err := e.sink.WriteMetadata(meta); err != nil {
		metrics.RecordExportWriteError()
		return err
	}

	metrics.RecordExport(batch.Len(), meta.TopScore, now.Unix(), float64(time.Since(start).Microseconds())/microsPerMilli)
	e.logger.Info(ctx, "export written",
		logger.Int("participants", meta.TotalParticipants),
		logger.Float64("top_score", meta.TopScore),
	)
	return nil
}

// RunCycle runs one fetch and export. It never panics or returns an error:
// every failure is logged and folded into the boolean result.
func (e *Exporter) RunCycle(ctx context.Context) (ok bool) {
	report := CycleReport{ID: uuid.NewString(), StartedAt: e.now()}

	var batch model.ExportBatch
	defer func() {
		if r := recover(); r != nil {
			ok = false
			report.Error = fmt.Sprintf("panic: %v", r)
			e.logger.Error(ctx, "cycle panicked", logger.String("cycle", report.ID), logger.Any("panic", r))
		}
		report.OK = ok
		report.FinishedAt = e.now()
		e.finish(report, batch)
		metrics.RecordCycle(ok, float64(report.FinishedAt.Sub(report.StartedAt).Microseconds())/microsPerMilli)
	}()

	e.logger.Info(ctx, "starting leaderboard update", logger.String("cycle", report.ID))
	e.setState(StateFetching)

	s := e.fetchAll(ctx, e.pageSize)
	report.Pages, report.Skipped, report.Records = s.pages, s.skipped, s.batch.Len()

	if s.batch.Empty() {
		err := failure.Empty("app.run_cycle")
		if s.err != nil {
			err = errors.Join(err, s.err)
		}
		metrics.RecordFetchError("empty")
		report.Error = err.Error()
		e.setState(StateAborted)
		e.logger.Error(ctx, "no participants fetched", logger.String("cycle", report.ID), logger.Error(err))
		return false
	}

	e.setState(StateExporting)
	if err := e.Export(ctx, s.batch); err != nil {
		report.Error = err.Error()
		e.setState(StateAborted)
		e.logger.Error(ctx, "failed to write export",
			logger.String("cycle", report.ID),
			logger.String("kind", failure.KindLabel(err)),
			logger.Error(err),
		)
		return false
	}

	batch = s.batch
	report.TopScore = s.batch.TopScore()
	e.logger.Info(ctx, "leaderboard updated successfully",
		logger.String("cycle", report.ID),
		logger.Int("participants", report.Records),
		logger.Int("pages", report.Pages),
		logger.Int("skipped", report.Skipped),
	)
	return true
}

func (e *Exporter) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Exporter) finish(report CycleReport, batch model.ExportBatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateIdle
	e.last = report
	e.cycles++
	if report.OK {
		e.lastBatch = batch
	}
}

// State returns the current cycle state.
func (e *Exporter) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LastReport returns the summary of the most recent cycle.
func (e *Exporter) LastReport() CycleReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// TopN returns up to n rows of the last successful export.
func (e *Exporter) TopN(_ context.Context, n int) (model.ExportBatch, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastBatch.Head(n), nil
}

// Lookup returns the row for hacker in the last successful export.
func (e *Exporter) Lookup(_ context.Context, hacker string) (model.ParticipantRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.lastBatch.Find(hacker)
	if !ok {
		return model.ParticipantRecord{}, fmt.Errorf("%w: %s", model.ErrNotFound, hacker)
	}
	return rec, nil
}

// GetStats returns exporter statistics for monitoring.
func (e *Exporter) GetStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return map[string]interface{}{
		"contest":    e.contest,
		"state":      string(e.state),
		"cycles":     e.cycles,
		"pageSize":   e.pageSize,
		"lastCycle":  e.last,
		"lastExport": e.lastBatch.Len(),
	}
}

// sleepContext pauses for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
