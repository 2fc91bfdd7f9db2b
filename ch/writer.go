package ch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

// FetchLog is a cache.Sink that batches one FetchRow per outcome
type FetchLog struct {
	config   *WriterConfig
	logger   logger.Logger
	inserter Inserter
	runner   routine.Runner

	dataChan    *chanx.UnboundedChan[FetchRow]
	flushTicker *time.Ticker

	closeMu sync.RWMutex
	done    chan struct{}
	closed  atomic.Bool
}

var _ cache.Sink = (*FetchLog)(nil)

// NewFetchLog creates a fetch log writing through inserter. Start must be
// called before rows are flushed.
func NewFetchLog(inserter Inserter, config *WriterConfig, log logger.Logger) *FetchLog {
	if config == nil {
		config = DefaultWriterConfig()
	} else {
		config = config.MergeDefaults()
	}

	w := &FetchLog{
		config:      config,
		logger:      log,
		inserter:    inserter,
		runner:      routine.New(log),
		dataChan:    chanx.NewUnboundedChan[FetchRow](context.Background(), config.FlushSize),
		flushTicker: time.NewTicker(config.FlushInterval),
		done:        make(chan struct{}),
	}
	log.Info("clickhouse fetch log initialized",
		zap.Duration("flush_interval", config.FlushInterval),
		zap.Int("flush_size", config.FlushSize),
		zap.Int("min_flush_size", config.MinFlushSize),
		zap.Duration("max_wait_time", config.MaxWaitTime),
	)
	return w
}

// Start launches the flush loop
func (w *FetchLog) Start() {
	w.runner.Go("ch-fetch-log", w.processLoop)
}

// Name implements cache.Sink
func (w *FetchLog) Name() string { return "clickhouse-fetch-log" }

// Record implements cache.Sink
func (w *FetchLog) Record(ctx context.Context, o cache.Outcome) error {
	return w.Write(ctx, NewFetchRow(o))
}

// Write queues rows for the next flush
func (w *FetchLog) Write(ctx context.Context, rows ...FetchRow) error {
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed.Load() {
		return ErrWriterClosed
	}
	for _, row := range rows {
		select {
		case w.dataChan.In <- row:
		case <-ctx.Done():
			return ctx.Err()
		default:
			w.logger.Error("fetch log queue is full, dropping row",
				zap.Int("queued", w.dataChan.Len()),
				zap.String("event_id", row.EventID),
			)
			return ErrBufferFull
		}
	}
	return nil
}

// Close flushes every queued row and stops the loop
func (w *FetchLog) Close() error {
	w.closeMu.Lock()
	if !w.closed.CompareAndSwap(false, true) {
		w.closeMu.Unlock()
		return nil
	}
	w.flushTicker.Stop()
	close(w.done)
	close(w.dataChan.In)
	w.closeMu.Unlock()

	w.runner.Wait()
	w.logger.Info("clickhouse fetch log closed")
	return nil
}

func (w *FetchLog) processLoop() {
	var (
		buffer        []FetchRow
		firstDataTime time.Time
	)
	reset := func() {
		buffer = nil
		firstDataTime = time.Time{}
	}

	for {
		select {
		case row, ok := <-w.dataChan.Out:
			if !ok {
				w.flush(buffer)
				return
			}
			if len(buffer) == 0 {
				firstDataTime = time.Now()
			}
			buffer = append(buffer, row)
			if len(buffer) >= w.config.FlushSize {
				w.flush(buffer)
				reset()
			}

		case <-w.flushTicker.C:
			if len(buffer) > 0 && w.shouldFlush(len(buffer), firstDataTime) {
				w.flush(buffer)
				reset()
			}

		case <-w.done:
			for row := range w.dataChan.Out {
				buffer = append(buffer, row)
			}
			w.logger.Info("fetch log draining", zap.Int("buffered_rows", len(buffer)))
			w.flush(buffer)
			return
		}
	}
}

// shouldFlush applies the MinFlushSize and MaxWaitTime strategy to an
// interval flush
func (w *FetchLog) shouldFlush(rows int, firstDataTime time.Time) bool {
	if w.config.MinFlushSize == 0 || rows >= w.config.MinFlushSize {
		return true
	}
	return w.config.MaxWaitTime > 0 && time.Since(firstDataTime) >= w.config.MaxWaitTime
}

func (w *FetchLog) flush(rows []FetchRow) {
	if len(rows) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.config.InsertTimeout)
	defer cancel()
	if err := w.inserter.InsertFetchRows(ctx, rows); err != nil {
		w.logger.Error("failed to flush fetch log", zap.Int("rows", len(rows)), zap.Error(err))
		return
	}
	w.logger.Debug("fetch log flushed", zap.Int("rows", len(rows)))
}
