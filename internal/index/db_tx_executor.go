package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spindex/internal/index/model"
	"spindex/internal/logging"
)

// dbTxExecutor is the write-behind buffer between the collect pipeline and
// bbolt: records accumulate in memory and flush as one batch transaction
// when the buffer fills or the flush ticker fires.
type dbTxExecutor struct {
	mtx        sync.RWMutex
	opts       dbTxExecutorOptions
	buf        []model.Record
	shutdownCh chan<- error
}

type dbTxExecutorOptions struct {
	appendFn    appendRecordsFn
	dbFlushSize int
	dbFlushTime time.Duration
}

func newTxExecutor(opts dbTxExecutorOptions, shutdownCh chan<- error) *dbTxExecutor {
	return &dbTxExecutor{opts: opts, shutdownCh: shutdownCh}
}

func (tx *dbTxExecutor) shutdown(appendFn appendRecordsFn) error {
	tx.mtx.Lock()
	if err := appendFn(context.Background(), tx.buf); err != nil {
		tx.mtx.Unlock()
		return fmt.Errorf("txExecutor: append many operation failed: %v", err)
	}
	tx.buf = tx.buf[:0]
	tx.mtx.Unlock()
	return nil
}

func (tx *dbTxExecutor) write(ctx context.Context, rec model.Record) {
	logger := logging.FromContext(ctx)
	tx.mtx.Lock()
	if tx.buf == nil {
		tx.buf = []model.Record{}
	}
	tx.buf = append(tx.buf, rec)
	if len(tx.buf) >= tx.opts.dbFlushSize {
		flush := make([]model.Record, len(tx.buf))
		copy(flush, tx.buf)
		tx.buf = tx.buf[:0]
		tx.mtx.Unlock()
		if err := tx.opts.appendFn(ctx, flush); err != nil {
			logger.Errorf("txExecutor: append many operation failed: %v", err)
		}
		return
	}
	tx.mtx.Unlock()
}

func (tx *dbTxExecutor) flusher(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer func() {
		tx.shutdownCh <- tx.shutdown(tx.opts.appendFn)
	}()
	ticker := time.NewTicker(tx.opts.dbFlushTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tx.mtx.Lock()
			if err := tx.opts.appendFn(context.Background(), tx.buf); err != nil {
				logger.Errorf("txExecutor: append many operation failed: %v", err)
			}
			tx.buf = tx.buf[:0]
			tx.mtx.Unlock()
		case <-ctx.Done():
			return
		}
	}
}
