// Package activity writes the audit trail.
//
// FIRE AND FORGET:
// Record returns immediately; the write happens on its own goroutine, so a
// slow or failing log table never delays or fails the request that caused
// the event. Failures are not dropped silently: they go to the operator
// logger at ERROR level with the entry that was lost.
//
// Close waits for every in-flight write. The server calls it after the HTTP
// listener has drained so no entry is lost on shutdown.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// writeTimeout bounds a single log write.
const writeTimeout = 5 * time.Second

// Recorder sends audit entries to a LogRepository in the background.
type Recorder struct {
	logs   repository.LogRepository
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(logs repository.LogRepository, logger *slog.Logger) *Recorder {
	return &Recorder{logs: logs, logger: logger}
}

// Record queues one entry. userID may be nil for system events. meta, when
// non-nil, is stored as JSON.
//
// ctx only contributes its values: the write outlives the request, so the
// request's cancellation is deliberately not inherited.
func (r *Recorder) Record(ctx context.Context, userID *int64, message string, meta any) {
	entry := &model.Log{UserID: userID, Message: message}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			r.logger.Error("encoding activity metadata",
				slog.String("message", message),
				slog.String("error", err.Error()),
			)
		} else {
			s := string(raw)
			entry.Meta = &s
		}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Error("activity log closed, entry dropped", slog.String("message", message))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()

		if err := r.logs.Create(writeCtx, entry); err != nil {
			attrs := []any{
				slog.String("message", entry.Message),
				slog.String("error", err.Error()),
			}
			if entry.UserID != nil {
				attrs = append(attrs, slog.Int64("userID", *entry.UserID))
			}
			r.logger.Error("writing activity log", attrs...)
		}
	}()
}

// Close stops accepting entries and waits for pending writes.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}
