package transfer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ruthe06/cloudsharefiles/internal/storage"
)

// Janitor schedules the best-effort bulk delete of a session's chunks a
// fixed delay after the final chunk lands. A slow receiver can lose access;
// this is expiry, not a transactional guarantee. Timers are keyed by
// session id so a session restart replaces its pending sweep instead of
// racing it, and Cancel exists for a future receiver-confirmed signal even
// though nothing calls it yet.
type Janitor struct {
	gateway storage.Gateway
	delay   time.Duration
	logger  *slog.Logger

	// OnSweep, if set, runs after a session's keys are deleted.
	OnSweep func(sessionID string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewJanitor(gateway storage.Gateway, delay time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		gateway: gateway,
		delay:   delay,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the delete timer for a session's chunk keys.
func (j *Janitor) Schedule(sessionID string, totalChunks int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if timer, ok := j.timers[sessionID]; ok {
		timer.Stop()
	}
	j.timers[sessionID] = time.AfterFunc(j.delay, func() {
		j.sweep(sessionID, totalChunks)
	})
	j.logger.Info("auto-delete scheduled", "session", sessionID, "chunks", totalChunks, "delay", j.delay)
}

// Cancel disarms a session's pending sweep. Reports whether one was armed.
func (j *Janitor) Cancel(sessionID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	timer, ok := j.timers[sessionID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(j.timers, sessionID)
	return true
}

func (j *Janitor) sweep(sessionID string, totalChunks int) {
	j.mu.Lock()
	delete(j.timers, sessionID)
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	keys := storage.SessionKeys(sessionID, totalChunks)
	if err := j.gateway.DeleteMany(ctx, keys); err != nil {
		// Logged, never escalated; the storage TTL is the backstop.
		j.logger.Error("auto-delete failed", "session", sessionID, "err", err)
		return
	}
	j.logger.Info("auto-deleted session chunks", "session", sessionID, "chunks", totalChunks)

	if j.OnSweep != nil {
		j.OnSweep(sessionID)
	}
}
