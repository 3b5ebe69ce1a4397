package transfer

import "sync"

// SessionRegistry pins the chunk count each session announced first. A
// session's total chunk count is fixed by its first ingested chunk; an
// upload announcing a different count is a conflicting session and gets
// rejected rather than silently overwriting the first.
type SessionRegistry struct {
	mu     sync.Mutex
	totals map[string]int
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{totals: make(map[string]int)}
}

// Validate records totalChunks for a new session or checks it against the
// recorded count. Returns ErrTotalChunksMismatch on conflict.
func (r *SessionRegistry) Validate(sessionID string, totalChunks int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorded, ok := r.totals[sessionID]
	if !ok {
		r.totals[sessionID] = totalChunks
		return nil
	}
	if recorded != totalChunks {
		return ErrTotalChunksMismatch
	}
	return nil
}

// Forget drops a session, letting the same id start over with a different
// chunk count. Wired to the janitor's sweep.
func (r *SessionRegistry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.totals, sessionID)
	r.mu.Unlock()
}
