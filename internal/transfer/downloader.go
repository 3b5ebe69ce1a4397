package transfer

import (
	"context"
	"sync"
)

// State is a download session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateReceiving
	StateMerging
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReceiving:
		return "receiving"
	case StateMerging:
		return "merging"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChunkEvent is one chunk-available announcement, as consumed from the
// room's chunk_received events.
type ChunkEvent struct {
	Index    int
	Total    int
	URL      string
	FileName string
	FileType string
	SenderID string
}

// Assembled is a fully reassembled file.
type Assembled struct {
	Name string
	Type string
	Data []byte
}

// Downloader consumes chunk announcements for one session at a time,
// fetches chunk bytes with bounded concurrency, and reassembles them in
// index order regardless of completion order. Announcements enqueue work;
// a fixed number of fetch slots drain the queue continuously.
//
// The reorder buffer and received count are owned exclusively by one
// Downloader; a coarse mutex serializes them.
type Downloader struct {
	// Concurrency is the number of in-flight chunk fetches. Defaults to
	// DefaultConcurrency.
	Concurrency int

	// FailFast promotes the first fetch error to a terminal Failed
	// transition. The default leaves the session receiving, since the
	// chunk may be re-announced by a sender restart.
	FailFast bool

	// Fetcher retrieves chunk bytes. Defaults to an HTTP GET.
	Fetcher Fetcher

	// OnProgress, if set, is called after each newly filled buffer slot.
	OnProgress func(received, total int)

	// OnError, if set, is called for every failed chunk fetch.
	OnError func(index int, err error)

	mu       sync.Mutex
	state    State
	gen      int
	total    int
	received int
	fileName string
	fileType string
	buf      [][]byte
	queue    []ChunkEvent
	pending  map[int]bool
	inflight int

	done chan Assembled
	fail chan error
}

func NewDownloader() *Downloader {
	return &Downloader{
		pending: make(map[int]bool),
		done:    make(chan Assembled, 1),
		fail:    make(chan error, 1),
	}
}

// Enqueue registers one chunk announcement. The first announcement of a
// session fixes its chunk count and allocates the reorder buffer; an
// announcement disagreeing with that count is rejected. Duplicate indices
// are ignored, whether queued, in flight, or already fetched.
func (d *Downloader) Enqueue(ctx context.Context, ev ChunkEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateIdle || d.state == StateComplete || d.state == StateFailed {
		if ev.Total <= 0 {
			return ErrTotalChunksMismatch
		}
		d.startSession(ev)
	}

	if ev.Total != d.total {
		return ErrTotalChunksMismatch
	}
	if ev.Index < 0 || ev.Index >= d.total {
		return ErrChunkIndexOutOfRange
	}
	if d.buf[ev.Index] != nil || d.pending[ev.Index] {
		return nil
	}

	d.pending[ev.Index] = true
	d.queue = append(d.queue, ev)
	d.pump(ctx)
	return nil
}

// Wait blocks until the current session completes or fails.
func (d *Downloader) Wait(ctx context.Context) (Assembled, error) {
	select {
	case <-ctx.Done():
		return Assembled{}, ctx.Err()
	case asm := <-d.done:
		return asm, nil
	case err := <-d.fail:
		return Assembled{}, err
	}
}

// State reports the session's current lifecycle state.
func (d *Downloader) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Progress reports filled slots versus expected chunks.
func (d *Downloader) Progress() (received, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.received, d.total
}

// startSession clears per-session state and opens a new one. The generation
// bump disowns any fetch still in flight for the previous session. Must hold
// mu.
func (d *Downloader) startSession(ev ChunkEvent) {
	d.gen++
	d.state = StateReceiving
	d.total = ev.Total
	d.received = 0
	d.fileName = ev.FileName
	d.fileType = ev.FileType
	d.buf = make([][]byte, ev.Total)
	d.queue = nil
	d.pending = make(map[int]bool)
}

// pump fills free fetch slots from the queue. Must hold mu.
func (d *Downloader) pump(ctx context.Context) {
	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	for d.inflight < concurrency && len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		d.inflight++
		go d.fetch(ctx, ev, d.gen)
	}
}

func (d *Downloader) fetch(ctx context.Context, ev ChunkEvent, gen int) {
	fetcher := d.Fetcher
	if fetcher == nil {
		fetcher = defaultFetcher
	}
	data, err := fetcher.Fetch(ctx, ev.URL)

	d.mu.Lock()
	d.inflight--

	// A fetch launched by an earlier session is disowned entirely; its
	// bytes, its error, and its pending entry all belong to that session.
	if gen != d.gen {
		d.pump(ctx)
		d.mu.Unlock()
		return
	}

	if err != nil {
		delete(d.pending, ev.Index)
		if d.FailFast && d.state == StateReceiving {
			d.failSession(NewFileError("fetch chunk", ev.FileName, err))
		}
		d.pump(ctx)
		d.mu.Unlock()
		if d.OnError != nil {
			d.OnError(ev.Index, err)
		}
		return
	}

	// The session may have finished or failed while this fetch was in
	// flight; its result is discarded.
	if d.state != StateReceiving || ev.Index >= len(d.buf) {
		d.pump(ctx)
		d.mu.Unlock()
		return
	}

	if d.buf[ev.Index] == nil {
		d.buf[ev.Index] = data
		d.received++
	}
	delete(d.pending, ev.Index)
	received, total := d.received, d.total

	if received == total {
		d.finish()
	}
	d.pump(ctx)
	d.mu.Unlock()

	if d.OnProgress != nil {
		d.OnProgress(received, total)
	}
}

// finish merges the reorder buffer in index order. The count matching the
// total should guarantee every slot is filled, but the merge re-checks
// against accounting bugs before concatenating. Must hold mu.
func (d *Downloader) finish() {
	d.state = StateMerging

	var size int
	for _, slot := range d.buf {
		if slot == nil {
			d.failSession(ErrMissingChunk)
			return
		}
		size += len(slot)
	}

	out := make([]byte, 0, size)
	for _, slot := range d.buf {
		out = append(out, slot...)
	}
	asm := Assembled{Name: d.fileName, Type: d.fileType, Data: out}

	d.clearSession(StateComplete)
	select {
	case d.done <- asm:
	default:
	}
}

// failSession records the terminal error and clears the session. Must hold
// mu.
func (d *Downloader) failSession(err error) {
	d.clearSession(StateFailed)
	select {
	case d.fail <- err:
	default:
	}
}

// clearSession drops per-session state so a subsequent session in the same
// room can proceed cleanly. Must hold mu.
func (d *Downloader) clearSession(final State) {
	d.state = final
	d.buf = nil
	d.queue = nil
	d.pending = make(map[int]bool)
}
