package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mapFetcher serves chunk bytes by URL and fails URLs it does not know.
type mapFetcher struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (f *mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[url]
	if !ok {
		return nil, fmt.Errorf("no chunk at %s", url)
	}
	return append([]byte(nil), data...), nil
}

// splitEvents cuts data into total chunks, loads them into the fetcher, and
// returns one announcement per chunk.
func splitEvents(f *mapFetcher, data []byte, total int) []ChunkEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	size := (len(data) + total - 1) / total
	events := make([]ChunkEvent, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		url := fmt.Sprintf("https://relay.test/chunks/%d", i)
		f.data[url] = data[start:end]
		events[i] = ChunkEvent{
			Index:    i,
			Total:    total,
			URL:      url,
			FileName: "report.pdf",
			FileType: "application/pdf",
			SenderID: "peer-a",
		}
	}
	return events
}

func waitAssembled(t *testing.T, d *Downloader) Assembled {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	asm, err := d.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return asm
}

func TestDownloadReassemblesOutOfOrder(t *testing.T) {
	data := testFileData(4000)

	orders := map[string][]int{
		"reverse":     {3, 2, 1, 0},
		"interleaved": {1, 3, 0, 2},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			fetcher := &mapFetcher{data: make(map[string][]byte)}
			events := splitEvents(fetcher, data, 4)
			d := NewDownloader()
			d.Concurrency = 2
			d.Fetcher = fetcher

			ctx := context.Background()
			for _, i := range order {
				if err := d.Enqueue(ctx, events[i]); err != nil {
					t.Fatalf("Enqueue(%d): %v", i, err)
				}
			}

			asm := waitAssembled(t, d)
			if !bytes.Equal(asm.Data, data) {
				t.Error("assembled data differs from source")
			}
			if asm.Name != "report.pdf" || asm.Type != "application/pdf" {
				t.Errorf("assembled meta = %q/%q, want report.pdf/application/pdf", asm.Name, asm.Type)
			}
			if got := d.State(); got != StateComplete {
				t.Errorf("state = %v, want complete", got)
			}
		})
	}
}

func TestDownloadIgnoresDuplicateAnnouncements(t *testing.T) {
	data := testFileData(2000)
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	events := splitEvents(fetcher, data, 2)
	d := NewDownloader()
	d.Fetcher = fetcher

	ctx := context.Background()
	if err := d.Enqueue(ctx, events[0]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := d.Enqueue(ctx, events[0]); err != nil {
		t.Fatalf("duplicate Enqueue: %v", err)
	}
	if err := d.Enqueue(ctx, events[1]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	asm := waitAssembled(t, d)
	if !bytes.Equal(asm.Data, data) {
		t.Error("assembled data differs from source after duplicate announcement")
	}
}

func TestDownloadRejectsTotalMismatch(t *testing.T) {
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	events := splitEvents(fetcher, testFileData(3000), 3)
	d := NewDownloader()
	d.Fetcher = fetcher

	ctx := context.Background()
	if err := d.Enqueue(ctx, events[0]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	bad := events[1]
	bad.Total = 4
	if err := d.Enqueue(ctx, bad); !errors.Is(err, ErrTotalChunksMismatch) {
		t.Errorf("Enqueue with total 4 after 3 = %v, want ErrTotalChunksMismatch", err)
	}

	if err := d.Enqueue(ctx, ChunkEvent{Index: 0, Total: 0}); !errors.Is(err, ErrTotalChunksMismatch) {
		t.Errorf("Enqueue with total 0 = %v, want ErrTotalChunksMismatch", err)
	}
}

func TestDownloadRejectsIndexOutOfRange(t *testing.T) {
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	events := splitEvents(fetcher, testFileData(3000), 3)
	d := NewDownloader()
	d.Fetcher = fetcher

	ctx := context.Background()
	if err := d.Enqueue(ctx, events[0]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	bad := events[1]
	bad.Index = 3
	if err := d.Enqueue(ctx, bad); !errors.Is(err, ErrChunkIndexOutOfRange) {
		t.Errorf("Enqueue with index 3 of 3 = %v, want ErrChunkIndexOutOfRange", err)
	}
}

func TestDownloadSurvivesFetchFailure(t *testing.T) {
	data := testFileData(2000)
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	events := splitEvents(fetcher, data, 2)
	d := NewDownloader()
	d.Fetcher = fetcher

	failed := make(chan int, 1)
	d.OnError = func(index int, err error) {
		failed <- index
	}

	ctx := context.Background()
	broken := events[1]
	broken.URL = "https://relay.test/chunks/missing"
	if err := d.Enqueue(ctx, broken); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case i := <-failed:
		if i != 1 {
			t.Fatalf("failed index = %d, want 1", i)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnError never fired for the broken URL")
	}

	// Without FailFast the session stays open for a re-announcement.
	if got := d.State(); got != StateReceiving {
		t.Fatalf("state after fetch failure = %v, want receiving", got)
	}

	if err := d.Enqueue(ctx, events[0]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := d.Enqueue(ctx, events[1]); err != nil {
		t.Fatalf("re-announce Enqueue: %v", err)
	}

	asm := waitAssembled(t, d)
	if !bytes.Equal(asm.Data, data) {
		t.Error("assembled data differs from source after recovery")
	}
}

func TestDownloadFailFast(t *testing.T) {
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	d := NewDownloader()
	d.Fetcher = fetcher
	d.FailFast = true

	ctx := context.Background()
	err := d.Enqueue(ctx, ChunkEvent{
		Index:    0,
		Total:    2,
		URL:      "https://relay.test/chunks/missing",
		FileName: "report.pdf",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := d.Wait(waitCtx); err == nil {
		t.Fatal("Wait succeeded, want fetch error")
	}
	if got := d.State(); got != StateFailed {
		t.Errorf("state = %v, want failed", got)
	}
}

// gatedFetcher holds one URL's fetch open until released, then serves fixed
// bytes for it; everything else goes through the inner fetcher.
type gatedFetcher struct {
	inner    *mapFetcher
	heldURL  string
	heldData []byte
	release  chan struct{}
}

func (f *gatedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == f.heldURL {
		<-f.release
		return f.heldData, nil
	}
	return f.inner.Fetch(ctx, url)
}

func TestDownloadDisownsFetchFromEarlierSession(t *testing.T) {
	inner := &mapFetcher{data: map[string][]byte{
		"https://relay.test/chunks/new0": []byte("new-zero|"),
		"https://relay.test/chunks/new1": []byte("new-one"),
	}}
	fetcher := &gatedFetcher{
		inner:    inner,
		heldURL:  "https://relay.test/chunks/old1",
		heldData: []byte("OLD-SESSION-BYTES"),
		release:  make(chan struct{}),
	}
	d := NewDownloader()
	d.Concurrency = 2
	d.FailFast = true
	d.Fetcher = fetcher

	ctx := context.Background()

	// First session: index 1 hangs in flight, index 0 fails the session.
	err := d.Enqueue(ctx, ChunkEvent{Index: 1, Total: 2, URL: fetcher.heldURL, FileName: "old.bin"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	err = d.Enqueue(ctx, ChunkEvent{Index: 0, Total: 2, URL: "https://relay.test/chunks/missing", FileName: "old.bin"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := d.Wait(waitCtx); err == nil {
		t.Fatal("Wait succeeded, want first session to fail")
	}

	// Second session starts while the first session's index-1 fetch is
	// still in flight.
	err = d.Enqueue(ctx, ChunkEvent{Index: 0, Total: 2, URL: "https://relay.test/chunks/new0", FileName: "new.bin"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Release the old fetch and give it time to land before the new
	// session announces the same index. Its bytes must be discarded, not
	// written into the new session's buffer.
	close(fetcher.release)
	time.Sleep(50 * time.Millisecond)

	err = d.Enqueue(ctx, ChunkEvent{Index: 1, Total: 2, URL: "https://relay.test/chunks/new1", FileName: "new.bin"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	asm := waitAssembled(t, d)
	if got, want := string(asm.Data), "new-zero|new-one"; got != want {
		t.Errorf("assembled %q, want %q", got, want)
	}
	if asm.Name != "new.bin" {
		t.Errorf("assembled name = %q, want new.bin", asm.Name)
	}
}

func TestDownloadStartsFreshSessionAfterComplete(t *testing.T) {
	first := testFileData(2000)
	fetcher := &mapFetcher{data: make(map[string][]byte)}
	events := splitEvents(fetcher, first, 2)
	d := NewDownloader()
	d.Fetcher = fetcher

	ctx := context.Background()
	for _, ev := range events {
		if err := d.Enqueue(ctx, ev); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	waitAssembled(t, d)

	// A completed session must not constrain the next one's chunk count.
	second := []byte("second file")
	fetcher.mu.Lock()
	fetcher.data["https://relay.test/chunks/next"] = second
	fetcher.mu.Unlock()

	err := d.Enqueue(ctx, ChunkEvent{
		Index:    0,
		Total:    1,
		URL:      "https://relay.test/chunks/next",
		FileName: "notes.txt",
		FileType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Enqueue after complete: %v", err)
	}

	asm := waitAssembled(t, d)
	if asm.Name != "notes.txt" || !bytes.Equal(asm.Data, second) {
		t.Errorf("second session assembled %q (%d bytes), want notes.txt (%d bytes)", asm.Name, len(asm.Data), len(second))
	}
}
