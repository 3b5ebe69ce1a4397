package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPSink posts chunks to a relay server's ingest endpoint.
type HTTPSink struct {
	// BaseURL of the relay server, e.g. "http://localhost:8080".
	BaseURL string

	// SenderID is this peer's connection id, passed along so the room
	// broadcast can exclude the uploader.
	SenderID string

	Client *http.Client
}

func (s *HTTPSink) PutChunk(ctx context.Context, c Chunk) error {
	q := url.Values{}
	q.Set("sessionId", c.SessionID)
	q.Set("chunkIndex", strconv.Itoa(c.Index))
	q.Set("totalChunks", strconv.Itoa(c.Total))
	q.Set("fileName", c.FileName)
	q.Set("fileType", c.FileType)
	q.Set("senderId", s.SenderID)

	endpoint := fmt.Sprintf("%s/api/upload-chunk?%s", s.BaseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(c.Data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	client := s.Client
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
			return fmt.Errorf("upload rejected: %s", body.Error)
		}
		return fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Fetcher retrieves one chunk's bytes from its signed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches chunk bytes with a plain GET.
type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, chunkURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chunkURL, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch chunk: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var defaultHTTPClient = &http.Client{Timeout: 2 * time.Minute}

var defaultFetcher Fetcher = &HTTPFetcher{}
