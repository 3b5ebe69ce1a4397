package transfer

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Chunk is one fixed-size byte range of a source file, the atomic unit of
// upload and download.
type Chunk struct {
	SessionID string
	Index     int
	Total     int
	FileName  string
	FileType  string
	Data      []byte
}

// Sink receives uploaded chunks, typically the relay server's ingest
// endpoint.
type Sink interface {
	PutChunk(ctx context.Context, c Chunk) error
}

// FileMeta describes the file an upload session carries.
type FileMeta struct {
	SessionID string
	Name      string
	Type      string
}

// Uploader splits a file into ordered chunks and drives them through a Sink
// with bounded concurrency. A failed chunk stops the cursor; uploads already
// in flight finish or fail on their own and the first error is reported as
// the terminal result. There is no automatic retry; a retry is a fresh
// Upload call for the same session, overwriting the same chunk keys.
type Uploader struct {
	// ChunkSize in bytes. Defaults to DefaultChunkSize.
	ChunkSize int64

	// Concurrency is the number of in-flight chunk uploads. 1 gives
	// sequential mode. Defaults to DefaultConcurrency.
	Concurrency int

	// Progress, if set, is called after each completed chunk with the
	// running uploaded byte total. Chunks complete out of order, which is
	// why the total is a byte sum and not a high-water index.
	Progress func(uploadedBytes, totalBytes int64)
}

// Upload sends all ceil(size/ChunkSize) chunks of src through sink.
func (u *Uploader) Upload(ctx context.Context, src io.ReaderAt, size int64, meta FileMeta, sink Sink) error {
	chunkSize := u.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	concurrency := u.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	total := CountChunks(size, chunkSize)
	var uploaded atomic.Int64
	var failed atomic.Bool

	// A plain group, not WithContext: the first failure stops the cursor
	// from issuing new chunks but must not cancel siblings already inside
	// PutChunk. Those finish or fail on the caller's context.
	var g errgroup.Group
	g.SetLimit(concurrency)

	for index := 0; index < total; index++ {
		if failed.Load() || ctx.Err() != nil {
			break
		}

		index := index
		g.Go(func() error {
			if failed.Load() || ctx.Err() != nil {
				return nil
			}

			start, end := ChunkRange(index, size, chunkSize)
			buf := make([]byte, end-start)
			if _, err := src.ReadAt(buf, start); err != nil {
				failed.Store(true)
				return NewFileError("read chunk", meta.Name, err)
			}

			err := sink.PutChunk(ctx, Chunk{
				SessionID: meta.SessionID,
				Index:     index,
				Total:     total,
				FileName:  meta.Name,
				FileType:  meta.Type,
				Data:      buf,
			})
			if err != nil {
				failed.Store(true)
				return NewFileError("upload chunk", meta.Name, err)
			}

			if u.Progress != nil {
				u.Progress(uploaded.Add(end-start), size)
			}
			return nil
		})
	}

	return g.Wait()
}
