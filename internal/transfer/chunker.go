package transfer

// DefaultChunkSize matches the browser sender: 2 MiB per chunk.
const DefaultChunkSize = 2 * 1024 * 1024

// DefaultConcurrency is the number of chunk operations kept in flight by
// both the upload and download pools.
const DefaultConcurrency = 5

// CountChunks returns ceil(size/chunkSize), the number of chunks a file of
// the given size splits into.
func CountChunks(size, chunkSize int64) int {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// ChunkRange returns the byte range [start, end) covered by the chunk at
// index. The last chunk is truncated to the file size.
func ChunkRange(index int, size, chunkSize int64) (start, end int64) {
	start = int64(index) * chunkSize
	end = start + chunkSize
	if end > size {
		end = size
	}
	return start, end
}
