package transfer

import "testing"

func TestCountChunks(t *testing.T) {
	cases := []struct {
		name      string
		size      int64
		chunkSize int64
		want      int
	}{
		{"exact multiple", 5_000_000, 1_000_000, 5},
		{"one byte over", 5_000_001, 1_000_000, 6},
		{"single partial chunk", 10, 1_000_000, 1},
		{"empty file", 0, 1_000_000, 0},
		{"chunk equals file", 1_000_000, 1_000_000, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountChunks(tc.size, tc.chunkSize); got != tc.want {
				t.Errorf("CountChunks(%d, %d) = %d, want %d", tc.size, tc.chunkSize, got, tc.want)
			}
		})
	}
}

func TestChunkRangeBoundaries(t *testing.T) {
	// Exact multiple: last chunk is full sized.
	start, end := ChunkRange(4, 5_000_000, 1_000_000)
	if start != 4_000_000 || end != 5_000_000 {
		t.Errorf("chunk 4 range = [%d, %d), want [4000000, 5000000)", start, end)
	}

	// One byte over: last chunk holds a single byte.
	start, end = ChunkRange(5, 5_000_001, 1_000_000)
	if start != 5_000_000 || end != 5_000_001 {
		t.Errorf("chunk 5 range = [%d, %d), want [5000000, 5000001)", start, end)
	}
}

func TestChunkRangesCoverFileExactly(t *testing.T) {
	sizes := []int64{1, 999, 1000, 1001, 5_000_000, 5_000_001}
	const chunkSize = 1000

	for _, size := range sizes {
		total := CountChunks(size, chunkSize)
		var covered int64
		for i := 0; i < total; i++ {
			start, end := ChunkRange(i, size, chunkSize)
			if start != covered {
				t.Fatalf("size %d: chunk %d starts at %d, want %d (gap or overlap)", size, i, start, covered)
			}
			if end <= start {
				t.Fatalf("size %d: chunk %d has empty range [%d, %d)", size, i, start, end)
			}
			covered = end
		}
		if covered != size {
			t.Errorf("size %d: chunks cover %d bytes", size, covered)
		}
	}
}
