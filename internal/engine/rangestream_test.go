package engine

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestParseRangeStart(t *testing.T) {
	cases := []struct {
		header string
		want   int64
	}{
		{"bytes=500-", 500},
		{"bytes=0-", 0},
		{"bytes=1000499-", 1000499},
		{"bytes=", 0},
	}
	for _, c := range cases {
		got, err := ParseRangeStart(c.header)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.header, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: expected %d, got %d", c.header, c.want, got)
		}
	}
}

func TestParseRangeStart_missing(t *testing.T) {
	_, err := ParseRangeStart("")
	if !errors.Is(err, ErrMissingRange) {
		t.Errorf("expected ErrMissingRange, got %v", err)
	}
}

func TestResolveRange_chunk_bounds(t *testing.T) {
	// bytes=500- on a 2,000,000 byte file serves 500..1000499.
	br, err := ResolveRange(500, 2_000_000)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if br.ContentRange() != "bytes 500-1000499/2000000" {
		t.Errorf("unexpected content range %q", br.ContentRange())
	}
	if br.Length() != ChunkSize {
		t.Errorf("expected length %d, got %d", ChunkSize, br.Length())
	}
}

func TestResolveRange_tail(t *testing.T) {
	br, err := ResolveRange(1_500_000, 2_000_000)
	if err != nil {
		t.Fatalf("ResolveRange: %v", err)
	}
	if br.End != 1_999_999 {
		t.Errorf("expected end at last byte, got %d", br.End)
	}
	if br.Length() != 500_000 {
		t.Errorf("expected 500000 bytes, got %d", br.Length())
	}
}

func TestResolveRange_invariants(t *testing.T) {
	sizes := []int64{1, 100, ChunkSize, ChunkSize + 1, 3_333_333}
	for _, size := range sizes {
		for _, start := range []int64{0, 1, size / 2, size - 1} {
			if start >= size {
				continue
			}
			br, err := ResolveRange(start, size)
			if err != nil {
				t.Fatalf("size %d start %d: %v", size, start, err)
			}
			if br.Start != start || br.End < br.Start || br.End >= size {
				t.Errorf("size %d start %d: bad range %+v", size, start, br)
			}
			if br.Length() > ChunkSize {
				t.Errorf("size %d start %d: chunk overrun %d", size, start, br.Length())
			}
		}
	}
}

func TestResolveRange_out_of_bounds(t *testing.T) {
	cases := []struct{ start, size int64 }{
		{0, 0},
		{100, 100},
		{200, 100},
		{-1, 100},
	}
	for _, c := range cases {
		if _, err := ResolveRange(c.start, c.size); !errors.Is(err, ErrMissingRange) {
			t.Errorf("start %d size %d: expected ErrMissingRange, got %v", c.start, c.size, err)
		}
	}
}

func writeTempVideo(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	p := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write temp video: %v", err)
	}
	return p
}

func TestOpenRange_serves_window(t *testing.T) {
	p := writeTempVideo(t, 5000)

	body, br, err := OpenRange(p, "bytes=1000-")
	if err != nil {
		t.Fatalf("OpenRange: %v", err)
	}
	defer body.Close()

	if br.Start != 1000 || br.End != 4999 {
		t.Fatalf("unexpected range %+v", br)
	}
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if int64(len(got)) != br.Length() {
		t.Fatalf("expected %d bytes, got %d", br.Length(), len(got))
	}
	if got[0] != byte(1000%251) || got[len(got)-1] != byte(4999%251) {
		t.Error("body does not match requested window")
	}
}

func TestOpenRange_round_trip_covers_file(t *testing.T) {
	// Successive requests from each previous end+1 cover the whole file
	// with no byte repeated or skipped.
	const size = int(ChunkSize*2 + 500)
	p := writeTempVideo(t, size)

	want, _ := os.ReadFile(p)
	var assembled bytes.Buffer
	start := int64(0)
	for start < int64(size) {
		body, br, err := OpenRange(p, "bytes="+strconv.FormatInt(start, 10)+"-")
		if err != nil {
			t.Fatalf("offset %d: %v", start, err)
		}
		if br.Start != start {
			t.Fatalf("expected start %d, got %d", start, br.Start)
		}
		if _, err := io.Copy(&assembled, body); err != nil {
			t.Fatalf("copy at %d: %v", start, err)
		}
		body.Close()
		start = br.End + 1
	}

	if !bytes.Equal(assembled.Bytes(), want) {
		t.Errorf("assembled %d bytes, file has %d; contents differ", assembled.Len(), len(want))
	}
}

func TestOpenRange_missing_file(t *testing.T) {
	_, _, err := OpenRange(filepath.Join(t.TempDir(), "nope.mp4"), "bytes=0-")
	if !errors.Is(err, ErrNoRecording) {
		t.Errorf("expected ErrNoRecording, got %v", err)
	}
}

func TestOpenRange_no_header(t *testing.T) {
	p := writeTempVideo(t, 100)
	_, _, err := OpenRange(p, "")
	if !errors.Is(err, ErrMissingRange) {
		t.Errorf("expected ErrMissingRange, got %v", err)
	}
}
