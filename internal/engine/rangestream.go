package engine

import (
	"fmt"
	"io"
	"os"
)

// ChunkSize is the maximum number of bytes served per range response.
// Clients re-request from end+1 until the file is covered.
const ChunkSize int64 = 1_000_000

// ParseRangeStart extracts the start offset from an HTTP Range header value.
// Parsing is deliberately loose: every ASCII digit in the value, in order,
// forms the start byte ("bytes=500-" -> 500). A value with no digits parses
// as offset 0. An empty header is rejected with ErrMissingRange.
func ParseRangeStart(header string) (int64, error) {
	if header == "" {
		return 0, ErrMissingRange
	}
	var start int64
	for _, c := range header {
		if c < '0' || c > '9' {
			continue
		}
		start = start*10 + int64(c-'0')
	}
	return start, nil
}

// ResolveRange turns a start offset and a file size into a bounded byte
// range: end = min(start+ChunkSize-1, size-1). A start at or beyond the end
// of the file is rejected with ErrMissingRange, as is an empty file.
func ResolveRange(start, size int64) (ByteRange, error) {
	if size <= 0 || start < 0 || start >= size {
		return ByteRange{}, fmt.Errorf("%w: offset %d outside file of %d bytes", ErrMissingRange, start, size)
	}
	end := start + ChunkSize - 1
	if end > size-1 {
		end = size - 1
	}
	return ByteRange{Start: start, End: end, Size: size}, nil
}

// ContentRange formats the range for the Content-Range response header.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Size)
}

// OpenRange resolves the Range header against the file at path and returns a
// reader over exactly the resolved window. The caller must close the reader;
// closing releases the underlying file handle even if the copy was aborted
// mid-stream.
func OpenRange(path, rangeHeader string) (io.ReadCloser, ByteRange, error) {
	start, err := ParseRangeStart(rangeHeader)
	if err != nil {
		return nil, ByteRange{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ByteRange{}, fmt.Errorf("%w: %s", ErrNoRecording, path)
		}
		return nil, ByteRange{}, err
	}

	br, err := ResolveRange(start, info.Size())
	if err != nil {
		return nil, ByteRange{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ByteRange{}, err
	}
	if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, ByteRange{}, err
	}

	return &rangeReader{f: f, remaining: br.Length()}, br, nil
}

// rangeReader bounds reads to the resolved window so the response body can
// never overrun the advertised Content-Length.
type rangeReader struct {
	f         *os.File
	remaining int64
}

func (r *rangeReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.f.Read(p)
	r.remaining -= int64(n)
	if err == nil && r.remaining == 0 {
		err = io.EOF
	}
	return n, err
}

func (r *rangeReader) Close() error {
	return r.f.Close()
}
