package engine

import (
	"errors"
	"time"
)

// StreamID uniquely identifies a stream record.
type StreamID string

// UserID identifies the owner of a stream.
type UserID string

// Stream is a broadcast record. While Path is empty the stream is live
// (playable only through its stream key); once a recording path is set the
// stream is finished and playable on demand.
type Stream struct {
	ID        StreamID  `json:"id"`
	UserID    UserID    `json:"user_id"`
	StreamKey string    `json:"stream_key"`
	Path      string    `json:"path,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Source is the resolved playback location. It is filled in by the
	// service before a stream leaves the API and never persisted.
	Source string `json:"source,omitempty"`
}

// Finished reports whether a recording exists for the stream.
func (s Stream) Finished() bool {
	return s.Path != ""
}

// UserRef is a ranked reference to a user who has finished streams.
// Ranking order is decided by the store (most active first).
type UserRef struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// NewStream carries the caller-supplied fields for stream creation.
type NewStream struct {
	UserID    UserID   `json:"user_id"`
	StreamKey string   `json:"stream_key"`
	Title     string   `json:"title"`
	Preview   string   `json:"preview,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ByteRange is a resolved byte-range request against a recording file.
// Invariant: 0 <= Start <= End < Size.
type ByteRange struct {
	Start int64
	End   int64
	Size  int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

var (
	// ErrMissingRange is returned when a video request carries no Range
	// header, or the header resolves outside the file.
	ErrMissingRange = errors.New("range header required")

	// ErrStreamNotFound is returned when no stream exists for the given id.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrNoRecording is returned when a stream exists but has no recording
	// path yet, so there is nothing to serve or preview.
	ErrNoRecording = errors.New("stream has no recording")

	// ErrTranscoder is returned when the external frame extractor exits
	// nonzero or produces no output file.
	ErrTranscoder = errors.New("transcoder failed")
)
