package engine

import (
	"context"
	"fmt"
	"io"
)

// Service composes the store, source resolver, and preview cache behind the
// operations the HTTP layer exposes. It holds no mutable state of its own;
// every call is safe to run concurrently with any other.
type Service struct {
	store    Store
	resolver *SourceResolver
	previews *PreviewCache
}

// NewService wires a Service from its collaborators.
func NewService(store Store, resolver *SourceResolver, previews *PreviewCache) *Service {
	return &Service{store: store, resolver: resolver, previews: previews}
}

// ActiveStreams returns live streams annotated with their live playback
// source, optionally filtered by search text.
func (s *Service) ActiveStreams(search string) ([]Stream, error) {
	streams, err := s.store.ActiveStreams(search)
	if err != nil {
		return nil, fmt.Errorf("active streams: %w", err)
	}
	for i := range streams {
		streams[i].Source = s.resolver.LiveSource(streams[i].StreamKey)
	}
	return streams, nil
}

// UserStreams returns a user's finished streams annotated with recorded
// sources, most recent first.
func (s *Service) UserStreams(userID UserID) ([]Stream, error) {
	streams, err := s.store.FinishedStreamsForUsers([]UserID{userID}, "")
	if err != nil {
		return nil, fmt.Errorf("finished streams for %s: %w", userID, err)
	}
	for i := range streams {
		streams[i].Source = s.resolver.RecordedSource(streams[i])
	}
	return streams, nil
}

// Selection builds the discovery feed: at most amount finished streams,
// interleaved round-robin across the store's ranked candidate users so no
// prolific streamer crowds out a quieter one. Empty candidates yield an
// empty feed.
func (s *Service) Selection(amount int, search string) ([]Stream, error) {
	if amount <= 0 {
		return []Stream{}, nil
	}

	users, err := s.store.UsersWithStreams(amount, search)
	if err != nil {
		return nil, fmt.Errorf("users with streams: %w", err)
	}
	if len(users) == 0 {
		return []Stream{}, nil
	}

	ids := make([]UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	streams, err := s.store.FinishedStreamsForUsers(ids, search)
	if err != nil {
		return nil, fmt.Errorf("finished streams: %w", err)
	}

	feed := Interleave(users, streams, amount)
	for i := range feed {
		feed[i].Source = s.resolver.RecordedSource(feed[i])
	}
	return feed, nil
}

// OpenVideo resolves a stream's recording against the Range header and
// returns a bounded reader over the requested window. The caller owns the
// reader and must close it on every exit path.
func (s *Service) OpenVideo(id StreamID, rangeHeader string) (io.ReadCloser, ByteRange, error) {
	st, err := s.store.StreamByID(id)
	if err != nil {
		return nil, ByteRange{}, fmt.Errorf("stream %s: %w", id, err)
	}
	if st == nil {
		return nil, ByteRange{}, ErrStreamNotFound
	}
	if !st.Finished() {
		return nil, ByteRange{}, ErrNoRecording
	}
	return OpenRange(st.Path, rangeHeader)
}

// Preview returns the path of the stream's preview JPEG, generating it on
// first call.
func (s *Service) Preview(ctx context.Context, id StreamID) (string, error) {
	st, err := s.store.StreamByID(id)
	if err != nil {
		return "", fmt.Errorf("stream %s: %w", id, err)
	}
	if st == nil {
		return "", ErrStreamNotFound
	}
	if !st.Finished() {
		return "", ErrNoRecording
	}
	return s.previews.Ensure(ctx, st.Path)
}

// CreateStream persists a new stream and attaches its tag names.
func (s *Service) CreateStream(fields NewStream) (*Stream, error) {
	st, err := s.store.CreateStream(fields)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}
	if len(fields.Tags) > 0 {
		if err := s.store.TagStream(st.ID, fields.Tags); err != nil {
			return nil, fmt.Errorf("tag stream %s: %w", st.ID, err)
		}
	}
	created, err := s.store.StreamByID(st.ID)
	if err != nil || created == nil {
		return st, nil
	}
	return created, nil
}

// NewKey issues a fresh, unchecked stream key.
func (s *Service) NewKey() string {
	return s.resolver.IssueKey()
}

// LatestKey returns the user's most recent stream key, or "" when none
// exists.
func (s *Service) LatestKey(userID UserID) (string, error) {
	return s.resolver.LatestKeyFor(s.store, userID)
}
