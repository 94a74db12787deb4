package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence abstraction for stream records. The engine only
// queries it; a production deployment would back it with the site's
// relational database, while tests and the default server use InMemoryStore.
type Store interface {
	// ActiveStreams returns streams that are live (no recording yet),
	// optionally filtered by search text.
	ActiveStreams(search string) ([]Stream, error)

	// StreamByID returns the stream with the given id, or nil when absent.
	StreamByID(id StreamID) (*Stream, error)

	// UsersWithStreams returns up to limit users who own finished streams,
	// ranked most active first, optionally filtered by search text.
	UsersWithStreams(limit int, search string) ([]UserRef, error)

	// FinishedStreamsForUsers returns the finished streams of the given
	// users, most recent first within each user.
	FinishedStreamsForUsers(userIDs []UserID, search string) ([]Stream, error)

	// CreateStream persists a new stream record and returns it with its
	// assigned id and creation time.
	CreateStream(fields NewStream) (*Stream, error)

	// TagStream attaches tag names to an existing stream.
	TagStream(id StreamID, tags []string) error

	// LatestStreamKeyForUser returns the stream key of the user's most
	// recently created stream, or "" when the user has none.
	LatestStreamKeyForUser(userID UserID) (string, error)
}

// InMemoryStore is a concurrency-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	streams map[StreamID]*Stream
	order   []StreamID
	users   map[UserID]string
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		streams: make(map[StreamID]*Stream),
		users:   make(map[UserID]string),
	}
}

// AddUser registers a user name so UsersWithStreams can reference it.
func (s *InMemoryStore) AddUser(id UserID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = name
}

// ActiveStreams implements Store.ActiveStreams.
func (s *InMemoryStore) ActiveStreams(search string) ([]Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Stream, 0)
	for _, id := range s.order {
		st := s.streams[id]
		if st.Finished() || !matchesSearch(st, search) {
			continue
		}
		out = append(out, *st)
	}
	return out, nil
}

// StreamByID implements Store.StreamByID.
func (s *InMemoryStore) StreamByID(id StreamID) (*Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streams[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// UsersWithStreams implements Store.UsersWithStreams. Users are ranked by
// finished stream count, ties broken by most recent activity.
func (s *InMemoryStore) UsersWithStreams(limit int, search string) ([]UserRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[UserID]int)
	latest := make(map[UserID]time.Time)
	for _, id := range s.order {
		st := s.streams[id]
		if !st.Finished() || !matchesSearch(st, search) {
			continue
		}
		counts[st.UserID]++
		if st.CreatedAt.After(latest[st.UserID]) {
			latest[st.UserID] = st.CreatedAt
		}
	}

	refs := make([]UserRef, 0, len(counts))
	for uid := range counts {
		refs = append(refs, UserRef{ID: uid, Name: s.users[uid]})
	}
	sort.Slice(refs, func(i, j int) bool {
		a, b := refs[i].ID, refs[j].ID
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if !latest[a].Equal(latest[b]) {
			return latest[a].After(latest[b])
		}
		return a < b
	})

	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

// FinishedStreamsForUsers implements Store.FinishedStreamsForUsers.
func (s *InMemoryStore) FinishedStreamsForUsers(userIDs []UserID, search string) ([]Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Stream, 0)
	for _, uid := range userIDs {
		var streams []Stream
		// Walk insertion order newest-first so equal timestamps still come
		// out most recent first.
		for i := len(s.order) - 1; i >= 0; i-- {
			st := s.streams[s.order[i]]
			if st.UserID != uid || !st.Finished() || !matchesSearch(st, search) {
				continue
			}
			streams = append(streams, *st)
		}
		sort.SliceStable(streams, func(i, j int) bool {
			return streams[i].CreatedAt.After(streams[j].CreatedAt)
		})
		out = append(out, streams...)
	}
	return out, nil
}

// CreateStream implements Store.CreateStream.
func (s *InMemoryStore) CreateStream(fields NewStream) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stream{
		ID:        StreamID(uuid.NewString()),
		UserID:    fields.UserID,
		StreamKey: fields.StreamKey,
		Preview:   fields.Preview,
		Title:     fields.Title,
		CreatedAt: time.Now().UTC(),
	}
	s.streams[st.ID] = st
	s.order = append(s.order, st.ID)
	cp := *st
	return &cp, nil
}

// TagStream implements Store.TagStream.
func (s *InMemoryStore) TagStream(id StreamID, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[id]
	if !ok {
		return ErrStreamNotFound
	}
	st.Tags = append(st.Tags, tags...)
	return nil
}

// LatestStreamKeyForUser implements Store.LatestStreamKeyForUser.
func (s *InMemoryStore) LatestStreamKeyForUser(userID UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest insertion wins on timestamp ties.
	key := ""
	var at time.Time
	for _, id := range s.order {
		st := s.streams[id]
		if st.UserID != userID {
			continue
		}
		if key == "" || !st.CreatedAt.Before(at) {
			key = st.StreamKey
			at = st.CreatedAt
		}
	}
	return key, nil
}

// SetRecording marks a stream as finished by attaching its recording path.
// Test and seeding helper; production recordings arrive via the media server.
func (s *InMemoryStore) SetRecording(id StreamID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[id]
	if !ok {
		return ErrStreamNotFound
	}
	st.Path = path
	return nil
}

// LiveStreamCount returns the number of streams with no recording yet.
// Used for the active streams gauge.
func (s *InMemoryStore) LiveStreamCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, st := range s.streams {
		if !st.Finished() {
			n++
		}
	}
	return n
}

func matchesSearch(st *Stream, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(st.Title), q) {
		return true
	}
	for _, tag := range st.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
