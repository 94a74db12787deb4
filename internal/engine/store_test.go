package engine

import (
	"testing"
	"time"
)

func seedStream(t *testing.T, s *InMemoryStore, user UserID, title, key string, finished bool) *Stream {
	t.Helper()
	st, err := s.CreateStream(NewStream{UserID: user, StreamKey: key, Title: title})
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if finished {
		if err := s.SetRecording(st.ID, "/rec/"+string(st.ID)+".flv"); err != nil {
			t.Fatalf("SetRecording: %v", err)
		}
	}
	return st
}

func TestInMemoryStore_CreateStream(t *testing.T) {
	s := NewInMemoryStore()

	st, err := s.CreateStream(NewStream{UserID: "u1", StreamKey: "k", Title: "hello"})
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if st.ID == "" {
		t.Error("expected an assigned id")
	}
	if st.CreatedAt.IsZero() {
		t.Error("expected a creation time")
	}
	if st.Finished() {
		t.Error("new stream should not be finished")
	}

	got, err := s.StreamByID(st.ID)
	if err != nil || got == nil {
		t.Fatalf("StreamByID: %v, %v", got, err)
	}
	if got.Title != "hello" {
		t.Errorf("expected title back, got %q", got.Title)
	}
}

func TestInMemoryStore_StreamByID_absent(t *testing.T) {
	s := NewInMemoryStore()
	got, err := s.StreamByID("missing")
	if err != nil {
		t.Fatalf("StreamByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestInMemoryStore_ActiveStreams(t *testing.T) {
	s := NewInMemoryStore()
	seedStream(t, s, "u1", "live one", "k1", false)
	seedStream(t, s, "u1", "finished", "k2", true)
	seedStream(t, s, "u2", "live two", "k3", false)

	active, err := s.ActiveStreams("")
	if err != nil {
		t.Fatalf("ActiveStreams: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active streams, got %d", len(active))
	}
	for _, st := range active {
		if st.Finished() {
			t.Errorf("active list contains finished stream %s", st.ID)
		}
	}
}

func TestInMemoryStore_search_filters_title_and_tags(t *testing.T) {
	s := NewInMemoryStore()
	a := seedStream(t, s, "u1", "Cooking show", "k1", false)
	b := seedStream(t, s, "u2", "speedrun", "k2", false)
	if err := s.TagStream(b.ID, []string{"games"}); err != nil {
		t.Fatalf("TagStream: %v", err)
	}

	byTitle, _ := s.ActiveStreams("cook")
	if len(byTitle) != 1 || byTitle[0].ID != a.ID {
		t.Errorf("title search: expected only %s, got %d items", a.ID, len(byTitle))
	}

	byTag, _ := s.ActiveStreams("game")
	if len(byTag) != 1 || byTag[0].ID != b.ID {
		t.Errorf("tag search: expected only %s, got %d items", b.ID, len(byTag))
	}
}

func TestInMemoryStore_UsersWithStreams_ranking(t *testing.T) {
	s := NewInMemoryStore()
	s.AddUser("u1", "one")
	s.AddUser("u2", "two")
	seedStream(t, s, "u1", "a", "k", true)
	seedStream(t, s, "u2", "b", "k", true)
	seedStream(t, s, "u2", "c", "k", true)
	seedStream(t, s, "u3", "live only", "k", false)

	users, err := s.UsersWithStreams(10, "")
	if err != nil {
		t.Fatalf("UsersWithStreams: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users with finished streams, got %d", len(users))
	}
	if users[0].ID != "u2" || users[1].ID != "u1" {
		t.Errorf("expected most active first (u2,u1), got %v", users)
	}
	if users[0].Name != "two" {
		t.Errorf("expected registered name, got %q", users[0].Name)
	}

	limited, _ := s.UsersWithStreams(1, "")
	if len(limited) != 1 || limited[0].ID != "u2" {
		t.Errorf("limit 1: expected just u2, got %v", limited)
	}
}

func TestInMemoryStore_FinishedStreamsForUsers_order(t *testing.T) {
	s := NewInMemoryStore()
	first := seedStream(t, s, "u1", "first", "k", true)
	second := seedStream(t, s, "u1", "second", "k", true)
	other := seedStream(t, s, "u2", "other", "k", true)

	streams, err := s.FinishedStreamsForUsers([]UserID{"u1", "u2"}, "")
	if err != nil {
		t.Fatalf("FinishedStreamsForUsers: %v", err)
	}
	if len(streams) != 3 {
		t.Fatalf("expected 3 streams, got %d", len(streams))
	}
	// Per-user most recent first, users in requested order.
	if streams[0].ID != second.ID || streams[1].ID != first.ID || streams[2].ID != other.ID {
		t.Errorf("unexpected order: %v, %v, %v", streams[0].ID, streams[1].ID, streams[2].ID)
	}
}

func TestInMemoryStore_TagStream_unknown(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.TagStream("missing", []string{"x"}); err != ErrStreamNotFound {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestInMemoryStore_LatestStreamKeyForUser(t *testing.T) {
	s := NewInMemoryStore()

	key, err := s.LatestStreamKeyForUser("u1")
	if err != nil {
		t.Fatalf("LatestStreamKeyForUser: %v", err)
	}
	if key != "" {
		t.Errorf("expected empty sentinel, got %q", key)
	}

	seedStream(t, s, "u1", "a", "older", true)
	time.Sleep(time.Millisecond)
	seedStream(t, s, "u1", "b", "newer", false)

	key, _ = s.LatestStreamKeyForUser("u1")
	if key != "newer" {
		t.Errorf("expected newest key, got %q", key)
	}
}

func TestInMemoryStore_LiveStreamCount(t *testing.T) {
	s := NewInMemoryStore()
	seedStream(t, s, "u1", "a", "k", false)
	seedStream(t, s, "u1", "b", "k", true)
	seedStream(t, s, "u2", "c", "k", false)

	if n := s.LiveStreamCount(); n != 2 {
		t.Errorf("expected 2 live streams, got %d", n)
	}
}
