package engine

import (
	"crypto/rand"
	"encoding/hex"
	"path"
	"strings"
)

const (
	// LiveNamespace is the URL namespace the media server publishes live
	// feeds under.
	LiveNamespace = "/live"

	keyTokenBytes = 16
)

// SourceResolver issues stream keys and maps stream records to playback
// source strings. Resolution is pure naming convention; no I/O happens here.
type SourceResolver struct {
	liveNamespace string
}

// NewSourceResolver returns a resolver rooted at the given live namespace.
// An empty namespace falls back to LiveNamespace.
func NewSourceResolver(liveNamespace string) *SourceResolver {
	if liveNamespace == "" {
		liveNamespace = LiveNamespace
	}
	return &SourceResolver{liveNamespace: strings.TrimRight(liveNamespace, "/")}
}

// IssueKey returns a fresh high-entropy stream key: two independently
// generated random tokens concatenated. Issuance is unchecked against
// persisted keys; a caller that needs global uniqueness must verify against
// the store before treating the key as authoritative.
func (r *SourceResolver) IssueKey() string {
	return randomToken() + randomToken()
}

// LatestKeyFor returns the most recently issued key bound to the user's
// streams, or "" when the user has never created one. The empty string is a
// sentinel, not an error.
func (r *SourceResolver) LatestKeyFor(store Store, userID UserID) (string, error) {
	return store.LatestStreamKeyForUser(userID)
}

// LiveSource returns the playback location of a live feed for the given key.
func (r *SourceResolver) LiveSource(streamKey string) string {
	return r.liveNamespace + "/" + streamKey + ".flv"
}

// RecordedSource derives the on-demand playback location from a finished
// stream's recording path: same directory, extension adjusted for the
// recorded container. Empty when the stream has no recording.
func (r *SourceResolver) RecordedSource(s Stream) string {
	if !s.Finished() {
		return ""
	}
	return ChangeExtension(s.Path, ".mp4")
}

// ChangeExtension replaces the extension of p, keeping its directory and
// base name. ext must include the leading dot.
func ChangeExtension(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

func randomToken() string {
	b := make([]byte, keyTokenBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}
