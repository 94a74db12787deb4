package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// DefaultPreviewSeek is how far into the recording the preview frame is
// taken from.
const DefaultPreviewSeek = "00:01:00"

// Transcoder extracts a single frame from a video file. Implementations run
// out of process and must be synchronous: when ExtractFrame returns nil the
// output file exists.
type Transcoder interface {
	ExtractFrame(ctx context.Context, inputPath, outputPath, seekOffset string) error
}

// FFmpegTranscoder invokes the ffmpeg binary to extract frames.
type FFmpegTranscoder struct {
	Binary string
}

// NewFFmpegTranscoder returns a transcoder using the given ffmpeg binary,
// or "ffmpeg" from PATH when empty.
func NewFFmpegTranscoder(binary string) *FFmpegTranscoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTranscoder{Binary: binary}
}

// ExtractFrame implements Transcoder. A nonzero exit or a missing output
// file both count as tool failure.
func (t *FFmpegTranscoder) ExtractFrame(ctx context.Context, inputPath, outputPath, seekOffset string) error {
	args := []string{
		"-ss", seekOffset,
		"-y",
		"-i", inputPath,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrTranscoder, t.Binary, err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("%w: no output at %s", ErrTranscoder, outputPath)
	}
	return nil
}

// PreviewCache lazily produces one JPEG preview per recording. The artifact
// path is derived from the recording path (same base name, .jpg extension),
// so presence on disk is the cache: an existing artifact is returned without
// touching the transcoder. A per-path lock serializes concurrent
// first-callers so each distinct recording is extracted at most once.
type PreviewCache struct {
	transcoder Transcoder
	seekOffset string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPreviewCache returns a cache that extracts frames at seekOffset, or
// DefaultPreviewSeek when empty.
func NewPreviewCache(transcoder Transcoder, seekOffset string) *PreviewCache {
	if seekOffset == "" {
		seekOffset = DefaultPreviewSeek
	}
	return &PreviewCache{
		transcoder: transcoder,
		seekOffset: seekOffset,
		locks:      make(map[string]*sync.Mutex),
	}
}

// ArtifactPath returns the deterministic preview location for a recording.
func ArtifactPath(recordingPath string) string {
	return ChangeExtension(recordingPath, ".jpg")
}

// Ensure returns the path to the preview JPEG for the given recording,
// generating it on first call. Generation failures surface unwrapped so the
// next call retries.
func (c *PreviewCache) Ensure(ctx context.Context, recordingPath string) (string, error) {
	artifact := ArtifactPath(recordingPath)

	lock := c.lockFor(artifact)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(artifact); err == nil {
		return artifact, nil
	}

	if err := c.transcoder.ExtractFrame(ctx, recordingPath, artifact, c.seekOffset); err != nil {
		return "", err
	}
	return artifact, nil
}

func (c *PreviewCache) lockFor(artifact string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[artifact]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[artifact] = lock
	}
	return lock
}
