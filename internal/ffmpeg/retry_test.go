package ffmpeg

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   []Issue
	}{
		{"clean", "frame= 100 fps=25", nil},
		{"attachment", "[matroska @ 0x1] Attachment stream 3 has no mimetype tag and it does not have a filename tag", []Issue{IssueAttachment}},
		{"subtitle", "Subtitle encoding currently only possible from text to text or bitmap to bitmap", []Issue{IssueSubtitle}},
		{"mux queue", "Too many packets buffered for output stream 0:1.", []Issue{IssueMuxQueue}},
		{"timestamps", "Application provided invalid, non monotonically increasing dts to muxer", []Issue{IssueTimestamp}},
		{"several", "Too many packets buffered for output stream 0:1.\nNon-monotonous DTS in output stream 0:1", []Issue{IssueMuxQueue, IssueTimestamp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stderr))
		})
	}
}

func TestRetryAdvance(t *testing.T) {
	s := NewRetryState(BuildOptions{MuxQueueSize: 0}, 0)
	assert.Equal(t, defaultMaxAttempts, s.MaxAttempts)

	stderr := "Attachment stream 2 has no filename tag\nToo many packets buffered for output stream 0:0."
	assert.Equal(t, RetryDropAttach, s.Advance(stderr))
	assert.True(t, s.Options.SkipAttachments)

	// The attachment fix is spent, so the next issue in line gets fixed.
	assert.Equal(t, RetryIncreaseMux, s.Advance(stderr))
	assert.Equal(t, muxQueueEscalate, s.Options.MuxQueueSize)

	// Nothing left to fix.
	assert.Equal(t, RetryNone, s.Advance(stderr))
}

func TestRetryAdvanceAttemptLimit(t *testing.T) {
	s := NewRetryState(BuildOptions{}, 2)
	assert.Equal(t, RetryFixTimestamps, s.Advance("missing PTS"))
	assert.Equal(t, RetryNone, s.Advance("Subtitle codec 94213 is not supported"))
	assert.False(t, s.Options.SkipSubtitles)
}

func TestRetryAdvanceUnknownError(t *testing.T) {
	s := NewRetryState(BuildOptions{}, 4)
	assert.Equal(t, RetryNone, s.Advance("No such file or directory"))
	assert.Equal(t, BuildOptions{}, s.Options)
}

func TestExecuteCapturesStderr(t *testing.T) {
	var tee bytes.Buffer
	res := Execute(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 3"}, ExecOptions{Tee: &tee})
	require.Error(t, res.Err)
	assert.Equal(t, "boom\n", res.Stderr)
	assert.Equal(t, "boom\n", tee.String())
	assert.Equal(t, "sh", res.Args[0])
}
