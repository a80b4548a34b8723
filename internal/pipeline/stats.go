package pipeline

import (
	"time"

	"github.com/backmassage/muxgraph/internal/ffmpeg"
)

// RunStats records one run: its attempts, the fixes applied between them
// and the byte totals of the local inputs and outputs.
type RunStats struct {
	Attempts         int
	Fixes            []ffmpeg.RetryAction
	Succeeded        bool
	Elapsed          time.Duration
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}
