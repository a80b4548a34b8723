package ffmpeg

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone          RetryAction = iota
	RetryDropAttach                // Leave attachment streams out.
	RetryDropSubs                  // Leave subtitle streams out.
	RetryIncreaseMux               // Raise max_muxing_queue_size.
	RetryFixTimestamps             // Regenerate timestamps on input.
)

func (r RetryAction) String() string {
	switch r {
	case RetryDropAttach:
		return "drop attachments"
	case RetryDropSubs:
		return "drop subtitles"
	case RetryIncreaseMux:
		return "raise mux queue"
	case RetryFixTimestamps:
		return "regenerate timestamps"
	}
	return "none"
}

const (
	defaultMaxAttempts = 4
	muxQueueEscalate   = 16384
)

// RetryState tracks which fallback fixes have been applied across the
// attempts of one run. Its Options feed [Build] for the next attempt.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	Options     BuildOptions
}

// NewRetryState starts from base. maxAttempts below 1 means the default.
func NewRetryState(base BuildOptions, maxAttempts int) *RetryState {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &RetryState{MaxAttempts: maxAttempts, Options: base}
}

// Advance inspects stderr from a failed run, applies the first fix whose
// issue shows up and has not been fixed yet, and returns it. RetryNone
// means give up: nothing fixable matched or the attempts are spent.
//
// One fix per attempt, in order: attachment, subtitle, mux queue,
// timestamp.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}

	o := &s.Options
	for _, issue := range Classify(stderr) {
		switch issue {
		case IssueAttachment:
			if !o.SkipAttachments {
				o.SkipAttachments = true
				return RetryDropAttach
			}
		case IssueSubtitle:
			if !o.SkipSubtitles {
				o.SkipSubtitles = true
				return RetryDropSubs
			}
		case IssueMuxQueue:
			if o.MuxQueueSize < muxQueueEscalate {
				o.MuxQueueSize = muxQueueEscalate
				return RetryIncreaseMux
			}
		case IssueTimestamp:
			if !o.GenPTS {
				o.GenPTS = true
				return RetryFixTimestamps
			}
		}
	}
	return RetryNone
}
