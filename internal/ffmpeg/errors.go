package ffmpeg

import "regexp"

// Issue is a class of ffmpeg failure that a rebuilt command may avoid.
type Issue int

const (
	IssueNone Issue = iota
	IssueAttachment
	IssueSubtitle
	IssueMuxQueue
	IssueTimestamp
)

func (i Issue) String() string {
	switch i {
	case IssueAttachment:
		return "attachment"
	case IssueSubtitle:
		return "subtitle"
	case IssueMuxQueue:
		return "mux queue"
	case IssueTimestamp:
		return "timestamp"
	}
	return "none"
}

// classifiers are checked in order. Fixes are applied in the same order.
var classifiers = []struct {
	issue Issue
	re    *regexp.Regexp
}{
	{IssueAttachment, regexp.MustCompile(
		`Attachment stream \d+ has no (filename|mimetype) tag`)},
	{IssueSubtitle, regexp.MustCompile(
		`(?i)Subtitle codec .* is not supported|` +
			`Could not find tag for codec .* in stream .*subtitle|` +
			`Error initializing output stream .*subtitle|` +
			`Error while opening encoder for output stream .*subtitle|` +
			`Subtitle encoding currently only possible from text to text or bitmap to bitmap`)},
	{IssueMuxQueue, regexp.MustCompile(
		`Too many packets buffered for output stream`)},
	{IssueTimestamp, regexp.MustCompile(
		`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
			`DTS .*out of order|PTS .*out of order|` +
			`pts has no value|missing PTS|Timestamps are unset`)},
}

// Classify returns every issue stderr shows, in check order.
func Classify(stderr string) []Issue {
	var out []Issue
	for _, c := range classifiers {
		if c.re.MatchString(stderr) {
			out = append(out, c.issue)
		}
	}
	return out
}
