package planner

import (
	"math"
	"os"
	"path/filepath"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// maxAttachmentSize leaves room for the padding the muxer appends.
const maxAttachmentSize = math.MaxInt32 - 64

func newSubtitleStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Subtitle, source)
	if err != nil {
		return nil, err
	}
	so := newStreamOpts(c, of.Ctx, ost.St)
	ost.CopyInitialNonkeyframes = resolve(so, &c.CopyInitialNonkeyframes, false)

	if !ost.StreamCopy {
		if size := resolve(so, &c.FrameSizes, ""); size != "" {
			w, h, err := codec.ParseVideoSize(size)
			if err != nil {
				return nil, job.Resolutionf("Invalid frame size: %s.", size)
			}
			ost.Params.Width, ost.Params.Height = w, h
		}
	}
	if so.err != nil {
		return nil, so.err
	}
	return ost, nil
}

func newDataStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Data, source)
	if err != nil {
		return nil, err
	}
	if !ost.StreamCopy {
		return nil, job.Resolutionf("Data stream encoding not supported yet (only streamcopy)")
	}
	return ost, nil
}

func newUnknownStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Unknown, source)
	if err != nil {
		return nil, err
	}
	if !ost.StreamCopy {
		return nil, job.Resolutionf("Unknown stream encoding not supported yet (only streamcopy)")
	}
	return ost, nil
}

func newAttachmentStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Attachment, source)
	if err != nil {
		return nil, err
	}
	ost.StreamCopy = true
	ost.Finished = true
	return ost, nil
}

// attachFile adds an -attach file as an attachment stream carrying the
// file contents.
func attachFile(c *options.Context, of *job.OutputFile, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return job.Wrap(err, "Could not open attachment file %s.", path)
	}
	if info.Size() <= 0 {
		return job.Resolutionf("Could not get size of the attachment %s.", path)
	}
	if info.Size() > maxAttachmentSize {
		return job.Storagef("Attachment %s too large.", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return job.Wrap(err, "Could not open attachment file %s.", path)
	}

	ost, err := newAttachmentStream(c, of, -1)
	if err != nil {
		return err
	}
	ost.StreamCopy = false
	ost.AttachmentFilename = path
	ost.AttachmentSize = int64(len(data))
	ost.St.ExtraData = data

	ost.St.Metadata.Set("filename", filepath.Base(path), media.DontOverwrite)
	if mime := codec.AttachmentMimeType(path); mime != "" {
		ost.St.Metadata.Set("mimetype", mime, media.DontOverwrite)
	}
	return nil
}
