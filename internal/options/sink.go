package options

import (
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

// scaler options that must be set through -s and -pix_fmt instead
var scalerGeometry = map[string]bool{
	"srcw": true, "srch": true, "dstw": true, "dsth": true, "src_format": true, "dst_format": true,
}

// Default routes an option unknown to the registry into the job's pending
// generic dictionaries. Codec options may carry a ":spec" suffix and a
// v, a or s prefix. It returns ErrOptionNotFound when no catalog knows key.
func Default(j *job.Job, key, value string) error {
	stripped, _, _ := strings.Cut(key, ":")
	consumed := false

	o := codec.FindCodecOption(stripped, true)
	if o == nil && len(stripped) > 1 && strings.ContainsRune("vas", rune(stripped[0])) {
		o = codec.FindCodecOption(stripped[1:], false)
	}
	if o != nil {
		j.CodecOpts.Set(key, value, appendFlags(o, value))
		consumed = true
	}
	if o := codec.FindFormatOption(key, true); o != nil {
		j.FormatOpts.Set(key, value, appendFlags(o, value))
		if consumed && j.Log != nil {
			j.Log.Verbose("Routing option %s to both codec and muxer layer", key)
		}
		consumed = true
	}
	if !consumed && scalerGeometry[key] {
		return job.Resolutionf("Directly using swscale dimensions/format options is not supported, please use the -s or -pix_fmt options")
	}
	if o := codec.FindScalerOption(key); !consumed && o != nil {
		j.SwsOpts.Set(key, value, appendFlags(o, value))
		consumed = true
	}
	if o := codec.FindResamplerOption(key); !consumed && o != nil {
		j.SwrOpts.Set(key, value, appendFlags(o, value))
		consumed = true
	}
	if !consumed {
		return job.ErrOptionNotFound
	}
	return nil
}

func appendFlags(o *codec.AVOption, value string) media.DictFlags {
	if o.IsFlags && (strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-")) {
		return media.Append
	}
	return 0
}

// defaultInGroup runs [Default] against scratch dictionaries and merges
// the result into the group's own, so that options derived while a group
// is parsed land in that group.
func (c *Context) defaultInGroup(key, value string, flags media.DictFlags) error {
	j := c.Job
	saved := [4]*media.Dict{j.CodecOpts, j.FormatOpts, j.SwsOpts, j.SwrOpts}
	j.CodecOpts, j.FormatOpts, j.SwsOpts, j.SwrOpts = media.NewDict(), media.NewDict(), media.NewDict(), media.NewDict()
	defer func() {
		j.CodecOpts, j.FormatOpts, j.SwsOpts, j.SwrOpts = saved[0], saved[1], saved[2], saved[3]
	}()

	err := Default(j, key, value)
	c.CodecOpts.Copy(j.CodecOpts, flags)
	c.FormatOpts.Copy(j.FormatOpts, flags)
	c.SwsOpts.Copy(j.SwsOpts, flags)
	c.SwrOpts.Copy(j.SwrOpts, flags)
	return err
}
