package planner

import (
	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// Score bonuses for automatic selection.
const (
	newPacketsBonus = 100000000
	defaultBonus    = 5000000
)

// autoSelect picks streams for an output without -map: the best video and
// the best audio stream, the first compatible subtitle stream and every
// data stream of the muxer's data codec.
func autoSelect(c *options.Context, of *job.OutputFile) error {
	j := c.Job
	mux := of.Format

	if !c.VideoDisable && mux.GuessCodec(of.URL, media.Video) != "" {
		if idx := bestVideo(j, mux.WantsAttachedPic); idx >= 0 {
			if _, err := newVideoStream(c, of, idx); err != nil {
				return err
			}
		}
	}

	if !c.AudioDisable && mux.GuessCodec(of.URL, media.Audio) != "" {
		if idx := bestAudio(j); idx >= 0 {
			if _, err := newAudioStream(c, of, idx); err != nil {
				return err
			}
		}
	}

	subName, _ := c.CodecNames.ByType("s")
	subEnc := codec.FindEncoder(mux.SubtitleCodec)
	if !c.SubtitleDisable && (subEnc != nil || subName != "") {
		var out *codec.Descriptor
		if subEnc != nil {
			out = codec.DescriptorByName(subEnc.ID)
		}
		for i, ist := range j.InputStreams {
			if ist.St.Type != media.Subtitle || ist.UserSetDiscard == media.DiscardAll {
				continue
			}
			in := codec.DescriptorByName(ist.St.CodecName)
			if subName != "" || subtitleCompatible(in, out) {
				if _, err := newSubtitleStream(c, of, i); err != nil {
					return err
				}
				break
			}
		}
	}

	if !c.DataDisable {
		if id := mux.GuessCodec(of.URL, media.Data); id != "" {
			for i, ist := range j.InputStreams {
				if ist.UserSetDiscard == media.DiscardAll {
					continue
				}
				if ist.St.Type == media.Data && ist.St.CodecName == id {
					if _, err := newDataStream(c, of, i); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// bestVideo returns the index of the highest scoring video stream, or -1.
// The score is the frame area, plus bonuses for streams the prober read
// packets for and for default streams. Attached pictures only compete when
// the muxer wants one, and then nothing else does.
func bestVideo(j *job.Job, wantsAttachedPic bool) int {
	best, idx := 0, -1
	for i, ist := range j.InputStreams {
		st := ist.St
		if st.Type != media.Video || ist.UserSetDiscard == media.DiscardAll {
			continue
		}
		attached := st.Disposition&media.DispositionAttachedPic != 0
		score := st.Width*st.Height + bonus(st.NewPackets, newPacketsBonus) +
			bonus(st.Disposition&media.DispositionDefault != 0, defaultBonus)
		if !wantsAttachedPic && attached {
			score = 1
		}
		if wantsAttachedPic && !attached {
			continue
		}
		if score > best {
			best, idx = score, i
		}
	}
	return idx
}

// bestAudio returns the index of the highest scoring audio stream, or -1.
func bestAudio(j *job.Job) int {
	best, idx := 0, -1
	for i, ist := range j.InputStreams {
		st := ist.St
		if st.Type != media.Audio || ist.UserSetDiscard == media.DiscardAll {
			continue
		}
		score := st.Channels + bonus(st.CodecInfoFrames != 0, newPacketsBonus) +
			bonus(st.Disposition&media.DispositionDefault != 0, defaultBonus)
		if score > best {
			best, idx = score, i
		}
	}
	return idx
}

// subtitleCompatible reports whether a subtitle of kind in can be encoded
// as out: both text, both bitmap, or either side carrying no kind at all.
func subtitleCompatible(in, out *codec.Descriptor) bool {
	if in == nil || out == nil {
		return false
	}
	const kinds = codec.PropTextSub | codec.PropBitmapSub
	inKind, outKind := in.Props&kinds, out.Props&kinds
	return inKind&outKind != 0 || inKind == 0 || outKind == 0
}

func bonus(cond bool, n int) int {
	if cond {
		return n
	}
	return 0
}
