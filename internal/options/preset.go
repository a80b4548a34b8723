package options

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

// --- ffpreset (-apre, -vpre, -spre, -fpre) ---

// presetBases returns the search directories for a preset family: the
// directory named by env, HOME joined with home, then the configured data
// directory.
func presetBases(env, home, dataDir string) []string {
	var out []string
	if d := os.Getenv(env); d != "" {
		out = append(out, d)
	}
	if h := os.Getenv("HOME"); h != "" {
		out = append(out, filepath.Join(h, home))
	}
	if dataDir != "" {
		out = append(out, dataDir)
	}
	return out
}

// findFFPreset returns the path of the named .ffpreset, trying
// "<name>.ffpreset" then "<codec>-<name>.ffpreset" in each directory.
func findFFPreset(name string, isPath bool, codecName, dataDir string) (string, bool) {
	if isPath {
		return name, fileExists(name)
	}
	for _, base := range presetBases("FFMPEG_DATADIR", ".ffmpeg", dataDir) {
		p := filepath.Join(base, name+".ffpreset")
		if fileExists(p) {
			return p, true
		}
		if codecName != "" {
			p = filepath.Join(base, codecName+"-"+name+".ffpreset")
			if fileExists(p) {
				return p, true
			}
		}
	}
	return "", false
}

// PresetDirs returns the ffpreset and avpreset search directories, in
// lookup order.
func PresetDirs(dataDir string) (ffpreset, avpreset []string) {
	return presetBases("FFMPEG_DATADIR", ".ffmpeg", dataDir),
		presetBases("AVCONV_DATADIR", ".avconv", dataDir)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// setPreset loads an ffpreset file into the group. Codec keys select the
// codec, the rest go through the generic option routing.
func setPreset(c *Context, key, value string) error {
	codecName, _ := c.CodecNames.ByType(key[:1])
	path, ok := findFFPreset(value, key[0] == 'f', codecName, c.Settings().DataDir)
	if !ok {
		if strings.HasPrefix(value, "libx264-lossless") {
			return job.Resolutionf("Please use -preset <speed> -qp 0")
		}
		return job.Resolutionf("File for preset '%s' not found", value)
	}
	f, err := os.Open(path)
	if err != nil {
		return job.Wrap(err, "File for preset '%s' not found", value)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' || line[0] == '\r' {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		v = strings.TrimRight(v, "\r")
		if !found || k == "" || v == "" {
			return job.Resolutionf("%s: Invalid syntax: '%s'", path, line)
		}
		c.Log().Verbose("ffpreset[%s]: set '%s' = '%s'", path, k, v)

		switch k {
		case "acodec", "vcodec", "scodec", "dcodec":
			err = ParseOption(c, "codec:"+k[:1], v)
		default:
			err = c.defaultInGroup(k, v, 0)
		}
		if err != nil {
			return job.Resolutionf("%s: Invalid option or argument: '%s', parsed as '%s' = '%s'", path, line, k, v)
		}
	}
	if err := sc.Err(); err != nil {
		return job.Storagef("%s: %v", path, err)
	}
	return nil
}

// --- avpreset (-pre) ---

// LoadAVPreset reads the .avpreset named preset for the encoder, trying
// "<encoder>-<preset>.avpreset" then "<preset>.avpreset" in each search
// directory. Entries come back in file order.
func LoadAVPreset(preset, encoder, dataDir string) ([]media.Entry, error) {
	path := ""
	for _, base := range presetBases("AVCONV_DATADIR", ".avconv", dataDir) {
		if encoder != "" {
			if p := filepath.Join(base, encoder+"-"+preset+".avpreset"); fileExists(p) {
				path = p
				break
			}
		}
		if p := filepath.Join(base, preset+".avpreset"); fileExists(p) {
			path = p
			break
		}
	}
	if path == "" {
		return nil, &job.Error{Kind: job.ErrResolution, Msg: "avpreset " + preset, Err: os.ErrNotExist}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, job.Wrap(err, "open %s", path)
	}
	defer f.Close()

	var out []media.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, job.Resolutionf("Invalid line found in the preset file.")
		}
		out = append(out, media.Entry{Key: k, Value: v})
	}
	return out, sc.Err()
}
