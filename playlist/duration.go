// ABOUTME: Probes audio file play durations using pure Go decoders or ffprobe
// ABOUTME: Supports mp3, flac, wav and ogg natively; ffprobe covers anything ffmpeg can read

package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

// ErrUnsupportedFormat is returned when no decoder handles the file extension
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DurationProber determines the play duration of an audio file
type DurationProber interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// NativeProber decodes stream headers with pure Go decoders
type NativeProber struct{}

// Probe returns the duration of the file at path based on its extension
func (NativeProber) Probe(_ context.Context, path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	var d time.Duration

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		d, err = mp3Duration(f)
	case ".flac":
		d, err = flacDuration(f)
	case ".wav":
		d, err = wavDuration(f)
	case ".ogg":
		d, err = oggDuration(f)
	default:
		return 0, errors.Wrapf(ErrUnsupportedFormat, "%s", filepath.Ext(path))
	}

	if err != nil {
		return 0, err
	}

	if d <= 0 {
		return 0, errors.New("file reports no audio")
	}

	return d, nil
}

// mp3Duration sums the duration of every MPEG frame
// VBR files have no reliable header length, so all frames are walked
func mp3Duration(r io.Reader) (time.Duration, error) {
	dec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}

			return 0, errors.Wrap(err, "failed to decode mp3 frame")
		}

		total += frame.Duration()
	}

	return total, nil
}

// flacDuration reads the sample count from the STREAMINFO block
func flacDuration(r io.Reader) (time.Duration, error) {
	stream, err := flac.New(r)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read flac stream info")
	}

	if stream.Info.SampleRate == 0 {
		return 0, errors.New("flac stream has no sample rate")
	}

	return samplesToDuration(int64(stream.Info.NSamples), int64(stream.Info.SampleRate)), nil
}

// wavDuration reads the PCM chunk length from the RIFF header
func wavDuration(r io.ReadSeeker) (time.Duration, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}

	d, err := dec.Duration()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read wav duration")
	}

	return d, nil
}

// oggDuration reads the granule position of the last Ogg page
func oggDuration(r io.ReadSeeker) (time.Duration, error) {
	samples, format, err := oggvorbis.GetLength(r)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read ogg length")
	}

	if format == nil || format.SampleRate == 0 {
		return 0, errors.New("ogg stream has no sample rate")
	}

	return samplesToDuration(samples, int64(format.SampleRate)), nil
}

func samplesToDuration(samples, rate int64) time.Duration {
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}

// FFprobeProber shells out to ffprobe
type FFprobeProber struct {
	Path string // ffprobe binary, defaults to "ffprobe" on PATH
}

// Probe asks ffprobe for the container duration of the file at path
func (p FFprobeProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	var out, stderr bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, errors.Wrapf(err, "ffprobe failed: %s", strings.TrimSpace(stderr.String()))
	}

	return parseFFprobeOutput(out.Bytes())
}

// parseFFprobeOutput extracts format.duration (seconds, as a string) from ffprobe JSON
func parseFFprobeOutput(data []byte) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, errors.Wrap(err, "failed to parse ffprobe output")
	}

	if probe.Format.Duration == "" {
		return 0, errors.New("duration not found in ffprobe output")
	}

	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse duration %q", probe.Format.Duration)
	}

	if secs <= 0 {
		return 0, errors.New("file reports no audio")
	}

	return time.Duration(secs * float64(time.Second)), nil
}

// NewProber returns the prober for a configured probe name ("native" or "ffprobe")
func NewProber(name, ffprobePath string) (DurationProber, error) {
	switch name {
	case "", "native":
		return NativeProber{}, nil
	case "ffprobe":
		return FFprobeProber{Path: ffprobePath}, nil
	default:
		return nil, errors.Newf("unknown duration probe %q", name)
	}
}
