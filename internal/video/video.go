package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/anuvad/internal/ffmpeg"
	"github.com/mgpai22/anuvad/internal/subtitle"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// video file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
	Subtitles []Stream
}

// a subtitle stream inside a container
type Stream struct {
	Index    int // absolute stream index
	Position int // position among subtitle streams, used with -map 0:s:N
	Codec    string
	Language string
	Title    string
	Default  bool
	Forced   bool
}

// Text reports whether ffmpeg can convert the stream to a text format.
// Bitmap subtitles (PGS, VobSub, DVB) need OCR.
func (s Stream) Text() bool {
	switch s.Codec {
	case "hdmv_pgs_subtitle", "dvd_subtitle", "dvb_subtitle", "xsub":
		return false
	}
	return true
}

// defines interface for video processing operations
type Processor interface {
	// retrieves video file information, including subtitle streams
	GetInfo(ctx context.Context, videoPath string) (*Info, error)

	// extracts one subtitle stream to a text subtitle file
	ExtractSubtitle(
		ctx context.Context,
		videoPath, outputPath string,
		opts ExtractSubtitleOptions,
	) error
}

// holds options for subtitle extraction
type ExtractSubtitleOptions struct {
	Stream int             // position among subtitle streams
	Format subtitle.Format // srt, vtt or ass
}

// runs an external binary and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// default implementation using ffmpeg
type DefaultProcessor struct {
	paths ffmpeg.BinaryPaths
	run   CommandRunner
}

func NewProcessor(paths ffmpeg.BinaryPaths) *DefaultProcessor {
	return &DefaultProcessor{
		paths: paths,
		run:   execCommand,
	}
}

// WithRunner replaces the command runner, mainly for tests.
func (p *DefaultProcessor) WithRunner(run CommandRunner) *DefaultProcessor {
	p.run = run
	return p
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, lastLine(msg))
	}
	return out, nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// retrieves video file information
func (p *DefaultProcessor) GetInfo(
	ctx context.Context,
	videoPath string,
) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	out, err := p.run(ctx, p.paths.FFprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := ParseProbe(out)
	if err != nil {
		return nil, err
	}
	info.Path = videoPath
	return info, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	RFrameRate  string            `json:"r_frame_rate"`
	Tags        map[string]string `json:"tags"`
	Disposition map[string]int    `json:"disposition"`
}

// ParseProbe decodes ffprobe's JSON output.
func ParseProbe(data []byte) (*Info, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	if probe.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = time.Duration(secs * float64(time.Second))
		}
	}

	videoSeen := false
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if videoSeen {
				continue
			}
			videoSeen = true
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.FrameRate = parseFrameRate(s.RFrameRate)
		case "audio":
			info.HasAudio = true
		case "subtitle":
			info.Subtitles = append(info.Subtitles, Stream{
				Index:    s.Index,
				Position: len(info.Subtitles),
				Codec:    s.CodecName,
				Language: s.Tags["language"],
				Title:    s.Tags["title"],
				Default:  s.Disposition["default"] == 1,
				Forced:   s.Disposition["forced"] == 1,
			})
		}
	}

	return info, nil
}

func parseFrameRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// codec names ffmpeg uses for each writable text format
var subtitleCodecs = map[subtitle.Format]string{
	subtitle.FormatSRT: "srt",
	subtitle.FormatVTT: "webvtt",
	subtitle.FormatASS: "ass",
}

// ExtractArgs builds the ffmpeg argument list for a subtitle extraction.
func ExtractArgs(videoPath, outputPath string, opts ExtractSubtitleOptions) ([]string, error) {
	codec, ok := subtitleCodecs[opts.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported extraction format %q: use srt, vtt or ass", opts.Format)
	}
	if opts.Stream < 0 {
		return nil, fmt.Errorf("invalid subtitle stream %d", opts.Stream)
	}

	kwargs := ffmpeggo.KwArgs{
		"map": fmt.Sprintf("0:s:%d", opts.Stream),
		"c:s": codec,
	}

	return ffmpeggo.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs(), nil
}

// extracts one subtitle stream to a text subtitle file
func (p *DefaultProcessor) ExtractSubtitle(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractSubtitleOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}

	args, err := ExtractArgs(videoPath, outputPath, opts)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if _, err := p.run(ctx, p.paths.FFmpeg, append([]string{"-v", "error"}, args...)...); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}

	return nil
}
