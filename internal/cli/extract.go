package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mgpai22/anuvad/internal/ffmpeg"
	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/mgpai22/anuvad/internal/video"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a subtitle track from a video file",
	Long: `Extract an embedded subtitle stream from a video container so it can be
translated.

Text streams can be written as srt, vtt or ass. Bitmap subtitles (PGS,
VobSub) cannot be converted.

Examples:
  anuvad extract movie.mkv --list
  anuvad extract movie.mkv
  anuvad extract movie.mkv --stream 2 -f ass -o movie.en.ass`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		Bool("list", false, "List subtitle streams and exit")
	extractCmd.Flags().
		Int("stream", 0, "Subtitle stream to extract, counted from 0 among subtitle streams")
	extractCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt, ass)")
}

// <base>.<language or sN>.<ext>
func extractOutputPath(videoPath string, stream video.Stream, format subtitle.Format) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	label := stream.Language
	if label == "" || label == "und" {
		label = "s" + strconv.Itoa(stream.Position)
	}
	return base + "." + label + subtitle.ExtensionForFormat(format)
}

func renderStreamsTable(streams []video.Stream) string {
	rows := make([][]string, 0, len(streams))
	for _, s := range streams {
		var flags []string
		if s.Default {
			flags = append(flags, "default")
		}
		if s.Forced {
			flags = append(flags, "forced")
		}
		if !s.Text() {
			flags = append(flags, "bitmap")
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Position),
			strconv.Itoa(s.Index),
			s.Codec,
			s.Language,
			s.Title,
			strings.Join(flags, ","),
		})
	}
	return renderTable(
		[]string{"Stream", "Index", "Codec", "Language", "Title", "Flags"},
		rows,
		[]columnAlignment{alignRight, alignRight},
		nil,
	)
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	out := cmd.OutOrStdout()

	list, _ := cmd.Flags().GetBool("list")
	streamIndex, _ := cmd.Flags().GetInt("stream")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format := subtitle.Format(strings.ToLower(strings.TrimSpace(formatStr)))
	if outputPath != "" && !cmd.Flags().Changed("format") {
		if f := subtitle.FormatFromPath(outputPath); f != "" {
			format = f
		}
	}
	switch format {
	case subtitle.FormatSRT, subtitle.FormatVTT, subtitle.FormatASS:
	default:
		return fmt.Errorf("invalid format %q: supported formats are srt, vtt, ass", format)
	}

	paths, err := ffmpeg.Ensure()
	if err != nil {
		return err
	}
	processor := video.NewProcessor(paths)

	ctx := cmd.Context()
	info, err := processor.GetInfo(ctx, videoPath)
	if err != nil {
		return err
	}

	if list {
		if len(info.Subtitles) == 0 {
			fmt.Fprintln(out, "No subtitle streams found")
			return nil
		}
		fmt.Fprintln(out, renderStreamsTable(info.Subtitles))
		return nil
	}

	if len(info.Subtitles) == 0 {
		return fmt.Errorf("no subtitle streams in %s", videoPath)
	}
	if streamIndex < 0 || streamIndex >= len(info.Subtitles) {
		return fmt.Errorf(
			"subtitle stream %d out of range: file has %d (see --list)",
			streamIndex,
			len(info.Subtitles),
		)
	}
	stream := info.Subtitles[streamIndex]
	if !stream.Text() {
		return fmt.Errorf("subtitle stream %d is a bitmap format (%s) and cannot be extracted as text", streamIndex, stream.Codec)
	}

	if outputPath == "" {
		outputPath = extractOutputPath(videoPath, stream, format)
	}

	logger.Infow("Extracting subtitles",
		"video", videoPath,
		"output", outputPath,
		"stream", streamIndex,
		"codec", stream.Codec,
		"language", stream.Language,
		"format", format,
	)

	if err := processor.ExtractSubtitle(ctx, videoPath, outputPath, video.ExtractSubtitleOptions{
		Stream: streamIndex,
		Format: format,
	}); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	size := ""
	if st, err := os.Stat(outputPath); err == nil {
		size = " (" + humanize.Bytes(uint64(st.Size())) + ")"
	}
	fmt.Fprintf(out, "Subtitles extracted successfully: %s%s\n", absOutput, size)

	return nil
}
