package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mgpai22/anuvad/internal/config"
	"github.com/mgpai22/anuvad/internal/pipeline"
	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/mgpai22/anuvad/internal/translate"
	"github.com/spf13/cobra"
)

// blocks sampled when the source language is detected
const detectSample = 100

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate a subtitle file using an LLM chat API",
	Long: `Translate an existing subtitle file to another language.

Supports SRT, VTT, ASS/SSA and TTML. Timing, styles and inline markup are
preserved; only the dialogue text is sent to the model. An --output with a
different subtitle extension converts the translation to that format.

Alongside the translated file a partial file is written every
--checkpoint-every blocks, and a CSV with original and translated text side
by side is written at the end. Use --resume to pick up where an interrupted
run stopped.

Examples:
  anuvad translate movie.srt -t id
  anuvad translate movie.ass -s en -t ja --mode line
  anuvad translate movie.srt -t id --resume
  anuvad translate movie.srt -t id -o movie.id.vtt
  anuvad translate movie.vtt -t fr --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language code or name (default from config, id)")
	translateCmd.Flags().
		StringP("source-language", "s", "", "Source language code or name, auto to detect (default from config, en)")
	translateCmd.Flags().
		StringP("mode", "m", "", "Translation granularity: block or line")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set ANUVAD_API_KEY/DEEPSEEK_API_KEY/OPENAI_API_KEY)")
	translateCmd.Flags().
		String("base-url", "", "Chat API base URL (default https://api.deepseek.com)")
	translateCmd.Flags().
		String("model", "", "Model identifier (default deepseek-chat)")
	translateCmd.Flags().
		Int("timeout", 0, "Per-request timeout in seconds, 0 for none")
	translateCmd.Flags().
		Float64("delay", 0, "Seconds to wait after every block")
	translateCmd.Flags().
		Int("checkpoint-every", 0, "Write the partial file every N blocks, 0 to disable")
	translateCmd.Flags().
		Int("max-retries", 0, "Retries per request on rate limiting")
	translateCmd.Flags().
		Float64("backoff", 0, "Base backoff in seconds, doubled on every retry")
	translateCmd.Flags().
		Bool("resume", false, "Reuse blocks already translated in a previous partial or output file")
	translateCmd.Flags().
		String("resume-from", "", "File to resume from (default the partial file)")
	translateCmd.Flags().
		Bool("no-pairs", false, "Skip the side-by-side CSV export")
	translateCmd.Flags().
		Bool("preview", false, "Print a table of original and translated text when done")
	translateCmd.Flags().
		Int("preview-rows", 10, "Rows shown by --preview and --dry-run, -1 for all")
	translateCmd.Flags().
		Bool("dry-run", false, "Parse and preview the input without calling the API")
}

// applyTranslateFlags copies explicitly set flags over the file/env config.
func applyTranslateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	float := func(name string, dst *float64) {
		if flags.Changed(name) {
			*dst, _ = flags.GetFloat64(name)
		}
	}

	str("target-language", &cfg.Translate.TargetLanguage)
	str("source-language", &cfg.Translate.SourceLanguage)
	str("mode", &cfg.Translate.Mode)
	cfg.Translate.Mode = strings.ToLower(cfg.Translate.Mode)
	str("api-key", &cfg.API.Key)
	str("base-url", &cfg.API.BaseURL)
	str("model", &cfg.API.Model)
	num("timeout", &cfg.API.TimeoutSeconds)
	float("delay", &cfg.Translate.DelaySeconds)
	num("checkpoint-every", &cfg.Translate.CheckpointEvery)
	num("max-retries", &cfg.Translate.MaxRetries)
	float("backoff", &cfg.Translate.BackoffSeconds)
}

type outputSet struct {
	Output  string
	Partial string
	Pairs   string
}

// <base>.<target>.<ext>, with .partial.<ext> and .pairs.csv siblings; the
// partial file always keeps the input extension since it is composed from
// the input layout
func outputPaths(input, output, target string) outputSet {
	inputExt := filepath.Ext(input)
	if output == "" {
		base := strings.TrimSuffix(input, inputExt)
		output = base + "." + fileLabel(target) + inputExt
	}
	stem := strings.TrimSuffix(output, filepath.Ext(output))
	return outputSet{
		Output:  output,
		Partial: stem + ".partial" + inputExt,
		Pairs:   stem + ".pairs.csv",
	}
}

func fileLabel(s string) string {
	return strings.Join(strings.Fields(s), "-")
}

// resolveSource returns source unchanged unless it is "auto", in which case
// the language is detected from the first blocks.
func resolveSource(source string, entries []subtitle.Entry) (string, error) {
	if !strings.EqualFold(source, translate.AutoLanguage) {
		return source, nil
	}
	n := min(len(entries), detectSample)
	texts := make([]string, 0, n)
	for _, e := range entries[:n] {
		texts = append(texts, e.Text)
	}
	code := translate.DetectLanguage(texts)
	if code == "" {
		return "", fmt.Errorf("could not detect the source language: pass --source-language")
	}
	return code, nil
}

// loadResume returns the prior blocks, or nil when resume is unavailable.
// A resume file that cannot be read only disables resuming.
func loadResume(path string, explicit bool) []subtitle.Entry {
	if _, err := os.Stat(path); err != nil {
		if explicit {
			logger.Warnw("Resume file not found, starting fresh", "path", path)
		} else {
			logger.Infow("No partial file to resume from", "path", path)
		}
		return nil
	}

	f, err := subtitle.Open(path)
	if err != nil {
		logger.Warnw("Resume disabled: failed to parse resume file",
			"path", path,
			"error", err,
		)
		return nil
	}

	logger.Infow("Resuming from prior output", "path", path)
	return f.Subtitle().Entries
}

// writeOutput stores the translated blocks at path. The input layout is
// kept when the formats match, otherwise a plain file is encoded.
func writeOutput(f subtitle.File, translated []subtitle.Entry, path string) error {
	format := subtitle.FormatFromPath(path)
	if format != f.Format() {
		w, err := subtitle.NewWriter(format)
		if err != nil {
			return err
		}
		return w.Write(&subtitle.Subtitle{Entries: translated, Format: string(format)}, path)
	}

	if want := len(f.Subtitle().Entries); want != len(translated) {
		return fmt.Errorf("entry count mismatch: file has %d, got %d", want, len(translated))
	}
	for i, e := range translated {
		if err := f.SetText(i, e.Text); err != nil {
			return err
		}
	}
	return f.Write(path)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyTranslateFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	resume, _ := cmd.Flags().GetBool("resume")
	resumeFrom, _ := cmd.Flags().GetString("resume-from")
	noPairs, _ := cmd.Flags().GetBool("no-pairs")
	preview, _ := cmd.Flags().GetBool("preview")
	previewRows, _ := cmd.Flags().GetInt("preview-rows")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	subFile, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	entries := subFile.Subtitle().Entries
	if len(entries) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}

	paths := outputPaths(subtitlePath, outputPath, cfg.Translate.TargetLanguage)
	outFormat := subtitle.FormatFromPath(paths.Output)
	if outFormat == "" {
		return fmt.Errorf(
			"unsupported output format %q: use .srt, .vtt, .ass or .ttml",
			filepath.Ext(paths.Output),
		)
	}

	source, err := resolveSource(cfg.Translate.SourceLanguage, entries)
	if err != nil {
		return err
	}
	target := cfg.Translate.TargetLanguage
	if strings.EqualFold(source, target) {
		return fmt.Errorf(
			"source language %q and target language %q cannot be the same",
			source,
			target,
		)
	}

	logger.Infow("Parsed subtitle file",
		"input", subtitlePath,
		"entries", len(entries),
		"format", subFile.Format(),
		"source_language", translate.DisplayName(source),
		"target_language", translate.DisplayName(target),
	)

	if dryRun {
		fmt.Fprintln(out, renderEntriesTable(entries, previewRows))
		fmt.Fprintf(out, "Dry run: %s blocks would be translated to %s\n",
			humanize.Comma(int64(len(entries))), paths.Output)
		return nil
	}

	client, err := translate.NewOpenAIClient(translate.ClientConfig{
		APIKey:  cfg.API.Key,
		BaseURL: cfg.API.BaseURL,
		Model:   cfg.API.Model,
		Timeout: cfg.API.Timeout(),
	})
	if err != nil {
		return fmt.Errorf(
			"failed to create API client: %w (use --api-key or set ANUVAD_API_KEY)",
			err,
		)
	}

	translator, err := translate.NewTranslator(client, translate.Options{
		SourceLanguage: translate.DisplayName(source),
		TargetLanguage: translate.DisplayName(target),
		MaxRetries:     cfg.Translate.MaxRetries,
		Backoff:        cfg.Translate.Backoff(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	var prior []subtitle.Entry
	if resume || resumeFrom != "" {
		resumePath := resumeFrom
		if resumePath == "" {
			resumePath = paths.Partial
		}
		prior = loadResume(resumePath, resumeFrom != "")
	}

	observer := newProgressObserver(os.Stderr, len(entries), logger)
	opts := []pipeline.Option{
		pipeline.WithObserver(observer),
		pipeline.WithLogger(logger),
	}
	if cfg.Translate.CheckpointEvery > 0 {
		checkpoint := pipeline.NewFileCheckpointWriter(paths.Partial, subFile)
		if err := checkpoint.Acquire(); err != nil {
			return err
		}
		defer func() { _ = checkpoint.Close() }()
		opts = append(opts, pipeline.WithCheckpointSink(checkpoint))
	}

	runner, err := pipeline.NewRunner(translator, pipeline.Settings{
		Mode:            translate.Mode(cfg.Translate.Mode),
		Delay:           cfg.Translate.Delay(),
		CheckpointEvery: cfg.Translate.CheckpointEvery,
	}, opts...)
	if err != nil {
		return err
	}

	logger.Infow("Starting subtitle translation",
		"output", paths.Output,
		"model", client.Model(),
		"mode", cfg.Translate.Mode,
		"resume", prior != nil,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := runner.Run(ctx, entries, prior)
	observer.Finish()
	if err != nil {
		if errors.Is(err, context.Canceled) && state != nil {
			fmt.Fprintf(out, "Interrupted after %d/%d blocks\n", state.Index, state.Total)
			if state.CheckpointAt > 0 {
				fmt.Fprintf(out, "  Partial file (block %d): %s\n", state.CheckpointAt, paths.Partial)
				fmt.Fprintf(out, "  Re-run with --resume to continue\n")
			}
		}
		return fmt.Errorf("translation stopped: %w", err)
	}

	if err := writeOutput(subFile, state.Translated, paths.Output); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if outFormat != subFile.Format() {
		logger.Infow("Converted output format",
			"from", subFile.Format(),
			"to", outFormat,
		)
	}

	rows, err := subtitle.PairRows(entries, state.Translated)
	if err != nil {
		return err
	}
	if !noPairs {
		if err := subtitle.WritePairsCSV(paths.Pairs, rows); err != nil {
			return fmt.Errorf("failed to write pairs file: %w", err)
		}
	}

	if preview {
		fmt.Fprintln(out, renderPairsTable(rows, previewRows))
	}

	absOutput, _ := filepath.Abs(paths.Output)
	size := ""
	if st, err := os.Stat(paths.Output); err == nil {
		size = " (" + humanize.Bytes(uint64(st.Size())) + ")"
	}
	fmt.Fprintf(out, "Subtitles translated successfully: %s%s\n", absOutput, size)
	fmt.Fprintf(out, "  Entries: %s\n", humanize.Comma(int64(state.Total)))
	fmt.Fprintf(out, "  Languages: %s -> %s\n",
		translate.DisplayName(source), translate.DisplayName(target))
	if state.Reused > 0 {
		fmt.Fprintf(out, "  Reused from resume: %d\n", state.Reused)
	}
	if state.ResumeDisabled {
		fmt.Fprintf(out, "  Resume skipped: prior file does not match the input\n")
	}
	if state.CheckpointAt > 0 {
		fmt.Fprintf(out, "  Partial file: %s\n", paths.Partial)
	}
	if !noPairs {
		fmt.Fprintf(out, "  Side-by-side CSV: %s\n", paths.Pairs)
	}
	fmt.Fprintf(out, "  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	if n := state.Failed(); n > 0 {
		fmt.Fprintf(out, "  Kept original text for %d block(s):\n", n)
		for _, f := range state.Failures {
			fmt.Fprintf(out, "    %v\n", &f)
		}
	}

	return nil
}
