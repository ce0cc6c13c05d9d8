package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/anuvad/internal/logging"
)

// translation granularity
type Mode string

const (
	// one request per block, lines tagged with <<LINE i>>
	ModeBlock Mode = "block"
	// one request per physical line
	ModeLine Mode = "line"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBlock, ModeLine:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported mode %q (want block or line)", s)
	}
}

type Options struct {
	SourceLanguage string
	TargetLanguage string
	MaxRetries     int
	Backoff        time.Duration
}

// Translator masks, prompts, retries and unmasks on top of a ChatClient.
type Translator struct {
	client  ChatClient
	opts    Options
	retrier *Retrier
	logger  *logging.Logger
}

func NewTranslator(
	client ChatClient,
	opts Options,
	logger *logging.Logger,
	retryOpts ...RetryOption,
) (*Translator, error) {
	if client == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if opts.Backoff <= 0 {
		return nil, fmt.Errorf("backoff must be positive, got %s", opts.Backoff)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	retryOpts = append([]RetryOption{WithRetryLogger(logger)}, retryOpts...)
	return &Translator{
		client:  client,
		opts:    opts,
		retrier: NewRetrier(opts.MaxRetries, opts.Backoff, retryOpts...),
		logger:  logger,
	}, nil
}

func (t *Translator) complete(ctx context.Context, p Prompt) (string, error) {
	var out string
	err := t.retrier.Do(ctx, func(ctx context.Context) error {
		text, err := t.client.Complete(ctx, p.System, p.User)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

// TranslateBlock sends all lines in one request. The result always has
// len(lines) entries; lines missing from the response come back empty.
func (t *Translator) TranslateBlock(ctx context.Context, lines []string) ([]string, error) {
	masks := make([]Masked, len(lines))
	maskedText := make([]string, len(lines))
	for i, line := range lines {
		masks[i] = Mask(line)
		maskedText[i] = masks[i].Text
	}

	raw, err := t.complete(ctx, BlockPrompt(t.opts.SourceLanguage, t.opts.TargetLanguage, maskedText))
	if err != nil {
		return nil, err
	}
	t.logger.Debugw("block response", "lines", len(lines), "raw", truncateString(raw, 200))

	parsed := ParseBlockResponse(raw, len(lines))
	out := make([]string, len(lines))
	for i, text := range parsed {
		out[i] = masks[i].Unmask(text)
	}
	return out, nil
}

func (t *Translator) TranslateLine(ctx context.Context, line string) (string, error) {
	m := Mask(line)
	raw, err := t.complete(ctx, LinePrompt(t.opts.SourceLanguage, t.opts.TargetLanguage, m.Text))
	if err != nil {
		return "", err
	}
	return m.Unmask(strings.TrimSpace(raw)), nil
}

// TranslateLines translates each line on its own; the first failure fails the batch.
func (t *Translator) TranslateLines(ctx context.Context, lines []string) ([]string, error) {
	out := make([]string, len(lines))
	for i, line := range lines {
		translated, err := t.TranslateLine(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out[i] = translated
	}
	return out, nil
}

func (t *Translator) Translate(ctx context.Context, mode Mode, lines []string) ([]string, error) {
	switch mode {
	case ModeBlock:
		return t.TranslateBlock(ctx, lines)
	case ModeLine:
		return t.TranslateLines(ctx, lines)
	default:
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}
}
