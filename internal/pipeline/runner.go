package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/anuvad/internal/logging"
	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/mgpai22/anuvad/internal/translate"
)

type Settings struct {
	Mode translate.Mode
	// pause after every block, including reused and degraded ones
	Delay time.Duration
	// snapshot every N processed blocks and on the last one; 0 disables
	CheckpointEvery int
}

// BlockTranslator turns the lines of one block into translated lines.
type BlockTranslator interface {
	Translate(ctx context.Context, mode translate.Mode, lines []string) ([]string, error)
}

// CheckpointSink persists checkpoint snapshots as they are taken.
type CheckpointSink interface {
	WriteCheckpoint(entries []subtitle.Entry) error
}

type Progress struct {
	// blocks processed so far, the current block included
	Index   int
	Total   int
	Reused  bool
	Failed  bool
	Elapsed time.Duration
	ETA     time.Duration
}

// Observer receives run events, typically to drive a progress display.
type Observer interface {
	Progress(p Progress)
	BlockFailed(err *BlockError)
	Checkpoint(k int, entries []subtitle.Entry)
}

type nopObserver struct{}

func (nopObserver) Progress(Progress) {}
func (nopObserver) BlockFailed(*BlockError) {}
func (nopObserver) Checkpoint(int, []subtitle.Entry) {}

// Runner translates a subtitle sequence block by block, one request in
// flight at a time.
type Runner struct {
	translator BlockTranslator
	settings   Settings
	observer   Observer
	sink       CheckpointSink
	logger     *logging.Logger
	sleeper    func(time.Duration)
	now        func() time.Time
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

func WithCheckpointSink(s CheckpointSink) Option {
	return func(r *Runner) {
		r.sink = s
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSleeper overrides how the throttle delay is waited out (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(r *Runner) {
		r.sleeper = sleeper
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRunner(t BlockTranslator, settings Settings, opts ...Option) (*Runner, error) {
	if t == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if settings.Mode == "" {
		settings.Mode = translate.ModeBlock
	}
	if _, err := translate.ParseMode(string(settings.Mode)); err != nil {
		return nil, err
	}
	if settings.Delay < 0 {
		return nil, fmt.Errorf("delay must not be negative, got %s", settings.Delay)
	}
	if settings.CheckpointEvery < 0 {
		return nil, fmt.Errorf(
			"checkpoint interval must not be negative, got %d",
			settings.CheckpointEvery,
		)
	}

	r := &Runner{
		translator: t,
		settings:   settings,
		observer:   nopObserver{},
		logger:     logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run processes every block of input in order. A block whose translation
// fails keeps its original text and the run carries on. Cancelling ctx stops
// the run; the returned state then holds the progress and last checkpoint
// together with the context error.
func (r *Runner) Run(ctx context.Context, input, resume []subtitle.Entry) (*State, error) {
	state := newState(len(input), r.now())
	log := r.logger.With("run", state.ID.String())

	if resume != nil {
		if err := ValidateResume(input, resume); err != nil {
			log.Warnw("resume disabled", "error", err)
			resume = nil
			state.ResumeDisabled = true
		}
	}

	log.Infow("starting run",
		"blocks", len(input),
		"mode", r.settings.Mode,
		"checkpoint_every", r.settings.CheckpointEvery,
		"delay", r.settings.Delay,
		"resume", resume != nil,
	)

	for i, block := range input {
		if err := ctx.Err(); err != nil {
			return r.stop(log, state, err)
		}

		out, reused, failed, err := r.processBlock(ctx, i, block, resume)
		if err != nil {
			return r.stop(log, state, err)
		}

		state.Translated = append(state.Translated, out)
		state.Index = i + 1
		state.Elapsed = r.now().Sub(state.Started)
		if reused {
			state.Reused++
		}
		if failed != nil {
			state.Failures = append(state.Failures, *failed)
			// observer first so a progress bar is cleared before the warning
			r.observer.BlockFailed(failed)
			log.Warnw("block failed, keeping original text",
				"block", failed.Index,
				"error", failed.Err,
			)
		}

		r.observer.Progress(Progress{
			Index:   state.Index,
			Total:   state.Total,
			Reused:  reused,
			Failed:  failed != nil,
			Elapsed: state.Elapsed,
			ETA:     state.ETA(),
		})

		r.maybeCheckpoint(log, state, input)

		if err := translate.SleepContext(ctx, r.settings.Delay, r.sleeper); err != nil {
			return r.stop(log, state, err)
		}
	}

	state.Elapsed = r.now().Sub(state.Started)
	log.Infow("run complete",
		"blocks", state.Total,
		"reused", state.Reused,
		"failed", state.Failed(),
		"elapsed", state.Elapsed.Round(time.Millisecond),
	)
	return state, nil
}

// returns the output entry for block i, whether it came from resume, and
// the failure when translation had to be skipped
func (r *Runner) processBlock(
	ctx context.Context,
	i int,
	block subtitle.Entry,
	resume []subtitle.Entry,
) (subtitle.Entry, bool, *BlockError, error) {
	if resume != nil && isTranslated(resume[i], block) {
		r.logger.Debugw("reusing resumed block", "block", i+1)
		return resume[i], true, nil, nil
	}

	lines := strings.Split(block.Text, "\n")
	translated, err := r.translator.Translate(ctx, r.settings.Mode, lines)
	if err != nil {
		if ctx.Err() != nil {
			return subtitle.Entry{}, false, nil, ctx.Err()
		}
		return block, false, &BlockError{Index: i + 1, Err: err}, nil
	}

	return block.WithText(strings.Join(translated, "\n")), false, nil, nil
}

// a resumed block counts as done when it has text that differs from the source
func isTranslated(prior, source subtitle.Entry) bool {
	p := strings.TrimSpace(prior.Text)
	return p != "" && p != strings.TrimSpace(source.Text)
}

func (r *Runner) maybeCheckpoint(log *logging.Logger, state *State, input []subtitle.Entry) {
	every := r.settings.CheckpointEvery
	k := state.Index
	if every <= 0 || (k%every != 0 && k != state.Total) {
		return
	}

	snapshot := composeCheckpoint(state.Translated, input)
	state.Checkpoint = snapshot
	state.CheckpointAt = k
	r.observer.Checkpoint(k, snapshot)

	if r.sink == nil {
		return
	}
	if err := r.sink.WriteCheckpoint(snapshot); err != nil {
		log.Warnw("failed to write checkpoint", "block", k, "error", err)
		return
	}
	log.Debugw("checkpoint written", "block", k, "total", state.Total)
}

func (r *Runner) stop(log *logging.Logger, state *State, err error) (*State, error) {
	state.Elapsed = r.now().Sub(state.Started)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warnw("run interrupted",
			"processed", state.Index,
			"total", state.Total,
			"checkpoint", state.CheckpointAt,
		)
	}
	return state, err
}
