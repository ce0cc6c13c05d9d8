package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mgpai22/anuvad/internal/subtitle"
)

// ErrResumeMismatch is returned by ValidateResume when the prior output does
// not line up block for block with the input.
var ErrResumeMismatch = errors.New("resume file does not match input")

// BlockError records a block that fell back to its original text.
type BlockError struct {
	// 1-based position in the input
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// State is the progress of one run. Translated holds the first Index blocks;
// once Done it is the complete output.
type State struct {
	ID         uuid.UUID
	Translated []subtitle.Entry
	Index      int
	Total      int
	Started    time.Time
	Elapsed    time.Duration

	// latest snapshot: translated prefix followed by the untouched input
	Checkpoint   []subtitle.Entry
	CheckpointAt int

	Reused         int
	Failures       []BlockError
	ResumeDisabled bool
}

func newState(total int, started time.Time) *State {
	return &State{
		ID:         uuid.New(),
		Translated: make([]subtitle.Entry, 0, total),
		Total:      total,
		Started:    started,
	}
}

func (s *State) Done() bool {
	return s.Index >= s.Total
}

func (s *State) Failed() int {
	return len(s.Failures)
}

// ETA extrapolates the average time per processed block over what is left.
func (s *State) ETA() time.Duration {
	return estimateRemaining(s.Elapsed, s.Index, s.Total)
}

func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done <= 0 || done >= total {
		return 0
	}
	return elapsed / time.Duration(done) * time.Duration(total-done)
}

// snapshot of translated[0:k] followed by input[k:]
func composeCheckpoint(translated, input []subtitle.Entry) []subtitle.Entry {
	k := len(translated)
	out := make([]subtitle.Entry, 0, len(input))
	out = append(out, translated...)
	if k < len(input) {
		out = append(out, input[k:]...)
	}
	return out
}

// ValidateResume checks that resume can be used against input.
func ValidateResume(input, resume []subtitle.Entry) error {
	if len(resume) != len(input) {
		return fmt.Errorf(
			"%w: %d blocks in resume, %d in input",
			ErrResumeMismatch,
			len(resume),
			len(input),
		)
	}
	return nil
}
