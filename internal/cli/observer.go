package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mgpai22/anuvad/internal/logging"
	"github.com/mgpai22/anuvad/internal/pipeline"
	"github.com/mgpai22/anuvad/internal/subtitle"
	"github.com/schollz/progressbar/v3"
)

// progressObserver draws a progress bar on a terminal and falls back to
// log lines when output is redirected.
type progressObserver struct {
	bar    *progressbar.ProgressBar
	out    io.Writer
	logger *logging.Logger
}

func newProgressObserver(out io.Writer, total int, logger *logging.Logger) *progressObserver {
	o := &progressObserver{out: out, logger: logger}
	if isTerminal(out) {
		o.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Translating"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return o
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (o *progressObserver) Progress(p pipeline.Progress) {
	if o.bar != nil {
		o.bar.Describe(progressLine(p))
		_ = o.bar.Set(p.Index)
		return
	}
	o.logger.Infow("Progress",
		"block", fmt.Sprintf("%d/%d", p.Index, p.Total),
		"percent", fmt.Sprintf("%.0f%%", percent(p.Index, p.Total)),
		"eta", p.ETA.Round(time.Second),
		"resume", p.Reused,
	)
}

func (o *progressObserver) BlockFailed(err *pipeline.BlockError) {
	if o.bar != nil {
		// keep the warning from being overdrawn by the bar
		_ = o.bar.Clear()
	}
}

func (o *progressObserver) Checkpoint(k int, entries []subtitle.Entry) {
	o.logger.Debugw("Checkpoint", "block", k, "entries", len(entries))
}

func (o *progressObserver) Finish() {
	if o.bar != nil {
		_ = o.bar.Finish()
		fmt.Fprintln(o.out)
	}
}

// "12/40 30% ETA 1m24s [resume]"
func progressLine(p pipeline.Progress) string {
	line := fmt.Sprintf("%d/%d %.0f%% ETA %s",
		p.Index, p.Total, percent(p.Index, p.Total), p.ETA.Round(time.Second))
	if p.Reused {
		line += " [resume]"
	}
	if p.Failed {
		line += " [kept original]"
	}
	return line
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) * 100 / float64(total)
}
