package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback for generation and batch rendering.
// A negative total starts an indeterminate spinner.
type Reporter interface {
	Start(total int, description string)
	Update(current int, message string)
	Finish(summary string)
}

// NewReporter returns a TerminalReporter writing to w, or a CIReporter if
// the CI environment variable is set. A nil w means stderr.
func NewReporter(w io.Writer) Reporter {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{w: w}
	}
	return &TerminalReporter{w: w}
}

// TerminalReporter displays a progress bar or spinner in the terminal.
type TerminalReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, description string) {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	}
	if total < 0 {
		opts = append(opts, progressbar.OptionSpinnerType(14))
	} else {
		opts = append(opts, progressbar.OptionShowCount())
	}
	r.bar = progressbar.NewOptions(total, opts...)
}

func (r *TerminalReporter) Update(current int, message string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(message)
	if current >= 0 {
		_ = r.bar.Set(current)
	} else {
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish(summary string) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	if summary != "" {
		fmt.Fprintln(r.w, summary)
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	w     io.Writer
	total int
}

func (r *CIReporter) Start(total int, description string) {
	r.total = total
	if total < 0 {
		fmt.Fprintf(r.w, "%s\n", description)
		return
	}
	fmt.Fprintf(r.w, "%s (%d items)\n", description, total)
}

func (r *CIReporter) Update(current int, message string) {
	if r.total < 0 || current < 0 {
		fmt.Fprintf(r.w, "%s\n", message)
		return
	}
	fmt.Fprintf(r.w, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Finish(summary string) {
	if summary == "" {
		summary = "done"
	}
	fmt.Fprintln(r.w, summary)
}
