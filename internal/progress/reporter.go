package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter gives feedback while a batch of proposals runs its checks.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter picks a bar for interactive terminals and plain log lines for
// CI, where cursor control only produces noise.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &logReporter{out: os.Stderr}
	}
	return &barReporter{}
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Testing proposals"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Update(current int, message string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(message)
	_ = r.bar.Set(current)
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

type logReporter struct {
	out   io.Writer
	total int
}

func (r *logReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(r.out, "Testing %d proposals\n", total)
}

func (r *logReporter) Update(current int, message string) {
	fmt.Fprintf(r.out, "[%d/%d] %s\n", current, r.total, message)
}

func (r *logReporter) Finish() {
	fmt.Fprintln(r.out, "Proposal testing complete")
}
