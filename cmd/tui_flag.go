package cmd

import (
	"fmt"
	"strings"

	"github.com/spiffcs/scout/internal/output"
	"github.com/spiffcs/scout/internal/tui"
)

// tuiFlag implements pflag.Value for the tri-state --tui flag.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	if *f.opts.TUI {
		return "true"
	}
	return "false"
}

func (f *tuiFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		v := true
		f.opts.TUI = &v
	case "false", "0", "no", "off":
		v := false
		f.opts.TUI = &v
	case "auto":
		f.opts.TUI = nil
	default:
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI decides whether the progress display runs while a one-shot
// command works. Machine-readable output never gets one, so stdout stays clean.
func shouldUseTUI(opts *Options, format output.Format) bool {
	// Verbose logging goes to stderr and would tear through the display
	if opts.Verbosity > 0 {
		return false
	}
	if format == output.FormatJSON {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
