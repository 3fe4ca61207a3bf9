package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner is the subset of the terminal spinner the CLI drives.
type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// LineSpinner is a spinner implementation for tests that writes each update
// on its own line instead of clearing and redrawing the terminal.
type LineSpinner struct {
	mu       sync.Mutex
	Suffix   string
	FinalMSG string
	Writer   io.Writer
	active   bool
	colorize func(a ...interface{}) string
}

func NewLineSpinner(w io.Writer) *LineSpinner {
	return &LineSpinner{
		Writer:   w,
		colorize: color.New(color.FgWhite).SprintFunc(),
	}
}

func (s *LineSpinner) SetSuffix(suffix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Suffix = suffix
	fmt.Fprintf(s.Writer, "[STAGE]%s\n", s.colorize(suffix))
}

func (s *LineSpinner) SetFinalMSG(finalMSG string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalMSG = finalMSG
}

func (s *LineSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	fmt.Fprintln(s.Writer, "[SPINNER START]")
}

func (s *LineSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	fmt.Fprintln(s.Writer, "[SPINNER STOP]")
	if s.FinalMSG != "" {
		fmt.Fprint(s.Writer, s.FinalMSG)
	}
}

// TerminalSpinner wraps the briandowns spinner behind the Spinner interface.
type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{
		spinner: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

func (s *TerminalSpinner) SetSuffix(suffix string)     { s.spinner.Suffix = suffix }
func (s *TerminalSpinner) SetFinalMSG(finalMSG string) { s.spinner.FinalMSG = finalMSG }
func (s *TerminalSpinner) Start()                      { s.spinner.Start() }
func (s *TerminalSpinner) Stop()                       { s.spinner.Stop() }

// NewSpinner returns the line-oriented spinner when running under the test
// harness and the real terminal spinner otherwise.
func NewSpinner(w io.Writer) Spinner {
	if os.Getenv("FLUSCOPE_TEST") == "true" {
		return NewLineSpinner(w)
	}
	return NewTerminalSpinner(w)
}
