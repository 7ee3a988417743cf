package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// DeployProgress reports pipeline stages on stderr. Stdout is left to the
// result line.
type DeployProgress struct {
	out     io.Writer
	spinner *spinner.Spinner // nil when not attached to a terminal
	stages  []stageInfo
	mu      sync.Mutex
}

type stageInfo struct {
	Stage     domain.ExecutionStage
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// NewProgressSink picks the progress sink for the configured mode
func NewProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	interactive := !cfg.NonInteractive &&
		(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	return NewDeployProgress(os.Stderr, interactive)
}

// NewDeployProgress creates a progress reporter writing to out
func NewDeployProgress(out io.Writer, interactive bool) *DeployProgress {
	p := &DeployProgress{out: out}
	if interactive {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		p.spinner.HideCursor = false
	}
	return p
}

// OnProgress records a stage transition and updates the spinner
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if n := len(p.stages); n > 0 && p.stages[n-1].EndTime.IsZero() {
		p.stages[n-1].EndTime = now
	}
	p.stages = append(p.stages, stageInfo{
		Stage:     event.Stage,
		StartTime: now,
		Message:   event.Message,
	})

	if p.spinner == nil {
		return
	}

	if event.Spinner {
		p.spinner.Suffix = " " + event.Message
		if !p.spinner.Active() {
			p.spinner.Start()
		}
		return
	}

	if p.spinner.Active() {
		p.spinner.Stop()
	}
	switch event.Stage {
	case domain.StageConfirmed:
		color.New(color.FgGreen).Fprintf(p.out, "✓ %s (%s)\n", event.Message, p.elapsed().Round(time.Millisecond))
	case domain.StageReportedSuccess, domain.StageReportedFailure:
		fmt.Fprintln(p.out, p.stageTable())
	}
}

// Info prints an informational line
func (p *DeployProgress) Info(message string) {
	p.print(color.New(color.FgCyan), message)
}

// Error prints an error line
func (p *DeployProgress) Error(message string) {
	p.print(color.New(color.FgRed), message)
}

// Summary describes the completed stages with their durations
func (p *DeployProgress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	parts := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		if s.EndTime.IsZero() {
			parts = append(parts, string(s.Stage))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Stage, s.EndTime.Sub(s.StartTime).Round(time.Millisecond)))
	}
	return strings.Join(parts, " → ")
}

// stageTable renders the stages seen so far with their durations
func (p *DeployProgress) stageTable() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, s := range p.stages {
		duration := ""
		if !s.EndTime.IsZero() {
			duration = s.EndTime.Sub(s.StartTime).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{string(s.Stage), duration, s.Message})
	}
	return t.Render()
}

func (p *DeployProgress) print(c *color.Color, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Keep the spinner frame off the message line
	wasActive := p.spinner != nil && p.spinner.Active()
	if wasActive {
		p.spinner.Stop()
	}

	c.Fprintln(p.out, message)

	if wasActive {
		p.spinner.Start()
	}
}

func (p *DeployProgress) elapsed() time.Duration {
	if len(p.stages) == 0 {
		return 0
	}
	return time.Since(p.stages[0].StartTime)
}

// Ensure DeployProgress implements ProgressSink
var _ usecase.ProgressSink = (*DeployProgress)(nil)
