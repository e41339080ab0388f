// Package report renders run outcomes for the terminal or as JSON/YAML
// documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/gitsync/internal/cliio"
	"github.com/skaphos/gitsync/internal/model"
	"github.com/skaphos/gitsync/internal/planner"
	"github.com/skaphos/gitsync/internal/termstyle"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want text, json or yaml)", s)
	}
}

// Options configures a Printer.
type Options struct {
	Format Format
	Color  bool
	// Quiet hides notices and the summary table.
	Quiet bool
	// NoSummary hides the summary table.
	NoSummary bool
}

// Printer implements planner.Sink. Text output streams one line per
// outcome; structured formats are written once, by Finish.
type Printer struct {
	out  io.Writer
	err  io.Writer
	opts Options

	notices  []string
	warnings []string
}

var _ planner.Sink = (*Printer)(nil)

// New creates a Printer writing outcomes to out and diagnostics to errOut.
func New(out, errOut io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &Printer{out: out, err: errOut, opts: opts}
}

// Outcome prints a single target's result. Suppressed outcomes print
// nothing.
func (p *Printer) Outcome(o model.SyncOutcome) {
	if p.opts.Format != FormatText || o.Suppressed {
		return
	}
	_, _ = fmt.Fprintln(p.out, Line(o, p.opts.Color))
	for _, entry := range o.CommitLog {
		_, _ = fmt.Fprintln(p.out, "    "+entry)
	}
	for _, entry := range o.Stash {
		_, _ = fmt.Fprintln(p.out, "    "+entry)
	}
}

// Notice prints informational messages unless quiet.
func (p *Printer) Notice(msg string) {
	p.notices = append(p.notices, msg)
	if p.opts.Quiet {
		return
	}
	_, _ = fmt.Fprintln(p.err, termstyle.Paint(p.opts.Color, "note: ", termstyle.Info)+msg)
}

// Warning prints a problem that did not stop the run.
func (p *Printer) Warning(msg string) {
	p.warnings = append(p.warnings, msg)
	_, _ = fmt.Fprintln(p.err, termstyle.Paint(p.opts.Color, "warning: ", termstyle.Warn)+msg)
}

// Document is the structured form of a run.
type Document struct {
	Outcomes []model.SyncOutcome `json:"outcomes" yaml:"outcomes"`
	Totals   []Totals            `json:"totals" yaml:"totals"`
	Warnings []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Notices  []string            `json:"notices,omitempty" yaml:"notices,omitempty"`
}

// Finish writes the run summary: a table for text, the whole document for
// JSON and YAML.
func (p *Printer) Finish(summary planner.Summary) error {
	totals := Tally(summary)
	switch p.opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(p.document(summary, totals))
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(p.document(summary, totals)); err != nil {
			return err
		}
		return enc.Close()
	}
	if p.opts.Quiet || p.opts.NoSummary || len(summary.Outcomes) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.Category,
			strconv.Itoa(t.Targets),
			p.count(t.Updated, termstyle.Healthy),
			p.count(t.Cloned, termstyle.Healthy),
			p.count(t.Attention, termstyle.Warn),
			p.count(t.Failed, termstyle.Error),
		})
	}
	return cliio.WriteTable(p.out, true, false,
		[]string{"CATEGORY", "TARGETS", "UPDATED", "CLONED", "ATTENTION", "FAILED"}, rows)
}

func (p *Printer) count(n int, color string) string {
	if n == 0 {
		return "0"
	}
	return termstyle.Colorize(p.opts.Color, strconv.Itoa(n), color)
}

func (p *Printer) document(summary planner.Summary, totals []Totals) Document {
	outcomes := summary.Outcomes
	if outcomes == nil {
		outcomes = []model.SyncOutcome{}
	}
	return Document{Outcomes: outcomes, Totals: totals, Warnings: p.warnings, Notices: p.notices}
}

// Totals are per-category counts.
type Totals struct {
	Category string `json:"category" yaml:"category"`
	Targets  int    `json:"targets" yaml:"targets"`
	Updated  int    `json:"updated" yaml:"updated"`
	Cloned   int    `json:"cloned" yaml:"cloned"`
	// Attention counts copies left alone that need a human: dirty,
	// diverged, ahead or behind without a fast-forward.
	Attention  int `json:"attention" yaml:"attention"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Failed     int `json:"failed" yaml:"failed"`
}

// Tally counts outcomes per category, in category run order.
func Tally(summary planner.Summary) []Totals {
	index := map[string]int{}
	var totals []Totals
	add := func(category string) *Totals {
		i, ok := index[category]
		if !ok {
			i = len(totals)
			index[category] = i
			totals = append(totals, Totals{Category: category})
		}
		return &totals[i]
	}
	for _, c := range summary.Categories {
		add(c)
	}
	for _, o := range summary.Outcomes {
		t := add(o.Target.Provenance)
		t.Targets++
		switch {
		case o.Duplicate:
			t.Duplicates++
		case o.Action.Failed():
			t.Failed++
		case o.Action == model.ActionFetchAndIntegrate:
			t.Updated++
		case o.Action == model.ActionCloned:
			t.Cloned++
		case o.Action == model.ActionSkipped:
			t.Skipped++
		case needsAttention(o.FinalKind):
			t.Attention++
		}
	}
	return totals
}

func needsAttention(kind model.StateKind) bool {
	switch kind {
	case model.StateDirty, model.StateDiverged, model.StateAhead, model.StateBehind:
		return true
	default:
		return false
	}
}
