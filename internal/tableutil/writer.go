// Package tableutil configures the column writer used for gitsync tables.
package tableutil

import (
	"io"
	"strings"

	"github.com/liggitt/tabwriter"
)

// New creates a tabwriter with gitsync's column spacing. With stripEscape,
// cells may wrap ANSI colour codes in tabwriter.Escape bytes so they do not
// count toward column width.
func New(out io.Writer, stripEscape bool) *tabwriter.Writer {
	var flags uint
	if stripEscape {
		flags = tabwriter.StripEscape
	}
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', flags)
}

// WriteRow writes cells as one tab-separated row.
func WriteRow(w io.Writer, cells ...string) error {
	_, err := io.WriteString(w, strings.Join(cells, "\t")+"\n")
	return err
}

// PrintHeaders writes the header row unless disabled.
func PrintHeaders(w io.Writer, noHeaders bool, headers ...string) error {
	if noHeaders || len(headers) == 0 {
		return nil
	}
	return WriteRow(w, headers...)
}
