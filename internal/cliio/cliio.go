// Package cliio holds small interactive and tabular helpers shared by CLI
// commands.
package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/gitsync/internal/tableutil"
)

// PromptYesNo writes prompt and reads a yes/no response from input.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// ConfirmOverwrite asks whether the existing file at path may be replaced.
func ConfirmOverwrite(out io.Writer, in io.Reader, path string) (bool, error) {
	return PromptYesNo(out, in, fmt.Sprintf("%s already exists. Overwrite? [y/N]: ", path))
}

// WriteTable renders a tab-separated table with optional headers. Cells
// may carry termstyle.Colorize escapes when stripEscape is set.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if err := tableutil.PrintHeaders(w, noHeaders, headers...); err != nil {
		return err
	}
	for _, row := range rows {
		if err := tableutil.WriteRow(w, row...); err != nil {
			return err
		}
	}
	return w.Flush()
}
