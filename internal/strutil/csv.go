// SPDX-License-Identifier: MIT

// Package strutil holds small string helpers shared by the CLI and config.
package strutil

import "strings"

// SplitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func SplitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
