// Package filter reduces raw "show running-config" output to the lines that
// count toward an audit.
package filter

import (
	"strings"

	"github.com/netcensus/netcensus/pkg/util"
)

// SkipPatterns are matched case-insensitively anywhere in a line. A line
// containing any of them is system noise, not configuration.
var SkipPatterns = []string{
	"Building configuration",
	"Current configuration",
	"Date:",
	"!",
}

// Filter splits raw into lines and drops blank lines and lines matching
// SkipPatterns. Kept lines are returned in their original order, without
// trailing carriage returns, together with their count.
func Filter(raw string) ([]string, int) {
	lines := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || skip(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines, len(lines)
}

func skip(line string) bool {
	for _, p := range SkipPatterns {
		if util.ContainsFold(line, p) {
			return true
		}
	}
	return false
}
