package main

import (
	"fmt"
	"strconv"
	"strings"
)

// truncate truncates a string to maxLen, padding with spaces if shorter
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return fmt.Sprintf("%-*s", maxLen, s)
	}
	return s[:maxLen-1] + "…"
}

// joinInts renders ints as a comma-separated list ("1234, 5678")
func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// formatPorts formats a list of ports for display with truncation.
// maxWidth is the maximum character width for the output.
func formatPorts(ports []int, maxWidth int) string {
	if len(ports) == 0 {
		return ""
	}

	result := strconv.Itoa(ports[0])

	portsShown := 1
	for i := 1; i < len(ports); i++ {
		next := ", " + strconv.Itoa(ports[i])
		remaining := len(ports) - i - 1

		// Space needed for the "+N" suffix if we stop here
		suffixLen := 0
		if remaining > 0 {
			suffixLen = len(fmt.Sprintf(" +%d", remaining+1))
		}

		if len(result)+len(next)+suffixLen > maxWidth {
			remainingCount := len(ports) - portsShown
			if remainingCount > 0 {
				result += fmt.Sprintf(" +%d", remainingCount)
			}
			break
		}

		result += next
		portsShown++
	}

	return result
}
