package util

import (
	"bytes"
	"fmt"
	"strings"
)

// ErrorLine extracts N from a message of the form "Error line N: ...". It returns 0 when
// the message carries no line.
func ErrorLine(msg string) int {
	var line int
	if _, err := fmt.Sscanf(msg, "Error line %d:", &line); err != nil {
		return 0
	}
	return line
}

// GetContextLines renders up to two lines before errorLine plus the line itself, with
// the offending line marked.
func GetContextLines(src string, errorLine int) string {
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}

	var result bytes.Buffer
	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}
	for i := startLine; i <= errorLine; i++ {
		if i == errorLine {
			result.WriteString(fmt.Sprintf("  >  %3d | %s\n", i, lines[i-1]))
		} else {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lines[i-1]))
		}
	}
	return result.String()
}
