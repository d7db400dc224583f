package usecase

import (
	"strings"
)

// NormalizeReply cleans a raw generator reply. A line identical to the line
// right before it is dropped, so repetition loops collapse to their first
// occurrence, and the result is trimmed. Lines are compared as written.
func NormalizeReply(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > 0 && line == lines[i-1] {
			continue
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
