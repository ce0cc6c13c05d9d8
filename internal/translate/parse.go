package translate

import (
	"strconv"
	"strings"
	"unicode"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ParseBlockResponse extracts n lines from a block-mode completion. Lines
// without a valid "<<LINE i>>" marker are dropped and indexes that never
// appear stay empty, so malformed output degrades instead of failing.
func ParseBlockResponse(raw string, n int) []string {
	out := make([]string, max(n, 0))

	for _, line := range strings.Split(lineBreaks.Replace(raw), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, linePrefix) {
			continue
		}

		head, content, ok := strings.Cut(line, ">>")
		if !ok {
			continue
		}

		idx, err := strconv.Atoi(
			strings.TrimSpace(strings.TrimPrefix(head, linePrefix)),
		)
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		out[idx] = strings.TrimLeftFunc(content, unicode.IsSpace)
	}

	return out
}
