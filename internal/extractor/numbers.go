package extractor

import (
	"strconv"
	"strings"
	"unicode"
)

// parseCell reads a report cell as a signed integer. Thousands separators and
// whitespace are ignored. Cells that are not integers yield (0, false).
func parseCell(raw string) (int, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if cleaned == "" {
		return 0, false
	}

	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}
