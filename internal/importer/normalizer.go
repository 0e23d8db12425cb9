package importer

import (
	"regexp"
	"strings"
)

var (
	trueLiteral  = regexp.MustCompile(`(?i)\btrue\b`)
	falseLiteral = regexp.MustCompile(`(?i)\bfalse\b`)
)

// Normalize repairs the two deviations completion replies are known to carry:
// single-quoted strings and capitalised booleans. It does not check the result.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "'", `"`)
	s = trueLiteral.ReplaceAllString(s, "true")
	s = falseLiteral.ReplaceAllString(s, "false")
	return s
}
