package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares editor text for parsing: NFC normalization, and
// non-breaking spaces become plain spaces so layout rules match them.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	if strings.ContainsRune(s, '\u00a0') {
		s = strings.ReplaceAll(s, "\u00a0", " ")
	}
	return s
}
