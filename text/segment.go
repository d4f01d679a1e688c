package text

import (
	"strings"

	"lineking/types"
)

// Split splits text on \r?\n. A trailing terminator produces a trailing
// empty line, so Split("a\n") is ["a", ""] and Split("") is [""].
func Split(s string) []string {
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	sc := NewScanner(s)
	for sc.Next() {
		lines = append(lines, sc.Line())
	}
	return lines
}

// Join joins lines with eol. Mixed terminators in the original text are not
// preserved: the document declares one canonical EOL.
func Join(lines []string, eol types.EOL) string {
	return strings.Join(lines, string(eol))
}

// DetectEOL returns the first terminator found in s, defaulting to LF
func DetectEOL(s string) types.EOL {
	i := strings.IndexByte(s, '\n')
	if i > 0 && s[i-1] == '\r' {
		return types.EOLCRLF
	}
	return types.EOLLF
}

// LineCount returns the number of lines Split would produce without splitting
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// ByteLen returns the byte length of lines joined with eol
func ByteLen(lines []string, eol types.EOL) int {
	if len(lines) == 0 {
		return 0
	}
	n := len(eol) * (len(lines) - 1)
	for _, l := range lines {
		n += len(l)
	}
	return n
}
