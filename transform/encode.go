package transform

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// URLEncode percent-encodes every line. Unreserved characters are the
// ones encodeURIComponent leaves alone: A-Z a-z 0-9 - _ . ! ~ * ' ( )
func URLEncode(lines []string) []string { return Map(lines, urlEncode) }

// URLDecode decodes percent-encoded lines. A line with a malformed escape
// is returned unchanged.
func URLDecode(lines []string) []string { return Map(lines, urlDecode) }

// Base64Encode encodes the UTF-8 bytes of every line with the standard alphabet
func Base64Encode(lines []string) []string { return Map(lines, base64Encode) }

// Base64Decode decodes every line. Invalid input leaves the line unchanged;
// decoded bytes are kept even when they are not UTF-8.
func Base64Decode(lines []string) []string { return Map(lines, base64Decode) }

// JSONEscape returns the body of a JSON string literal for every line,
// without the surrounding quotes
func JSONEscape(lines []string) []string { return Map(lines, jsonEscape) }

// JSONUnescape resolves JSON escapes in every line. Unknown or malformed
// escapes are kept literally.
func JSONUnescape(lines []string) []string { return Map(lines, jsonUnescape) }

func shouldEscapeURL(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}

func urlEncode(s string) string {
	const hex = "0123456789ABCDEF"
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscapeURL(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscapeURL(c) {
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func urlDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil || !utf8.ValidString(out) {
		return s
	}
	return out
}

func base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func base64Decode(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}

func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return s
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return string(out[1 : len(out)-1])
}

func jsonUnescape(s string) string {
	i := strings.IndexByte(s, '\\')
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		switch s[i+1] {
		case '"', '\\', '/':
			b.WriteByte(s[i+1])
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, size := unicodeEscape(s[i:])
			if size == 0 {
				b.WriteString(s[i : i+2])
				i += 2
				continue
			}
			b.WriteRune(r)
			i += size
			continue
		default:
			b.WriteString(s[i : i+2])
		}
		i += 2
	}
	return b.String()
}

// unicodeEscape decodes a \uXXXX escape at the start of s, joining a
// following low surrogate escape when the first is a high surrogate.
// It returns the rune and the number of bytes consumed, or size 0 when the
// escape is malformed. A lone surrogate decodes to U+FFFD.
func unicodeEscape(s string) (rune, int) {
	hi, ok := hex4(s)
	if !ok {
		return 0, 0
	}
	if !utf16.IsSurrogate(hi) {
		return hi, 6
	}
	if lo, ok := hex4(s[6:]); ok {
		if r := utf16.DecodeRune(hi, lo); r != utf8.RuneError {
			return r, 12
		}
	}
	return utf8.RuneError, 6
}

func hex4(s string) (rune, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[2:6], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
