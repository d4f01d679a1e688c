package transform

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper upper-cases every line
func Upper(lines []string) []string { return Map(lines, cases.Upper(language.Und).String) }

// Lower lower-cases every line
func Lower(lines []string) []string { return Map(lines, cases.Lower(language.Und).String) }

// Title capitalizes every word and lower-cases the rest
func Title(lines []string) []string { return Map(lines, cases.Title(language.Und).String) }

// Sentence capitalizes the first letter of each line and lower-cases the rest
func Sentence(lines []string) []string {
	lower := cases.Lower(language.Und)
	return Map(lines, func(s string) string { return sentence(lower.String(s)) })
}

func sentence(lowered string) string {
	for i, r := range lowered {
		if unicode.IsLetter(r) {
			return lowered[:i] + string(unicode.ToTitle(r)) + lowered[i+utf8.RuneLen(r):]
		}
	}
	return lowered
}

// Camel converts each line to camelCase
func Camel(lines []string) []string { return Map(lines, camelLine(false)) }

// Pascal converts each line to PascalCase
func Pascal(lines []string) []string { return Map(lines, camelLine(true)) }

// Kebab converts each line to kebab-case
func Kebab(lines []string) []string { return Map(lines, delimitedLine(strcase.ToKebab)) }

// Snake converts each line to snake_case
func Snake(lines []string) []string { return Map(lines, delimitedLine(strcase.ToSnake)) }

// ScreamingSnake converts each line to SCREAMING_SNAKE_CASE
func ScreamingSnake(lines []string) []string {
	upper := cases.Upper(language.Und)
	snake := delimitedLine(strcase.ToSnake)
	return Map(lines, func(s string) string { return upper.String(snake(s)) })
}

// camelLine joins the words of a line, capitalizing all but (unless
// pascal) the first. Leading and trailing whitespace is kept.
func camelLine(pascal bool) func(string) string {
	lower := cases.Lower(language.Und)
	join := func(words []string) string {
		var b strings.Builder
		for i, w := range words {
			w = lower.String(w)
			if i > 0 || pascal {
				w = capitalize(w)
			}
			b.WriteString(w)
		}
		return b.String()
	}
	return func(s string) string {
		lead, body, trail := splitPadding(s)
		words := Words(body)
		if len(words) == 0 {
			return s
		}
		// One-letter words run together into capitals that read back as a
		// single acronym ("a b c" is "aBC", then "aBc"). Joining the words of
		// the first result gives the form that reads back unchanged.
		out := join(Words(join(words)))
		return lead + out + trail
	}
}

// delimitedLine lower-cases the words of a line and hands them, space
// separated, to a strcase delimiter function
func delimitedLine(delimit func(string) string) func(string) string {
	lower := cases.Lower(language.Und)
	return func(s string) string {
		lead, body, trail := splitPadding(s)
		words := Words(body)
		if len(words) == 0 {
			return s
		}
		return lead + delimit(lower.String(strings.Join(words, " "))) + trail
	}
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToTitle(r)) + w[size:]
}

func splitPadding(s string) (lead, body, trail string) {
	body = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(body)]
	trimmed := strings.TrimRightFunc(body, unicode.IsSpace)
	trail = body[len(trimmed):]
	return lead, trimmed, trail
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Words splits s into words. Runs of non-alphanumeric characters separate
// words, as do case transitions: a lower-case letter or digit followed by
// an upper-case letter ("fooBar"), and the last capital of an acronym
// followed by a lower-case letter ("HTTPServer" is "HTTP", "Server").
func Words(s string) []string {
	var words []string
	for w := range wordSeq(s) {
		words = append(words, w)
	}
	return words
}

func wordSeq(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		var prev rune
		for i, r := range s {
			if !isWordRune(r) {
				if start >= 0 {
					if !yield(s[start:i]) {
						return
					}
					start = -1
				}
				prev = 0
				continue
			}
			if start < 0 {
				start = i
				prev = r
				continue
			}
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				if !yield(s[start:i]) {
					return
				}
				start = i
			} else if unicode.IsLower(r) && unicode.IsUpper(prev) {
				// Acronym followed by a word: the previous capital starts the new word
				pstart := i - utf8.RuneLen(prev)
				if pstart > start {
					if !yield(s[start:pstart]) {
						return
					}
					start = pstart
				}
			}
			prev = r
		}
		if start >= 0 {
			yield(s[start:])
		}
	}
}
