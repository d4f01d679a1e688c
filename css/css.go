// Package css reorders the declarations of brace-delimited CSS rule blocks
// without parsing CSS. Blocks are found by brace matching; inside a block
// only declaration lines move, and they move only between declaration
// slots, so comments, braces and anything unrecognized stay where they are.
package css

import (
	"regexp"
	"slices"
	"strings"

	"lineking/collation"
	"lineking/lazy"
	"lineking/text"
	"lineking/types"
)

// Block is a matched brace pair. Start is the line holding the opening
// brace and End the line holding its match. Depth is 1 for top-level blocks.
type Block struct {
	Start int
	End   int
	Depth int
}

// Interior returns the number of lines strictly between the braces
func (b Block) Interior() int { return b.End - b.Start - 1 }

// Contains reports whether line lies within the block, brace lines included
func (b Block) Contains(line int) bool { return line >= b.Start && line <= b.End }

// Kind classifies one line inside a block
type Kind int

const (
	KindOther Kind = iota
	KindComment
	KindDeclaration
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindDeclaration:
		return "declaration"
	default:
		return "other"
	}
}

// ParsedLine is a classified line. Property and Value are set for declarations.
type ParsedLine struct {
	Kind     Kind
	Property string
	Value    string
	Text     string
}

var (
	declarationPattern = regexp.MustCompile(`^\s{2,}([^\s:;{}][^:;{}]*?)\s*:\s*([^\s:;{}][^:;{}]*?)\s*;?\s*$`)
	blockComment       = regexp.MustCompile(`^\s*/\*.*\*/\s*$`)
	lineComment        = regexp.MustCompile(`^\s*//`)
)

// Classify sorts a line into comment, declaration or other
func Classify(line string) ParsedLine {
	p := ParsedLine{Kind: KindOther, Text: line}
	switch {
	case blockComment.MatchString(line), lineComment.MatchString(line):
		p.Kind = KindComment
	case strings.TrimSpace(line) == "", strings.ContainsAny(line, "{}"):
	default:
		if m := declarationPattern.FindStringSubmatch(line); m != nil {
			p.Kind = KindDeclaration
			p.Property = m[1]
			p.Value = m[2]
		}
	}
	return p
}

// FindBlocks returns every matched brace pair in lines, ordered by closing
// position. Unmatched braces produce no block.
func FindBlocks(lines []string) []Block {
	var blocks []Block
	var open []int
	for i, l := range lines {
		for j := 0; j < len(l); j++ {
			switch l[j] {
			case '{':
				open = append(open, i)
			case '}':
				if len(open) == 0 {
					continue
				}
				start := open[len(open)-1]
				open = open[:len(open)-1]
				blocks = append(blocks, Block{Start: start, End: i, Depth: len(open) + 1})
			}
		}
	}
	return blocks
}

// EnclosingBlock returns the innermost block containing line
func EnclosingBlock(blocks []Block, line int) (Block, bool) {
	var best Block
	found := false
	for _, b := range blocks {
		if !b.Contains(line) {
			continue
		}
		if !found || b.Depth > best.Depth {
			best, found = b, true
		}
	}
	return best, found
}

// owners maps each line to the index of the innermost block whose interior
// holds it, or -1
func owners(blocks []Block, n int) []int {
	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return blocks[a].Depth - blocks[b].Depth })
	for _, bi := range order {
		b := blocks[bi]
		for l := b.Start + 1; l < b.End; l++ {
			owner[l] = bi
		}
	}
	return owner
}

// Sorter sorts declarations with a fixed collation
type Sorter struct {
	coll *collation.Collation
}

// NewSorter returns a sorter comparing property names with c
func NewSorter(c *collation.Collation) *Sorter {
	return &Sorter{coll: c}
}

var defaultSorter = lazy.NewValue(func() *Sorter {
	return NewSorter(collation.Default().Default)
})

// SortLines sorts the declarations of every block in lines with the
// root-locale collation
func SortLines(lines []string, strategy types.CSSSortStrategy) []string {
	return defaultSorter.Get().SortLines(lines, strategy)
}

// SortText splits text on \r?\n, sorts it and joins the result with \n
func SortText(src string, strategy types.CSSSortStrategy) string {
	return defaultSorter.Get().SortText(src, strategy)
}

// SortText is the whole-text form of SortLines
func (s *Sorter) SortText(src string, strategy types.CSSSortStrategy) string {
	return text.Join(s.SortLines(text.Split(src), strategy), types.EOLLF)
}

// SortLines returns lines with each block's declarations reordered by
// strategy. Each block sorts only the lines it directly owns.
func (s *Sorter) SortLines(lines []string, strategy types.CSSSortStrategy) []string {
	out := slices.Clone(lines)
	blocks := FindBlocks(lines)
	if len(blocks) == 0 {
		return out
	}
	owner := owners(blocks, len(lines))
	for bi, b := range blocks {
		if b.Interior() <= 0 {
			continue
		}
		var slots []int
		var decls []ParsedLine
		for l := b.Start + 1; l < b.End; l++ {
			if owner[l] != bi {
				continue
			}
			if p := Classify(lines[l]); p.Kind == KindDeclaration {
				slots = append(slots, l)
				decls = append(decls, p)
			}
		}
		if len(decls) < 2 {
			continue
		}
		s.sortDeclarations(decls, strategy)
		for i, l := range slots {
			out[l] = decls[i].Text
		}
	}
	return out
}

func (s *Sorter) sortDeclarations(decls []ParsedLine, strategy types.CSSSortStrategy) {
	switch strategy {
	case types.CSSSortLength:
		slices.SortStableFunc(decls, func(a, b ParsedLine) int {
			return declarationLength(a) - declarationLength(b)
		})
	default:
		s.coll.With(func(compare func(a, b string) int) {
			slices.SortStableFunc(decls, func(a, b ParsedLine) int {
				return compare(a.Property, b.Property)
			})
		})
	}
}

func declarationLength(p ParsedLine) int {
	return len(p.Property) + 1 + len(p.Value)
}
