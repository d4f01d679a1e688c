package transform

import (
	"iter"
	"math/rand/v2"

	"lineking/collation"
	"lineking/css"
	"lineking/types"
)

// ArgKind describes the argument an operation takes
type ArgKind int

const (
	ArgNone ArgKind = iota
	// ArgSeparator is a user-entered separator string
	ArgSeparator
	// ArgCSSStrategy is a CSSSortStrategy name; empty means the configured default
	ArgCSSStrategy
)

// Prompt is what the host shows when asking for an operation argument
type Prompt struct {
	Message string
	Default string
}

// Op is one named entry of the operation catalog
type Op struct {
	Name  string
	Scope types.Scope
	Arg   ArgKind
	// Prompt is set for operations that ask the user for their argument
	Prompt *Prompt
	Apply  func(lines []string, arg string) []string
	// Stream is the lazy form, nil when the operation needs the whole input
	Stream func(seq iter.Seq[string], arg string) iter.Seq[string]
}

// Streams reports whether op has a lazy form
func (op *Op) Streams() bool { return op.Stream != nil }

// Options configure a Catalog
type Options struct {
	Collation     *collation.Set
	Rand          *rand.Rand
	JoinSeparator string
	CSSStrategy   types.CSSSortStrategy
}

// Catalog maps operation names to operations
type Catalog struct {
	ops   map[string]*Op
	names []string
}

// NewCatalog builds the full operation catalog
func NewCatalog(opts Options) *Catalog {
	if opts.Collation == nil {
		opts.Collation = collation.Default()
	}
	if opts.JoinSeparator == "" {
		opts.JoinSeparator = ", "
	}
	if opts.CSSStrategy == "" {
		opts.CSSStrategy = types.CSSSortAlphabetical
	}
	s := NewSorter(opts.Collation)
	cssSorter := css.NewSorter(opts.Collation.Default)

	c := &Catalog{ops: make(map[string]*Op)}

	lines := func(name string, fn func([]string) []string) {
		c.add(&Op{Name: name, Scope: types.ScopeLines, Apply: ignoreArg(fn)})
	}
	lazyLines := func(name string, fn func([]string) []string, seq func(iter.Seq[string]) iter.Seq[string]) {
		c.add(&Op{Name: name, Scope: types.ScopeLines, Apply: ignoreArg(fn), Stream: ignoreSeqArg(seq)})
	}
	perLine := func(name string, scope types.Scope, fn func([]string) []string, line func(string) string) {
		c.add(&Op{
			Name:   name,
			Scope:  scope,
			Apply:  ignoreArg(fn),
			Stream: func(seq iter.Seq[string], _ string) iter.Seq[string] { return MapSeq(seq, line) },
		})
	}
	single := func(fn func([]string) []string) func(string) string {
		return func(l string) string { return fn([]string{l})[0] }
	}

	lines("sortAsc", s.Asc)
	lines("sortAscInsensitive", s.AscInsensitive)
	lines("sortDesc", s.Desc)
	lines("sortDescInsensitive", s.DescInsensitive)
	lines("sortNatural", s.Natural)
	lines("sortLengthAsc", s.LengthAsc)
	lines("sortLengthDesc", s.LengthDesc)
	lines("sortReverse", Reverse)
	lines("sortIP", s.IP)
	lines("sortShuffle", func(l []string) []string { return Shuffle(l, opts.Rand) })
	lines("sortUnique", s.Unique)
	lines("sortUniqueInsensitive", s.UniqueInsensitive)

	lazyLines("removeBlankLines", RemoveBlankLines, RemoveBlankLinesSeq)
	lazyLines("condenseBlankLines", CondenseBlankLines, CondenseBlankLinesSeq)
	lazyLines("removeDuplicateLines", RemoveDuplicateLines, RemoveDuplicateLinesSeq)
	lines("keepOnlyDuplicates", KeepOnlyDuplicates)
	perLine("trimLeading", types.ScopeLines, TrimLeading, trimLeading)
	perLine("trimTrailing", types.ScopeLines, TrimTrailing, trimTrailing)
	perLine("trimBoth", types.ScopeLines, TrimBoth, single(TrimBoth))

	perLine("transformUpper", types.ScopeExact, Upper, single(Upper))
	perLine("transformLower", types.ScopeExact, Lower, single(Lower))
	perLine("transformCamel", types.ScopeExact, Camel, camelLine(false))
	perLine("transformKebab", types.ScopeExact, Kebab, single(Kebab))
	perLine("transformSnake", types.ScopeExact, Snake, single(Snake))
	perLine("transformScreamingSnake", types.ScopeExact, ScreamingSnake, single(ScreamingSnake))
	perLine("transformPascal", types.ScopeExact, Pascal, camelLine(true))
	perLine("transformSentence", types.ScopeExact, Sentence, single(Sentence))
	perLine("transformTitle", types.ScopeExact, Title, single(Title))

	perLine("urlEncode", types.ScopeExact, URLEncode, urlEncode)
	perLine("urlDecode", types.ScopeExact, URLDecode, urlDecode)
	perLine("base64Encode", types.ScopeExact, Base64Encode, base64Encode)
	perLine("base64Decode", types.ScopeExact, Base64Decode, base64Decode)
	perLine("jsonEscape", types.ScopeExact, JSONEscape, jsonEscape)
	perLine("jsonUnescape", types.ScopeExact, JSONUnescape, jsonUnescape)

	c.add(&Op{
		Name:   "joinWithSeparator",
		Scope:  types.ScopeLines,
		Arg:    ArgSeparator,
		Prompt: &Prompt{Message: "Join separator: ", Default: opts.JoinSeparator},
		Apply:  JoinWith,
	})
	c.add(&Op{
		Name:   "splitOnSeparator",
		Scope:  types.ScopeLines,
		Arg:    ArgSeparator,
		Prompt: &Prompt{Message: "Split on: ", Default: opts.JoinSeparator},
		Apply:  SplitOn,
	})
	c.add(&Op{
		Name:   "alignOnSeparator",
		Scope:  types.ScopeLines,
		Arg:    ArgSeparator,
		Prompt: &Prompt{Message: "Align on: ", Default: "="},
		Apply:  AlignOn,
	})
	lazyLines("insertNumericSequence", NumberLines, NumberLinesSeq)

	c.add(&Op{
		Name:  "sortCss",
		Scope: types.ScopeLines,
		Arg:   ArgCSSStrategy,
		Apply: func(lines []string, arg string) []string {
			strategy, err := types.ParseCSSSortStrategy(arg)
			if err != nil || arg == "" {
				strategy = opts.CSSStrategy
			}
			return cssSorter.SortLines(lines, strategy)
		},
	})

	return c
}

func (c *Catalog) add(op *Op) {
	c.ops[op.Name] = op
	c.names = append(c.names, op.Name)
}

// Lookup returns the operation called name
func (c *Catalog) Lookup(name string) (*Op, bool) {
	op, ok := c.ops[name]
	return op, ok
}

// Names lists operation names in registration order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func ignoreArg(fn func([]string) []string) func([]string, string) []string {
	return func(lines []string, _ string) []string { return fn(lines) }
}

func ignoreSeqArg(fn func(iter.Seq[string]) iter.Seq[string]) func(iter.Seq[string], string) iter.Seq[string] {
	return func(seq iter.Seq[string], _ string) iter.Seq[string] { return fn(seq) }
}
