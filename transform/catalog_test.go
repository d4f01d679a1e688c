package transform

import (
	"math/rand/v2"
	"slices"
	"testing"

	"lineking/text"
	"lineking/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHasEveryOperation(t *testing.T) {
	c := NewCatalog(Options{})
	want := []string{
		"sortAsc", "sortAscInsensitive", "sortDesc", "sortDescInsensitive", "sortNatural",
		"sortLengthAsc", "sortLengthDesc", "sortReverse", "sortIP", "sortShuffle",
		"sortUnique", "sortUniqueInsensitive",
		"removeBlankLines", "condenseBlankLines", "removeDuplicateLines", "keepOnlyDuplicates",
		"trimLeading", "trimTrailing", "trimBoth",
		"transformUpper", "transformLower", "transformCamel", "transformKebab", "transformSnake",
		"transformPascal", "transformSentence", "transformTitle",
		"urlEncode", "urlDecode", "base64Encode", "base64Decode", "jsonEscape", "jsonUnescape",
		"joinWithSeparator", "splitOnSeparator", "alignOnSeparator", "insertNumericSequence",
		"sortCss",
	}
	names := c.Names()
	for _, name := range want {
		op, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, op.Name)
		assert.Contains(t, names, name)
	}

	_, ok := c.Lookup("nope")
	assert.False(t, ok)
}

func TestCatalogScopes(t *testing.T) {
	c := NewCatalog(Options{})

	for _, name := range []string{"sortAsc", "removeBlankLines", "trimBoth", "sortCss", "joinWithSeparator"} {
		op, _ := c.Lookup(name)
		assert.Equal(t, types.ScopeLines, op.Scope, name)
	}
	for _, name := range []string{"transformUpper", "transformCamel", "urlEncode", "jsonUnescape"} {
		op, _ := c.Lookup(name)
		assert.Equal(t, types.ScopeExact, op.Scope, name)
	}
}

func TestCatalogPrompts(t *testing.T) {
	c := NewCatalog(Options{JoinSeparator: " | "})

	op, _ := c.Lookup("joinWithSeparator")
	require.NotNil(t, op.Prompt)
	assert.Equal(t, ArgSeparator, op.Arg)
	assert.Equal(t, " | ", op.Prompt.Default)
	assert.Equal(t, []string{"a | b"}, op.Apply([]string{"a", "b"}, " | "))

	op, _ = c.Lookup("sortAsc")
	assert.Nil(t, op.Prompt)
	assert.Equal(t, ArgNone, op.Arg)
}

func TestCatalogSortCss(t *testing.T) {
	in := []string{".a {", "  background: red;", "  top: 0;", "}"}

	c := NewCatalog(Options{CSSStrategy: types.CSSSortLength})
	op, _ := c.Lookup("sortCss")
	assert.Equal(t, ArgCSSStrategy, op.Arg)

	assert.Equal(t, []string{".a {", "  top: 0;", "  background: red;", "}"}, op.Apply(in, ""), "configured strategy")
	assert.Equal(t, in, op.Apply(in, "alphabetical"))
	assert.Equal(t, []string{".a {", "  top: 0;", "  background: red;", "}"}, op.Apply(in, "bogus"), "unknown falls back")
}

func TestCatalogShuffleUsesSource(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f", "g"}
	a := NewCatalog(Options{Rand: rand.New(rand.NewPCG(3, 4))})
	b := NewCatalog(Options{Rand: rand.New(rand.NewPCG(3, 4))})

	opA, _ := a.Lookup("sortShuffle")
	opB, _ := b.Lookup("sortShuffle")
	assert.Equal(t, opA.Apply(in, ""), opB.Apply(in, ""))
}

func TestCatalogStreamMatchesApply(t *testing.T) {
	c := NewCatalog(Options{})
	in := []string{"  Hello World  ", "", "", "foo_bar", "foo_bar", "a b&c", "\tx\t", "ü 🌍", ""}

	streamed := 0
	for _, name := range c.Names() {
		op, _ := c.Lookup(name)
		if !op.Streams() {
			continue
		}
		streamed++
		t.Run(name, func(t *testing.T) {
			got := slices.Collect(op.Stream(text.Slice(in), ""))
			assert.Equal(t, op.Apply(in, ""), got)
		})
	}
	assert.GreaterOrEqual(t, streamed, 20)
}
