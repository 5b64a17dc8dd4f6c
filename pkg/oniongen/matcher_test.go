package oniongen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDictionary(t *testing.T, words ...string) *Dictionary {
	t.Helper()
	d := NewDictionary()
	for _, w := range words {
		ok, err := d.Insert(w)
		require.NoError(t, err)
		require.True(t, ok, "word %q rejected", w)
	}
	d.Seal()
	return d
}

func TestMatcher_FullScenario(t *testing.T) {
	m := NewMatcher(newTestDictionary(t, "cat", "dog"), PolicyFull)

	assert.True(t, m.Matches("catdog"))
	assert.False(t, m.Matches("catdogx"))
	assert.True(t, m.Matches("dog"))
	assert.False(t, m.Matches("do"))
}

func TestMatcher_PrefixScenario(t *testing.T) {
	m := NewMatcher(newTestDictionary(t, "cat"), PolicyPrefix)

	assert.True(t, m.Matches("catastrophe"))
	assert.True(t, m.Matches("cat"))
	assert.False(t, m.Matches("ca"))
	assert.False(t, m.Matches("dogcat"))
}

func TestMatcher_EveryWordMatchesUnderBothPolicies(t *testing.T) {
	words := []string{"a", "an", "ant", "anthem", "them", "he", "zz77", "onion"}
	d := newTestDictionary(t, words...)
	for _, policy := range []Policy{PolicyPrefix, PolicyFull} {
		m := NewMatcher(d, policy)
		for _, w := range words {
			assert.True(t, m.Matches(w), "%s: %q", policy, w)
		}
	}
}

func TestMatcher_Concatenations(t *testing.T) {
	words := []string{"tor", "onion", "hidden", "service", "a", "b2"}
	m := NewMatcher(newTestDictionary(t, words...), PolicyFull)

	concats := [][]string{
		{"tor"},
		{"onion", "tor"},
		{"hidden", "service", "a"},
		{"a", "a", "a", "b2"},
		{"b2", "onion", "hidden", "tor", "service"},
	}
	for _, parts := range concats {
		s := strings.Join(parts, "")
		require.True(t, m.Matches(s), "concatenation %q", s)

		// '0' is not in the alphabet, so splicing it in anywhere breaks the match.
		for i := 0; i <= len(s); i++ {
			broken := s[:i] + "0" + s[i:]
			assert.False(t, m.Matches(broken), "broken %q", broken)
		}
	}
}

func TestMatcher_PrefixPolicyIgnoresRemainder(t *testing.T) {
	m := NewMatcher(newTestDictionary(t, "dog", "ze"), PolicyPrefix)

	cases := map[string]bool{
		"dogxxxxxxxxxxxxx": true,
		"zebra":            true,
		"z":                false,
		"do":               false,
		"xdog":             false,
		"d0g":              false,
	}
	for in, want := range cases {
		assert.Equal(t, want, m.Matches(in), in)
	}
}

func TestMatcher_NoRootEdge(t *testing.T) {
	d := newTestDictionary(t, "cat", "dog")
	for _, policy := range []Policy{PolicyPrefix, PolicyFull} {
		m := NewMatcher(d, policy)
		assert.False(t, m.Matches("xcatdog"), policy.String())
		assert.False(t, m.Matches("7cat"), policy.String())
		assert.False(t, m.Matches(""), policy.String())
	}
}

func TestMatcher_LongerWordAfterFailedSplit(t *testing.T) {
	// "ab" + "cd..." fails, so the walk must continue on to "abc" + "d".
	m := NewMatcher(newTestDictionary(t, "ab", "abc", "d"), PolicyFull)
	assert.True(t, m.Matches("abcd"))
	assert.True(t, m.Matches("abd"))
	assert.False(t, m.Matches("abcx"))
}

func TestMatcher_ShorterSplitIsNotRevisited(t *testing.T) {
	// Splits are tried shortest word first; an edge miss after the last
	// failed split ends the walk with false.
	m := NewMatcher(newTestDictionary(t, "a", "bx", "ab"), PolicyFull)
	assert.True(t, m.Matches("abx"), "a+bx is tried before walking further")

	m = NewMatcher(newTestDictionary(t, "ab", "abq"), PolicyFull)
	assert.False(t, m.Matches("abqz"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("full")
	require.NoError(t, err)
	assert.Equal(t, PolicyFull, p)

	p, err = ParsePolicy("prefix")
	require.NoError(t, err)
	assert.Equal(t, PolicyPrefix, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPrefix, p)

	_, err = ParsePolicy("fuzzy")
	assert.Error(t, err)

	assert.Equal(t, "full", PolicyFull.String())
	assert.Equal(t, "prefix", PolicyPrefix.String())
}

func BenchmarkMatcher_Full(b *testing.B) {
	d := NewDictionary()
	for _, w := range []string{"a", "ab", "abc", "b", "bc", "c", "onion", "tor"} {
		if _, err := d.Insert(w); err != nil {
			b.Fatal(err)
		}
	}
	d.Seal()
	m := NewMatcher(d, PolicyFull)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Matches("abcabcabcabconio")
	}
}
