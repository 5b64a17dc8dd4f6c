package oniongen

import "fmt"

// Policy selects how much of a candidate must be covered by dictionary words.
type Policy int

const (
	// PolicyPrefix accepts a candidate when some non-empty prefix is a word.
	PolicyPrefix Policy = iota
	// PolicyFull accepts a candidate only when it splits entirely into
	// consecutive words.
	PolicyFull
)

func (p Policy) String() string {
	switch p {
	case PolicyPrefix:
		return "prefix"
	case PolicyFull:
		return "full"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts "prefix" or "full" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "prefix", "":
		return PolicyPrefix, nil
	case "full":
		return PolicyFull, nil
	default:
		return 0, fmt.Errorf("unknown match policy %q (want prefix or full)", s)
	}
}

// Matcher tests candidate addresses against a sealed Dictionary. A Matcher
// holds no mutable state and may be shared by any number of goroutines.
type Matcher struct {
	dict   *Dictionary
	policy Policy
}

// NewMatcher returns a Matcher for dict using policy.
func NewMatcher(dict *Dictionary, policy Policy) *Matcher {
	return &Matcher{dict: dict, policy: policy}
}

// Policy returns the matcher's policy.
func (m *Matcher) Policy() Policy { return m.policy }

// Matches reports whether candidate satisfies the matcher's policy.
func (m *Matcher) Matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	return m.match(candidate)
}

// match walks the trie from the root along s. Under PolicyFull every word
// boundary found on the way is tried as a split point; when the suffix after
// a split fails, the walk keeps going with the longer word and never comes
// back to the shorter split.
func (m *Matcher) match(s string) bool {
	node := m.dict.root
	for i := 0; i < len(s); i++ {
		node = node.child(s[i])
		if node == nil {
			return false
		}
		if !node.terminal {
			continue
		}
		if m.policy == PolicyPrefix {
			return true
		}
		rest := s[i+1:]
		if rest == "" || m.match(rest) {
			return true
		}
	}
	return false
}
