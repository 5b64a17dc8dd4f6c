package oniongen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Alphabet is the set of symbols an onion address is made of (RFC 4648
// base32, lower case).
const Alphabet = "abcdefghijklmnopqrstuvwxyz234567"

// ErrDictionarySealed is returned when inserting into a dictionary that has
// already been populated.
var ErrDictionarySealed = errors.New("dictionary is sealed")

// ErrNoWordLists is returned by Load when no word list path is given.
var ErrNoWordLists = errors.New("no word lists given")

// symbolIndex maps a byte to its position in Alphabet, or -1.
var symbolIndex = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		idx[Alphabet[i]] = int8(i)
	}
	return idx
}()

// LoadError reports a word list that could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load word list %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// trieNode is one symbol position in the dictionary trie.
type trieNode struct {
	children [len(Alphabet)]*trieNode
	terminal bool // a word ends at this node
}

func (n *trieNode) child(sym byte) *trieNode {
	i := symbolIndex[sym]
	if i < 0 {
		return nil
	}
	return n.children[i]
}

// Dictionary is a trie of words over Alphabet. It is built once and is safe
// for concurrent reads after Seal.
type Dictionary struct {
	root      *trieNode
	words     int
	populated bool
}

// NewDictionary returns an empty, unsealed dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{root: &trieNode{}}
}

// Load builds a sealed dictionary from one or more newline-delimited word
// lists. Any unreadable list aborts the load; no partial dictionary is
// returned.
func Load(paths ...string) (*Dictionary, error) {
	if len(paths) == 0 {
		return nil, ErrNoWordLists
	}
	d := NewDictionary()
	for _, path := range paths {
		if err := d.loadFile(path); err != nil {
			return nil, err
		}
	}
	d.Seal()
	return d, nil
}

func (d *Dictionary) loadFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer fh.Close()

	if err := d.LoadReader(fh); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return nil
}

// LoadReader inserts every line of r as a word. Lines that are not valid
// words are skipped.
func (d *Dictionary) LoadReader(r io.Reader) error {
	if d.populated {
		return ErrDictionarySealed
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.insert(strings.TrimSpace(sc.Text()))
	}
	return sc.Err()
}

// Insert adds word to the dictionary and reports whether it was accepted.
// The word is lower-cased first; empty words and words containing symbols
// outside Alphabet are skipped without error. Inserting the same word twice
// is harmless.
func (d *Dictionary) Insert(word string) (bool, error) {
	if d.populated {
		return false, ErrDictionarySealed
	}
	return d.insert(word), nil
}

func (d *Dictionary) insert(word string) bool {
	word = strings.ToLower(word)
	if !validWord(word) {
		return false
	}
	node := d.root
	for i := 0; i < len(word); i++ {
		s := symbolIndex[word[i]]
		next := node.children[s]
		if next == nil {
			next = &trieNode{}
			node.children[s] = next
		}
		node = next
	}
	if !node.terminal {
		node.terminal = true
		d.words++
	}
	return true
}

func validWord(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if symbolIndex[word[i]] < 0 {
			return false
		}
	}
	return true
}

// Seal marks the dictionary as populated. Further inserts are rejected.
func (d *Dictionary) Seal() { d.populated = true }

// Populated reports whether the dictionary has been sealed.
func (d *Dictionary) Populated() bool { return d.populated }

// Len returns the number of distinct words.
func (d *Dictionary) Len() int { return d.words }

// Contains reports whether word is in the dictionary exactly.
func (d *Dictionary) Contains(word string) bool {
	node := d.root
	for i := 0; i < len(word); i++ {
		if node = node.child(word[i]); node == nil {
			return false
		}
	}
	return node != d.root && node.terminal
}
