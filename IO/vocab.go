package IO

import (
	"fmt"
	"slices"
)

// Vocabulary is an ordered, duplicate-free set of characters. Ids are positions.
// A Vocabulary is never modified in place; WithToken returns a new one.
type Vocabulary struct {
	tokenToID map[rune]int
	idToToken []rune
}

// VocabBuilder assigns ids in first-occurrence order.
type VocabBuilder struct {
	tokenToID map[rune]int
	idToToken []rune
}

func NewVocabBuilder() *VocabBuilder {
	return &VocabBuilder{tokenToID: make(map[rune]int)}
}

// Add registers r if unseen and reports whether it was new.
func (b *VocabBuilder) Add(r rune) bool {
	if _, ok := b.tokenToID[r]; ok {
		return false
	}
	b.tokenToID[r] = len(b.idToToken)
	b.idToToken = append(b.idToToken, r)
	return true
}

// Build freezes the builder's current contents.
func (b *VocabBuilder) Build() Vocabulary {
	return newVocabulary(b.idToToken)
}

// NewVocabulary rebuilds a vocabulary from its ordered tokens (e.g. from a
// checkpoint). Duplicates keep their first position.
func NewVocabulary(tokens []rune) Vocabulary {
	b := NewVocabBuilder()
	for _, r := range tokens {
		b.Add(r)
	}
	return b.Build()
}

func newVocabulary(tokens []rune) Vocabulary {
	idToToken := slices.Clone(tokens)
	tokenToID := make(map[rune]int, len(idToToken))
	for i, r := range idToToken {
		tokenToID[r] = i
	}
	return Vocabulary{tokenToID: tokenToID, idToToken: idToToken}
}

func (v Vocabulary) Size() int { return len(v.idToToken) }

func (v Vocabulary) Contains(r rune) bool {
	_, ok := v.tokenToID[r]
	return ok
}

// ID returns the id of r or a wrapped ErrUnknownToken.
func (v Vocabulary) ID(r rune) (int, error) {
	if id, ok := v.tokenToID[r]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownToken, r)
}

// Token returns the character with the given id.
func (v Vocabulary) Token(id int) (rune, bool) {
	if id < 0 || id >= len(v.idToToken) {
		return 0, false
	}
	return v.idToToken[id], true
}

// Tokens returns a copy of the characters in id order.
func (v Vocabulary) Tokens() []rune {
	return slices.Clone(v.idToToken)
}

// WithToken returns v with r appended at the end if it is not already present.
func (v Vocabulary) WithToken(r rune) Vocabulary {
	if v.Contains(r) {
		return v
	}
	return newVocabulary(append(slices.Clone(v.idToToken), r))
}
