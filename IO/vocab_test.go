package IO

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabBuilderFirstOccurrence(t *testing.T) {
	b := NewVocabBuilder()
	assert.True(t, b.Add('b'))
	assert.True(t, b.Add('a'))
	assert.False(t, b.Add('b'))

	v := b.Build()
	b.Add('z') // builder keeps going; the built vocabulary does not
	assert.Equal(t, []rune{'b', 'a'}, v.Tokens())
	assert.Equal(t, 2, v.Size())

	id, err := v.ID('a')
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	r, ok := v.Token(0)
	assert.True(t, ok)
	assert.Equal(t, 'b', r)
	_, ok = v.Token(2)
	assert.False(t, ok)

	_, err = v.ID('z')
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestVocabularyWithToken(t *testing.T) {
	v := NewVocabulary([]rune{'x', 'y', 'x'})
	assert.Equal(t, []rune{'x', 'y'}, v.Tokens())

	same := v.WithToken('y')
	assert.Equal(t, v.Tokens(), same.Tokens())

	grown := v.WithToken(' ')
	assert.Equal(t, []rune{'x', 'y', ' '}, grown.Tokens())
	assert.False(t, v.Contains(' '), "WithToken must not modify the receiver")

	toks := grown.Tokens()
	toks[0] = 'q'
	assert.Equal(t, 'x', grown.Tokens()[0], "Tokens returns a copy")
}
