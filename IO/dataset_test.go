package IO

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker = '|'

func TestBuildDatasetHiThere(t *testing.T) {
	recs := []CaptionRecord{{ID: 0, Top: TextCaption("HI THERE"), Bottom: MissingCaption()}}
	examples, vocab := BuildDataset(recs, marker)

	want := []TrainingExample{
		{"0000 0 ", 'H'},
		{"0000 0 H", 'I'},
		{"0000 0 HI", '|'},
		{"0000 0 HI|", 'T'},
		{"0000 0 HI|T", 'H'},
		{"0000 0 HI|TH", 'E'},
		{"0000 0 HI|THE", 'R'},
		{"0000 0 HI|THER", 'E'},
		{"0000 0 HI|THERE", '|'},
		{"0000 1  ", '|'},
	}
	assert.Equal(t, want, examples)
	assert.Equal(t, []rune{'0', 'H', 'I', '|', 'T', 'E', 'R', '1'}, vocab.Tokens())
	assert.False(t, vocab.Contains(' '))
}

func TestBuildDatasetExampleCountPerField(t *testing.T) {
	captions := []string{"a", "no way", "ONE DOES NOT SIMPLY", "ünïcödé ✓", "  double  spaces "}
	for _, c := range captions {
		examples, _ := BuildDataset([]CaptionRecord{{ID: 3, Top: TextCaption(c), Bottom: MissingCaption()}}, marker)
		l := utf8.RuneCountInString(c)
		require.Len(t, examples, l+2, "caption %q", c)

		top := examples[:l+1]
		for j, ex := range top {
			prefix := strings.TrimPrefix(ex.Context, "0003 0 ")
			assert.Equal(t, j, utf8.RuneCountInString(prefix), "prefix length at %d", j)
			assert.NotEqual(t, ' ', ex.Next)
			if j > 0 {
				// each step extends the previous prefix by the previous label
				assert.Equal(t, top[j-1].Context+string(top[j-1].Next), ex.Context)
			}
		}
		assert.Equal(t, marker, top[l].Next)
	}
}

func TestBuildDatasetMissingAndEmpty(t *testing.T) {
	recs := []CaptionRecord{
		{ID: 0, Top: MissingCaption(), Bottom: EmptyCaption()},
		{ID: 1, Top: TextCaption(""), Bottom: MissingCaption()},
	}
	examples, _ := BuildDataset(recs, marker)

	assert.Equal(t, []TrainingExample{
		{"0000 0  ", '|'},
		{"0000 1 ", '|'},
		{"0001 0 ", '|'},
		{"0001 1  ", '|'},
	}, examples)
}

func TestBuildDatasetOrderAcrossRecords(t *testing.T) {
	recs := []CaptionRecord{
		{ID: 0, Top: TextCaption("B"), Bottom: TextCaption("A")},
		{ID: 1, Top: TextCaption("C"), Bottom: TextCaption("B")},
	}
	examples, vocab := BuildDataset(recs, marker)

	var ctx []string
	for _, ex := range examples {
		ctx = append(ctx, ex.Context)
	}
	assert.Equal(t, []string{
		"0000 0 ", "0000 0 B",
		"0000 1 ", "0000 1 A",
		"0001 0 ", "0001 0 C",
		"0001 1 ", "0001 1 B",
	}, ctx)
	assert.Equal(t, []rune{'0', 'B', '|', '1', 'A', 'C'}, vocab.Tokens())
}

func TestBuildDatasetVocabularyCoversExamples(t *testing.T) {
	recs := []CaptionRecord{
		{ID: 0, Top: TextCaption("WHEN YOU SEE IT"), Bottom: TextCaption("you'll 5h1t bricks")},
		{ID: 1, Top: MissingCaption(), Bottom: TextCaption("y u no")},
		{ID: 29, Top: TextCaption("9000!"), Bottom: EmptyCaption()},
	}
	examples, vocab := BuildDataset(recs, marker)

	seen := map[rune]bool{}
	for _, r := range vocab.Tokens() {
		assert.False(t, seen[r], "duplicate token %q", r)
		seen[r] = true
	}
	for _, ex := range examples {
		assert.True(t, vocab.Contains(ex.Next), "label %q", ex.Next)
		for _, r := range ex.Context {
			if r == ' ' {
				continue
			}
			assert.True(t, vocab.Contains(r), "context rune %q in %q", r, ex.Context)
		}
	}
}

func TestBuildDatasetIdempotent(t *testing.T) {
	recs := []CaptionRecord{
		{ID: 0, Top: TextCaption("I CAN HAS"), Bottom: TextCaption("CHEEZBURGER")},
		{ID: 1, Top: MissingCaption(), Bottom: TextCaption("such wow")},
	}
	ex1, v1 := BuildDataset(recs, marker)
	ex2, v2 := BuildDataset(recs, marker)
	assert.Equal(t, ex1, ex2)
	assert.Equal(t, v1.Tokens(), v2.Tokens())
}

func TestBuilderWideIDs(t *testing.T) {
	examples, _ := NewBuilder(marker, 4).Build([]CaptionRecord{
		{ID: 12345, Top: MissingCaption(), Bottom: MissingCaption()},
	})
	assert.Equal(t, "12345 0  ", examples[0].Context)

	examples, _ = NewBuilder(marker, 6).Build([]CaptionRecord{
		{ID: 42, Top: MissingCaption(), Bottom: MissingCaption()},
	})
	assert.Equal(t, "000042 1  ", examples[1].Context)
}
