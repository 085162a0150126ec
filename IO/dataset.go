package IO

import (
	"strconv"
	"strings"
)

// DefaultIDWidth is the zero-pad width of meme ids in context keys.
const DefaultIDWidth = 4

// TrainingExample pairs a context key with the character that follows it.
// Context is "<id> <flag> <prefix>", flag 0 for the top caption and 1 for the bottom.
type TrainingExample struct {
	Context string
	Next    rune
}

// Builder expands caption records into next-character examples while growing the
// vocabulary. It is single-use: call Build once per dataset.
type Builder struct {
	Marker  rune
	IDWidth int

	vocab    *VocabBuilder
	examples []TrainingExample
}

func NewBuilder(marker rune, idWidth int) *Builder {
	if idWidth <= 0 {
		idWidth = DefaultIDWidth
	}
	return &Builder{Marker: marker, IDWidth: idWidth, vocab: NewVocabBuilder()}
}

// BuildDataset runs a fresh Builder with the default id width.
func BuildDataset(records []CaptionRecord, marker rune) ([]TrainingExample, Vocabulary) {
	return NewBuilder(marker, DefaultIDWidth).Build(records)
}

// Build processes records in order, top caption before bottom.
func (b *Builder) Build(records []CaptionRecord) ([]TrainingExample, Vocabulary) {
	for _, rec := range records {
		id := b.formatID(rec.ID)
		b.addField(id, 0, rec.Top)
		b.addField(id, 1, rec.Bottom)
	}
	return b.examples, b.vocab.Build()
}

// formatID zero-pads to IDWidth. Ids with more digits than IDWidth are written in
// full, so their keys are one character longer than the rest.
func (b *Builder) formatID(id int) string {
	s := strconv.Itoa(id)
	if pad := b.IDWidth - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

func (b *Builder) addField(id string, flag int, c Caption) {
	header := id + " " + strconv.Itoa(flag) + " "

	if c.State == CaptionMissing {
		b.emit(header, " ", b.Marker)
		return
	}

	var seen strings.Builder
	runes := []rune(c.Text)
	if c.State == CaptionEmpty {
		runes = nil
	}
	for j := 0; j <= len(runes); j++ {
		next := b.Marker
		if j < len(runes) && runes[j] != ' ' {
			next = runes[j]
		}
		b.emit(header, seen.String(), next)
		// the prefix grows by the emitted token, so spaces are recorded as the marker
		seen.WriteRune(next)
	}
}

func (b *Builder) emit(header, prefix string, next rune) {
	// Header digits go in first so every context character has an id; the separator
	// space is left for Tensorize to append.
	for _, r := range header {
		if r != ' ' {
			b.vocab.Add(r)
		}
	}
	b.vocab.Add(next)
	b.examples = append(b.examples, TrainingExample{Context: header + prefix, Next: next})
}
