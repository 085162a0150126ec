package IO

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOpts() ReadOptions {
	return ReadOptions{
		TopColumn:     "Top Caption",
		BottomColumn:  "Bottom Caption",
		MissingValues: []string{"NaN", "NA", "null"},
		Marker:        marker,
	}
}

func TestParseCaptions(t *testing.T) {
	in := "Meme,Top Caption,Bottom Caption\n" +
		"grumpy,HI THERE,\n" +
		"doge,NaN,such wow\n" +
		"kid,\"SUCCESS, KID\",\"\"\n" +
		"short,only top\n"
	recs, err := ParseCaptions(strings.NewReader(in), readOpts())
	require.NoError(t, err)

	assert.Equal(t, []CaptionRecord{
		{ID: 0, Top: TextCaption("HI THERE"), Bottom: MissingCaption()},
		{ID: 1, Top: MissingCaption(), Bottom: TextCaption("such wow")},
		{ID: 2, Top: TextCaption("SUCCESS, KID"), Bottom: MissingCaption()},
		{ID: 3, Top: TextCaption("only top"), Bottom: MissingCaption()},
	}, recs)
}

func TestParseCaptionsByteOrderMark(t *testing.T) {
	in := "\ufeffTop Caption,Bottom Caption\nA,B\n"
	recs, err := ParseCaptions(strings.NewReader(in), readOpts())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Top.Text)
}

func TestParseCaptionsMissingColumn(t *testing.T) {
	_, err := ParseCaptions(strings.NewReader("Top Caption,Caption\nA,B\n"), readOpts())
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseCaptions(strings.NewReader(""), readOpts())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseCaptionsMarkerCollision(t *testing.T) {
	in := "Top Caption,Bottom Caption\nfine,fine\npipe | here,x\n"
	recs, err := ParseCaptions(strings.NewReader(in), readOpts())
	assert.ErrorIs(t, err, ErrMarkerCollision)
	assert.Nil(t, recs, "no partial dataset on failure")

	opts := readOpts()
	opts.Marker = 0
	recs, err = ParseCaptions(strings.NewReader(in), opts)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestParseCaptionsMalformedRow(t *testing.T) {
	in := "Top Caption,Bottom Caption\n\"unterminated,x\n"
	recs, err := ParseCaptions(strings.NewReader(in), readOpts())
	assert.Error(t, err)
	assert.Nil(t, recs)
}

func TestReadCaptionsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "memes.csv")
	require.NoError(t, os.WriteFile(p, []byte("Top Caption,Bottom Caption\nY U NO,NA\n"), 0o644))

	recs, err := ReadCaptions(p, readOpts())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, CaptionPresent, recs[0].Top.State)
	assert.Equal(t, CaptionMissing, recs[0].Bottom.State)

	_, err = ReadCaptions(filepath.Join(t.TempDir(), "absent.csv"), readOpts())
	assert.Error(t, err)
}

func TestWriteTranscript(t *testing.T) {
	examples, _ := BuildDataset([]CaptionRecord{{ID: 0, Top: TextCaption("HI"), Bottom: MissingCaption()}}, marker)
	var buf bytes.Buffer
	require.NoError(t, WriteTranscript(&buf, examples))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		`["0000 0 ", "H"]`,
		`["0000 0 H", "I"]`,
		`["0000 0 HI", "|"]`,
		`["0000 1  ", "|"]`,
	}, lines)

	p := filepath.Join(t.TempDir(), "out", "check_training_data_arr.txt")
	require.NoError(t, WriteTranscriptFile(p, examples))
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(raw))
}

func TestCaptionStateString(t *testing.T) {
	assert.Equal(t, "missing", CaptionMissing.String())
	assert.Equal(t, "empty", CaptionEmpty.String())
	assert.Equal(t, "present", CaptionPresent.String())
}
