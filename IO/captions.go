package IO

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type CaptionState int

const (
	// CaptionMissing: the table held its missing-value marker for the cell.
	CaptionMissing CaptionState = iota
	// CaptionEmpty: an explicit zero-length caption.
	CaptionEmpty
	CaptionPresent
)

func (s CaptionState) String() string {
	switch s {
	case CaptionMissing:
		return "missing"
	case CaptionEmpty:
		return "empty"
	default:
		return "present"
	}
}

// Caption is one caption cell. Text is only meaningful for CaptionPresent.
type Caption struct {
	Text  string
	State CaptionState
}

func MissingCaption() Caption { return Caption{State: CaptionMissing} }

func EmptyCaption() Caption { return Caption{State: CaptionEmpty} }

// TextCaption returns a present caption, or an empty one for "".
func TextCaption(s string) Caption {
	if s == "" {
		return EmptyCaption()
	}
	return Caption{Text: s, State: CaptionPresent}
}

// CaptionRecord is one meme. ID is the row position in the source table.
type CaptionRecord struct {
	ID     int
	Top    Caption
	Bottom Caption
}

// ReadOptions names the caption columns and the missing-value literals.
type ReadOptions struct {
	TopColumn     string
	BottomColumn  string
	MissingValues []string
	// Marker, when non-zero, is checked against every caption.
	Marker rune
}

// ReadCaptions loads every row of a CSV file. Any failure returns no records.
func ReadCaptions(path string, opts ReadOptions) ([]CaptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ParseCaptions(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// ParseCaptions reads a header row followed by one meme per row. Empty cells and
// cells equal to one of opts.MissingValues become missing captions.
func ParseCaptions(r io.Reader, opts ReadOptions) ([]CaptionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	topIdx, botIdx := -1, -1
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		switch h {
		case opts.TopColumn:
			topIdx = i
		case opts.BottomColumn:
			botIdx = i
		}
	}
	if topIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.TopColumn)
	}
	if botIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.BottomColumn)
	}

	missing := make(map[string]struct{}, len(opts.MissingValues))
	for _, m := range opts.MissingValues {
		missing[m] = struct{}{}
	}
	cell := func(row []string, i int) Caption {
		if i >= len(row) || row[i] == "" {
			return MissingCaption()
		}
		if _, ok := missing[row[i]]; ok {
			return MissingCaption()
		}
		return TextCaption(row[i])
	}

	var out []CaptionRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := CaptionRecord{
			ID:     len(out),
			Top:    cell(row, topIdx),
			Bottom: cell(row, botIdx),
		}
		if opts.Marker != 0 {
			if err := checkMarker(rec, opts.Marker); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func checkMarker(rec CaptionRecord, marker rune) error {
	for flag, c := range []Caption{rec.Top, rec.Bottom} {
		if c.State == CaptionPresent && strings.ContainsRune(c.Text, marker) {
			return fmt.Errorf("%w: row %d field %d contains %q", ErrMarkerCollision, rec.ID, flag, marker)
		}
	}
	return nil
}
