package IO

import "errors"

var (
	// ErrMissingColumn: the captions table lacks a configured caption column.
	ErrMissingColumn = errors.New("missing caption column")
	// ErrMarkerCollision: a caption contains the end-of-field marker itself.
	ErrMarkerCollision = errors.New("caption contains end marker")
	// ErrUnknownToken: a character was not registered in the vocabulary. Construction
	// and lookup must see the same alphabet, so this is a defect, not bad input.
	ErrUnknownToken = errors.New("token not in vocabulary")
	// ErrEmptyDataset: nothing to tensorize.
	ErrEmptyDataset = errors.New("empty dataset")
)
