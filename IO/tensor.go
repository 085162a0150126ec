package IO

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// DefaultSeqLen is the fixed context length of a tensorized example.
	DefaultSeqLen = 128
	// LargeDatasetSize switches the validation fraction from 0.20 to 0.02.
	LargeDatasetSize = 1_000_000
)

// Split is the tensorized dataset handed to the trainer.
type Split struct {
	XTrain [][]int
	YTrain []int
	XTest  [][]int
	YTest  []int

	VocabSize int
	SeqLen    int
}

// Total returns the number of examples across both partitions.
func (s Split) Total() int { return len(s.YTrain) + len(s.YTest) }

// Tensorize maps contexts and labels to vocabulary ids and fixes every context to
// seqLen positions. vocab must already contain every context character (see
// Vocabulary.WithToken for the separator space). Any miss is fatal.
func Tensorize(examples []TrainingExample, vocab Vocabulary, seqLen int) ([][]int, []int, error) {
	if len(examples) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	x := make([][]int, len(examples))
	y := make([]int, len(examples))
	ids := make([]int, 0, seqLen)
	for i, ex := range examples {
		ids = ids[:0]
		for _, r := range ex.Context {
			id, err := vocab.ID(r)
			if err != nil {
				return nil, nil, fmt.Errorf("example %d context %q: %w", i, ex.Context, err)
			}
			ids = append(ids, id)
		}
		x[i] = PadLeft(ids, seqLen)

		label, err := vocab.ID(ex.Next)
		if err != nil {
			return nil, nil, fmt.Errorf("example %d label: %w", i, err)
		}
		y[i] = label
	}
	return x, y, nil
}

// PadLeft returns a new slice of exactly n ids: zeros then ids when ids is short,
// the last n ids when it is long.
func PadLeft(ids []int, n int) []int {
	out := make([]int, n)
	if len(ids) >= n {
		copy(out, ids[len(ids)-n:])
		return out
	}
	copy(out[n-len(ids):], ids)
	return out
}

// ValidationFraction is the share of examples held out for validation.
func ValidationFraction(total int) float64 {
	if total >= LargeDatasetSize {
		return 0.02
	}
	return 0.20
}

// ValidationSize is floor(ValidationFraction(total) * total).
func ValidationSize(total int) int {
	return int(math.Floor(ValidationFraction(total) * float64(total)))
}

// ShuffleSplit applies one random permutation to x and y together, then puts the
// last ValidationSize examples in the test partition. A nil seed draws one from the
// process random source.
func ShuffleSplit(x [][]int, y []int, vocabSize int, seed *uint64) (Split, error) {
	if len(x) != len(y) {
		return Split{}, fmt.Errorf("shuffle: %d sequences but %d labels", len(x), len(y))
	}
	if len(x) == 0 {
		return Split{}, ErrEmptyDataset
	}
	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}
	rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))

	n := len(x)
	perm := rng.Perm(n)
	xs := make([][]int, n)
	ys := make([]int, n)
	for i, p := range perm {
		xs[i] = x[p]
		ys[i] = y[p]
	}

	k := ValidationSize(n)
	return Split{
		XTrain:    xs[:n-k],
		YTrain:    ys[:n-k],
		XTest:     xs[n-k:],
		YTest:     ys[n-k:],
		VocabSize: vocabSize,
		SeqLen:    len(xs[0]),
	}, nil
}

// Prepare runs the space append, Tensorize and ShuffleSplit in sequence.
func Prepare(examples []TrainingExample, vocab Vocabulary, seqLen int, seed *uint64) (Split, Vocabulary, error) {
	vocab = vocab.WithToken(' ')
	x, y, err := Tensorize(examples, vocab, seqLen)
	if err != nil {
		return Split{}, vocab, err
	}
	split, err := ShuffleSplit(x, y, vocab.Size(), seed)
	return split, vocab, err
}
