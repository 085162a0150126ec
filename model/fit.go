package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/harbom/Deep-Fried-Learning/IO"
	"github.com/harbom/Deep-Fried-Learning/optimizations"
	"github.com/harbom/Deep-Fried-Learning/params"
	"github.com/harbom/Deep-Fried-Learning/utils"
)

var ErrNoTrainingData = errors.New("model: no training examples")

// FitOptions controls a training run.
type FitOptions struct {
	Epochs    int
	BatchSize int
	Adam      optimizations.AdamConfig
	GradClip  float64 // <= 0 disables clipping

	// Patience stops training after this many epochs without improvement; 0 disables.
	Patience int

	// CheckpointPath receives the best model so far. Empty skips saving.
	CheckpointPath string
	Vocab          []rune

	// Seed fixes the per-epoch batch order; nil draws one.
	Seed *uint64

	DebugEvery int

	// OnEpoch is called after every epoch. A non-nil error aborts Fit.
	OnEpoch func(EpochStats) error
}

// EpochStats summarises one epoch. ValLoss/ValAcc are zero without a validation set.
type EpochStats struct {
	Epoch    int
	Loss     float64
	ValLoss  float64
	ValAcc   float64
	Improved bool
	Duration time.Duration
}

// OptionsFromConfig maps the train section of the config onto FitOptions.
func OptionsFromConfig(cfg params.Config) FitOptions {
	t := cfg.Train
	return FitOptions{
		Epochs:    t.Epochs,
		BatchSize: t.BatchSize,
		Adam: optimizations.AdamConfig{
			LR: t.LearningRate, Beta1: t.AdamBeta1, Beta2: t.AdamBeta2,
			Eps: t.AdamEps, WeightDecay: t.WeightDecay,
		},
		GradClip:       t.GradClip,
		Patience:       t.Patience,
		CheckpointPath: t.CheckpointPath,
		Seed:           cfg.Dataset.Seed,
		DebugEvery:     cfg.App.DebugEvery,
	}
}

type History struct {
	Epochs    []EpochStats
	BestEpoch int
	BestLoss  float64 // monitored loss of BestEpoch
	Stopped   bool    // early stop fired
}

// Fit trains m on data.XTrain/YTrain with mini-batch Adam, validating on
// data.XTest/YTest after each epoch. The monitored loss is the validation loss,
// or the training loss when there is no validation set.
func Fit(m *CharCNN, data IO.Split, opts FitOptions) (History, error) {
	hist := History{BestEpoch: -1, BestLoss: math.Inf(1)}
	n := len(data.XTrain)
	if n == 0 {
		return hist, ErrNoTrainingData
	}
	if len(data.YTrain) != n || len(data.YTest) != len(data.XTest) {
		return hist, fmt.Errorf("%w: inputs and labels differ in length", ErrShape)
	}
	if opts.Epochs <= 0 || opts.BatchSize <= 0 {
		return hist, fmt.Errorf("fit: epochs %d and batch size %d must be positive", opts.Epochs, opts.BatchSize)
	}

	var seed uint64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	noImprovement := 0
	for e := 0; e < opts.Epochs; e++ {
		start := time.Now()
		order := rng.Perm(n)
		totalLoss := 0.0

		for b := 0; b < n; b += opts.BatchSize {
			end := min(b+opts.BatchSize, n)
			acc := m.ZeroGrads()
			for _, idx := range order[b:end] {
				loss, g := m.Gradients(data.XTrain[idx], data.YTrain[idx])
				acc.Add(g)
				totalLoss += loss
			}
			acc.Scale(1 / float64(end-b))
			scale := utils.ClipGrads(opts.GradClip, acc.list()...)
			m.Apply(acc, opts.Adam)

			if opts.DebugEvery > 0 && utils.DebugEnabled() && m.Steps()%opts.DebugEvery == 0 {
				utils.Debugf("epoch %d step %d: running loss %.4f clip %.3f conv|W| %.4g",
					e+1, m.Steps(), totalLoss/float64(end), scale, utils.MatrixNorm(m.Conv.W))
			}
		}

		st := EpochStats{Epoch: e + 1, Loss: totalLoss / float64(n)}
		monitored := st.Loss
		if len(data.XTest) > 0 {
			st.ValLoss, st.ValAcc = m.Evaluate(data.XTest, data.YTest)
			monitored = st.ValLoss
		}

		if monitored < hist.BestLoss {
			hist.BestLoss = monitored
			hist.BestEpoch = st.Epoch
			st.Improved = true
			noImprovement = 0
			if opts.CheckpointPath != "" {
				meta := Meta{Vocab: opts.Vocab, Epoch: st.Epoch, ValLoss: monitored}
				if err := m.Save(opts.CheckpointPath, meta); err != nil {
					return hist, fmt.Errorf("save checkpoint: %w", err)
				}
			}
		} else {
			noImprovement++
		}
		st.Duration = time.Since(start)
		hist.Epochs = append(hist.Epochs, st)

		if opts.OnEpoch != nil {
			if err := opts.OnEpoch(st); err != nil {
				return hist, err
			}
		}
		if opts.Patience > 0 && noImprovement >= opts.Patience {
			utils.Infof("stopping after epoch %d: no improvement for %d epochs", st.Epoch, noImprovement)
			hist.Stopped = true
			break
		}
	}
	return hist, nil
}
