package model

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/harbom/Deep-Fried-Learning/optimizations"
	"github.com/harbom/Deep-Fried-Learning/params"
	"github.com/harbom/Deep-Fried-Learning/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrShape = errors.New("model: shape mismatch")

// CharCNN predicts the next character from a fixed-length id sequence:
// embedding -> conv1d+relu -> global max pool -> dense+relu -> dense -> softmax.
type CharCNN struct {
	VocabSize, SeqLen int
	Cfg               params.ModelConfig

	Emb    *Embedding
	Conv   *Conv1D
	Pool   *GlobalMaxPool
	Hidden *Dense
	Out    *Dense

	step  int
	adams []*optimizations.Adam
}

// Grads mirrors the trainable parameters of a CharCNN.
type Grads struct {
	Emb, ConvW, ConvB, HidW, HidB, OutW, OutB *mat.Dense
}

// New builds a randomly initialised network. src seeds the weights.
func New(cfg params.ModelConfig, vocabSize, seqLen int, src rand.Source) (*CharCNN, error) {
	if vocabSize <= 0 || seqLen <= 0 {
		return nil, fmt.Errorf("%w: vocab %d seq %d", ErrShape, vocabSize, seqLen)
	}
	if cfg.EmbedDim <= 0 || cfg.Filters <= 0 || cfg.Hidden <= 0 || cfg.KernelSize <= 0 {
		return nil, fmt.Errorf("%w: non-positive layer width in %+v", ErrShape, cfg)
	}
	if cfg.KernelSize > seqLen {
		return nil, fmt.Errorf("%w: kernel %d wider than sequence %d", ErrShape, cfg.KernelSize, seqLen)
	}
	e, f, k, h := cfg.EmbedDim, cfg.Filters, cfg.KernelSize, cfg.Hidden
	m := &CharCNN{
		VocabSize: vocabSize,
		SeqLen:    seqLen,
		Cfg:       cfg,
		Emb:       &Embedding{W: mat.NewDense(e, vocabSize, utils.RandomArray(e*vocabSize, float64(e), src))},
		Conv: &Conv1D{
			In: e, Filters: f, Kernel: k,
			W: mat.NewDense(f, e*k, utils.RandomArray(f*e*k, float64(e*k), src)),
			B: mat.NewDense(f, 1, nil),
		},
		Pool: &GlobalMaxPool{},
		Hidden: &Dense{
			W:    mat.NewDense(h, f, utils.RandomArray(h*f, float64(f), src)),
			B:    mat.NewDense(h, 1, nil),
			ReLU: true,
		},
		Out: &Dense{
			W: mat.NewDense(vocabSize, h, utils.RandomArray(vocabSize*h, float64(h), src)),
			B: mat.NewDense(vocabSize, 1, nil),
		},
	}
	return m, nil
}

// Params returns the trainable matrices in a fixed order (also the checkpoint order).
func (m *CharCNN) Params() []*mat.Dense {
	return []*mat.Dense{m.Emb.W, m.Conv.W, m.Conv.B, m.Hidden.W, m.Hidden.B, m.Out.W, m.Out.B}
}

func (g *Grads) list() []*mat.Dense {
	return []*mat.Dense{g.Emb, g.ConvW, g.ConvB, g.HidW, g.HidB, g.OutW, g.OutB}
}

// ZeroGrads returns an all-zero gradient set shaped like m.
func (m *CharCNN) ZeroGrads() *Grads {
	p := m.Params()
	return &Grads{
		Emb: utils.ZerosLike(p[0]), ConvW: utils.ZerosLike(p[1]), ConvB: utils.ZerosLike(p[2]),
		HidW: utils.ZerosLike(p[3]), HidB: utils.ZerosLike(p[4]),
		OutW: utils.ZerosLike(p[5]), OutB: utils.ZerosLike(p[6]),
	}
}

// Add accumulates o into g.
func (g *Grads) Add(o *Grads) {
	dst, src := g.list(), o.list()
	for i := range dst {
		dst[i].Add(dst[i], src[i])
	}
}

func (g *Grads) Scale(s float64) {
	for _, d := range g.list() {
		d.Scale(s, d)
	}
}

func (m *CharCNN) checkInput(ids []int) {
	if len(ids) != m.SeqLen {
		panic(fmt.Sprintf("model: sequence length %d, want %d", len(ids), m.SeqLen))
	}
}

// Forward returns the (|V| x 1) logits for one sequence.
func (m *CharCNN) Forward(ids []int) *mat.Dense {
	m.checkInput(ids)
	X := m.Emb.Forward(ids)
	A := m.Conv.Forward(X)
	h := m.Pool.Forward(A)
	z := m.Hidden.Forward(h)
	return m.Out.Forward(z)
}

// Loss is the cross-entropy of label under the model's prediction for ids.
func (m *CharCNN) Loss(ids []int, label int) float64 {
	loss, _ := utils.CrossEntropyWithIndex(m.Forward(ids), label)
	return loss
}

// Gradients runs forward and backward for one example without touching weights.
func (m *CharCNN) Gradients(ids []int, label int) (float64, *Grads) {
	logits := m.Forward(ids)
	loss, dLogits := utils.CrossEntropyWithIndex(logits, label)

	g := &Grads{}
	var dz, dh *mat.Dense
	dz, g.OutW, g.OutB = m.Out.BackwardGradsOnly(dLogits)
	dh, g.HidW, g.HidB = m.Hidden.BackwardGradsOnly(dz)
	dA := m.Pool.Backward(dh)
	var dX *mat.Dense
	dX, g.ConvW, g.ConvB = m.Conv.BackwardGradsOnly(dA)
	g.Emb = m.Emb.BackwardGradsOnly(dX)
	return loss, g
}

// Apply takes one optimizer step with g. Biases and embeddings are not decayed.
func (m *CharCNN) Apply(g *Grads, cfg optimizations.AdamConfig) {
	ps := m.Params()
	if m.adams == nil {
		m.adams = make([]*optimizations.Adam, len(ps))
		for i, p := range ps {
			m.adams[i] = optimizations.NewAdam(p)
		}
	}
	m.step++
	decay := []bool{false, true, false, true, false, true, false}
	for i, grad := range g.list() {
		m.adams[i].Step(ps[i], grad, m.step, cfg, decay[i])
	}
}

// Steps returns the number of optimizer steps taken.
func (m *CharCNN) Steps() int { return m.step }

// Predict returns the most likely next-character id.
func (m *CharCNN) Predict(ids []int) int {
	return utils.ArgmaxCol(m.Forward(ids))
}

// Evaluate returns the mean cross-entropy and accuracy over x/y.
func (m *CharCNN) Evaluate(x [][]int, y []int) (loss, acc float64) {
	if len(x) == 0 {
		return 0, 0
	}
	correct := 0
	losses := make([]float64, len(x))
	for i, ids := range x {
		logits := m.Forward(ids)
		losses[i], _ = utils.CrossEntropyWithIndex(logits, y[i])
		if utils.ArgmaxCol(logits) == y[i] {
			correct++
		}
	}
	return stat.Mean(losses, nil), float64(correct) / float64(len(x))
}
