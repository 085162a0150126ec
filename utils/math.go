package utils

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Matrix helpers shared by the layers.
// r = rows, c = columns, o = output, m/n = inputs.

func Dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func ZerosLike(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	return mat.NewDense(r, c, nil)
}

// AddBias adds the (r x 1) bias to every column of m in place and returns m.
func AddBias(m, bias *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	if rb, cb := bias.Dims(); rb != r || cb != 1 {
		panic("addBias: bias must be (r x 1)")
	}
	for i := 0; i < r; i++ {
		b := bias.At(i, 0)
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] += b
		}
	}
	return m
}

// ReLU returns max(0, x) elementwise as a new matrix.
func ReLU(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, out)
	return out
}

// MaskReLU zeroes grad wherever the pre-activation was not positive, in place.
func MaskReLU(grad, preAct *mat.Dense) *mat.Dense {
	grad.Apply(func(i, j int, v float64) float64 {
		if preAct.At(i, j) > 0 {
			return v
		}
		return 0
	}, grad)
	return grad
}

// RowSums returns the per-row sums as an (r x 1) column.
func RowSums(m *mat.Dense) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, floats.Sum(m.RawRowView(i)))
	}
	return out
}

// ColVectorSoftmax applies softmax across the single column of a (r x 1) vector.
func ColVectorSoftmax(v *mat.Dense) *mat.Dense {
	r, c := v.Dims()
	if c != 1 {
		panic("ColVectorSoftmax expects a (r x 1) column vector")
	}
	vals := mat.Col(nil, 0, v)
	mx := floats.Max(vals)
	for i := range vals {
		vals[i] = math.Exp(vals[i] - mx)
	}
	floats.Scale(1/floats.Sum(vals), vals)
	return mat.NewDense(r, 1, vals)
}

// CrossEntropyWithIndex returns -log p[gold] and dL/dlogits = p - onehot(gold).
func CrossEntropyWithIndex(logits *mat.Dense, gold int) (float64, *mat.Dense) {
	r, c := logits.Dims()
	if c != 1 {
		panic("CrossEntropyWithIndex expects (r x 1) logits vector")
	}
	if gold < 0 || gold >= r {
		panic("CrossEntropyWithIndex: gold index out of range")
	}
	prob := ColVectorSoftmax(logits)
	loss := -math.Log(prob.At(gold, 0) + 1e-12)
	prob.Set(gold, 0, prob.At(gold, 0)-1.0)
	return loss, prob
}

// ArgmaxCol returns the row of the largest entry of a column vector.
func ArgmaxCol(v *mat.Dense) int {
	return floats.MaxIdx(mat.Col(nil, 0, v))
}

// ClipGrads rescales all grads so their joint Frobenius norm is at most maxNorm.
// Returns the scale applied (1 when nothing was clipped).
func ClipGrads(maxNorm float64, grads ...*mat.Dense) float64 {
	if maxNorm <= 0 {
		return 1.0
	}
	sum := 0.0
	for _, g := range grads {
		if g == nil {
			continue
		}
		n := mat.Norm(g, 2)
		sum += n * n
	}
	gn := math.Sqrt(sum)
	if gn <= maxNorm || gn == 0 {
		return 1.0
	}
	s := maxNorm / gn
	for _, g := range grads {
		if g != nil {
			g.Scale(s, g)
		}
	}
	return s
}

func MatrixNorm(m *mat.Dense) float64 {
	return mat.Norm(m, 2)
}

// RandomArray returns size samples from U(-1/sqrt(v), 1/sqrt(v)) drawn from src.
func RandomArray(size int, v float64, src rand.Source) []float64 {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(v+1e-12),
		Max: 1 / math.Sqrt(v+1e-12),
		Src: src,
	}
	out := make([]float64, size)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}
