package model

import (
	"github.com/harbom/Deep-Fried-Learning/utils"
	"gonum.org/v1/gonum/mat"
)

// Embedding maps character ids to columns of W (dModel x |V|).
type Embedding struct {
	W *mat.Dense

	lastIDs []int
}

// Forward returns the (d x T) matrix whose column t is W[:, ids[t]].
func (e *Embedding) Forward(ids []int) *mat.Dense {
	d, _ := e.W.Dims()
	out := mat.NewDense(d, len(ids), nil)
	for t, id := range ids {
		for i := 0; i < d; i++ {
			out.Set(i, t, e.W.At(i, id))
		}
	}
	e.lastIDs = ids
	return out
}

// BackwardGradsOnly scatters dX (d x T) back into a (d x |V|) gradient.
func (e *Embedding) BackwardGradsOnly(dX *mat.Dense) *mat.Dense {
	d, _ := e.W.Dims()
	dW := utils.ZerosLike(e.W)
	for t, id := range e.lastIDs {
		for i := 0; i < d; i++ {
			dW.Set(i, id, dW.At(i, id)+dX.At(i, t))
		}
	}
	return dW
}

// Conv1D is a valid (unpadded) convolution over time followed by ReLU.
// W is (filters x in*kernel); column block k of W sees input position t+k.
type Conv1D struct {
	In, Filters, Kernel int
	W, B                *mat.Dense

	// cache for backprop
	lastT           int
	patches, preAct *mat.Dense
}

// Forward maps X (in x T) to (filters x T-kernel+1).
func (c *Conv1D) Forward(X *mat.Dense) *mat.Dense {
	in, T := X.Dims()
	if in != c.In {
		panic("conv1d: input rows do not match In")
	}
	tOut := T - c.Kernel + 1
	if tOut <= 0 {
		panic("conv1d: sequence shorter than kernel")
	}
	// im2col: P[k*in+i, t] = X[i, t+k]
	P := mat.NewDense(c.In*c.Kernel, tOut, nil)
	for k := 0; k < c.Kernel; k++ {
		for i := 0; i < c.In; i++ {
			row := P.RawRowView(k*c.In + i)
			for t := 0; t < tOut; t++ {
				row[t] = X.At(i, t+k)
			}
		}
	}
	Z := utils.AddBias(utils.Dot(c.W, P), c.B)
	c.lastT = T
	c.patches = P
	c.preAct = Z
	return utils.ReLU(Z)
}

func (c *Conv1D) BackwardGradsOnly(dA *mat.Dense) (dX, dW, dB *mat.Dense) {
	dZ := utils.MaskReLU(mat.DenseCopyOf(dA), c.preAct)
	dW = utils.Dot(dZ, c.patches.T())
	dB = utils.RowSums(dZ)
	dP := utils.Dot(c.W.T(), dZ)

	// col2im
	_, tOut := dZ.Dims()
	dX = mat.NewDense(c.In, c.lastT, nil)
	for k := 0; k < c.Kernel; k++ {
		for i := 0; i < c.In; i++ {
			row := dP.RawRowView(k*c.In + i)
			for t := 0; t < tOut; t++ {
				dX.Set(i, t+k, dX.At(i, t+k)+row[t])
			}
		}
	}
	return dX, dW, dB
}

// GlobalMaxPool keeps, per row, the largest value over time.
type GlobalMaxPool struct {
	argmax []int
	lastT  int
}

func (p *GlobalMaxPool) Forward(A *mat.Dense) *mat.Dense {
	r, T := A.Dims()
	out := mat.NewDense(r, 1, nil)
	p.argmax = make([]int, r)
	p.lastT = T
	for i := 0; i < r; i++ {
		row := A.RawRowView(i)
		best := 0
		for t := 1; t < T; t++ {
			if row[t] > row[best] {
				best = t
			}
		}
		p.argmax[i] = best
		out.Set(i, 0, row[best])
	}
	return out
}

// Backward routes each row's gradient to the position that won the max.
func (p *GlobalMaxPool) Backward(dY *mat.Dense) *mat.Dense {
	dA := mat.NewDense(len(p.argmax), p.lastT, nil)
	for i, t := range p.argmax {
		dA.Set(i, t, dY.At(i, 0))
	}
	return dA
}

// Dense is a fully connected layer on a column vector, optionally ReLU'd.
type Dense struct {
	W, B *mat.Dense
	ReLU bool

	// cache for backprop
	lastInput, preAct *mat.Dense
}

func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	z := utils.AddBias(utils.Dot(d.W, x), d.B)
	d.lastInput = x
	d.preAct = z
	if d.ReLU {
		return utils.ReLU(z)
	}
	return z
}

func (d *Dense) BackwardGradsOnly(grad *mat.Dense) (dX, dW, dB *mat.Dense) {
	g := mat.DenseCopyOf(grad)
	if d.ReLU {
		utils.MaskReLU(g, d.preAct)
	}
	dW = utils.Dot(g, d.lastInput.T())
	dB = utils.RowSums(g)
	dX = utils.Dot(d.W.T(), g)
	return dX, dW, dB
}
