package optimizations

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// AdamConfig holds the optimizer hyperparameters shared by every parameter.
type AdamConfig struct {
	LR, Beta1, Beta2, Eps float64
	WeightDecay           float64 // applied to weights only, never biases
}

// Adam keeps first/second moment estimates for one parameter matrix.
type Adam struct {
	M, V *mat.Dense
}

func NewAdam(p *mat.Dense) *Adam {
	return &Adam{M: zerosLike(p), V: zerosLike(p)}
}

// Step applies one AdamW update to p. t is the 1-based optimizer step.
func (a *Adam) Step(p, g *mat.Dense, t int, cfg AdamConfig, decay bool) {
	wd := 0.0
	if decay {
		wd = cfg.WeightDecay
	}
	AdamUpdateInPlace(p, g, a.M, a.V, t, cfg.LR, cfg.Beta1, cfg.Beta2, cfg.Eps, wd)
}

// p -= lr * (mhat/(sqrt(vhat)+eps) + wd * p) with bias correction (AdamW).
func AdamUpdateInPlace(
	p, g, m, v *mat.Dense,
	t int,
	lr, beta1, beta2, eps, weightDecay float64,
) {
	pr, pc := p.Dims()
	if gr, gc := g.Dims(); gr != pr || gc != pc {
		panic("adamUpdateInPlace: grad shape mismatch")
	}
	if mr, mc := m.Dims(); mr != pr || mc != pc {
		panic("adamUpdateInPlace: m shape mismatch")
	}
	if vr, vc := v.Dims(); vr != pr || vc != pc {
		panic("adamUpdateInPlace: v shape mismatch")
	}
	c1 := 1.0 / (1.0 - math.Pow(beta1, float64(t)))
	c2 := 1.0 / (1.0 - math.Pow(beta2, float64(t)))
	for i := 0; i < pr; i++ {
		pRow, gRow := p.RawRowView(i), g.RawRowView(i)
		mRow, vRow := m.RawRowView(i), v.RawRowView(i)
		for j := 0; j < pc; j++ {
			gij := gRow[j]
			mRow[j] = beta1*mRow[j] + (1.0-beta1)*gij
			vRow[j] = beta2*vRow[j] + (1.0-beta2)*gij*gij
			mhat := mRow[j] * c1
			vhat := vRow[j] * c2
			pRow[j] -= lr * (mhat/(math.Sqrt(vhat)+eps) + weightDecay*pRow[j])
		}
	}
}

func zerosLike(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	return mat.NewDense(r, c, nil)
}
