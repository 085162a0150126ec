//go:build accelerate

package main

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// Building with `-tags accelerate` routes gonum's matrix products through the
// system CBLAS (OpenBLAS, Accelerate, ...) linked by netlib.
func init() {
	blas64.Use(netlib.Implementation{})
}
