package operators

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// matrix views a row-major slice as a rows×cols matrix, without copying.
func matrix(data []float64, rows, cols int) blas64.General {
	return blas64.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   data,
	}
}

// gemm computes c = alpha * op(a) * op(b) + beta * c, where op transposes if asked to.
func gemm(transA, transB bool, alpha float64, a, b blas64.General, beta float64, c blas64.General) {
	ta, tb := blas.NoTrans, blas.NoTrans
	if transA {
		ta = blas.Trans
	}
	if transB {
		tb = blas.Trans
	}

	blas64.Gemm(ta, tb, alpha, a, b, beta, c)
}
