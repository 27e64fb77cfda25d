//go:build netlib
// +build netlib

package utils

/*
#cgo CFLAGS: -march=native -mavx -mavx2
#cgo LDFLAGS: -lopenblas -llapacke -lgfortran -lm -lpthread
#include <cblas.h>
#include <lapacke.h>
*/
import "C"

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Large reduced Newton systems (Cholesky/LU in SolveSPD) go through blas64, this
// swaps in OpenBLAS when built with -tags netlib.
func init() {
	blas64.Use(netblas.Implementation{})
	logrus.Debug("Using netlib to accelerate BLAS")
}
