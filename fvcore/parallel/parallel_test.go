package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdrersin/FVENS/fvcore/parallel"
)

func TestForCoversEveryIndexExactlyOnce(t *testing.T) {
	n := 997
	hits := make([]int32, n)
	parallel.For(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		require.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestSumFloat64(t *testing.T) {
	n := 500
	got := parallel.SumFloat64(n, func(i int) float64 { return float64(i) })
	require.InDelta(t, float64(n*(n-1))/2, got, 1e-6)
}

func TestMinFloat64(t *testing.T) {
	n := 200
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(n - i)
	}
	vals[137] = -5
	got := parallel.MinFloat64(n, func(i int) float64 { return vals[i] })
	require.Equal(t, -5.0, got)
}

func TestForEmptyRangeIsNoop(t *testing.T) {
	called := false
	parallel.For(0, func(lo, hi int) { called = true })
	require.False(t, called)
}
