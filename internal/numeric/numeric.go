// Package numeric provides the float-slice primitives shared by the
// convolution and fitting code: trapezoidal integration, piecewise-linear
// interpolation, and grid construction. All functions are pure and allocate
// only their return values.
package numeric

import (
	"math"
	"sort"
)

// Trapezoid returns the trapezoidal integral of y over x.
//
// x must be ascending and len(x) == len(y). Fewer than two samples integrate
// to zero.
func Trapezoid(x, y []float64) float64 {
	var sum float64
	for i := 1; i < len(x) && i < len(y); i++ {
		sum += 0.5 * (y[i] + y[i-1]) * (x[i] - x[i-1])
	}
	return sum
}

// Interp evaluates the piecewise-linear interpolant of (xs, ys) at x.
//
// xs must be strictly ascending. Outside the support the nearest edge value is
// returned; callers that need stricter range handling check bounds first.
func Interp(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	// Index of the first grid point at or above x; x is strictly inside the
	// support here, so 0 < i < n.
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	t := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + t*(ys[i]-ys[i-1])
}

// Resample interpolates (xs, ys) at every point of grid.
func Resample(xs, ys, grid []float64) []float64 {
	out := make([]float64, len(grid))
	for i, x := range grid {
		out[i] = Interp(xs, ys, x)
	}
	return out
}

// MergeAscending merges two ascending slices into a single ascending slice
// with exact duplicates removed.
func MergeAscending(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var v float64
		switch {
		case i >= len(a):
			v = b[j]
			j++
		case j >= len(b):
			v = a[i]
			i++
		case a[i] < b[j]:
			v = a[i]
			i++
		case b[j] < a[i]:
			v = b[j]
			j++
		default: // equal, take once
			v = a[i]
			i++
			j++
		}
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

// Within returns the subslice of ascending xs whose values lie in [lo, hi].
func Within(xs []float64, lo, hi float64) []float64 {
	start := sort.SearchFloat64s(xs, lo)
	end := sort.Search(len(xs), func(i int) bool { return xs[i] > hi })
	return xs[start:end]
}

// StrictlyAscending reports whether xs is strictly increasing.
func StrictlyAscending(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// StrictlyDescending reports whether xs is strictly decreasing.
func StrictlyDescending(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] >= xs[i-1] {
			return false
		}
	}
	return true
}

// AllFinite reports whether every value in xs is a finite number.
func AllFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AllPositive reports whether every value in xs is finite and > 0.
func AllPositive(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return true
}

// Reverse reverses xs in place and returns it.
func Reverse(xs []float64) []float64 {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
	return xs
}

// Linspace returns n points evenly spaced over [lo, hi] inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Logspace returns n points spaced evenly on a log scale between 10^lo and
// 10^hi inclusive.
func Logspace(lo, hi float64, n int) []float64 {
	out := Linspace(lo, hi, n)
	for i, v := range out {
		out[i] = math.Pow(10, v)
	}
	return out
}
