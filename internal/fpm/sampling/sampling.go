package sampling

import (
	"math"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/txdb"
)

// Params is the accuracy contract of an approximate run.
type Params struct {
	// Epsilon is the largest tolerated error on an itemset frequency.
	Epsilon float64
	// Delta is the probability that the error bound does not hold.
	Delta float64
	// C is the universal constant of the VC sample-size bound.
	C float64
}

// DefaultParams returns epsilon = delta = 0.1 and C = 1.
func DefaultParams() Params {
	return Params{Epsilon: 0.1, Delta: 0.1, C: 1}
}

// Validate checks that epsilon and delta lie in (0,1) and C is positive.
func (p Params) Validate() error {
	if !(p.Epsilon > 0 && p.Epsilon < 1) {
		return &fpm.ValidationError{Field: "epsilon", Value: p.Epsilon, Reason: "must be in (0,1)"}
	}
	if !(p.Delta > 0 && p.Delta < 1) {
		return &fpm.ValidationError{Field: "delta", Value: p.Delta, Reason: "must be in (0,1)"}
	}
	if !(p.C > 0) || math.IsInf(p.C, 1) {
		return &fpm.ValidationError{Field: "vc_constant", Value: p.C, Reason: "must be positive"}
	}
	return nil
}

// SampleSize returns ceil((4C / epsilon^2) * (d + ln(1/delta))), saturating
// at math.MaxInt. It is not capped by the database size; see Descriptor.
func SampleSize(d int, p Params) int {
	size := (4 * p.C / (p.Epsilon * p.Epsilon)) * (float64(d) + math.Log(1/p.Delta))
	if size >= math.MaxInt {
		return math.MaxInt
	}
	return txdb.CeilCount(size)
}

// AdjustedMinCount is the support count used to mine a sample of sampleSize
// transactions: max(1, ceil(sampleSize * (minSupport - epsilon))).
func AdjustedMinCount(sampleSize int, minSupport, epsilon float64) int {
	return max(1, txdb.CeilCount(float64(sampleSize)*(minSupport-epsilon)))
}

// Descriptor records how an approximate run sized its sample. It is computed
// once, before the sample is drawn.
type Descriptor struct {
	DBound     int
	SampleSize int
	MinCount   int
	Population int
	Epsilon    float64
	Delta      float64
	C          float64
}

// NewDescriptor derives the sample size (capped at population) and the
// lowered support count from a d-bound.
func NewDescriptor(dBound, population int, minSupport float64, p Params) Descriptor {
	size := min(SampleSize(dBound, p), population)
	return Descriptor{
		DBound:     dBound,
		SampleSize: size,
		MinCount:   AdjustedMinCount(size, minSupport, p.Epsilon),
		Population: population,
		Epsilon:    p.Epsilon,
		Delta:      p.Delta,
		C:          p.C,
	}
}

// Exhaustive reports whether the sample covers the whole database.
func (d Descriptor) Exhaustive() bool { return d.SampleSize >= d.Population }
