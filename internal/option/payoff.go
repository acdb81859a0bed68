package option

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Kind names a payoff family.
type Kind string

const (
	KindCall      Kind = "call"
	KindPut       Kind = "put"
	KindAsianCall Kind = "asian-call"
	KindAsianPut  Kind = "asian-put"
)

// Call pays x_t - strike. The value may be negative; callers take the
// positive part where they need it.
func Call(strike float64) Payoff {
	return func(_ float64, x []float64) float64 { return x[len(x)-1] - strike }
}

// Put pays strike - x_t.
func Put(strike float64) Payoff {
	return func(_ float64, x []float64) float64 { return strike - x[len(x)-1] }
}

// AsianCall pays the arithmetic average of x_0..x_t minus strike.
func AsianCall(strike float64) Payoff {
	return func(_ float64, x []float64) float64 { return stat.Mean(x, nil) - strike }
}

// AsianPut pays strike minus the arithmetic average of x_0..x_t.
func AsianPut(strike float64) Payoff {
	return func(_ float64, x []float64) float64 { return strike - stat.Mean(x, nil) }
}

// NewPayoff builds the payoff for kind.
func NewPayoff(kind Kind, strike float64) (Payoff, error) {
	switch kind {
	case KindCall:
		return Call(strike), nil
	case KindPut:
		return Put(strike), nil
	case KindAsianCall:
		return AsianCall(strike), nil
	case KindAsianPut:
		return AsianPut(strike), nil
	default:
		return nil, fmt.Errorf("unknown payoff kind %q", kind)
	}
}
