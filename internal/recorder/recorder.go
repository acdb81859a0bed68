// Package recorder journals finished valuations for later comparison.
package recorder

import "time"

// Run is one finished valuation.
type Run struct {
	Timestamp time.Time
	Method    string // "lsm", "bs", "mdp-rollout"
	Kind      string
	Spot      float64
	Strike    float64
	Expiry    float64
	Rate      float64
	Sigma     float64
	NumDt     int
	NumPaths  int // paths or episodes
	Seed      uint64
	Price     float64
	StdErr    float64
	Duration  time.Duration
}

// Recorder persists runs.
type Recorder interface {
	RecordRun(run *Run) error
	Recent(limit int) ([]Run, error)
	Close() error
}
