// Package mdp recasts American option pricing as a Markov decision process
// for an external reinforcement learning solver.
//
// A state is the current time and the prices seen so far on one trajectory.
// The action is whether to exercise. Exercising pays the discounted payoff
// and jumps past expiry; holding pays nothing. Rewards are already
// discounted, so the learner runs with gamma = 1.
package mdp

import (
	"math"

	"golang.org/x/exp/rand"

	"amoption/internal/diffusion"
	apperrors "amoption/internal/errors"
	"amoption/internal/option"
)

// State is (t, x_0..x_t). Prices is never mutated once the state exists.
type State struct {
	Time   float64
	Prices []float64
}

// Last returns the most recent price.
func (s State) Last() float64 { return s.Prices[len(s.Prices)-1] }

// Action is true to exercise, false to hold.
type Action = bool

const (
	Exercise Action = true
	Hold     Action = false
)

// Adapter exposes a contract through the functions an RL solver expects.
// The contract is read-only; the random source is the only mutable part,
// so concurrent episodes should each use their own Adapter (see WithSource).
type Adapter struct {
	contract option.Contract
	rng      *rand.Rand
}

// NewAdapter validates c and binds it to src.
func NewAdapter(c option.Contract, src rand.Source) (*Adapter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{contract: c, rng: rand.New(src)}, nil
}

// WithSource returns an Adapter for the same contract drawing from src.
func (a *Adapter) WithSource(src rand.Source) *Adapter {
	return &Adapter{contract: a.contract, rng: rand.New(src)}
}

// Contract returns the configuration the adapter was built with.
func (a *Adapter) Contract() option.Contract { return a.contract }

// Actions lists the legal actions. Both are always legal.
func (a *Adapter) Actions(State) []Action {
	return []Action{Exercise, Hold}
}

// IsTerminal reports whether s lies beyond expiry.
func (a *Adapter) IsTerminal(s State) bool {
	return s.Time > a.contract.Expiry
}

// TransitionReward samples the successor of (s, action) over a step dt.
//
// The reward is exp(-ir(t)) * payoff(t, x_0..x_t) when exercising and 0
// otherwise. The next price is drawn from the diffusion either way. Holding
// advances time by dt; exercising moves it to expiry + dt so the successor
// is terminal.
func (a *Adapter) TransitionReward(s State, action Action, dt float64) (State, float64, error) {
	if !(dt > 0) {
		return State{}, 0, apperrors.NewValidationError("dt", dt, "must be positive")
	}
	c := a.contract

	var reward float64
	if action {
		reward = math.Exp(-c.Rate(s.Time)) * c.Payoff(s.Time, s.Prices)
		if math.IsNaN(reward) || math.IsInf(reward, 0) {
			return State{}, 0, apperrors.NewComputationError("reward", len(s.Prices)-1, apperrors.NonFinite("reward", reward))
		}
	}

	next, err := diffusion.Next(s.Last(), s.Time, dt, c.Rate, c.Dispersion, a.rng)
	if err != nil {
		return State{}, 0, apperrors.NewComputationError("transition", len(s.Prices)-1, err)
	}
	prices := make([]float64, len(s.Prices)+1)
	copy(prices, s.Prices)
	prices[len(s.Prices)] = next

	nextTime := s.Time + dt
	if action {
		nextTime = c.Expiry + dt
	} else if math.Abs(nextTime-c.Expiry) <= 1e-9*dt {
		// Accumulated steps land on expiry, not just past it.
		nextTime = c.Expiry
	}
	return State{Time: nextTime, Prices: prices}, reward, nil
}

// InitState is (0, [spot]).
func (a *Adapter) InitState() State {
	return State{Time: 0, Prices: []float64{a.contract.Spot}}
}

// InitStateAction pairs InitState with a uniformly random action.
func (a *Adapter) InitStateAction() (State, Action) {
	return a.InitState(), a.rng.Intn(2) == 0
}
