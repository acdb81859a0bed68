package mdp

import (
	apperrors "amoption/internal/errors"
)

// Problem is the bundle handed to an external learner: the five MDP
// functions with the step size bound, plus the solver settings the
// pricing problem fixes.
type Problem struct {
	Actions          func(State) []Action
	IsTerminal       func(State) bool
	TransitionReward func(State, Action) (State, float64, error)
	InitState        func() State
	InitStateAction  func() (State, Action)

	Gamma    float64 // 1: rewards carry their own discount
	MaxSteps int     // numDt + 1
	Dt       float64

	StateFeatures  []func(State) float64
	ActionFeatures []func(Action) float64
}

// Problem builds the bundle for a grid of numDt steps up to expiry.
func (a *Adapter) Problem(numDt int) (*Problem, error) {
	if numDt <= 0 {
		return nil, apperrors.NewValidationError("num_dt", numDt, "must be positive")
	}
	dt := a.contract.Expiry / float64(numDt)
	return &Problem{
		Actions:    a.Actions,
		IsTerminal: a.IsTerminal,
		TransitionReward: func(s State, action Action) (State, float64, error) {
			return a.TransitionReward(s, action, dt)
		},
		InitState:       a.InitState,
		InitStateAction: a.InitStateAction,
		Gamma:           1,
		MaxSteps:        numDt + 1,
		Dt:              dt,
		StateFeatures: []func(State) float64{
			func(s State) float64 { return s.Time },
			func(s State) float64 { return s.Last() },
		},
		ActionFeatures: []func(Action) float64{
			func(act Action) float64 { return indicator(act) },
			func(act Action) float64 { return indicator(!act) },
		},
	}, nil
}

// ValueFunc is a learned state value.
type ValueFunc func(State) float64

// Learner solves a Problem, e.g. by TD(lambda) with function approximation.
// It lives outside this module.
type Learner interface {
	OptimalValueFunc(p *Problem) (ValueFunc, error)
}

// Price asks l for the optimal value function of p and reads the option
// price at the initial state.
func Price(l Learner, p *Problem) (float64, error) {
	vf, err := l.OptimalValueFunc(p)
	if err != nil {
		return 0, apperrors.Wrap(err, "learner")
	}
	return vf(p.InitState()), nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
