package mdp

import (
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "amoption/internal/errors"
)

// Policy chooses an action in a state.
type Policy interface {
	Act(s State) Action
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(State) Action

func (f PolicyFunc) Act(s State) Action { return f(s) }

// Transition is one step of an episode.
type Transition struct {
	State  State
	Action Action
	Next   State
	Reward float64
}

// GenerateEpisode follows policy from the initial state until a terminal
// state or MaxSteps transitions.
func GenerateEpisode(p *Problem, policy Policy) ([]Transition, error) {
	var episode []Transition
	state := p.InitState()
	for len(episode) < p.MaxSteps && !p.IsTerminal(state) {
		action := policy.Act(state)
		next, reward, err := p.TransitionReward(state, action)
		if err != nil {
			return nil, err
		}
		episode = append(episode, Transition{
			State:  state,
			Action: action,
			Next:   next,
			Reward: reward,
		})
		state = next
	}
	return episode, nil
}

// Return sums the rewards of an episode with discount gamma.
func Return(episode []Transition, gamma float64) float64 {
	var g float64
	for i := len(episode) - 1; i >= 0; i-- {
		g = episode[i].Reward + gamma*g
	}
	return g
}

// ThresholdPolicy exercises as soon as the payoff exceeds Threshold.
func (a *Adapter) ThresholdPolicy(threshold float64) Policy {
	payoff := a.contract.Payoff
	return PolicyFunc(func(s State) Action {
		return payoff(s.Time, s.Prices) > threshold
	})
}

// Evaluate estimates the value of policy as the mean episode return over
// the given number of episodes, with its standard error.
func Evaluate(p *Problem, policy Policy, episodes int) (float64, float64, error) {
	if episodes <= 0 {
		return 0, 0, apperrors.NewValidationError("episodes", episodes, "must be positive")
	}
	returns := make([]float64, episodes)
	for i := range returns {
		ep, err := GenerateEpisode(p, policy)
		if err != nil {
			return 0, 0, apperrors.Wrapf(err, "episode %d", i)
		}
		returns[i] = Return(ep, p.Gamma)
	}
	if episodes == 1 {
		return returns[0], 0, nil
	}
	mean, std := stat.MeanStdDev(returns, nil)
	return mean, std / math.Sqrt(float64(episodes)), nil
}
