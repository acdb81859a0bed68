package mdp

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/exp/rand"

	"amoption/internal/diffusion"
	apperrors "amoption/internal/errors"
	"amoption/internal/option"
)

func newTestAdapter(t *testing.T, c option.Contract) *Adapter {
	t.Helper()
	a, err := NewAdapter(c, rand.NewSource(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func callContract() option.Contract {
	return option.Contract{
		Spot:       80,
		Payoff:     option.Call(85),
		Expiry:     3,
		Dispersion: diffusion.ProportionalDispersion(0.25),
		Rate:       diffusion.FlatRate(0.03),
	}
}

func deterministicPut() option.Contract {
	return option.Contract{
		Spot:       90,
		Payoff:     option.Put(100),
		Expiry:     1,
		Dispersion: diffusion.ConstantDispersion(0),
		Rate:       diffusion.FlatRate(0.05),
	}
}

func TestNewAdapter_RejectsInvalidContract(t *testing.T) {
	c := callContract()
	c.Expiry = 0
	if _, err := NewAdapter(c, rand.NewSource(1)); !apperrors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestActions_AlwaysBoth(t *testing.T) {
	a := newTestAdapter(t, callContract())
	for _, s := range []State{a.InitState(), {Time: 5, Prices: []float64{1, 2}}} {
		acts := a.Actions(s)
		if len(acts) != 2 || acts[0] == acts[1] {
			t.Errorf("expected both actions, got %v", acts)
		}
	}
}

func TestProperty_IsTerminal(t *testing.T) {
	a := newTestAdapter(t, callContract())

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("terminal iff time > expiry", prop.ForAll(
		func(tm float64) bool {
			s := State{Time: tm, Prices: []float64{80}}
			return a.IsTerminal(s) == (tm > 3)
		},
		gen.Float64Range(0, 6),
	))
	properties.Property("expiry itself is not terminal", prop.ForAll(
		func(x float64) bool {
			return !a.IsTerminal(State{Time: 3, Prices: []float64{x}})
		},
		gen.Float64Range(1, 200),
	))

	properties.TestingRun(t)
}

func TestTransitionReward_Exercise(t *testing.T) {
	c := callContract()
	a := newTestAdapter(t, c)
	s := State{Time: 1.2, Prices: []float64{80, 88, 93}}

	next, reward, err := a.TransitionReward(s, Exercise, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Exp(-c.Rate(1.2)) * c.Payoff(1.2, s.Prices)
	if reward != want {
		t.Errorf("expected reward %v, got %v", want, reward)
	}
	if !a.IsTerminal(next) {
		t.Errorf("exercise must lead to a terminal state, got time %v", next.Time)
	}
	if len(next.Prices) != 4 {
		t.Errorf("expected history of 4, got %d", len(next.Prices))
	}
}

func TestTransitionReward_Hold(t *testing.T) {
	a := newTestAdapter(t, callContract())
	s := State{Time: 1.2, Prices: []float64{80, 88, 93}}

	next, reward, err := a.TransitionReward(s, Hold, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reward != 0 {
		t.Errorf("expected zero reward, got %v", reward)
	}
	if next.Time != 1.2+0.1 {
		t.Errorf("expected time %v, got %v", 1.2+0.1, next.Time)
	}
	for i, p := range s.Prices {
		if next.Prices[i] != p {
			t.Errorf("history prefix changed at %d", i)
		}
	}
	if len(s.Prices) != 3 {
		t.Error("input state was mutated")
	}
}

func TestTransitionReward_BranchesDoNotAlias(t *testing.T) {
	a := newTestAdapter(t, callContract())
	s := State{Time: 0, Prices: make([]float64, 1, 8)}
	s.Prices[0] = 80

	n1, _, _ := a.TransitionReward(s, Hold, 0.1)
	n2, _, _ := a.TransitionReward(s, Hold, 0.1)
	if n1.Prices[1] == n2.Prices[1] {
		t.Error("two draws from the same state should differ")
	}
	n1.Prices[0] = -1
	if s.Prices[0] != 80 || n2.Prices[0] != 80 {
		t.Error("successor histories alias each other")
	}
}

func TestTransitionReward_ZeroVolatilityFollowsDrift(t *testing.T) {
	a := newTestAdapter(t, deterministicPut())
	next, _, err := a.TransitionReward(a.InitState(), Hold, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 90 * math.Exp(0.05*0.25); math.Abs(next.Last()-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, next.Last())
	}
}

func TestTransitionReward_InvalidStep(t *testing.T) {
	a := newTestAdapter(t, callContract())
	if _, _, err := a.TransitionReward(a.InitState(), Hold, 0); !apperrors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestInitStateAction(t *testing.T) {
	a := newTestAdapter(t, callContract())
	s := a.InitState()
	if s.Time != 0 || len(s.Prices) != 1 || s.Prices[0] != 80 {
		t.Errorf("unexpected initial state %+v", s)
	}

	seen := map[Action]int{}
	for i := 0; i < 200; i++ {
		s, act := a.InitStateAction()
		if s.Time != 0 || s.Prices[0] != 80 {
			t.Fatalf("unexpected initial state %+v", s)
		}
		seen[act]++
	}
	if seen[Exercise] == 0 || seen[Hold] == 0 {
		t.Errorf("expected both actions, got %v", seen)
	}
}

func TestProblem(t *testing.T) {
	a := newTestAdapter(t, callContract())
	p, err := a.Problem(30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Gamma != 1 || p.MaxSteps != 31 {
		t.Errorf("expected gamma 1 and 31 steps, got %v and %d", p.Gamma, p.MaxSteps)
	}
	if math.Abs(p.Dt-0.1) > 1e-15 {
		t.Errorf("expected dt 0.1, got %v", p.Dt)
	}
	s := State{Time: 2, Prices: []float64{80, 95}}
	if p.StateFeatures[0](s) != 2 || p.StateFeatures[1](s) != 95 {
		t.Error("unexpected state features")
	}
	if p.ActionFeatures[0](Exercise) != 1 || p.ActionFeatures[1](Exercise) != 0 {
		t.Error("unexpected action features")
	}

	if _, err := a.Problem(0); !apperrors.Is(err, apperrors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestGenerateEpisode_HoldToExpiry(t *testing.T) {
	a := newTestAdapter(t, deterministicPut())
	p, _ := a.Problem(10)

	ep, err := GenerateEpisode(p, PolicyFunc(func(State) Action { return Hold }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ep) != p.MaxSteps {
		t.Errorf("expected %d transitions, got %d", p.MaxSteps, len(ep))
	}
	if ep[len(ep)-2].Next.Time != 1 {
		t.Errorf("expected the grid to land on expiry, got %v", ep[len(ep)-2].Next.Time)
	}
	if Return(ep, p.Gamma) != 0 {
		t.Error("holding forever should earn nothing")
	}
}

func TestGenerateEpisode_ExerciseImmediately(t *testing.T) {
	a := newTestAdapter(t, deterministicPut())
	p, _ := a.Problem(10)

	ep, err := GenerateEpisode(p, PolicyFunc(func(State) Action { return Exercise }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ep) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(ep))
	}
	if ep[0].Reward != 10 {
		t.Errorf("expected reward 10, got %v", ep[0].Reward)
	}
}

func TestEvaluate_ThresholdPolicy(t *testing.T) {
	a := newTestAdapter(t, deterministicPut())
	p, _ := a.Problem(10)

	mean, se, err := Evaluate(p, a.ThresholdPolicy(0), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 10 || se != 0 {
		t.Errorf("expected 10 with no error, got %v (se %v)", mean, se)
	}
	if _, _, err := Evaluate(p, a.ThresholdPolicy(0), 0); err == nil {
		t.Error("expected error for zero episodes")
	}
}

type fixedLearner struct {
	vf  ValueFunc
	err error
}

func (f fixedLearner) OptimalValueFunc(*Problem) (ValueFunc, error) { return f.vf, f.err }

func TestPrice_QueriesInitialState(t *testing.T) {
	a := newTestAdapter(t, callContract())
	p, _ := a.Problem(30)

	l := fixedLearner{vf: func(s State) float64 { return s.Time + s.Last()/10 }}
	got, err := Price(l, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8 {
		t.Errorf("expected 8, got %v", got)
	}

	boom := errors.New("diverged")
	if _, err := Price(fixedLearner{err: boom}, p); !errors.Is(err, boom) {
		t.Errorf("expected learner error, got %v", err)
	}
}
