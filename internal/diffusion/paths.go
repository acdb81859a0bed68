package diffusion

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "amoption/internal/errors"
)

// pathsPerChunk fixes how paths are grouped onto random sources. It does not
// depend on the worker count, so a seed reproduces the same ensemble on any
// machine.
const pathsPerChunk = 256

// Simulator generates path ensembles from a seed.
type Simulator struct {
	Seed    uint64
	Workers int
	Logger  zerolog.Logger
}

// NewSimulator creates a Simulator using all available CPUs.
func NewSimulator(seed uint64) *Simulator {
	return &Simulator{
		Seed:    seed,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  zerolog.Nop(),
	}
}

// Next draws x_{t+dt} from a normal with the Moments of x_t = price.
func Next(price, t, dt float64, rate RateCurve, disp Dispersion, src rand.Source) (float64, error) {
	m, v, err := Moments(price, t, dt, rate, disp)
	if err != nil {
		return 0, err
	}
	next := distuv.Normal{Mu: m, Sigma: sqrt(v), Src: src}.Rand()
	if !finite(next) {
		return 0, apperrors.NonFinite("price draw", next)
	}
	return next, nil
}

// Simulate returns a numPaths x (numDt+1) matrix whose rows are independent
// price paths on the grid k*expiry/numDt. Column 0 is spot on every row.
func (s *Simulator) Simulate(spot, expiry float64, numDt, numPaths int, rate RateCurve, disp Dispersion) (*mat.Dense, error) {
	if err := validateGrid(spot, expiry, numDt, numPaths); err != nil {
		return nil, err
	}
	dt := expiry / float64(numDt)
	paths := mat.NewDense(numPaths, numDt+1, nil)

	// Seeds are drawn up front, in chunk order, from the master source.
	master := rand.New(rand.NewSource(s.Seed))
	numChunks := (numPaths + pathsPerChunk - 1) / pathsPerChunk
	seeds := make([]uint64, numChunks)
	for c := range seeds {
		seeds[c] = master.Uint64()
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for c := 0; c < numChunks; c++ {
		lo := c * pathsPerChunk
		hi := min(lo+pathsPerChunk, numPaths)
		seed := seeds[c]
		p.Go(func() error {
			src := rand.NewSource(seed)
			for i := lo; i < hi; i++ {
				// Rows are disjoint slices of the backing array.
				if err := fillPath(paths.RawRowView(i), spot, dt, rate, disp, src); err != nil {
					return apperrors.Wrapf(err, "path %d", i)
				}
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, apperrors.NewComputationError("simulate", 0, err)
	}

	s.Logger.Debug().
		Int("paths", numPaths).
		Int("steps", numDt).
		Float64("dt", dt).
		Uint64("seed", s.Seed).
		Msg("Simulated path ensemble")
	return paths, nil
}

func fillPath(row []float64, spot, dt float64, rate RateCurve, disp Dispersion, src rand.Source) error {
	row[0] = spot
	price := spot
	for k := 0; k < len(row)-1; k++ {
		next, err := Next(price, float64(k)*dt, dt, rate, disp, src)
		if err != nil {
			return apperrors.NewComputationError("step", k, err)
		}
		row[k+1] = next
		price = next
	}
	return nil
}

func validateGrid(spot, expiry float64, numDt, numPaths int) error {
	if !(spot > 0) || !finite(spot) {
		return apperrors.NewValidationError("spot", spot, "must be positive")
	}
	if !(expiry > 0) || !finite(expiry) {
		return apperrors.NewValidationError("expiry", expiry, "must be positive")
	}
	if numDt <= 0 {
		return apperrors.NewValidationError("num_dt", numDt, "must be positive")
	}
	if numPaths <= 0 {
		return apperrors.NewValidationError("num_paths", numPaths, "must be positive")
	}
	return nil
}
