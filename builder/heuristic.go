// ABOUTME: Acceptance heuristics deciding whether a candidate track replaces the incumbent
// ABOUTME: Greedy distance minimisation and a simulated-annealing style probabilistic policy

package builder

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrUnknownHeuristic is returned for heuristic names that have no implementation
var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Heuristic decides whether a playlist total of newTotal should replace oldTotal.
// Implementations are called concurrently from the evaluation fold and must not
// mutate shared state.
type Heuristic interface {
	Accept(oldTotal, newTotal, target time.Duration) bool
}

// HeuristicFunc adapts a plain function to Heuristic
type HeuristicFunc func(oldTotal, newTotal, target time.Duration) bool

// Accept calls f
func (f HeuristicFunc) Accept(oldTotal, newTotal, target time.Duration) bool {
	return f(oldTotal, newTotal, target)
}

// Greedy accepts only strict improvements of the distance to target.
// Ties keep the incumbent.
type Greedy struct{}

// Accept reports whether newTotal is strictly closer to target than oldTotal
func (Greedy) Accept(oldTotal, newTotal, target time.Duration) bool {
	return distance(newTotal, target) < distance(oldTotal, target)
}

// Annealing accepts every improvement and a worse candidate with probability exp(-Δ/T),
// where Δ is the increase of the distance in seconds.
//
// It draws from the global math/rand/v2 source, which is safe for concurrent use,
// so results are nondeterministic even for a seeded playlist.
type Annealing struct {
	Temperature time.Duration
}

// Accept implements Heuristic
func (a Annealing) Accept(oldTotal, newTotal, target time.Duration) bool {
	oldDist := distance(oldTotal, target)
	newDist := distance(newTotal, target)

	if newDist < oldDist {
		return true
	}

	if a.Temperature <= 0 || newDist == oldDist {
		return false
	}

	delta := (newDist - oldDist).Seconds()

	return rand.Float64() < math.Exp(-delta/a.Temperature.Seconds())
}

// HeuristicByName resolves a configured heuristic name
func HeuristicByName(name string, temperature time.Duration) (Heuristic, error) {
	switch name {
	case "", "greedy":
		return Greedy{}, nil
	case "annealing":
		return Annealing{Temperature: temperature}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownHeuristic, "%q", name)
	}
}
