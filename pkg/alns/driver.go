package alns

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"lrpalns/pkg/apperror"
	"lrpalns/pkg/logger"
	"lrpalns/pkg/lrp"
	"lrpalns/pkg/metrics"
)

// History is the convergence record of one ALNS run: the objective at
// every iteration's accepted-best, plus per-operator bookkeeping, returned
// alongside the best-seen sequence so a caller can later plot or animate
// convergence without the driver itself depending on a plot library (§13).
type History struct {
	RunID string

	// BestObjective[i] is f(s⋆) after iteration i (monotone non-increasing,
	// §8 property 8).
	BestObjective []float64

	Accepted    int // new-best or improving acceptances, seen before or not
	SAAccepted  int // accepted worse solutions (SA)
	Rejected    int

	// FinalDestroyWeights/FinalRepairWeights hold each operator's adaptive
	// weight at run end.
	FinalDestroyWeights map[string]float64
	FinalRepairWeights  map[string]float64

	LocalSearchImprovements int
}

type operatorState struct {
	weight float64
	score  float64 // π, reset each segment
	uses   int     // c, reset each segment
}

// Run executes the §4.7 ALNS driver: k̅ iterations of sample→destroy→
// repair→accept, segment-boundary weight updates, and periodic local
// search, starting from the feasible initial solution s0. It returns the
// full sequence of best-seen solutions (one entry per iteration, the
// output named in §6), a History record, and any error surfaced by an
// operator (per §7, the driver never retries — it aborts and returns the
// best-so-far together with the error).
func Run(rng *rand.Rand, p *Params, s0 *lrp.Solution) ([]*lrp.Solution, *History, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	m := metrics.Get()
	m.RecordRunStart()
	start := time.Now()

	destroyState := make(map[string]*operatorState, len(p.DestroyOperators))
	for _, name := range p.DestroyOperators {
		destroyState[name] = &operatorState{weight: 1}
	}
	repairState := make(map[string]*operatorState, len(p.RepairOperators))
	for _, name := range p.RepairOperators {
		repairState[name] = &operatorState{weight: 1}
	}

	s := s0
	best := s0.Clone()
	zCurrent := s.Evaluate(p.Weights)
	zStar := zCurrent

	temperature := p.startTemperature(zStar)
	minTemperature := p.minTemperature(zStar)

	seen := map[string]bool{best.Hash(): true}

	hist := &History{
		RunID:               runID,
		BestObjective:        make([]float64, 0, p.TotalIterations),
		FinalDestroyWeights:  make(map[string]float64),
		FinalRepairWeights:   make(map[string]float64),
	}

	var bests []*lrp.Solution
	var segAccepted, segSAAccepted, segRejected int

	for iter := 0; iter < p.TotalIterations; iter++ {
		destroyName := sampleOperator(rng, p.DestroyOperators, destroyState)
		repairName := sampleOperator(rng, p.RepairOperators, repairState)
		destroyState[destroyName].uses++
		repairState[repairName].uses++

		trial := s.Clone()
		eta := rng.Float64()
		q := p.destroySize(eta, trial.TotalCustomers())

		ctx := &Context{S: trial, Weights: p.Weights, RegretK: p.RegretK, NoiseFraction: p.NoiseFraction}

		if err := runOperatorSafely(destroyRegistry[destroyName], rng, q, ctx); err != nil {
			m.RecordRunEnd("error", time.Since(start))
			return bests, hist, err
		}
		trial.Preinsert()
		if err := runOperatorSafely2(repairRegistry[repairName], rng, ctx); err != nil {
			m.RecordRunEnd("error", time.Since(start))
			return bests, hist, err
		}
		trial.Postinsert()

		destroyFamily, destroyPolicy := splitOperatorName(destroyName)
		m.RecordIteration(runID, destroyFamily, destroyPolicy, q)

		zTrial := trial.Evaluate(p.Weights)
		hash := trial.Hash()

		switch {
		case zTrial < zStar:
			s, zCurrent = trial, zTrial
			best, zStar = trial.Clone(), zTrial
			destroyState[destroyName].score += p.ScoreNewBest
			repairState[repairName].score += p.ScoreNewBest
			seen[hash] = true
			hist.Accepted++
			segAccepted++
		case zTrial < zCurrent:
			s, zCurrent = trial, zTrial
			if !seen[hash] {
				destroyState[destroyName].score += p.ScoreImprovement
				repairState[repairName].score += p.ScoreImprovement
				seen[hash] = true
			}
			hist.Accepted++
			segAccepted++
		default:
			if rng.Float64() < math.Exp(-(zTrial-zCurrent)/temperature) {
				s, zCurrent = trial, zTrial
				if !seen[hash] {
					destroyState[destroyName].score += p.ScoreAcceptedWorse
					repairState[repairName].score += p.ScoreAcceptedWorse
					seen[hash] = true
				}
				hist.SAAccepted++
				segSAAccepted++
			} else {
				hist.Rejected++
				segRejected++
			}
		}

		temperature = math.Max(temperature*p.Cooling, minTemperature)
		hist.BestObjective = append(hist.BestObjective, zStar)
		bests = append(bests, best.Clone())

		if (iter+1)%p.SegmentSize == 0 {
			updateWeights(destroyState, p.ReactionFactor, p.WeightFloor)
			updateWeights(repairState, p.ReactionFactor, p.WeightFloor)
			rate := segmentAcceptRate(segAccepted, segSAAccepted, segRejected)
			m.RecordSegment(runID, zStar, temperature, rate, weightSnapshot(destroyState))
			logger.Info("alns segment boundary", "run_id", runID, "iteration", iter+1, "best", zStar, "temperature", temperature)
			segAccepted, segSAAccepted, segRejected = 0, 0, 0
		}

		if p.LocalSearchCadence > 0 && (iter+1)%p.LocalSearchCadence == 0 && len(p.LocalSearchOps) > 0 {
			improved := runLocalSearch(rng, p, s, p.Weights)
			hist.LocalSearchImprovements += improved
			if z := s.Evaluate(p.Weights); z < zStar {
				best, zStar = s.Clone(), z
				if len(hist.BestObjective) > 0 {
					hist.BestObjective[len(hist.BestObjective)-1] = zStar
				}
				if len(bests) > 0 {
					bests[len(bests)-1] = best.Clone()
				}
			}
		}
	}

	for name, st := range destroyState {
		hist.FinalDestroyWeights[name] = st.weight
	}
	for name, st := range repairState {
		hist.FinalRepairWeights[name] = st.weight
	}

	m.RecordRunEnd("completed", time.Since(start))
	logger.Info("alns run complete", "run_id", runID, "best", zStar, "iterations", p.TotalIterations)

	return bests, hist, nil
}

func runLocalSearch(rng *rand.Rand, p *Params, s *lrp.Solution, w lrp.Weights) int {
	ctx := &Context{S: s, Weights: w, RegretK: p.RegretK, NoiseFraction: p.NoiseFraction}
	total := 0
	for _, name := range p.LocalSearchOps {
		fn, ok := localSearchRegistry[name]
		if !ok {
			continue
		}
		total += fn(rng, ctx, p.LocalSearchBudget)
	}
	return total
}

// runOperatorSafely wraps a destroy call, converting the "unknown operator
// slipped past Validate" case into a ConfigError rather than a nil-map
// panic (can only happen if the registry changed between Validate and Run).
func runOperatorSafely(fn destroyFunc, rng *rand.Rand, q int, ctx *Context) error {
	if fn == nil {
		return apperror.New(apperror.CodeUnknownOperator, "destroy operator missing from registry")
	}
	fn(rng, q, ctx)
	return nil
}

func runOperatorSafely2(fn repairFunc, rng *rand.Rand, ctx *Context) error {
	if fn == nil {
		return apperror.New(apperror.CodeUnknownOperator, "repair operator missing from registry")
	}
	fn(rng, ctx)
	return nil
}

// sampleOperator draws an operator name with probability proportional to
// its current weight (§4.7 step 1).
func sampleOperator(rng *rand.Rand, names []string, state map[string]*operatorState) string {
	var total float64
	for _, name := range names {
		total += state[name].weight
	}
	r := rng.Float64() * total
	var acc float64
	for _, name := range names {
		acc += state[name].weight
		if r <= acc {
			return name
		}
	}
	return names[len(names)-1]
}

// updateWeights applies the segment-boundary update w <- ρ·π/c + (1-ρ)·w
// (§4.7 step 5), leaving unused operators' weights unchanged, and floors
// every weight so no operator becomes permanently unselectable (§9).
func updateWeights(state map[string]*operatorState, rho, floor float64) {
	for _, st := range state {
		if st.uses > 0 {
			st.weight = rho*(st.score/float64(st.uses)) + (1-rho)*st.weight
			if st.weight < floor {
				st.weight = floor
			}
		}
		st.score = 0
		st.uses = 0
	}
}

func weightSnapshot(state map[string]*operatorState) map[string]float64 {
	out := make(map[string]float64, len(state))
	for name, st := range state {
		out[name] = st.weight
	}
	return out
}

func segmentAcceptRate(accepted, saAccepted, rejected int) float64 {
	total := accepted + saAccepted + rejected
	if total == 0 {
		return 0
	}
	return float64(accepted+saAccepted) / float64(total)
}

// splitOperatorName splits a "family.policy" destroy identifier back into
// its two parts for metric labels; anything else (a repair identifier, or
// an operator name with no '.') reports as itself with an empty policy.
func splitOperatorName(name string) (family, policy string) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
