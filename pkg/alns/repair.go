package alns

import (
	"math/rand"
	"sort"

	"lrpalns/pkg/lrp"
)

// insertionPosition names one candidate slot a customer could be spliced
// into: after tail, before head, inside route r.
type insertionPosition struct {
	tail, head int
	route      *lrp.Route
}

// candidatePositions enumerates every insertion slot currently available,
// across every route of every vehicle of every depot: the two chain
// endpoints plus every adjacent pair along each route (§4.5).
func candidatePositions(s *lrp.Solution) []insertionPosition {
	var out []insertionPosition
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				if r.Count == 0 {
					out = append(out, insertionPosition{tail: -1, head: -1, route: r})
					continue
				}
				idx := r.FirstCustomer
				prev := -1
				for idx != -1 {
					out = append(out, insertionPosition{tail: prev, head: idx, route: r})
					prev = idx
					idx = s.Customers[idx].NextCustomer
				}
				out = append(out, insertionPosition{tail: prev, head: -1, route: r})
			}
		}
	}
	return out
}

// tryInsertion is the §4.5 "one-step try-and-undo": insert c at pos,
// evaluate f(s) with penalties on, then remove it back via the exact C1
// inverse, leaving s structurally unchanged.
func tryInsertion(s *lrp.Solution, cIdx int, pos insertionPosition, w lrp.Weights) float64 {
	s.InsertNode(cIdx, pos.tail, pos.head, pos.route)
	z := s.Evaluate(w)
	s.RemoveNode(cIdx)
	return z
}

func init() {
	registerRepair("best", func(rng *rand.Rand, ctx *Context) { repairBest(rng, ctx, 0) })
	registerRepair("best-perturbed", func(rng *rand.Rand, ctx *Context) { repairBest(rng, ctx, ctx.NoiseFraction) })
	registerRepair("greedy", func(rng *rand.Rand, ctx *Context) { repairGreedy(rng, ctx, 0) })
	registerRepair("greedy-perturbed", func(rng *rand.Rand, ctx *Context) { repairGreedy(rng, ctx, ctx.NoiseFraction) })
	registerRepair("regret2", func(rng *rand.Rand, ctx *Context) { repairRegretK(rng, ctx, 2, 0) })
	registerRepair("regret3", func(rng *rand.Rand, ctx *Context) { repairRegretK(rng, ctx, 3, 0) })
	registerRepair("regret2-perturbed", func(rng *rand.Rand, ctx *Context) { repairRegretK(rng, ctx, 2, ctx.NoiseFraction) })
	registerRepair("regret3-perturbed", func(rng *rand.Rand, ctx *Context) { repairRegretK(rng, ctx, 3, ctx.NoiseFraction) })
	registerRepair("regretk", func(rng *rand.Rand, ctx *Context) { repairRegretK(rng, ctx, ctx.RegretK, 0) })
}

// repairBest scans open customers in index order and, for each, inserts it
// at the position minimizing z, repeating until none remain open.
func repairBest(rng *rand.Rand, ctx *Context, noise float64) {
	s := ctx.S
	for {
		open := s.OpenCustomers()
		if len(open) == 0 {
			return
		}
		cIdx := open[0]
		positions := candidatePositions(s)
		if len(positions) == 0 {
			return
		}
		bestPos := positions[0]
		bestZ := perturb(rng, tryInsertion(s, cIdx, bestPos, ctx.Weights), noise)
		for _, pos := range positions[1:] {
			z := perturb(rng, tryInsertion(s, cIdx, pos, ctx.Weights), noise)
			if z < bestZ {
				bestPos, bestZ = pos, z
			}
		}
		s.InsertNode(cIdx, bestPos.tail, bestPos.head, bestPos.route)
	}
}

// repairGreedy considers every (open customer, position) pair each round
// and commits only the single globally minimizing pair before recomputing.
func repairGreedy(rng *rand.Rand, ctx *Context, noise float64) {
	s := ctx.S
	for {
		open := s.OpenCustomers()
		if len(open) == 0 {
			return
		}
		positions := candidatePositions(s)
		if len(positions) == 0 {
			return
		}

		bestCustomer := open[0]
		bestPos := positions[0]
		bestZ := perturb(rng, tryInsertion(s, bestCustomer, bestPos, ctx.Weights), noise)
		for _, cIdx := range open {
			for _, pos := range positions {
				if cIdx == bestCustomer && pos == bestPos {
					continue
				}
				z := perturb(rng, tryInsertion(s, cIdx, pos, ctx.Weights), noise)
				if z < bestZ {
					bestCustomer, bestPos, bestZ = cIdx, pos, z
				}
			}
		}
		s.InsertNode(bestCustomer, bestPos.tail, bestPos.head, bestPos.route)
	}
}

// repairRegretK computes, for each open customer, the cost of its k best
// insertion positions z1<=...<=zk and inserts the customer with maximum
// regret sum(zi-z1) at its best position, repeating until none remain open.
func repairRegretK(rng *rand.Rand, ctx *Context, k int, noise float64) {
	s := ctx.S
	if k < 1 {
		k = 1
	}
	for {
		open := s.OpenCustomers()
		if len(open) == 0 {
			return
		}
		positions := candidatePositions(s)
		if len(positions) == 0 {
			return
		}

		var bestCustomer int
		var bestPos insertionPosition
		bestRegret := -1.0
		haveBest := false

		for _, cIdx := range open {
			type scored struct {
				z   float64
				pos insertionPosition
			}
			scoredPos := make([]scored, 0, len(positions))
			for _, pos := range positions {
				z := perturb(rng, tryInsertion(s, cIdx, pos, ctx.Weights), noise)
				scoredPos = append(scoredPos, scored{z: z, pos: pos})
			}
			sort.Slice(scoredPos, func(i, j int) bool { return scoredPos[i].z < scoredPos[j].z })

			depth := k
			if depth > len(scoredPos) {
				depth = len(scoredPos)
			}
			var regret float64
			for i := 1; i < depth; i++ {
				regret += scoredPos[i].z - scoredPos[0].z
			}

			if !haveBest || regret > bestRegret {
				bestCustomer, bestPos, bestRegret, haveBest = cIdx, scoredPos[0].pos, regret, true
			}
		}

		s.InsertNode(bestCustomer, bestPos.tail, bestPos.head, bestPos.route)
	}
}
