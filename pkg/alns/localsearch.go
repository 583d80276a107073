package alns

import (
	"math/rand"

	"lrpalns/pkg/lrp"
)

func init() {
	registerLocalSearch("move", lsMove)
	registerLocalSearch("intra-opt", lsIntraOpt)
	registerLocalSearch("inter-opt", lsInterOpt)
	registerLocalSearch("split", lsSplit)
	registerLocalSearch("swap-customers", lsSwapCustomers)
	registerLocalSearch("swap-depots", lsSwapDepots)
}

// lsMove tries budget times: pick a random closed customer, relocate it to
// a random candidate position, keep the move iff it strictly improves f.
func lsMove(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		closed := closedCustomers(s)
		if len(closed) == 0 {
			return improved
		}
		c := closed[rng.Intn(len(closed))]
		origTail, origHead, origRoute := c.PrevCustomer, c.NextCustomer, s.RouteOf(c)

		before := s.Evaluate(ctx.Weights)
		s.RemoveNode(c.Index)

		positions := candidatePositions(s)
		if len(positions) == 0 {
			s.InsertNode(c.Index, origTail, origHead, origRoute)
			continue
		}
		pos := positions[rng.Intn(len(positions))]
		s.InsertNode(c.Index, pos.tail, pos.head, pos.route)

		after := s.Evaluate(ctx.Weights)
		if after < before {
			improved++
			continue
		}
		s.RemoveNode(c.Index)
		s.InsertNode(c.Index, origTail, origHead, origRoute)
	}
	return improved
}

// routeChain returns the ordered customer indices of a route.
func routeChain(s *lrp.Solution, r *lrp.Route) []int {
	var out []int
	idx := r.FirstCustomer
	for idx != -1 {
		out = append(out, idx)
		idx = s.Customers[idx].NextCustomer
	}
	return out
}

// rebuildRoute empties r and reinserts customers (in order) back into it.
func rebuildRoute(s *lrp.Solution, r *lrp.Route, customers []int) {
	for r.IsOperational() {
		s.RemoveNode(r.FirstCustomer)
	}
	tail := -1
	for _, cIdx := range customers {
		s.InsertNode(cIdx, tail, -1, r)
		tail = cIdx
	}
}

// lsIntraOpt is 2-opt within a single route: reverse a subsegment of the
// chain, keep iff strictly improving.
func lsIntraOpt(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		routes := operationalRoutes(s)
		if len(routes) == 0 {
			return improved
		}
		r := routes[rng.Intn(len(routes))]
		chain := routeChain(s, r)
		if len(chain) < 2 {
			continue
		}
		a := rng.Intn(len(chain))
		b := rng.Intn(len(chain))
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}

		before := s.Evaluate(ctx.Weights)
		reversed := append([]int(nil), chain...)
		reverseSegment(reversed, a, b)
		rebuildRoute(s, r, reversed)

		after := s.Evaluate(ctx.Weights)
		if after < before {
			improved++
			continue
		}
		rebuildRoute(s, r, chain)
	}
	return improved
}

func reverseSegment(seq []int, a, b int) {
	for a < b {
		seq[a], seq[b] = seq[b], seq[a]
		a++
		b--
	}
}

// lsInterOpt is 2-opt across two distinct routes: swap the tail segments
// after a cut point in each.
func lsInterOpt(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		routes := operationalRoutes(s)
		if len(routes) < 2 {
			return improved
		}
		r1 := routes[rng.Intn(len(routes))]
		r2 := routes[rng.Intn(len(routes))]
		if r1 == r2 {
			continue
		}
		chain1, chain2 := routeChain(s, r1), routeChain(s, r2)
		cut1 := rng.Intn(len(chain1) + 1)
		cut2 := rng.Intn(len(chain2) + 1)

		before := s.Evaluate(ctx.Weights)

		newChain1 := append(append([]int(nil), chain1[:cut1]...), chain2[cut2:]...)
		newChain2 := append(append([]int(nil), chain2[:cut2]...), chain1[cut1:]...)
		rebuildRoute(s, r1, newChain1)
		rebuildRoute(s, r2, newChain2)

		after := s.Evaluate(ctx.Weights)
		if after < before {
			improved++
			continue
		}
		rebuildRoute(s, r1, chain1)
		rebuildRoute(s, r2, chain2)
	}
	return improved
}

// lsSplit closes a random operational route and redistributes its
// customers via greedy insertion elsewhere, keeping the change only if it
// strictly improves f.
func lsSplit(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		routes := operationalRoutes(s)
		if len(routes) == 0 {
			return improved
		}
		r := routes[rng.Intn(len(routes))]
		chain := routeChain(s, r)
		if len(chain) == 0 {
			continue
		}

		before := s.Evaluate(ctx.Weights)
		for _, cIdx := range chain {
			s.RemoveNode(cIdx)
		}
		s.Preinsert()
		repairGreedy(rng, ctx, 0)

		after := s.Evaluate(ctx.Weights)
		if after < before {
			// Only now is it safe to let Postinsert garbage-collect emptied
			// route/vehicle slots: the move is committed.
			s.Postinsert()
			improved++
			continue
		}
		// Revert before any GC pass touches r: remove whatever the greedy
		// repair placed them at and put the segment back exactly where it
		// was, then run Postinsert to clean up any speculative slots
		// Preinsert added along the way.
		for _, cIdx := range chain {
			s.RemoveNode(cIdx)
		}
		rebuildRoute(s, r, chain)
		s.Postinsert()
	}
	return improved
}

// lsSwapCustomers exchanges the positions of two closed customers
// (possibly in different routes), keeping the swap iff strictly improving.
func lsSwapCustomers(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		closed := closedCustomers(s)
		if len(closed) < 2 {
			return improved
		}
		c1 := closed[rng.Intn(len(closed))]
		c2 := closed[rng.Intn(len(closed))]
		if c1.Index == c2.Index {
			continue
		}

		before := s.Evaluate(ctx.Weights)

		t1, h1, r1 := c1.PrevCustomer, c1.NextCustomer, s.RouteOf(c1)
		t2, h2, r2 := c2.PrevCustomer, c2.NextCustomer, s.RouteOf(c2)

		s.RemoveNode(c1.Index)
		s.RemoveNode(c2.Index)
		placeSwap(s, c1.Index, c2.Index, t1, h1, r1, t2, h2, r2)

		after := s.Evaluate(ctx.Weights)
		if after < before {
			improved++
			continue
		}
		// Swapping the two customers again from their current anchors
		// restores the pre-swap layout.
		t1, h1, r1 = c1.PrevCustomer, c1.NextCustomer, s.RouteOf(c1)
		t2, h2, r2 = c2.PrevCustomer, c2.NextCustomer, s.RouteOf(c2)
		s.RemoveNode(c1.Index)
		s.RemoveNode(c2.Index)
		placeSwap(s, c1.Index, c2.Index, t1, h1, r1, t2, h2, r2)
	}
	return improved
}

// placeSwap inserts c1 where c2 used to sit and c2 where c1 used to sit.
// When the two were adjacent, the first insertion uses the outer anchors
// and the second is anchored on the customer just inserted, so every
// insertion sits between two nodes already in the chain.
func placeSwap(s *lrp.Solution, c1, c2, t1, h1 int, r1 *lrp.Route, t2, h2 int, r2 *lrp.Route) {
	switch {
	case h1 == c2: // t1, c1, c2, h2 becomes t1, c2, c1, h2
		s.InsertNode(c2, t1, h2, r1)
		s.InsertNode(c1, c2, h2, r2)
	case h2 == c1: // t2, c2, c1, h1 becomes t2, c1, c2, h1
		s.InsertNode(c1, t2, h1, r2)
		s.InsertNode(c2, c1, h1, r1)
	default:
		s.InsertNode(c1, t2, h2, r2)
		s.InsertNode(c2, t1, h1, r1)
	}
}

// lsSwapDepots relocates every customer served from one depot to another,
// effectively closing the source depot and opening the target, keeping the
// change only if it strictly improves f.
func lsSwapDepots(rng *rand.Rand, ctx *Context, budget int) int {
	s := ctx.S
	improved := 0
	for i := 0; i < budget; i++ {
		depots := operationalDepots(s)
		if len(depots) == 0 || len(s.Depots) < 2 {
			return improved
		}
		src := depots[rng.Intn(len(depots))]
		var target *lrp.DepotNode
		for _, d := range s.Depots {
			if d.Index != src.Index {
				target = d
				break
			}
		}
		if target == nil {
			continue
		}

		var moved []int
		for _, v := range src.Vehicles {
			moved = append(moved, routeChainsOf(s, v)...)
		}
		if len(moved) == 0 {
			continue
		}

		before := s.Evaluate(ctx.Weights)
		originals := snapshotPositions(s, moved)

		for _, cIdx := range moved {
			s.RemoveNode(cIdx)
		}
		s.Preinsert()
		for _, cIdx := range moved {
			placeAtDepotGreedy(s, cIdx, target, ctx)
		}

		after := s.Evaluate(ctx.Weights)
		if after < before {
			// Only now is it safe to let Postinsert garbage-collect the
			// emptied source depot's slots: the move is committed.
			s.Postinsert()
			improved++
			continue
		}
		// Revert before any GC pass touches the source routes: restorePositions
		// needs every originals[i].route to still belong to its vehicle.
		for _, cIdx := range moved {
			s.RemoveNode(cIdx)
		}
		restorePositions(s, originals)
		s.Postinsert()
	}
	return improved
}

func routeChainsOf(s *lrp.Solution, v *lrp.Vehicle) []int {
	var out []int
	for _, r := range v.Routes {
		out = append(out, routeChain(s, r)...)
	}
	return out
}

type savedPosition struct {
	idx, tail, head int
	route           *lrp.Route
}

func snapshotPositions(s *lrp.Solution, customers []int) []savedPosition {
	out := make([]savedPosition, len(customers))
	for i, cIdx := range customers {
		c := s.Customers[cIdx]
		out[i] = savedPosition{idx: cIdx, tail: c.PrevCustomer, head: c.NextCustomer, route: s.RouteOf(c)}
	}
	return out
}

// restorePositions reinserts saved customers in chain order, each right
// after its saved tail, which is already back in place by then.
func restorePositions(s *lrp.Solution, saved []savedPosition) {
	for _, sp := range saved {
		head := sp.route.FirstCustomer
		if sp.tail != -1 {
			head = s.Customers[sp.tail].NextCustomer
		}
		s.InsertNode(sp.idx, sp.tail, head, sp.route)
	}
}

// placeAtDepotGreedy inserts cIdx at the cheapest available position
// restricted to routes owned by target.
func placeAtDepotGreedy(s *lrp.Solution, cIdx int, target *lrp.DepotNode, ctx *Context) {
	var best *insertionPosition
	var bestZ float64
	for _, v := range target.Vehicles {
		for _, r := range v.Routes {
			for _, pos := range positionsInRoute(s, r) {
				z := tryInsertion(s, cIdx, pos, ctx.Weights)
				if best == nil || z < bestZ {
					p := pos
					best, bestZ = &p, z
				}
			}
		}
	}
	if best == nil {
		return
	}
	s.InsertNode(cIdx, best.tail, best.head, best.route)
}

func positionsInRoute(s *lrp.Solution, r *lrp.Route) []insertionPosition {
	if r.Count == 0 {
		return []insertionPosition{{tail: -1, head: -1, route: r}}
	}
	var out []insertionPosition
	idx := r.FirstCustomer
	prev := -1
	for idx != -1 {
		out = append(out, insertionPosition{tail: prev, head: idx, route: r})
		prev = idx
		idx = s.Customers[idx].NextCustomer
	}
	out = append(out, insertionPosition{tail: prev, head: -1, route: r})
	return out
}
