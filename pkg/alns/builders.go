package alns

import (
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"lrpalns/pkg/apperror"
	"lrpalns/pkg/lrp"
)

// BuildMethod names an initial-solution construction method, per §6's
// `initial_solution(rng, instance, method)`.
type BuildMethod string

const (
	MethodClarkeWright    BuildMethod = "cw"
	MethodNearestNeighbor BuildMethod = "nn"
	MethodRandom          BuildMethod = "random"
	MethodRegret2         BuildMethod = "regret2"
	MethodRegret3         BuildMethod = "regret3"
	MethodCluster         BuildMethod = "cluster"
)

// Build fills in every open customer of s using the named method, running
// Preinsert/Postinsert around the construction the way every C6 repair
// operator does. It returns apperror.ErrInfeasibleInitial (unwrapped) if any
// customer remains open once the method has exhausted its moves.
func Build(rng *rand.Rand, s *lrp.Solution, method BuildMethod, w lrp.Weights) error {
	ctx := &Context{S: s, Weights: w, RegretK: 2, NoiseFraction: 0}
	s.Preinsert()

	switch method {
	case MethodRandom:
		buildRandom(rng, ctx)
	case MethodNearestNeighbor:
		buildNearestNeighbor(ctx)
	case MethodClarkeWright:
		buildClarkeWright(ctx)
	case MethodRegret2:
		repairRegretK(rng, ctx, 2, 0)
	case MethodRegret3:
		repairRegretK(rng, ctx, 3, 0)
	case MethodCluster:
		if err := buildCluster(ctx); err != nil {
			return err
		}
	default:
		return apperror.NewWithField(apperror.CodeUnknownOperator, "unknown initial-solution method", string(method))
	}

	s.Postinsert()

	if len(s.OpenCustomers()) > 0 {
		return apperror.ErrInfeasibleInitial
	}
	return nil
}

// buildRandom places customers in random order, each at a uniformly random
// available position, re-running Preinsert whenever no position exists.
func buildRandom(rng *rand.Rand, ctx *Context) {
	s := ctx.S
	order := rng.Perm(len(s.Customers))
	for _, cIdx := range order {
		if !s.Customers[cIdx].IsOpen() {
			continue
		}
		positions := candidatePositions(s)
		if len(positions) == 0 {
			s.Preinsert()
			positions = candidatePositions(s)
			if len(positions) == 0 {
				return
			}
		}
		pos := positions[rng.Intn(len(positions))]
		s.InsertNode(cIdx, pos.tail, pos.head, pos.route)
	}
}

// buildNearestNeighbor grows each vehicle's active route by always
// appending the nearest unplaced customer reachable from its current tail,
// moving to the next route/vehicle once none fits.
func buildNearestNeighbor(ctx *Context) {
	s := ctx.S
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				growRouteNearestNeighbor(s, r)
			}
		}
	}
}

func growRouteNearestNeighbor(s *lrp.Solution, r *lrp.Route) {
	tail := r.LastCustomer
	for {
		tailID := chainEndpointID(r, tail)
		var nearest int = -1
		var nearestDist float64
		for _, c := range s.Customers {
			if !c.IsOpen() {
				continue
			}
			dist := s.Distance(tailID, lrp.CustomerNodeID(c.Index))
			if nearest == -1 || dist < nearestDist {
				nearest, nearestDist = c.Index, dist
			}
		}
		if nearest == -1 {
			return
		}
		// Try-and-undo capacity/range check: insert and keep only if the
		// route stays within its vehicle's bounds.
		s.InsertNode(nearest, tail, -1, r)
		v := s.VehicleOf(r)
		if r.Load > v.Capacity || r.Length > v.Range {
			s.RemoveNode(nearest)
			return
		}
		tail = nearest
	}
}

func chainEndpointID(r *lrp.Route, idx int) lrp.NodeID {
	if idx == -1 {
		return lrp.DepotNodeID(r.DepotIdx)
	}
	return lrp.CustomerNodeID(idx)
}

// buildClarkeWright runs the classic savings construction: start every
// customer on its own route, then merge route pairs in descending savings
// order s(i,j) = d(depot,i) + d(depot,j) - d(i,j) whenever the merge keeps
// both vehicle capacity and range in bounds.
func buildClarkeWright(ctx *Context) {
	s := ctx.S
	v := firstVehicleWithSpareRoutes(s)
	if v == nil {
		return
	}
	d := s.DepotOf(v)

	type pair struct {
		i, j    int
		savings float64
	}
	open := s.OpenCustomers()
	var pairs []pair
	for _, i := range open {
		for _, j := range open {
			if i >= j {
				continue
			}
			di := s.Distance(lrp.DepotNodeID(d.Index), lrp.CustomerNodeID(i))
			dj := s.Distance(lrp.DepotNodeID(d.Index), lrp.CustomerNodeID(j))
			dij := s.Distance(lrp.CustomerNodeID(i), lrp.CustomerNodeID(j))
			pairs = append(pairs, pair{i: i, j: j, savings: di + dj - dij})
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].savings > pairs[b].savings })

	// Seed: give every open customer its own single-customer route.
	routeOf := make(map[int]*lrp.Route, len(open))
	for _, c := range open {
		r := ensureRoute(s, d)
		if r == nil {
			continue
		}
		s.InsertNode(c, -1, -1, r)
		routeOf[c] = r
	}

	for _, p := range pairs {
		ri, okI := routeOf[p.i]
		rj, okJ := routeOf[p.j]
		if !okI || !okJ || ri == rj {
			continue
		}
		if !canMergeAtEnds(s, ri, rj, p.i, p.j) {
			continue
		}
		mergeRoutes(s, ri, rj, p.i, p.j)
		for _, c := range routeChain(s, ri) {
			routeOf[c] = ri
		}
	}
}

func firstVehicleWithSpareRoutes(s *lrp.Solution) *lrp.Vehicle {
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			return v
		}
	}
	return nil
}

func ensureRoute(s *lrp.Solution, d *lrp.DepotNode) *lrp.Route {
	for _, v := range d.Vehicles {
		for _, r := range v.Routes {
			if r.Count == 0 {
				return r
			}
		}
		if len(v.Routes) < v.MaxRoutes {
			return s.AddRouteSlot(v)
		}
	}
	for _, v := range d.Vehicles {
		nv := s.AddVehicleSlot(d, v.TypeIdx)
		if nv != nil && len(nv.Routes) > 0 {
			return nv.Routes[0]
		}
	}
	return nil
}

// canMergeAtEnds reports whether i is the last customer of ri and j the
// first of rj (or vice versa) and the merged route respects its vehicle's
// capacity and range.
func canMergeAtEnds(s *lrp.Solution, ri, rj *lrp.Route, i, j int) bool {
	iAtEnd := ri.LastCustomer == i
	jAtStart := rj.FirstCustomer == j
	if !(iAtEnd && jAtStart) {
		return false
	}
	v := s.VehicleOf(ri)
	if ri.Load+rj.Load > v.Capacity {
		return false
	}
	merged := ri.Length + rj.Length - s.Distance(lrp.DepotNodeID(ri.DepotIdx), lrp.CustomerNodeID(j)) -
		s.Distance(lrp.CustomerNodeID(i), lrp.DepotNodeID(ri.DepotIdx)) + s.Distance(lrp.CustomerNodeID(i), lrp.CustomerNodeID(j))
	return merged <= v.Range
}

func mergeRoutes(s *lrp.Solution, ri, rj *lrp.Route, _, _ int) {
	tail := ri.LastCustomer
	chain := routeChain(s, rj)
	for _, c := range chain {
		s.RemoveNode(c)
	}
	for _, c := range chain {
		s.InsertNode(c, tail, -1, ri)
		tail = c
	}
}

// buildCluster assigns every open customer to its nearest depot (the
// read-only distance computation fanned out across an errgroup, one
// worker per open customer, merged back deterministically by customer index), then
// runs nearest-neighbor construction within each depot's assigned
// customers. Concurrency is confined entirely to this construction-time
// assignment pass, never the ALNS loop itself (§5, §11).
func buildCluster(ctx *Context) error {
	s := ctx.S
	open := s.OpenCustomers()
	if len(open) == 0 {
		return nil
	}

	assignment := make([]int, len(open)) // index into s.Depots, parallel to `open`
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, cIdx := range open {
		i, cIdx := i, cIdx
		g.Go(func() error {
			c := s.Customers[cIdx]
			best, bestDist := 0, -1.0
			for di, d := range s.Depots {
				dist := s.Distance(lrp.CustomerNodeID(c.Index), lrp.DepotNodeID(d.Index))
				if bestDist < 0 || dist < bestDist {
					best, bestDist = di, dist
				}
			}
			assignment[i] = best
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	byDepot := make(map[int][]int)
	for i, cIdx := range open {
		byDepot[assignment[i]] = append(byDepot[assignment[i]], cIdx)
	}

	for depotIdx, customers := range byDepot {
		d := s.Depots[depotIdx]
		assignClusterToDepot(s, d, customers)
	}
	return nil
}

func assignClusterToDepot(s *lrp.Solution, d *lrp.DepotNode, customers []int) {
	remaining := make(map[int]bool, len(customers))
	for _, c := range customers {
		remaining[c] = true
	}
	// order fixes the tie-break scan in growRouteNearestNeighborWithin to
	// customers' original (depot-assignment) order rather than Go's
	// randomized map iteration order, so equal-distance ties resolve the
	// same way given the same rng and input (§9).
	order := append([]int(nil), customers...)

	for _, v := range d.Vehicles {
		for _, r := range v.Routes {
			growRouteNearestNeighborWithin(s, r, remaining, order)
		}
	}
	for len(remaining) > 0 {
		r := ensureRoute(s, d)
		if r == nil {
			return
		}
		before := len(remaining)
		growRouteNearestNeighborWithin(s, r, remaining, order)
		if len(remaining) == before {
			return
		}
	}
}

func growRouteNearestNeighborWithin(s *lrp.Solution, r *lrp.Route, remaining map[int]bool, order []int) {
	tail := r.LastCustomer
	for {
		tailID := chainEndpointID(r, tail)
		nearest, nearestDist := -1, 0.0
		for _, cIdx := range order {
			if !remaining[cIdx] {
				continue
			}
			dist := s.Distance(tailID, lrp.CustomerNodeID(cIdx))
			if nearest == -1 || dist < nearestDist {
				nearest, nearestDist = cIdx, dist
			}
		}
		if nearest == -1 {
			return
		}
		s.InsertNode(nearest, tail, -1, r)
		v := s.VehicleOf(r)
		if r.Load > v.Capacity || r.Length > v.Range {
			s.RemoveNode(nearest)
			return
		}
		delete(remaining, nearest)
		tail = nearest
	}
}
