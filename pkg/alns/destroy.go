package alns

import (
	"math/rand"
	"sort"

	"lrpalns/pkg/lrp"
)

// Family is the destroy-operator family axis of §4.4.
type Family int

const (
	FamilyNode Family = iota
	FamilyRoute
	FamilyVehicle
	FamilyDepot
)

// Policy is the destroy-operator selection-policy axis of §4.4.
type Policy int

const (
	PolicyRandom Policy = iota
	PolicyRelated
	PolicyWorst
)

func (f Family) String() string {
	switch f {
	case FamilyNode:
		return "node"
	case FamilyRoute:
		return "route"
	case FamilyVehicle:
		return "vehicle"
	case FamilyDepot:
		return "depot"
	default:
		return "unknown"
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyRandom:
		return "random"
	case PolicyRelated:
		return "related"
	case PolicyWorst:
		return "worst"
	default:
		return "unknown"
	}
}

// OperatorName builds the registry identifier for a family×policy pair,
// e.g. "node.random", "depot.worst".
func OperatorName(f Family, p Policy) string {
	return f.String() + "." + p.String()
}

func init() {
	for _, f := range []Family{FamilyNode, FamilyRoute, FamilyVehicle, FamilyDepot} {
		for _, p := range []Policy{PolicyRandom, PolicyRelated, PolicyWorst} {
			f, p := f, p
			registerDestroy(OperatorName(f, p), func(rng *rand.Rand, q int, ctx *Context) {
				destroy(f, p, rng, q, ctx)
			})
		}
	}
}

// destroy dispatches to the family-specific removal loop. Every variant
// wraps the actual lrp.RemoveNode calls with Preremove, matching the
// LRP-style hook ordering named in §9 OQ1 (the scan runs before removal
// begins; there is no separate postremove hook in this lineage, so the
// caches Preremove refreshes stay correct as RemoveNode clears them
// directly on each removed customer).
func destroy(f Family, p Policy, rng *rand.Rand, q int, ctx *Context) {
	s := ctx.S
	s.Preremove()

	switch f {
	case FamilyNode:
		destroyNode(p, rng, q, ctx)
	case FamilyRoute:
		destroyRoute(p, rng, q, ctx)
	case FamilyVehicle:
		destroyVehicle(p, rng, q, ctx)
	case FamilyDepot:
		destroyDepot(p, rng, q, ctx)
	}
}

func closedCustomers(s *lrp.Solution) []*lrp.CustomerNode {
	var out []*lrp.CustomerNode
	for _, c := range s.Customers {
		if !c.IsOpen() {
			out = append(out, c)
		}
	}
	return out
}

func openCount(s *lrp.Solution) int {
	n := 0
	for _, c := range s.Customers {
		if c.IsOpen() {
			n++
		}
	}
	return n
}

// --- Node family ---

func destroyNode(p Policy, rng *rand.Rand, q int, ctx *Context) {
	s := ctx.S
	switch p {
	case PolicyRandom:
		for openCount(s) < q {
			pool := closedCustomers(s)
			if len(pool) == 0 {
				return
			}
			c := pool[rng.Intn(len(pool))]
			s.RemoveNode(c.Index)
		}
	case PolicyRelated:
		pool := closedCustomers(s)
		if len(pool) == 0 {
			return
		}
		pivot := pool[rng.Intn(len(pool))]
		for openCount(s) < q {
			pool = closedCustomers(s)
			if len(pool) == 0 {
				return
			}
			// The pivot's self-relatedness is +Inf, so it is removed first.
			best := pool[0]
			bestScore := s.CustomerRelatedness(pivot, best)
			for _, c := range pool[1:] {
				if sc := s.CustomerRelatedness(pivot, c); sc > bestScore {
					best, bestScore = c, sc
				}
			}
			s.RemoveNode(best.Index)
		}
	case PolicyWorst:
		// Restrict the scan to the route of the last-removed customer once
		// one has been removed, per §4.4's Node/worst cell.
		var restrictTo *lrp.Route
		for openCount(s) < q {
			var candidates []*lrp.CustomerNode
			if restrictTo != nil && restrictTo.IsOperational() {
				idx := restrictTo.FirstCustomer
				for idx != -1 {
					candidates = append(candidates, s.Customers[idx])
					idx = s.Customers[idx].NextCustomer
				}
			}
			if len(candidates) == 0 {
				candidates = closedCustomers(s)
			}
			if len(candidates) == 0 {
				return
			}

			base := s.Evaluate(ctx.Weights)
			var best *lrp.CustomerNode
			var bestSavings float64
			for _, c := range candidates {
				r := s.RouteOf(c)
				tail, head := c.PrevCustomer, c.NextCustomer
				s.RemoveNode(c.Index)
				savings := perturb(rng, base-s.Evaluate(ctx.Weights), ctx.NoiseFraction)
				s.InsertNode(c.Index, tail, head, r)
				if best == nil || savings > bestSavings {
					best, bestSavings = c, savings
				}
			}
			restrictTo = s.RouteOf(best)
			s.RemoveNode(best.Index)
		}
	}
}

// --- Route family ---

func operationalRoutes(s *lrp.Solution) []*lrp.Route {
	var out []*lrp.Route
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				if r.IsOperational() {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func emptyRoute(s *lrp.Solution, r *lrp.Route) {
	for r.IsOperational() {
		s.RemoveNode(r.FirstCustomer)
	}
}

func destroyRoute(p Policy, rng *rand.Rand, q int, ctx *Context) {
	s := ctx.S
	switch p {
	case PolicyRandom:
		for openCount(s) < q {
			routes := operationalRoutes(s)
			if len(routes) == 0 {
				return
			}
			emptyRoute(s, routes[rng.Intn(len(routes))])
		}
	case PolicyRelated:
		routes := operationalRoutes(s)
		if len(routes) == 0 {
			return
		}
		pivot := routes[rng.Intn(len(routes))]
		// The pivot ranks first (self-relatedness +Inf).
		ranked := append([]*lrp.Route(nil), routes...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return s.RouteRelatedness(pivot, ranked[i]) > s.RouteRelatedness(pivot, ranked[j])
		})
		for _, r := range ranked {
			if openCount(s) >= q {
				return
			}
			if r.IsOperational() {
				emptyRoute(s, r)
			}
		}
	case PolicyWorst:
		for openCount(s) < q {
			routes := operationalRoutes(s)
			if len(routes) == 0 {
				return
			}
			worst := routes[0]
			worstUtil := routeUtilization(s, worst)
			for _, r := range routes[1:] {
				if u := routeUtilization(s, r); u < worstUtil {
					worst, worstUtil = r, u
				}
			}
			emptyRoute(s, worst)
		}
	}
}

func routeUtilization(s *lrp.Solution, r *lrp.Route) float64 {
	v := s.VehicleOf(r)
	if v.Capacity == 0 {
		return 0
	}
	return r.Load / v.Capacity
}

// --- Vehicle family ---

func operationalVehicles(s *lrp.Solution) []*lrp.Vehicle {
	var out []*lrp.Vehicle
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			if v.IsOperational() {
				out = append(out, v)
			}
		}
	}
	return out
}

func emptyVehicle(s *lrp.Solution, v *lrp.Vehicle) {
	for _, r := range v.Routes {
		emptyRoute(s, r)
	}
}

func destroyVehicle(p Policy, rng *rand.Rand, q int, ctx *Context) {
	s := ctx.S
	switch p {
	case PolicyRandom:
		for openCount(s) < q {
			vehicles := operationalVehicles(s)
			if len(vehicles) == 0 {
				return
			}
			emptyVehicle(s, vehicles[rng.Intn(len(vehicles))])
		}
	case PolicyRelated:
		vehicles := operationalVehicles(s)
		if len(vehicles) == 0 {
			return
		}
		pivot := vehicles[rng.Intn(len(vehicles))]
		// The pivot ranks first (self-relatedness +Inf).
		ranked := append([]*lrp.Vehicle(nil), vehicles...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return s.VehicleRelatedness(pivot, ranked[i]) > s.VehicleRelatedness(pivot, ranked[j])
		})
		for _, v := range ranked {
			if openCount(s) >= q {
				return
			}
			if v.IsOperational() {
				emptyVehicle(s, v)
			}
		}
	case PolicyWorst:
		for openCount(s) < q {
			vehicles := operationalVehicles(s)
			if len(vehicles) == 0 {
				return
			}
			worst := vehicles[0]
			worstUtil := vehicleUtilization(worst)
			for _, v := range vehicles[1:] {
				if u := vehicleUtilization(v); u < worstUtil {
					worst, worstUtil = v, u
				}
			}
			emptyVehicle(s, worst)
		}
	}
}

func vehicleUtilization(v *lrp.Vehicle) float64 {
	denom := float64(len(v.Routes)) * v.Capacity
	if denom == 0 {
		return 0
	}
	return v.Load / denom
}

// --- Depot family ---

func operationalDepots(s *lrp.Solution) []*lrp.DepotNode {
	var out []*lrp.DepotNode
	for _, d := range s.Depots {
		if d.IsOperational() {
			out = append(out, d)
		}
	}
	return out
}

func emptyDepot(s *lrp.Solution, d *lrp.DepotNode) {
	for _, v := range d.Vehicles {
		emptyVehicle(s, v)
	}
}

func destroyDepot(p Policy, rng *rand.Rand, q int, ctx *Context) {
	s := ctx.S
	switch p {
	case PolicyRandom:
		for openCount(s) < q {
			depots := operationalDepots(s)
			if len(depots) == 0 {
				return
			}
			emptyDepot(s, depots[rng.Intn(len(depots))])
		}
	case PolicyRelated:
		var closed []*lrp.DepotNode
		for _, d := range s.Depots {
			if !d.IsOperational() {
				closed = append(closed, d)
			}
		}
		if len(closed) == 0 {
			return
		}
		pivot := closed[rng.Intn(len(closed))]
		for openCount(s) < q {
			var best *lrp.CustomerNode
			var bestScore float64
			for _, c := range closedCustomers(s) {
				if sc := s.CustomerDepotRelatedness(c, pivot); best == nil || sc > bestScore {
					best, bestScore = c, sc
				}
			}
			if best == nil {
				return
			}
			s.RemoveNode(best.Index)
		}
	case PolicyWorst:
		for openCount(s) < q {
			depots := operationalDepots(s)
			if len(depots) == 0 {
				return
			}
			worst := depots[0]
			worstUtil := depotUtilization(worst)
			for _, d := range depots[1:] {
				if u := depotUtilization(d); u < worstUtil {
					worst, worstUtil = d, u
				}
			}
			emptyDepot(s, worst)
		}
	}
}

func depotUtilization(d *lrp.DepotNode) float64 {
	if d.Capacity == 0 {
		return 0
	}
	return d.Load / d.Capacity
}
