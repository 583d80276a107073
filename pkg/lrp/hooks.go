package lrp

import "lrpalns/pkg/logger"

// CanAddRoute is the conservative add_route predicate of §4.1: a new empty
// route is addable iff the vehicle has spare route slots, none of its
// existing routes is empty (no point speculating a second empty route),
// its current trip finishes on time and within its depot's window, the
// depot still has spare capacity, and — the liberal half of an otherwise
// conservative predicate — the vehicle is either itself empty or already
// straining some constraint (an over-capacity route, or an over-capacity
// depot), i.e. there is actual pressure to create room.
func (s *Solution) CanAddRoute(v *Vehicle) bool {
	d := s.DepotOf(v)

	if len(v.Routes) >= v.MaxRoutes {
		return false
	}
	for _, r := range v.Routes {
		if !r.IsOperational() {
			return false
		}
	}
	if v.TimeEnd > d.WindowEnd {
		return false
	}
	if v.TimeEnd-v.TimeStart > v.MaxWorkingDuration {
		return false
	}
	if d.Load >= d.Capacity {
		return false
	}

	if v.Count == 0 {
		return true
	}
	if s.anyRouteOverCapacity(v) {
		return true
	}
	if d.Load > d.Capacity {
		return true
	}
	return false
}

func (s *Solution) anyRouteOverCapacity(v *Vehicle) bool {
	for _, r := range v.Routes {
		if r.Load > v.Capacity || r.Length > v.Range {
			return true
		}
	}
	return false
}

// vehicleIsTight reports whether a vehicle is straining its time or
// capacity bound, the liveness half of CanAddVehicle.
func (s *Solution) vehicleIsTight(v *Vehicle) bool {
	if v.Load >= v.Capacity {
		return true
	}
	if v.TimeEnd-v.TimeStart >= v.MaxWorkingDuration {
		return true
	}
	return s.anyRouteOverCapacity(v)
}

// CanAddVehicle is the add_vehicle predicate of §4.1: addable iff no empty
// vehicle of the same type already sits idle at the depot, the depot still
// has spare capacity, and at least one existing vehicle is tight enough
// that a new one is actually useful.
func (s *Solution) CanAddVehicle(d *DepotNode, typeIdx int) bool {
	if d.Load >= d.Capacity {
		return false
	}

	anyTight := false
	for _, v := range d.Vehicles {
		if v.TypeIdx == typeIdx && v.Count == 0 {
			return false
		}
		if s.vehicleIsTight(v) {
			anyTight = true
		}
	}
	return anyTight
}

// CanDeleteRoute is the liberal delete_route predicate: deletable iff
// non-operational.
func (s *Solution) CanDeleteRoute(r *Route) bool {
	return !r.IsOperational()
}

// CanDeleteVehicle is the liberal delete_vehicle predicate: deletable iff
// non-operational and at least one other identical-type vehicle remains at
// the depot.
func (s *Solution) CanDeleteVehicle(v *Vehicle) bool {
	if v.IsOperational() {
		return false
	}
	d := s.DepotOf(v)
	siblings := 0
	for _, other := range d.Vehicles {
		if other.TypeIdx == v.TypeIdx {
			siblings++
		}
	}
	return siblings > 1
}

// addRouteSlot appends a fresh empty route to v, inheriting tⁱ/θⁱ from the
// vehicle's previous route (or the depot's window start / an empty tank,
// θⁱ = 0, for the first route of a vehicle), and, when time tracking is
// enabled, running the degenerate forward pass so its TimeStart/TimeEnd
// are immediately consistent.
func (s *Solution) addRouteSlot(v *Vehicle) *Route {
	d := s.DepotOf(v)

	r := &Route{
		DepotIdx:      v.DepotIdx,
		VehicleIdx:    v.Index,
		Slot:          len(v.Routes),
		FirstCustomer: -1,
		LastCustomer:  -1,
	}
	if n := len(v.Routes); n > 0 {
		prev := v.Routes[n-1]
		r.TimeInitial = prev.TimeEnd
		r.FuelInitial = prev.FuelEnd
	} else {
		r.TimeInitial = d.WindowStart
		r.FuelInitial = 0
	}

	v.Routes = append(v.Routes, r)
	if s.TimeTrackingEnabled {
		s.propagateRouteForward(v, r)
		s.propagateVehicleBackward(v)
	}
	return r
}

// addVehicleSlot appends a fresh empty vehicle of the given type, cloning
// static parameters from an existing sibling of that type, plus its first
// empty route slot.
func (s *Solution) addVehicleSlot(d *DepotNode, typeIdx int) *Vehicle {
	var template *Vehicle
	for _, v := range d.Vehicles {
		if v.TypeIdx == typeIdx {
			template = v
			break
		}
	}
	if template == nil {
		return nil
	}

	v := &Vehicle{
		DepotIdx:           d.Index,
		Index:               len(d.Vehicles),
		TypeIdx:             typeIdx,
		Capacity:            template.Capacity,
		Range:               template.Range,
		Speed:               template.Speed,
		FuelTimePerUnit:     template.FuelTimePerUnit,
		LoadTimePerUnit:     template.LoadTimePerUnit,
		ServiceOverhead:     template.ServiceOverhead,
		MaxWorkingDuration:  template.MaxWorkingDuration,
		MaxRoutes:           template.MaxRoutes,
		CostPerDistance:     template.CostPerDistance,
		CostPerTime:         template.CostPerTime,
		CostFixed:           template.CostFixed,
	}
	d.Vehicles = append(d.Vehicles, v)
	s.addRouteSlot(v)
	return v
}

// AddRouteSlot appends a fresh empty route to v unconditionally, bypassing
// CanAddRoute. Initial-solution builders use this directly since they
// operate on an otherwise-empty Solution, where the speculative predicate
// (meant to bound mid-search route proliferation) has no role to play.
func (s *Solution) AddRouteSlot(v *Vehicle) *Route {
	return s.addRouteSlot(v)
}

// AddVehicleSlot appends a fresh empty vehicle of the given type to d
// unconditionally, bypassing CanAddVehicle, for the same construction-time
// reason as AddRouteSlot.
func (s *Solution) AddVehicleSlot(d *DepotNode, typeIdx int) *Vehicle {
	return s.addVehicleSlot(d, typeIdx)
}

// Preinsert walks every vehicle and speculatively appends a fresh empty
// route and/or a fresh empty vehicle wherever the add_* predicates permit
// it, giving insertion operators candidate slots to place customers into.
func (s *Solution) Preinsert() {
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			if s.CanAddRoute(v) {
				s.addRouteSlot(v)
			}
		}
		seenTypes := make(map[int]bool)
		for _, v := range d.Vehicles {
			if seenTypes[v.TypeIdx] {
				continue
			}
			seenTypes[v.TypeIdx] = true
			if s.CanAddVehicle(d, v.TypeIdx) {
				s.addVehicleSlot(d, v.TypeIdx)
			}
		}
	}
}

// Postinsert garbage-collects non-operational routes/vehicles created
// speculatively by Preinsert but never used, renumbers slot indices
// (VehicleIdx, Slot) to stay dense, and refreshes every closed customer's
// cached (RouteDepot, RouteVehicle, RouteSlot). It is idempotent: a second
// call performs no further deletions (§8 property 6).
func (s *Solution) Postinsert() {
	routesBefore, vehiclesBefore := s.routeVehicleCounts()

	for _, d := range s.Depots {
		keptVehicles := d.Vehicles[:0]
		for _, v := range d.Vehicles {
			keptRoutes := v.Routes[:0]
			for _, r := range v.Routes {
				if r.IsOperational() || !s.CanDeleteRoute(r) {
					keptRoutes = append(keptRoutes, r)
				}
			}
			v.Routes = keptRoutes
			for slot, r := range v.Routes {
				r.Slot = slot
			}

			if v.IsOperational() || !s.CanDeleteVehicle(v) {
				keptVehicles = append(keptVehicles, v)
			}
		}
		d.Vehicles = keptVehicles
		for idx, v := range d.Vehicles {
			v.Index = idx
			for _, r := range v.Routes {
				r.VehicleIdx = idx
			}
		}
	}
	s.refreshCustomerCaches()

	routesAfter, vehiclesAfter := s.routeVehicleCounts()
	if routesAfter != routesBefore || vehiclesAfter != vehiclesBefore {
		logger.Debug("postinsert garbage-collected speculative slots",
			"routes_before", routesBefore, "routes_after", routesAfter,
			"vehicles_before", vehiclesBefore, "vehicles_after", vehiclesAfter)
	}
}

func (s *Solution) routeVehicleCounts() (routes, vehicles int) {
	for _, d := range s.Depots {
		vehicles += len(d.Vehicles)
		for _, v := range d.Vehicles {
			routes += len(v.Routes)
		}
	}
	return routes, vehicles
}

// Preremove refreshes every closed customer's cached (RouteDepot,
// RouteVehicle, RouteSlot) without performing any garbage collection.
func (s *Solution) Preremove() {
	s.refreshCustomerCaches()
}

func (s *Solution) refreshCustomerCaches() {
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				idx := r.FirstCustomer
				for idx != -1 {
					c := s.Customers[idx]
					c.RouteDepot = r.DepotIdx
					c.RouteVehicle = r.VehicleIdx
					c.RouteSlot = r.Slot
					idx = c.NextCustomer
				}
			}
		}
	}
}
