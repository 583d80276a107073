package lrp

import "math"

// chainEndpoint returns the NodeID of a linked-list neighbor: a customer
// index, or the owning route's depot when idx is -1.
func chainEndpoint(r *Route, idx int) NodeID {
	if idx == -1 {
		return DepotNodeID(r.DepotIdx)
	}
	return CustomerNodeID(idx)
}

// InsertNode splices customer c between existing tail and head (either of
// which may be -1, meaning the depot endpoint of r) and brings every cached
// aggregate — centroid, load, length, and (if enabled) times/fuel — back
// into a consistent state. tail/head must genuinely flank the insertion
// point; callers are responsible for that ordering.
func (s *Solution) InsertNode(cIdx, tail, head int, r *Route) {
	c := s.Customers[cIdx]
	v := s.VehicleOf(r)
	d := s.DepotOf(v)

	tailID := chainEndpoint(r, tail)
	headID := chainEndpoint(r, head)
	cID := CustomerNodeID(cIdx)

	delta := s.Distance(tailID, cID) + s.Distance(cID, headID) - s.Distance(tailID, headID)

	// (i) splice pointers
	if tail == -1 {
		r.FirstCustomer = cIdx
	} else {
		s.Customers[tail].NextCustomer = cIdx
	}
	if head == -1 {
		r.LastCustomer = cIdx
	} else {
		s.Customers[head].PrevCustomer = cIdx
	}
	c.PrevCustomer = tail
	c.NextCustomer = head

	// (ii) centroid, running mean
	n := r.Count
	r.CentroidX = (r.CentroidX*float64(n) + c.X) / float64(n+1)
	r.CentroidY = (r.CentroidY*float64(n) + c.Y) / float64(n+1)

	// (iii) counts and loads
	r.Count++
	r.Load += c.Demand
	v.Count++
	v.Load += c.Demand
	d.Count++
	d.Load += c.Demand

	// (iv) length
	r.Length += delta
	v.Len += delta
	d.Len += delta

	c.RouteDepot = r.DepotIdx
	c.RouteVehicle = r.VehicleIdx
	c.RouteSlot = r.Slot

	if s.TimeTrackingEnabled {
		s.propagateTimes(v, r)
	} else {
		c.ArrivalTime = 0
		c.DepartureTime = 0
	}
}

// RemoveNode is the exact inverse of InsertNode: it unsplices c from its
// current route, reverses the centroid running mean (with n==1 handled as
// a reset to the origin), subtracts from every cached aggregate, opens the
// customer, and re-runs the same time/fuel propagation.
func (s *Solution) RemoveNode(cIdx int) {
	c := s.Customers[cIdx]
	r := s.RouteOf(c)
	v := s.VehicleOf(r)
	d := s.DepotOf(v)

	tail, head := c.PrevCustomer, c.NextCustomer
	tailID := chainEndpoint(r, tail)
	headID := chainEndpoint(r, head)
	cID := CustomerNodeID(cIdx)

	delta := s.Distance(tailID, cID) + s.Distance(cID, headID) - s.Distance(tailID, headID)

	if tail == -1 {
		r.FirstCustomer = head
	} else {
		s.Customers[tail].NextCustomer = head
	}
	if head == -1 {
		r.LastCustomer = tail
	} else {
		s.Customers[head].PrevCustomer = tail
	}

	n := r.Count
	if n == 1 {
		r.CentroidX, r.CentroidY = 0, 0
	} else {
		r.CentroidX = (r.CentroidX*float64(n) - c.X) / float64(n-1)
		r.CentroidY = (r.CentroidY*float64(n) - c.Y) / float64(n-1)
	}

	r.Count--
	r.Load -= c.Demand
	v.Count--
	v.Load -= c.Demand
	d.Count--
	d.Load -= c.Demand

	r.Length -= delta
	v.Len -= delta
	d.Len -= delta

	c.RouteDepot = NullRouteIdx
	c.RouteVehicle = NullRouteIdx
	c.RouteSlot = NullRouteIdx
	c.PrevCustomer = -1
	c.NextCustomer = -1
	c.ArrivalTime = math.Inf(1)
	c.DepartureTime = math.Inf(1)

	if s.TimeTrackingEnabled {
		s.propagateTimes(v, r)
	}
}

// propagateTimes re-runs the §4.1 forward/backward time and fuel pass over
// every route of v whose TimeInitial is at or after r.TimeInitial, then
// recomputes the vehicle-level window and slack.
func (s *Solution) propagateTimes(v *Vehicle, from *Route) {
	for i, route := range v.Routes {
		if i > 0 {
			prev := v.Routes[i-1]
			route.TimeInitial, route.FuelInitial = prev.TimeEnd, prev.FuelEnd
		}
		if route.TimeInitial < from.TimeInitial {
			continue
		}
		s.propagateRouteForward(v, route)
	}
	s.propagateVehicleBackward(v)
}

// propagateRouteForward applies the forward time/fuel model of §4.1 to a
// single route, given its already-settled TimeInitial/FuelInitial (set by
// the previous route in the vehicle's sequence, or by the caller for the
// first route).
func (s *Solution) propagateRouteForward(v *Vehicle, r *Route) {
	if !r.IsOperational() {
		// Empty routes receive degenerate times equal to their inherited
		// tⁱ/θⁱ.
		r.TimeStart, r.TimeEnd = r.TimeInitial, r.TimeInitial
		r.FuelStart, r.FuelEnd = r.FuelInitial, r.FuelInitial
		return
	}

	r.FuelStart = r.FuelInitial + math.Max(0, r.Length/v.Range-r.FuelInitial)
	r.TimeStart = r.TimeInitial + v.FuelTimePerUnit*(r.FuelStart-r.FuelInitial) + v.LoadTimePerUnit*r.Load

	prevID := DepotNodeID(r.DepotIdx)
	prevDeparture := r.TimeStart
	idx := r.FirstCustomer
	for idx != -1 {
		c := s.Customers[idx]
		cID := CustomerNodeID(idx)
		c.ArrivalTime = prevDeparture + s.Distance(prevID, cID)/v.Speed
		c.DepartureTime = c.ArrivalTime + v.ServiceOverhead +
			math.Max(0, c.WindowEarly-c.ArrivalTime-v.ServiceOverhead) + c.ServiceTime

		prevID = cID
		prevDeparture = c.DepartureTime
		idx = c.NextCustomer
	}

	r.FuelEnd = r.FuelStart - r.Length/v.Range
	r.TimeEnd = prevDeparture + s.Distance(prevID, DepotNodeID(r.DepotIdx))/v.Speed
}

// propagateVehicleBackward computes the vehicle-level time window and
// slack: the largest uniform delay addable to the vehicle's start without
// violating any time window, bounded above by the depot's own window end.
func (s *Solution) propagateVehicleBackward(v *Vehicle) {
	if len(v.Routes) == 0 {
		return
	}
	v.TimeStart = v.Routes[0].TimeStart
	v.TimeEnd = v.Routes[len(v.Routes)-1].TimeEnd

	d := s.DepotOf(v)
	slack := d.WindowEnd - v.TimeEnd
	for _, r := range v.Routes {
		idx := r.FirstCustomer
		for idx != -1 {
			c := s.Customers[idx]
			margin := c.WindowLate - c.ArrivalTime - v.ServiceOverhead
			if margin < slack {
				slack = margin
			}
			idx = c.NextCustomer
		}
	}
	v.Slack = slack
}
