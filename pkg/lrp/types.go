// Package lrp implements the Location Routing Problem solution data model:
// the arena-indexed graph of depots, vehicles, routes, and customers, its
// O(1) insert/remove mutators, the weighted objective evaluator, and the
// relatedness metrics consumed by the destroy operators in package alns.
package lrp

import "math"

// NullRouteIdx is the sentinel slot value identifying an open customer, one
// that currently belongs to no route. A customer is open iff its RouteDepot
// field equals NullRouteIdx.
const NullRouteIdx = -1

// NodeKind discriminates the two namespaces an Arc endpoint can belong to.
type NodeKind uint8

const (
	NodeKindDepot NodeKind = iota
	NodeKindCustomer
)

// NodeID identifies an endpoint of an Arc: either a depot or a customer,
// by its position in Solution.Depots / Solution.Customers.
type NodeID struct {
	Kind  NodeKind
	Index int
}

// ArcKey is the ordered-pair key of the dense arc length mapping.
type ArcKey struct {
	From NodeID
	To   NodeID
}

// CustomerNode is a single delivery request. Identity (its position in
// Solution.Customers) never changes; only the route it is assigned to does.
type CustomerNode struct {
	Index int // iⁿ, stable for the lifetime of the Solution

	X, Y          float64
	Demand        float64
	ServiceTime   float64
	WindowEarly   float64
	WindowLate    float64

	// Cached, live fields — valid only while the customer is closed
	// (RouteDepot != NullRouteIdx).
	RouteDepot   int // iᵈ of the owning route, or NullRouteIdx if open
	RouteVehicle int // iᵛ of the owning route
	RouteSlot    int // iʳ of the owning route

	PrevCustomer int // index into Solution.Customers, or -1 for "depot"
	NextCustomer int // index into Solution.Customers, or -1 for "depot"

	ArrivalTime   float64 // tᵃ
	DepartureTime float64 // tᵈ
}

// IsOpen reports whether the customer currently belongs to no route.
func (c *CustomerNode) IsOpen() bool {
	return c.RouteDepot == NullRouteIdx
}

// Route is one vehicle trip: depot → chain of customers → depot.
// Identity is the triple (DepotIdx, VehicleIdx, Slot).
type Route struct {
	DepotIdx   int // iᵈ
	VehicleIdx int // iᵛ
	Slot       int // iʳ

	FirstCustomer int // iˢ, -1 if empty
	LastCustomer  int // iᵉ, -1 if empty

	Load   float64 // q
	Length float64 // l
	Count  int     // n

	CentroidX, CentroidY float64

	TimeInitial, TimeStart, TimeEnd    float64 // tⁱ, tˢ, tᵉ
	FuelInitial, FuelStart, FuelEnd    float64 // θⁱ, θˢ, θᵉ
	Slack                              float64 // τ
}

// IsOperational reports whether the route currently serves at least one
// customer.
func (r *Route) IsOperational() bool {
	return r.Count > 0
}

// Vehicle owns an ordered list of route slots at a single depot.
type Vehicle struct {
	DepotIdx int // iᵈ
	Index    int // iᵛ
	TypeIdx  int // jᵛ

	Capacity float64 // qᵛ
	Range    float64 // lᵛ
	Speed    float64 // sᵛ

	FuelTimePerUnit    float64 // τᶠ
	LoadTimePerUnit    float64 // τᵈ
	ServiceOverhead    float64 // τᶜ
	MaxWorkingDuration float64 // τʷ
	MaxRoutes          int     // r̅

	Routes []*Route // ordered by Slot

	Count int     // n
	Load  float64 // q
	Len   float64 // l

	TimeStart, TimeEnd float64 // tˢ, tᵉ
	Slack              float64 // τ

	CostPerDistance float64 // πᵈ
	CostPerTime     float64 // πᵗ
	CostFixed       float64 // πᶠ
}

// IsOperational reports whether the vehicle is currently serving any
// customer across any of its routes.
func (v *Vehicle) IsOperational() bool {
	return v.Count > 0
}

// DepotNode is a candidate depot with its own fleet of vehicles.
type DepotNode struct {
	Index int // iⁿ

	X, Y float64

	Capacity float64 // qᵈ

	CostOperational float64 // πᵒ
	CostFixed       float64 // πᶠ
	Mandatory       bool    // φ

	ShareLow, ShareHigh float64 // pˡ, pᵘ
	WindowStart, WindowEnd float64 // tˢ, tᵉ

	Vehicles []*Vehicle // ordered by Index

	Count int     // n
	Load  float64 // q
	Len   float64 // l
	Slack float64 // τ
}

// IsOperational reports whether the depot currently serves any customer
// across any of its vehicles.
func (d *DepotNode) IsOperational() bool {
	return d.Count > 0
}

// Solution is the complete, mutable LRP state: depots (which own vehicles,
// which own routes), the customer arena, and the arc length table. All
// mutation goes through InsertNode/RemoveNode so cached aggregates never
// drift from the structure they summarize.
type Solution struct {
	Depots    []*DepotNode
	Customers []*CustomerNode
	Arcs      map[ArcKey]float64

	// TimeTrackingEnabled toggles the §4.1 time/fuel propagation pass.
	// Per §9 this replaces the source's process-wide mutable flag with an
	// explicit per-run field.
	TimeTrackingEnabled bool
}

// Distance returns the arc length between two nodes. Arcs are undirected
// in practice (symmetric instances) but stored by ordered pair, matching
// the dense mapping described in §3.
func (s *Solution) Distance(a, b NodeID) float64 {
	if a == b {
		return 0
	}
	if l, ok := s.Arcs[ArcKey{From: a, To: b}]; ok {
		return l
	}
	if l, ok := s.Arcs[ArcKey{From: b, To: a}]; ok {
		return l
	}
	return math.Inf(1)
}

// CustomerNodeID returns the NodeID for a customer by index.
func CustomerNodeID(idx int) NodeID { return NodeID{Kind: NodeKindCustomer, Index: idx} }

// DepotNodeID returns the NodeID for a depot by index.
func DepotNodeID(idx int) NodeID { return NodeID{Kind: NodeKindDepot, Index: idx} }

// Route looks up a route by identity, or nil if the slot does not exist.
func (s *Solution) Route(depotIdx, vehicleIdx, slot int) *Route {
	if depotIdx < 0 || depotIdx >= len(s.Depots) {
		return nil
	}
	d := s.Depots[depotIdx]
	if vehicleIdx < 0 || vehicleIdx >= len(d.Vehicles) {
		return nil
	}
	v := d.Vehicles[vehicleIdx]
	if slot < 0 || slot >= len(v.Routes) {
		return nil
	}
	return v.Routes[slot]
}

// RouteOf returns the route a closed customer belongs to, or nil if open.
func (s *Solution) RouteOf(c *CustomerNode) *Route {
	if c.IsOpen() {
		return nil
	}
	return s.Route(c.RouteDepot, c.RouteVehicle, c.RouteSlot)
}

// VehicleOf returns the vehicle owning a route.
func (s *Solution) VehicleOf(r *Route) *Vehicle {
	return s.Depots[r.DepotIdx].Vehicles[r.VehicleIdx]
}

// DepotOf returns the depot owning a vehicle.
func (s *Solution) DepotOf(v *Vehicle) *DepotNode {
	return s.Depots[v.DepotIdx]
}

// TotalCustomers returns |C|.
func (s *Solution) TotalCustomers() int {
	return len(s.Customers)
}

// OpenCustomers returns indices of every currently-open customer.
func (s *Solution) OpenCustomers() []int {
	var open []int
	for _, c := range s.Customers {
		if c.IsOpen() {
			open = append(open, c.Index)
		}
	}
	return open
}
