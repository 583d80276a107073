package lrp

import "math"

// Weights scales the three cost components of the objective (§4.2). The
// external API passes these explicitly rather than baking them into the
// solver parameters record, since they describe what "cost" means, not how
// the search behaves.
type Weights struct {
	Fixed       float64
	Operational float64
	Penalty     float64
}

// DefaultWeights weights every component equally.
var DefaultWeights = Weights{Fixed: 1, Operational: 1, Penalty: 1}

// Evaluate computes f(s) = φᶠ·πᶠ + φᵒ·πᵒ + φᵖ·πᵖ·10^⌈log₁₀(πᶠ+πᵒ)⌉ (§4.2):
// fixed costs of every operational depot/vehicle, operational costs of
// distance/time/throughput, and constraint-violation penalties scaled so
// they dominate the magnitude of the feasible costs.
func (s *Solution) Evaluate(w Weights) float64 {
	fixed := s.fixedCost()
	operational := s.operationalCost()
	penalty := s.penaltyCost()

	scale := 1.0
	if sum := fixed + operational; sum > 0 {
		scale = math.Pow(10, math.Ceil(math.Log10(sum)))
	}

	return w.Fixed*fixed + w.Operational*operational + w.Penalty*penalty*scale
}

func (s *Solution) fixedCost() float64 {
	var total float64
	for _, d := range s.Depots {
		if d.IsOperational() {
			total += d.CostFixed
		}
		for _, v := range d.Vehicles {
			if v.IsOperational() {
				total += v.CostFixed
			}
		}
	}
	return total
}

func (s *Solution) operationalCost() float64 {
	var total float64
	for _, d := range s.Depots {
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				total += r.Length * v.CostPerDistance
			}
			total += (v.TimeEnd - v.TimeStart) * v.CostPerTime
		}
		total += d.Load * d.CostOperational
	}
	return total
}

// Violations holds the individual penalty terms of §4.2, exposed
// separately so IsFeasible can check each for strict zero.
type Violations struct {
	DepotShareLow   float64
	DepotShareHigh  float64
	DepotMandatory  float64
	DepotCapacity   float64
	RouteCapacity   float64
	RouteRange      float64
	WorkWindowStart float64
	WorkWindowEnd   float64
	WorkDuration    float64
	CustomerOpen    float64
	TimeWindowLate  float64
}

// Sum returns the total penalty magnitude πᵖ.
func (v Violations) Sum() float64 {
	return v.DepotShareLow + v.DepotShareHigh + v.DepotMandatory + v.DepotCapacity +
		v.RouteCapacity + v.RouteRange + v.WorkWindowStart + v.WorkWindowEnd +
		v.WorkDuration + v.CustomerOpen + v.TimeWindowLate
}

// IsZero reports whether every term is exactly zero.
func (v Violations) IsZero() bool {
	return v == Violations{}
}

func (s *Solution) penaltyCost() float64 {
	return s.violations().Sum()
}

// violations computes every constraint-violation magnitude in §4.2.
func (s *Solution) violations() Violations {
	var v Violations

	totalCustomers := float64(len(s.Customers))
	for _, d := range s.Depots {
		v.DepotShareLow += math.Max(0, d.ShareLow*totalCustomers-float64(d.Count))
		v.DepotShareHigh += math.Max(0, float64(d.Count)-d.ShareHigh*totalCustomers)
		if d.Mandatory && d.Count == 0 {
			v.DepotMandatory += d.CostFixed
		}
		v.DepotCapacity += math.Max(0, d.Load-d.Capacity)

		for _, veh := range d.Vehicles {
			for _, r := range veh.Routes {
				v.RouteCapacity += math.Max(0, r.Load-veh.Capacity)
				v.RouteRange += math.Max(0, r.Length-veh.Range)
			}
			v.WorkWindowStart += math.Max(0, d.WindowStart-veh.TimeStart)
			v.WorkWindowEnd += math.Max(0, veh.TimeEnd-d.WindowEnd)
			v.WorkDuration += math.Max(0, (veh.TimeEnd-veh.TimeStart)-veh.MaxWorkingDuration)
		}
	}

	for _, c := range s.Customers {
		if c.IsOpen() {
			v.CustomerOpen += c.Demand
			continue
		}
		v.TimeWindowLate += math.Max(0, c.ArrivalTime-c.WindowLate)
	}

	return v
}

// IsFeasible reports whether every violation term is exactly zero.
func (s *Solution) IsFeasible() bool {
	return s.violations().IsZero()
}
