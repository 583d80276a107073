package lrp

import "math"

// CustomerRelatedness returns the §4.3 similarity between two customers:
// higher means more interchangeable for destroy/repair sampling. A
// customer is maximally related to itself (+∞); relatedness is otherwise a
// ratio of "how alike their assignment context is" over "how far apart
// they are in space and time".
func (s *Solution) CustomerRelatedness(c1, c2 *CustomerNode) float64 {
	if c1.Index == c2.Index {
		return math.Inf(1)
	}

	sameDepot := c1.RouteDepot == c2.RouteDepot && !c1.IsOpen() && !c2.IsOpen()
	sameVehicle := sameDepot && c1.RouteVehicle == c2.RouteVehicle
	sameRoute := sameVehicle && c1.RouteSlot == c2.RouteSlot

	numerator := math.Abs(c1.Demand-c2.Demand) + 1 + indicator(sameDepot) + indicator(sameVehicle) + indicator(sameRoute)
	denominator := s.Distance(CustomerNodeID(c1.Index), CustomerNodeID(c2.Index)) +
		math.Abs(c1.WindowEarly-c2.WindowEarly) + math.Abs(c1.WindowLate-c2.WindowLate)

	return numerator / denominator
}

// CustomerDepotRelatedness returns the §4.3 similarity between a customer
// and a candidate depot.
func (s *Solution) CustomerDepotRelatedness(c *CustomerNode, d *DepotNode) float64 {
	numerator := 1 + indicator(!c.IsOpen() && c.RouteDepot == d.Index)
	denominator := s.Distance(CustomerNodeID(c.Index), DepotNodeID(d.Index))
	if denominator == 0 {
		return math.Inf(1)
	}
	return numerator / denominator
}

// RouteRelatedness returns the §4.3 similarity between two routes: based
// on centroid distance plus start/end time divergence. A non-operational
// route is never a valid destroy target, so any pair involving one returns
// −∞.
func (s *Solution) RouteRelatedness(r1, r2 *Route) float64 {
	if r1 == r2 {
		return math.Inf(1)
	}
	if !r1.IsOperational() || !r2.IsOperational() {
		return math.Inf(-1)
	}

	sameDepot := r1.DepotIdx == r2.DepotIdx
	sameVehicle := sameDepot && r1.VehicleIdx == r2.VehicleIdx

	numerator := math.Abs(r1.Load-r2.Load) + 1 + indicator(sameDepot) + indicator(sameVehicle)
	centroidDist := math.Hypot(r1.CentroidX-r2.CentroidX, r1.CentroidY-r2.CentroidY)
	denominator := centroidDist + math.Abs(r1.TimeStart-r2.TimeStart) + math.Abs(r1.TimeEnd-r2.TimeEnd)

	if denominator == 0 {
		return math.Inf(1)
	}
	return numerator / denominator
}

// VehicleRelatedness returns the §4.3 similarity between two vehicles:
// demand-weighted centroid distance plus start/end time divergence. A
// non-operational vehicle is never a valid destroy target, so any pair
// involving one returns −∞.
func (s *Solution) VehicleRelatedness(v1, v2 *Vehicle) float64 {
	if v1 == v2 {
		return math.Inf(1)
	}
	if !v1.IsOperational() || !v2.IsOperational() {
		return math.Inf(-1)
	}

	cx1, cy1 := vehicleCentroid(v1)
	cx2, cy2 := vehicleCentroid(v2)

	sameDepot := v1.DepotIdx == v2.DepotIdx
	numerator := math.Abs(v1.Load-v2.Load) + 1 + indicator(sameDepot)
	centroidDist := math.Hypot(cx1-cx2, cy1-cy2)
	denominator := centroidDist + math.Abs(v1.TimeStart-v2.TimeStart) + math.Abs(v1.TimeEnd-v2.TimeEnd)

	if denominator == 0 {
		return math.Inf(1)
	}
	return numerator / denominator
}

// vehicleCentroid computes the demand-weighted centroid of all of a
// vehicle's operational routes.
func vehicleCentroid(v *Vehicle) (float64, float64) {
	var x, y, weight float64
	for _, r := range v.Routes {
		if !r.IsOperational() {
			continue
		}
		x += r.CentroidX * r.Load
		y += r.CentroidY * r.Load
		weight += r.Load
	}
	if weight == 0 {
		return 0, 0
	}
	return x / weight, y / weight
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
