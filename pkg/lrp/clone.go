package lrp

// Clone deep-copies the mutable solution structure (depots, vehicles,
// routes, customers) while sharing the immutable Arcs table, giving the
// ALNS driver (§4.7 step 2) an independent s' to destroy and repair
// without disturbing the current s.
func (s *Solution) Clone() *Solution {
	out := &Solution{
		Arcs:                s.Arcs,
		TimeTrackingEnabled: s.TimeTrackingEnabled,
		Customers:           make([]*CustomerNode, len(s.Customers)),
		Depots:              make([]*DepotNode, len(s.Depots)),
	}
	for i, c := range s.Customers {
		cc := *c
		out.Customers[i] = &cc
	}
	for di, d := range s.Depots {
		dd := *d
		dd.Vehicles = make([]*Vehicle, len(d.Vehicles))
		for vi, v := range d.Vehicles {
			vv := *v
			vv.Routes = make([]*Route, len(v.Routes))
			for ri, r := range v.Routes {
				rr := *r
				vv.Routes[ri] = &rr
			}
			dd.Vehicles[vi] = &vv
		}
		out.Depots[di] = &dd
	}
	return out
}
