package lrp

import "lrpalns/pkg/apperror"

// ErrInvariantBroken is raised by a defensive internal check (load
// mismatch, dangling linked-list pointer, negative aggregate) that
// indicates a bug in the mutators themselves, not bad input. Per §7 this
// is fatal: callers should abort the run rather than attempt recovery.
func ErrInvariantBroken(detail string) *apperror.Error {
	return apperror.NewCritical(apperror.CodeInvariantViolation, detail)
}

// CheckInvariants re-derives each route's customer count, load and length
// from the linked-list structure and compares them, and their vehicle and
// depot sums, against the cached values within tolerance; it also checks
// that every closed customer resolves to a route. Cached times, fuel
// levels and centroids are not checked.
// It is the defensive check referenced by §7/§8; callers run it in tests
// and may run it in debug builds, never on the search hot path.
func (s *Solution) CheckInvariants() error {
	for _, d := range s.Depots {
		var depotCount int
		var depotLoad, depotLen float64

		for _, v := range d.Vehicles {
			var vehCount int
			var vehLoad, vehLen float64

			for _, r := range v.Routes {
				n, load, length := s.recomputeRoute(r)

				if n != r.Count {
					return ErrInvariantBroken("route customer count mismatch")
				}
				if !within(load, r.Load, 1e-9) {
					return ErrInvariantBroken("route load mismatch")
				}
				if !within(length, r.Length, 1e-9) {
					return ErrInvariantBroken("route length mismatch")
				}

				vehCount += n
				vehLoad += load
				vehLen += length
			}

			if vehCount != v.Count || !within(vehLoad, v.Load, 1e-9) || !within(vehLen, v.Len, 1e-9) {
				return ErrInvariantBroken("vehicle aggregate mismatch")
			}

			depotCount += vehCount
			depotLoad += vehLoad
			depotLen += vehLen
		}

		if depotCount != d.Count || !within(depotLoad, d.Load, 1e-9) || !within(depotLen, d.Len, 1e-9) {
			return ErrInvariantBroken("depot aggregate mismatch")
		}
	}

	var openCount, closedCount int
	for _, c := range s.Customers {
		if c.IsOpen() {
			openCount++
			continue
		}
		closedCount++
		r := s.RouteOf(c)
		if r == nil {
			return ErrInvariantBroken("closed customer references missing route")
		}
	}
	if openCount+closedCount != len(s.Customers) {
		return ErrInvariantBroken("customer partition mismatch")
	}

	return nil
}

func (s *Solution) recomputeRoute(r *Route) (count int, load, length float64) {
	prevID := DepotNodeID(r.DepotIdx)
	idx := r.FirstCustomer
	for idx != -1 {
		c := s.Customers[idx]
		cID := CustomerNodeID(idx)
		length += s.Distance(prevID, cID)
		load += c.Demand
		count++
		prevID = cID
		idx = c.NextCustomer
	}
	length += s.Distance(prevID, DepotNodeID(r.DepotIdx))
	return
}

func within(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
