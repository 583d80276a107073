package lrp

import (
	"fmt"
	"strings"
)

// Vectorize produces the canonical per-depot visit sequence described in
// §6: one slice of customer indices per depot, ordered vehicle by
// vehicle, route by route, customer by customer along the chain. It is
// used both for hashing (the ALNS driver's duplicate-detection in §4.7
// step 2) and directly by tests comparing solutions structurally.
func (s *Solution) Vectorize() [][]int {
	out := make([][]int, len(s.Depots))
	for di, d := range s.Depots {
		var seq []int
		for _, v := range d.Vehicles {
			for _, r := range v.Routes {
				idx := r.FirstCustomer
				for idx != -1 {
					seq = append(seq, idx)
					idx = s.Customers[idx].NextCustomer
				}
			}
		}
		out[di] = seq
	}
	return out
}

// Hash returns a stable string hash of the solution's canonical vectorized
// form, used by the ALNS driver to tell whether a newly-accepted solution
// has already been seen this run (§4.7 step 3).
func (s *Solution) Hash() string {
	var b strings.Builder
	for di, seq := range s.Vectorize() {
		fmt.Fprintf(&b, "d%d:", di)
		for _, c := range seq {
			fmt.Fprintf(&b, "%d,", c)
		}
		b.WriteByte(';')
	}
	return b.String()
}
