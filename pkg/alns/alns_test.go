package alns

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lrpalns/pkg/lrp"
)

// newTestInstance builds a tiny two-depot, 8-customer instance on a grid,
// each depot with a single vehicle of generous capacity/range so every
// initial-solution method can place every customer.
func newTestInstance(t *testing.T) *lrp.Solution {
	t.Helper()

	depots := make([]*lrp.DepotNode, 2)
	for i := range depots {
		depots[i] = &lrp.DepotNode{
			Index: i, X: float64(i * 10), Y: 0,
			Capacity: 1000, CostFixed: 50, CostOperational: 1,
			ShareLow: 0, ShareHigh: 1,
			WindowStart: 0, WindowEnd: 10000,
		}
		v := &lrp.Vehicle{
			DepotIdx: i, Index: 0, TypeIdx: 0,
			Capacity: 1000, Range: 10000, Speed: 1,
			MaxWorkingDuration: 10000, MaxRoutes: 5,
			CostPerDistance: 1, CostPerTime: 0, CostFixed: 20,
		}
		depots[i].Vehicles = []*lrp.Vehicle{v}
	}

	customers := make([]*lrp.CustomerNode, 8)
	for i := range customers {
		customers[i] = &lrp.CustomerNode{
			Index: i, X: float64(i), Y: 1,
			Demand: 5, ServiceTime: 0,
			WindowEarly: 0, WindowLate: 10000,
			RouteDepot: lrp.NullRouteIdx, RouteVehicle: lrp.NullRouteIdx, RouteSlot: lrp.NullRouteIdx,
			PrevCustomer: -1, NextCustomer: -1,
		}
	}

	s := &lrp.Solution{Depots: depots, Customers: customers, Arcs: make(map[lrp.ArcKey]float64)}

	var nodes []lrp.NodeID
	var coords [][2]float64
	for i, d := range depots {
		nodes = append(nodes, lrp.DepotNodeID(i))
		coords = append(coords, [2]float64{d.X, d.Y})
	}
	for i, c := range customers {
		nodes = append(nodes, lrp.CustomerNodeID(i))
		coords = append(coords, [2]float64{c.X, c.Y})
	}
	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			dx := coords[i][0] - coords[j][0]
			dy := coords[i][1] - coords[j][1]
			s.Arcs[lrp.ArcKey{From: nodes[i], To: nodes[j]}] = math.Hypot(dx, dy)
		}
	}

	for _, d := range depots {
		for _, v := range d.Vehicles {
			s.AddRouteSlot(v)
		}
	}
	return s
}

func TestTimeTrackingPropagatesThroughDestroyRepair(t *testing.T) {
	s := newTestInstance(t)
	s.TimeTrackingEnabled = true
	// Customer 0 sits one unit from depot 0 at speed 1, so an unconstrained
	// arrival lands at t=1; pushing its window open to t=6 forces a wait.
	s.Customers[0].WindowEarly = 6
	s.Customers[0].ServiceTime = 1

	rng := rand.New(rand.NewSource(1234))
	require.NoError(t, Build(rng, s, MethodNearestNeighbor, lrp.DefaultWeights))

	c := s.Customers[0]
	require.Equal(t, 0, c.RouteDepot, "customer 0 is closest to depot 0")
	assert.InDelta(t, 1, c.ArrivalTime, 1e-9)
	assert.InDelta(t, 7, c.DepartureTime, 1e-9) // wait to 6, then 1 unit of service

	// Removing and reinserting customer 0 at the exact same chain position
	// must reproduce the same propagated times: time tracking is purely a
	// function of position, not history.
	tail, head, r := c.PrevCustomer, c.NextCustomer, s.RouteOf(c)
	s.RemoveNode(0)
	s.InsertNode(0, tail, head, r)

	c = s.Customers[0]
	assert.InDelta(t, 1, c.ArrivalTime, 1e-9)
	assert.InDelta(t, 7, c.DepartureTime, 1e-9)
}

func TestBuildMethodsPlaceEveryCustomer(t *testing.T) {
	methods := []BuildMethod{MethodRandom, MethodNearestNeighbor, MethodClarkeWright, MethodRegret2, MethodRegret3, MethodCluster}
	for _, method := range methods {
		method := method
		t.Run(string(method), func(t *testing.T) {
			s := newTestInstance(t)
			rng := rand.New(rand.NewSource(1234))
			err := Build(rng, s, method, lrp.DefaultWeights)
			require.NoError(t, err)
			assert.Empty(t, s.OpenCustomers())
			require.NoError(t, s.CheckInvariants())
		})
	}
}

func TestDestroyOperatorsOpenAtLeastQ(t *testing.T) {
	for _, f := range []Family{FamilyNode, FamilyRoute, FamilyVehicle, FamilyDepot} {
		for _, p := range []Policy{PolicyRandom, PolicyRelated, PolicyWorst} {
			name := OperatorName(f, p)
			t.Run(name, func(t *testing.T) {
				s := newTestInstance(t)
				rng := rand.New(rand.NewSource(7))
				require.NoError(t, Build(rng, s, MethodNearestNeighbor, lrp.DefaultWeights))

				ctx := &Context{S: s, Weights: lrp.DefaultWeights, NoiseFraction: 0.2}
				fn := destroyRegistry[name]
				require.NotNil(t, fn)
				fn(rng, 3, ctx)

				assert.GreaterOrEqual(t, len(s.OpenCustomers()), 3)
				require.NoError(t, s.CheckInvariants())
			})
		}
	}
}

func TestRepairOperatorsPlaceAllOpenCustomers(t *testing.T) {
	for _, name := range []string{"best", "greedy", "regret2", "regret3"} {
		name := name
		t.Run(name, func(t *testing.T) {
			s := newTestInstance(t)
			rng := rand.New(rand.NewSource(3))
			require.NoError(t, Build(rng, s, MethodNearestNeighbor, lrp.DefaultWeights))

			ctx := &Context{S: s, Weights: lrp.DefaultWeights, RegretK: 2}
			destroyRegistry[OperatorName(FamilyNode, PolicyRandom)](rng, 4, ctx)
			s.Preinsert()
			repairRegistry[name](rng, ctx)
			s.Postinsert()

			assert.Empty(t, s.OpenCustomers())
			require.NoError(t, s.CheckInvariants())
		})
	}
}

func TestLocalSearchNeverWorsensObjective(t *testing.T) {
	for name := range localSearchRegistry {
		name := name
		t.Run(name, func(t *testing.T) {
			s := newTestInstance(t)
			rng := rand.New(rand.NewSource(42))
			require.NoError(t, Build(rng, s, MethodNearestNeighbor, lrp.DefaultWeights))

			before := s.Evaluate(lrp.DefaultWeights)
			ctx := &Context{S: s, Weights: lrp.DefaultWeights}
			localSearchRegistry[name](rng, ctx, 20)

			after := s.Evaluate(lrp.DefaultWeights)
			assert.LessOrEqual(t, after, before+1e-9)
			require.NoError(t, s.CheckInvariants())
		})
	}
}

func defaultParams() *Params {
	return &Params{
		TotalIterations:    30,
		SegmentSize:        5,
		LocalSearchCadence: 10,
		LocalSearchBudget:  5,
		DestroyOperators:   []string{OperatorName(FamilyNode, PolicyRandom), OperatorName(FamilyNode, PolicyWorst)},
		RepairOperators:    []string{"best", "regret2"},
		LocalSearchOps:     []string{"move"},
		ScoreNewBest:       33,
		ScoreImprovement:   9,
		ScoreAcceptedWorse: 3,
		ReactionFactor:     0.5,
		WeightFloor:        0.1,
		StartTempOmega:     0.05,
		StartTempTau:       0.5,
		MinTempOmega:       0.01,
		MinTempTau:         0.5,
		Cooling:            0.99,
		MinDestroyAbs:      1,
		MaxDestroyAbs:       3,
		MinDestroyFraction: 0.1,
		MaxDestroyFraction: 0.3,
		RegretK:            2,
		NoiseFraction:      0.1,
		Weights:            lrp.DefaultWeights,
	}
}

func TestRunProducesMonotoneNonIncreasingBestSequence(t *testing.T) {
	s := newTestInstance(t)
	rng := rand.New(rand.NewSource(1234))
	require.NoError(t, Build(rng, s, MethodNearestNeighbor, lrp.DefaultWeights))

	p := defaultParams()
	bests, hist, err := Run(rng, p, s)
	require.NoError(t, err)
	require.Len(t, bests, p.TotalIterations)
	require.Len(t, hist.BestObjective, p.TotalIterations)

	for i := 1; i < len(hist.BestObjective); i++ {
		assert.LessOrEqual(t, hist.BestObjective[i], hist.BestObjective[i-1]+1e-9)
	}
	for _, b := range bests {
		assert.True(t, b.IsFeasible())
	}
}

func TestRunIsDeterministicGivenSeed(t *testing.T) {
	p := defaultParams()

	s1 := newTestInstance(t)
	rng1 := rand.New(rand.NewSource(99))
	require.NoError(t, Build(rng1, s1, MethodNearestNeighbor, lrp.DefaultWeights))
	bests1, _, err := Run(rng1, p, s1)
	require.NoError(t, err)

	s2 := newTestInstance(t)
	rng2 := rand.New(rand.NewSource(99))
	require.NoError(t, Build(rng2, s2, MethodNearestNeighbor, lrp.DefaultWeights))
	bests2, _, err := Run(rng2, p, s2)
	require.NoError(t, err)

	require.Equal(t, len(bests1), len(bests2))
	for i := range bests1 {
		assert.InDelta(t, bests1[i].Evaluate(lrp.DefaultWeights), bests2[i].Evaluate(lrp.DefaultWeights), 1e-9)
	}
}

func TestRunRejectsUnknownOperator(t *testing.T) {
	s := newTestInstance(t)
	p := defaultParams()
	p.DestroyOperators = []string{"not-a-real-operator"}

	_, _, err := Run(rand.New(rand.NewSource(1)), p, s)
	require.Error(t, err)
}

func TestParamsValidateCatchesOutOfDomainCooling(t *testing.T) {
	p := defaultParams()
	p.Cooling = 1.5
	err := p.Validate()
	require.Error(t, err)
}
