package alns

import (
	"math/rand"

	"lrpalns/pkg/lrp"
)

// Context bundles a Solution with everything an operator needs beyond the
// bare mutators: the objective weights used by try-and-undo evaluation, the
// regret-k depth, and the perturbation noise fraction. Operators never
// retain a Context past the call that gave it to them.
type Context struct {
	S             *lrp.Solution
	Weights       lrp.Weights
	RegretK       int
	NoiseFraction float64
}

// destroyFunc removes customers from ctx.S until at least q are open, per
// §4.4. The operator runs Preremove itself before its scan; the caller runs
// Preinsert/Postinsert around the repair that follows.
type destroyFunc func(rng *rand.Rand, q int, ctx *Context)

// repairFunc reinserts every open customer in ctx.S, per §4.5. The caller
// wraps the call with Preinsert/Postinsert.
type repairFunc func(rng *rand.Rand, ctx *Context)

// localSearchFunc runs up to budget improving-move attempts against ctx.S,
// returning the number of strictly improving moves applied.
type localSearchFunc func(rng *rand.Rand, ctx *Context, budget int) int

// destroyRegistry maps a symbolic operator identifier ("node.random",
// "route.worst", ...) to its implementation. Populated by destroy.go's init.
var destroyRegistry = map[string]destroyFunc{}

// repairRegistry maps "best", "greedy", "regret2", "regret3", ... to their
// implementations. Populated by repair.go's init.
var repairRegistry = map[string]repairFunc{}

// localSearchRegistry maps "move", "intra-opt", "inter-opt", "split",
// "swap-customers", "swap-depots" to their implementations. Populated by
// localsearch.go's init.
var localSearchRegistry = map[string]localSearchFunc{}

func registerDestroy(name string, fn destroyFunc)        { destroyRegistry[name] = fn }
func registerRepair(name string, fn repairFunc)          { repairRegistry[name] = fn }
func registerLocalSearch(name string, fn localSearchFunc) { localSearchRegistry[name] = fn }

// perturb multiplies z by 1+U(-noise,noise), the §4.5 "perturbed variant"
// and §4.4 worst-policy noise term.
func perturb(rng *rand.Rand, z, noise float64) float64 {
	if noise <= 0 {
		return z
	}
	u := rng.Float64()*2*noise - noise
	return z * (1 + u)
}
