// Package alns implements the Adaptive Large Neighborhood Search driver
// (C8) and its operator families: initial-solution builders (C4), destroy
// operators (C5), repair operators (C6), and local search (C7). All of it
// sits on top of package lrp's mutators, evaluator, and relatedness
// metrics; nothing here mutates a Solution except through lrp.InsertNode /
// lrp.RemoveNode.
package alns

import (
	"fmt"
	"math"

	"lrpalns/pkg/apperror"
	"lrpalns/pkg/lrp"
)

// Params is the parameters record χ of §4.7, carrying every field named
// there with the stated types and domains.
type Params struct {
	TotalIterations    int // k̅
	SegmentSize        int // k̲
	LocalSearchCadence int // l̲
	LocalSearchBudget  int // l̅

	DestroyOperators []string // Ψᵣ, symbolic identifiers resolved against destroyRegistry
	RepairOperators  []string // Ψᵢ, resolved against repairRegistry
	LocalSearchOps   []string // Ψₗ, resolved against localSearchRegistry

	ScoreNewBest       float64 // σ₁
	ScoreImprovement   float64 // σ₂
	ScoreAcceptedWorse float64 // σ₃
	ReactionFactor     float64 // ρ
	WeightFloor        float64 // floor keeping every operator selectable

	StartTempOmega float64 // ω
	StartTempTau   float64 // τ
	MinTempOmega   float64 // ω̲
	MinTempTau     float64 // τ̲
	Cooling        float64 // 𝜃, 0<𝜃<1

	MinDestroyAbs      int     // C̲
	MaxDestroyAbs      int     // C̅
	MinDestroyFraction float64 // μ̲
	MaxDestroyFraction float64 // μ̅

	RegretK       int
	NoiseFraction float64 // ±20% perturbation window for C5 worst-policy scores and C6 perturbed repair variants
	TimeTracking  bool

	Weights lrp.Weights // {fixed, operational, penalty} passed to every f(s) call
}

// Validate enforces the §6 domain bounds: 0<𝜃<1, 0<μ̲≤μ̅≤1, 0≤ρ≤1, every
// σᵢ≥0, and non-empty operator catalogs. Unknown operator identifiers are
// also checked here so a bad config fails before the first iteration runs.
func (p *Params) Validate() error {
	if p.TotalIterations <= 0 {
		return apperror.New(apperror.CodeConfigInvalid, "total_iterations must be positive")
	}
	if p.SegmentSize <= 0 {
		return apperror.New(apperror.CodeConfigInvalid, "segment_size must be positive")
	}
	if !(p.Cooling > 0 && p.Cooling < 1) {
		return apperror.New(apperror.CodeOutOfDomain, fmt.Sprintf("cooling must satisfy 0<𝜃<1, got %v", p.Cooling))
	}
	if !(p.MinDestroyFraction > 0 && p.MinDestroyFraction <= p.MaxDestroyFraction && p.MaxDestroyFraction <= 1) {
		return apperror.New(apperror.CodeOutOfDomain, "min/max destroy fraction must satisfy 0<μ̲≤μ̅≤1")
	}
	if !(p.ReactionFactor >= 0 && p.ReactionFactor <= 1) {
		return apperror.New(apperror.CodeOutOfDomain, "reaction_factor must satisfy 0≤ρ≤1")
	}
	if p.ScoreNewBest < 0 || p.ScoreImprovement < 0 || p.ScoreAcceptedWorse < 0 {
		return apperror.New(apperror.CodeOutOfDomain, "scores must be non-negative")
	}
	if p.WeightFloor <= 0 {
		return apperror.New(apperror.CodeConfigInvalid, "weight_floor must be positive")
	}
	if len(p.DestroyOperators) == 0 {
		return apperror.ErrEmptyCatalog.WithField("destroy_operators")
	}
	if len(p.RepairOperators) == 0 {
		return apperror.ErrEmptyCatalog.WithField("repair_operators")
	}
	for _, name := range p.DestroyOperators {
		if _, ok := destroyRegistry[name]; !ok {
			return apperror.NewWithField(apperror.CodeUnknownOperator, "unknown destroy operator", name)
		}
	}
	for _, name := range p.RepairOperators {
		if _, ok := repairRegistry[name]; !ok {
			return apperror.NewWithField(apperror.CodeUnknownOperator, "unknown repair operator", name)
		}
	}
	for _, name := range p.LocalSearchOps {
		if _, ok := localSearchRegistry[name]; !ok {
			return apperror.NewWithField(apperror.CodeUnknownOperator, "unknown local search operator", name)
		}
	}
	return nil
}

// destroySize draws η ~ U(0,1) and returns q = floor((1-η)*min(C̲,μ̲|C|) +
// η*min(C̅,μ̅|C|)), per §4.7.
func (p *Params) destroySize(eta float64, numCustomers int) int {
	lo := math.Min(float64(p.MinDestroyAbs), p.MinDestroyFraction*float64(numCustomers))
	hi := math.Min(float64(p.MaxDestroyAbs), p.MaxDestroyFraction*float64(numCustomers))
	q := (1-eta)*lo + eta*hi
	return int(math.Floor(q))
}

// startTemperature computes T0 = ω·z⋆ / log(1/τ).
func (p *Params) startTemperature(zStar float64) float64 {
	return p.StartTempOmega * zStar / math.Log(1/p.StartTempTau)
}

// minTemperature computes Tmin the same way, from the floor parameters.
func (p *Params) minTemperature(zStar float64) float64 {
	return p.MinTempOmega * zStar / math.Log(1/p.MinTempTau)
}
