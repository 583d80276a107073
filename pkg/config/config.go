// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the top-level configuration structure.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Solver  SolverConfig  `koanf:"solver"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // log file path
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // number of rotated backups
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// SolverConfig is the ALNS parameters record χ from §4.7 of the design.
//
// Field names are the ASCII spellings of the Greek symbols used there:
// θ -> cooling, μ̲/μ̅ -> destroy-size fractions, ρ -> reaction factor, etc.
type SolverConfig struct {
	// Iterations
	TotalIterations    int `koanf:"total_iterations"`     // k̅
	SegmentSize        int `koanf:"segment_size"`         // k̲
	LocalSearchCadence int `koanf:"local_search_cadence"` // l̲
	LocalSearchBudget  int `koanf:"local_search_budget"`  // l̅

	// Operator catalogs (symbolic identifiers, §6)
	DestroyOperators []string `koanf:"destroy_operators"` // Ψᵣ
	RepairOperators  []string `koanf:"repair_operators"`  // Ψᵢ
	LocalSearchOps   []string `koanf:"local_search_operators"` // Ψₗ

	// Adaptive-weight scores
	ScoreNewBest        float64 `koanf:"score_new_best"`        // σ₁
	ScoreImprovement    float64 `koanf:"score_improvement"`     // σ₂
	ScoreAcceptedWorse  float64 `koanf:"score_accepted_worse"`  // σ₃
	ReactionFactor      float64 `koanf:"reaction_factor"`       // ρ
	WeightFloor         float64 `koanf:"weight_floor"`          // minimum operator weight

	// Simulated annealing
	StartTempOmega float64 `koanf:"start_temp_omega"` // ω
	StartTempTau   float64 `koanf:"start_temp_tau"`   // τ
	MinTempOmega   float64 `koanf:"min_temp_omega"`   // ω̲
	MinTempTau     float64 `koanf:"min_temp_tau"`     // τ̲
	Cooling        float64 `koanf:"cooling"`          // 𝜃

	// Destroy size, §4.7: q = floor((1-η)*min(C̲,μ̲|C|) + η*min(C̅,μ̅|C|))
	MinDestroyAbs      int     `koanf:"min_destroy_abs"`      // C̲
	MaxDestroyAbs      int     `koanf:"max_destroy_abs"`      // C̅
	MinDestroyFraction float64 `koanf:"min_destroy_fraction"` // μ̲
	MaxDestroyFraction float64 `koanf:"max_destroy_fraction"` // μ̅

	// Misc
	RegretK          int  `koanf:"regret_k"`
	NoiseFraction    float64 `koanf:"noise_fraction"` // ±20% perturbation in §4.5/§4.4
	TimeTrackingOn   bool `koanf:"time_tracking_enabled"`
}

// Validate enforces the domain bounds stated in §6: 0<θ<1, 0<μ̲≤μ̅≤1,
// 0≤ρ≤1, every σᵢ≥0, and non-empty operator catalogs. This is the one
// stdlib-only validation path in the module — see DESIGN.md for why no
// library from the pack covers typed bounds-checking of a parameters
// record like this one.
func (s *SolverConfig) Validate() error {
	var errs []string

	if s.TotalIterations <= 0 {
		errs = append(errs, "solver.total_iterations must be positive")
	}
	if s.SegmentSize <= 0 {
		errs = append(errs, "solver.segment_size must be positive")
	}
	if !(s.Cooling > 0 && s.Cooling < 1) {
		errs = append(errs, fmt.Sprintf("solver.cooling must satisfy 0<θ<1, got %v", s.Cooling))
	}
	if !(s.MinDestroyFraction > 0 && s.MinDestroyFraction <= s.MaxDestroyFraction && s.MaxDestroyFraction <= 1) {
		errs = append(errs, "solver.min_destroy_fraction/max_destroy_fraction must satisfy 0<μ̲≤μ̅≤1")
	}
	if !(s.ReactionFactor >= 0 && s.ReactionFactor <= 1) {
		errs = append(errs, "solver.reaction_factor must satisfy 0≤ρ≤1")
	}
	if s.ScoreNewBest < 0 || s.ScoreImprovement < 0 || s.ScoreAcceptedWorse < 0 {
		errs = append(errs, "solver scores (new_best, improvement, accepted_worse) must be non-negative")
	}
	if len(s.DestroyOperators) == 0 {
		errs = append(errs, "solver.destroy_operators must not be empty")
	}
	if len(s.RepairOperators) == 0 {
		errs = append(errs, "solver.repair_operators must not be empty")
	}
	if s.WeightFloor <= 0 {
		errs = append(errs, "solver.weight_floor must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("solver configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if err := c.Solver.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment reports whether the app is running in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is running in a production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
