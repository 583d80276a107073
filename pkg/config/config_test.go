package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSolverConfig() SolverConfig {
	return SolverConfig{
		TotalIterations:    500,
		SegmentSize:        100,
		DestroyOperators:   []string{"random-node"},
		RepairOperators:    []string{"best"},
		ScoreNewBest:       33,
		ScoreImprovement:   9,
		ScoreAcceptedWorse: 3,
		ReactionFactor:     0.1,
		WeightFloor:        1e-3,
		Cooling:            0.999,
		MinDestroyFraction: 0.05,
		MaxDestroyFraction: 0.4,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				App:    AppConfig{Name: "test"},
				Log:    LogConfig{Level: "info"},
				Solver: validSolverConfig(),
			},
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: Config{
				Log:    LogConfig{Level: "info"},
				Solver: validSolverConfig(),
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: Config{
				App:    AppConfig{Name: "test"},
				Log:    LogConfig{Level: "invalid"},
				Solver: validSolverConfig(),
			},
			wantErr: true,
		},
		{
			name: "valid debug level",
			cfg: Config{
				App:    AppConfig{Name: "test"},
				Log:    LogConfig{Level: "debug"},
				Solver: validSolverConfig(),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSolverConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SolverConfig)
		wantErr bool
	}{
		{"valid", func(s *SolverConfig) {}, false},
		{"cooling out of domain high", func(s *SolverConfig) { s.Cooling = 1.0 }, true},
		{"cooling out of domain low", func(s *SolverConfig) { s.Cooling = 0 }, true},
		{"destroy fractions inverted", func(s *SolverConfig) { s.MinDestroyFraction, s.MaxDestroyFraction = 0.5, 0.2 }, true},
		{"reaction factor above 1", func(s *SolverConfig) { s.ReactionFactor = 1.5 }, true},
		{"negative score", func(s *SolverConfig) { s.ScoreNewBest = -1 }, true},
		{"empty destroy catalog", func(s *SolverConfig) { s.DestroyOperators = nil }, true},
		{"empty repair catalog", func(s *SolverConfig) { s.RepairOperators = nil }, true},
		{"zero weight floor", func(s *SolverConfig) { s.WeightFloor = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSolverConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		assert.Equal(t, tt.want, cfg.IsDevelopment())
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		assert.Equal(t, tt.want, cfg.IsProduction())
	}
}
