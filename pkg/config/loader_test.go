package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "lrp-alns", cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 2000, cfg.Solver.TotalIterations)
	assert.NotEmpty(t, cfg.Solver.DestroyOperators)
	assert.NotEmpty(t, cfg.Solver.RepairOperators)
	assert.InDelta(t, 0.99975, cfg.Solver.Cooling, 1e-9)
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: custom-run
  version: 2.0.0
  environment: staging
log:
  level: debug
solver:
  total_iterations: 777
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-run", cfg.App.Name)
	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 777, cfg.Solver.TotalIterations)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("LRP_APP_NAME", "env-run")
	os.Setenv("LRP_SOLVER_TOTAL_ITERATIONS", "1234")
	defer func() {
		os.Unsetenv("LRP_APP_NAME")
		os.Unsetenv("LRP_SOLVER_TOTAL_ITERATIONS")
	}()

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "env-run", cfg.App.Name)
	assert.Equal(t, 1234, cfg.Solver.TotalIterations)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: file-run
solver:
  total_iterations: 100
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	os.Setenv("LRP_APP_NAME", "env-override")
	defer os.Unsetenv("LRP_APP_NAME")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-override", cfg.App.Name)
	// total_iterations should come from the file since no env override was set.
	assert.Equal(t, 100, cfg.Solver.TotalIterations)
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_APP_NAME", "custom-prefix-run")
	defer os.Unsetenv("CUSTOM_APP_NAME")

	cfg, err := NewLoader(WithEnvPrefix("CUSTOM_")).Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-prefix-run", cfg.App.Name)
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad()
	assert.NotNil(t, cfg)
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
app:
  name: config-env-var-run
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	os.Setenv("CONFIG_PATH", configPath)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "config-env-var-run", cfg.App.Name)
}
