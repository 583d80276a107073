package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInstance(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		depotFile: "x,y,capacity,cost_operational,cost_fixed,mandatory,share_low,share_high,window_start,window_end\n" +
			"0,0,1000,1,50,1,0,1,0,1000\n",
		customerFile: "x,y,demand,service_time,window_early,window_late\n" +
			"1,0,10,0,0,1000\n" +
			"2,0,10,0,0,1000\n",
		vehicleFile: "depot_index,count,capacity,range,speed,fuel_time_per_unit,load_time_per_unit,service_overhead,max_working_duration,max_routes,cost_per_distance,cost_per_time,cost_fixed\n" +
			"0,1,100,1000,1,0,0,0,1000,3,1,0,20\n",
		distanceFile: "0,1,2\n1,0,1\n2,1,0\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoadValidInstance(t *testing.T) {
	dir := writeInstance(t)

	s, err := Load(dir)
	require.NoError(t, err)

	assert.Len(t, s.Depots, 1)
	assert.Len(t, s.Customers, 2)
	assert.Len(t, s.Depots[0].Vehicles, 1)
	assert.True(t, s.Customers[0].IsOpen())
}

func TestLoadMissingColumnProducesValidationErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, depotFile), []byte("x,y\n0,0\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoadDistanceMatrixDimensionMismatch(t *testing.T) {
	dir := writeInstance(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, distanceFile), []byte("0,1\n1,0\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}
