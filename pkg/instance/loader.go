// Package instance loads an LRP problem instance from a directory of CSV
// files into a lrp.Solution skeleton (depots, vehicles, customers, arcs)
// with every customer open and every vehicle holding a single empty route.
// This is explicitly outside the search core (§1 Out of scope) but is part
// of the programmatic API's build(instance_name) entry point (§6).
package instance

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"lrpalns/pkg/apperror"
	"lrpalns/pkg/lrp"
)

const (
	depotFile    = "depot_nodes.csv"
	customerFile = "customer_nodes.csv"
	vehicleFile  = "vehicles.csv"
	arcFile      = "arcs.csv"
	distanceFile = "distance.csv"
)

// Load reads depot_nodes.csv, customer_nodes.csv, vehicles.csv, and either
// arcs.csv or a dense distance.csv from dir, producing a lrp.Solution with
// every customer open, ready for an initial-solution builder to consume.
func Load(dir string) (*lrp.Solution, error) {
	depots, verrs := loadDepots(dir)
	if verrs.HasErrors() {
		return nil, verrs
	}

	customers, verrs := loadCustomers(dir)
	if verrs.HasErrors() {
		return nil, verrs
	}

	if verrs := loadVehicles(dir, depots); verrs.HasErrors() {
		return nil, verrs
	}

	arcs, verrs := loadArcs(dir, len(depots), len(customers))
	if verrs.HasErrors() {
		return nil, verrs
	}

	return &lrp.Solution{
		Depots:    depots,
		Customers: customers,
		Arcs:      arcs,
	}, nil
}

func loadDepots(dir string) ([]*lrp.DepotNode, *apperror.ValidationErrors) {
	verrs := apperror.NewValidationErrors()

	records, err := readCSV(filepath.Join(dir, depotFile))
	if err != nil {
		verrs.AddError(apperror.CodeInstanceMalformed, "reading "+depotFile+": "+err.Error())
		return nil, verrs
	}

	header, rows := records[0], records[1:]
	col := newColumnIndexer(header)

	depots := make([]*lrp.DepotNode, 0, len(rows))
	for i, row := range rows {
		d := &lrp.DepotNode{Index: i}
		d.X = col.float(row, "x", verrs, i)
		d.Y = col.float(row, "y", verrs, i)
		d.Capacity = col.float(row, "capacity", verrs, i)
		d.CostOperational = col.float(row, "cost_operational", verrs, i)
		d.CostFixed = col.float(row, "cost_fixed", verrs, i)
		d.Mandatory = col.float(row, "mandatory", verrs, i) != 0
		d.ShareLow = col.float(row, "share_low", verrs, i)
		d.ShareHigh = col.float(row, "share_high", verrs, i)
		d.WindowStart = col.float(row, "window_start", verrs, i)
		d.WindowEnd = col.float(row, "window_end", verrs, i)
		depots = append(depots, d)
	}

	return depots, verrs
}

func loadCustomers(dir string) ([]*lrp.CustomerNode, *apperror.ValidationErrors) {
	verrs := apperror.NewValidationErrors()

	records, err := readCSV(filepath.Join(dir, customerFile))
	if err != nil {
		verrs.AddError(apperror.CodeInstanceMalformed, "reading "+customerFile+": "+err.Error())
		return nil, verrs
	}

	header, rows := records[0], records[1:]
	col := newColumnIndexer(header)

	customers := make([]*lrp.CustomerNode, 0, len(rows))
	for i, row := range rows {
		c := &lrp.CustomerNode{
			Index:        i,
			RouteDepot:   lrp.NullRouteIdx,
			RouteVehicle: lrp.NullRouteIdx,
			RouteSlot:    lrp.NullRouteIdx,
			PrevCustomer: -1,
			NextCustomer: -1,
		}
		c.X = col.float(row, "x", verrs, i)
		c.Y = col.float(row, "y", verrs, i)
		c.Demand = col.float(row, "demand", verrs, i)
		c.ServiceTime = col.float(row, "service_time", verrs, i)
		c.WindowEarly = col.float(row, "window_early", verrs, i)
		c.WindowLate = col.float(row, "window_late", verrs, i)
		c.ArrivalTime = math.Inf(1)
		c.DepartureTime = math.Inf(1)
		customers = append(customers, c)
	}
	return customers, verrs
}

// loadVehicles reads one row per vehicle TYPE, with a "count" column
// expanding it into that many identical Vehicle instances at the named
// depot — each such type gets its own TypeIdx so CanAddVehicle's
// "identical-type sibling" check has something to compare against.
func loadVehicles(dir string, depots []*lrp.DepotNode) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	records, err := readCSV(filepath.Join(dir, vehicleFile))
	if err != nil {
		verrs.AddError(apperror.CodeInstanceMalformed, "reading "+vehicleFile+": "+err.Error())
		return verrs
	}

	header, rows := records[0], records[1:]
	col := newColumnIndexer(header)

	for i, row := range rows {
		depotIdx := int(col.float(row, "depot_index", verrs, i))
		if depotIdx < 0 || depotIdx >= len(depots) {
			verrs.AddError(apperror.CodeArcMismatch, fmt.Sprintf("vehicle row %d: depot_index %d out of range", i, depotIdx))
			continue
		}
		count := int(col.float(row, "count", verrs, i))
		if count < 1 {
			count = 1
		}

		d := depots[depotIdx]
		typeIdx := i
		for k := 0; k < count; k++ {
			v := &lrp.Vehicle{
				DepotIdx:           depotIdx,
				Index:              len(d.Vehicles),
				TypeIdx:            typeIdx,
				Capacity:           col.float(row, "capacity", verrs, i),
				Range:              col.float(row, "range", verrs, i),
				Speed:              col.float(row, "speed", verrs, i),
				FuelTimePerUnit:    col.float(row, "fuel_time_per_unit", verrs, i),
				LoadTimePerUnit:    col.float(row, "load_time_per_unit", verrs, i),
				ServiceOverhead:    col.float(row, "service_overhead", verrs, i),
				MaxWorkingDuration: col.float(row, "max_working_duration", verrs, i),
				MaxRoutes:          int(col.float(row, "max_routes", verrs, i)),
				CostPerDistance:    col.float(row, "cost_per_distance", verrs, i),
				CostPerTime:        col.float(row, "cost_per_time", verrs, i),
				CostFixed:          col.float(row, "cost_fixed", verrs, i),
			}
			d.Vehicles = append(d.Vehicles, v)
			v.Routes = append(v.Routes, &lrp.Route{
				DepotIdx:      depotIdx,
				VehicleIdx:    v.Index,
				Slot:          0,
				FirstCustomer: -1,
				LastCustomer:  -1,
			})
		}
	}

	return verrs
}

func loadArcs(dir string, numDepots, numCustomers int) (map[lrp.ArcKey]float64, *apperror.ValidationErrors) {
	arcsPath := filepath.Join(dir, arcFile)
	if _, err := os.Stat(arcsPath); err == nil {
		return loadArcsFromEdgeList(arcsPath)
	}
	return loadArcsFromDistanceMatrix(filepath.Join(dir, distanceFile), numDepots, numCustomers)
}

func loadArcsFromEdgeList(path string) (map[lrp.ArcKey]float64, *apperror.ValidationErrors) {
	verrs := apperror.NewValidationErrors()

	records, err := readCSV(path)
	if err != nil {
		verrs.AddError(apperror.CodeInstanceMalformed, "reading arcs.csv: "+err.Error())
		return nil, verrs
	}

	header, rows := records[0], records[1:]
	col := newColumnIndexer(header)

	arcs := make(map[lrp.ArcKey]float64, len(rows))
	for i, row := range rows {
		fromKind := lrp.NodeKindCustomer
		if col.float(row, "from_is_depot", nil, i) != 0 {
			fromKind = lrp.NodeKindDepot
		}
		toKind := lrp.NodeKindCustomer
		if col.float(row, "to_is_depot", nil, i) != 0 {
			toKind = lrp.NodeKindDepot
		}
		from := lrp.NodeID{Kind: fromKind, Index: int(col.float(row, "from_index", verrs, i))}
		to := lrp.NodeID{Kind: toKind, Index: int(col.float(row, "to_index", verrs, i))}
		length := col.float(row, "length", verrs, i)
		if length < 0 {
			verrs.AddError(apperror.CodeInstanceMalformed, fmt.Sprintf("arcs.csv row %d: negative length", i))
			continue
		}
		arcs[lrp.ArcKey{From: from, To: to}] = length
	}
	return arcs, verrs
}

// loadArcsFromDistanceMatrix reads a dense, square matrix whose row/column
// order is depots first, then customers, matching the build() order in §6.
func loadArcsFromDistanceMatrix(path string, numDepots, numCustomers int) (map[lrp.ArcKey]float64, *apperror.ValidationErrors) {
	verrs := apperror.NewValidationErrors()

	records, err := readCSV(path)
	if err != nil {
		verrs.AddError(apperror.CodeInstanceMalformed, "reading distance.csv: "+err.Error())
		return nil, verrs
	}

	n := numDepots + numCustomers
	if len(records) != n {
		verrs.AddError(apperror.CodeArcMismatch, fmt.Sprintf("distance matrix has %d rows, expected %d", len(records), n))
		return nil, verrs
	}

	nodeAt := func(pos int) lrp.NodeID {
		if pos < numDepots {
			return lrp.NodeID{Kind: lrp.NodeKindDepot, Index: pos}
		}
		return lrp.NodeID{Kind: lrp.NodeKindCustomer, Index: pos - numDepots}
	}

	arcs := make(map[lrp.ArcKey]float64, n*n)
	for i, row := range records {
		if len(row) != n {
			verrs.AddError(apperror.CodeArcMismatch, fmt.Sprintf("distance matrix row %d has %d columns, expected %d", i, len(row), n))
			continue
		}
		for j, cell := range row {
			if i == j {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				verrs.AddError(apperror.CodeMissingColumn, fmt.Sprintf("distance matrix [%d][%d]: %s", i, j, err.Error()))
				continue
			}
			if v < 0 {
				verrs.AddError(apperror.CodeInstanceMalformed, fmt.Sprintf("distance matrix [%d][%d]: negative length", i, j))
				continue
			}
			arcs[lrp.ArcKey{From: nodeAt(i), To: nodeAt(j)}] = v
		}
	}
	return arcs, verrs
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return records, nil
}

// columnIndexer maps CSV header names to positions so row accessors can be
// named rather than positional.
type columnIndexer map[string]int

func newColumnIndexer(header []string) columnIndexer {
	idx := make(columnIndexer, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func (c columnIndexer) float(row []string, name string, verrs *apperror.ValidationErrors, rowIdx int) float64 {
	pos, ok := c[name]
	if !ok {
		if verrs != nil {
			verrs.AddError(apperror.CodeMissingColumn, fmt.Sprintf("row %d: missing column %q", rowIdx, name))
		}
		return 0
	}
	if pos >= len(row) {
		if verrs != nil {
			verrs.AddError(apperror.CodeMissingColumn, fmt.Sprintf("row %d: column %q out of range", rowIdx, name))
		}
		return 0
	}
	v, err := strconv.ParseFloat(row[pos], 64)
	if err != nil {
		if verrs != nil {
			verrs.AddError(apperror.CodeInstanceMalformed, fmt.Sprintf("row %d: column %q: %s", rowIdx, name, err.Error()))
		}
		return 0
	}
	return v
}
