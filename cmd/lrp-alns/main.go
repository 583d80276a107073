// Command lrp-alns loads a location-routing instance from disk, builds an
// initial solution, runs the ALNS driver against it, and prints the best
// objective found. It exists strictly as the thin wiring layer every
// service in this codebase has at cmd/main.go: configuration, logging, and
// metrics setup, then a single call into the package that does the real
// work. No algorithm logic lives here.
//
// # Usage
//
//	lrp-alns -instance ./testdata/instance1 -method nn
//
// # Configuration
//
// Configuration loads via pkg/config: defaults, then an optional
// config.yaml (see CONFIG_PATH), then LRP_-prefixed environment variables
// (e.g. LRP_SOLVER_TOTAL_ITERATIONS, LRP_SOLVER_COOLING, LRP_LOG_LEVEL).
// The -instance and -method flags select the run's input and are not part
// of the layered config, since they name a one-off invocation rather than
// a deployment setting.
//
// # Metrics
//
// When metrics.enabled is true, a Prometheus /metrics endpoint is served
// on metrics.port for the duration of the run.
package main

import (
	"flag"
	"fmt"
	"os"

	"lrpalns/pkg/alns"
	"lrpalns/pkg/config"
	"lrpalns/pkg/instance"
	"lrpalns/pkg/logger"
	"lrpalns/pkg/lrp"
	"lrpalns/pkg/metrics"

	"math/rand"
)

func main() {
	instanceDir := flag.String("instance", "", "path to an instance directory (depot_nodes.csv, customer_nodes.csv, vehicles.csv, and arcs.csv or distance.csv)")
	method := flag.String("method", "nn", "initial-solution method: cw, nn, random, regret2, regret3, cluster")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *instanceDir == "" {
		fmt.Fprintln(os.Stderr, "usage: lrp-alns -instance <dir> [-method nn] [-seed 1]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	if cfg.Metrics.Enabled {
		m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
		logger.Info("metrics server listening", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	s, err := instance.Load(*instanceDir)
	if err != nil {
		logger.Fatal("failed to load instance", "error", err, "dir", *instanceDir)
	}

	rng := rand.New(rand.NewSource(*seed))
	s.TimeTrackingEnabled = cfg.Solver.TimeTrackingOn

	weights := lrp.DefaultWeights
	if err := alns.Build(rng, s, alns.BuildMethod(*method), weights); err != nil {
		logger.Fatal("initial solution construction failed", "error", err, "method", *method)
	}
	logger.Info("initial solution built", "method", *method, "objective", s.Evaluate(weights))

	p := &alns.Params{
		TotalIterations:    cfg.Solver.TotalIterations,
		SegmentSize:        cfg.Solver.SegmentSize,
		LocalSearchCadence: cfg.Solver.LocalSearchCadence,
		LocalSearchBudget:  cfg.Solver.LocalSearchBudget,
		DestroyOperators:   cfg.Solver.DestroyOperators,
		RepairOperators:    cfg.Solver.RepairOperators,
		LocalSearchOps:     cfg.Solver.LocalSearchOps,
		ScoreNewBest:       cfg.Solver.ScoreNewBest,
		ScoreImprovement:   cfg.Solver.ScoreImprovement,
		ScoreAcceptedWorse: cfg.Solver.ScoreAcceptedWorse,
		ReactionFactor:     cfg.Solver.ReactionFactor,
		WeightFloor:        cfg.Solver.WeightFloor,
		StartTempOmega:     cfg.Solver.StartTempOmega,
		StartTempTau:       cfg.Solver.StartTempTau,
		MinTempOmega:       cfg.Solver.MinTempOmega,
		MinTempTau:         cfg.Solver.MinTempTau,
		Cooling:            cfg.Solver.Cooling,
		MinDestroyAbs:      cfg.Solver.MinDestroyAbs,
		MaxDestroyAbs:      cfg.Solver.MaxDestroyAbs,
		MinDestroyFraction: cfg.Solver.MinDestroyFraction,
		MaxDestroyFraction: cfg.Solver.MaxDestroyFraction,
		RegretK:            cfg.Solver.RegretK,
		NoiseFraction:      cfg.Solver.NoiseFraction,
		TimeTracking:       cfg.Solver.TimeTrackingOn,
		Weights:            weights,
	}

	bests, hist, err := alns.Run(rng, p, s)
	if err != nil {
		logger.Fatal("alns run failed", "error", err, "run_id", hist.RunID)
	}

	best := bests[len(bests)-1]
	fmt.Printf("run_id=%s iterations=%d best_objective=%.4f accepted=%d sa_accepted=%d rejected=%d local_search_improvements=%d\n",
		hist.RunID, p.TotalIterations, best.Evaluate(weights), hist.Accepted, hist.SAAccepted, hist.Rejected, hist.LocalSearchImprovements)
}
