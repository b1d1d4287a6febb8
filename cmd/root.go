package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/collective-sim/collective-sim/sim"
	"github.com/collective-sim/collective-sim/sim/cluster"
	"github.com/collective-sim/collective-sim/sim/trace"
)

var (
	// CLI flags for the run command
	configPath        string // YAML configuration file; flags override it
	topologyKind      string // ring, mesh, torus or hierarchical
	numNodes          int    // Number of NPUs
	topologyDims      []int  // Optional mesh/torus shape
	collectiveType    string // all-reduce, all-gather, reduce-scatter, all-to-all
	dataSize          uint64 // Bytes each node contributes
	injectionPolicy   string // normal or aggressive
	unidirectional    bool   // Only run the clockwise stream
	collectiveNPUs    []int  // Subset of nodes taking part; empty = all
	groupID           int    // Communicator group id
	seed              int64  // Seed for link jitter
	simulationHorizon int64  // Ticks after which the run stops; 0 = drain
	linkJitter        int64  // Max extra ticks added to each message
	traceLevel        string // none or packets
	tracePath         string // Where to export the packet trace
	traceFormat       string // json or msgpack
	traceCompression  string // none, gzip or zstd
	resultsPath       string // Where to save the run report as JSON
	summarizeTrace    bool   // Print a trace summary after the report
	logLevel          string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "collective-sim",
	Short: "Discrete-event simulator for collective communication over logical topologies",
}

// runCmd executes the simulation using a config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a collective to completion",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := loadRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		s, err := cluster.NewSimulator(cfg, logrus.StandardLogger())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := s.StartCollective(cfg.Collective); err != nil {
			logrus.Fatalf("starting collective: %v", err)
		}
		report := s.Run()
		report.Print(os.Stdout)
		logrus.Infof("Simulated %d ticks in %v", s.Clock, time.Since(startTime))

		if summarizeTrace && s.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		if tracePath != "" {
			if err := writeTrace(tracePath, s.Trace, cfg.Trace); err != nil {
				logrus.Fatalf("writing trace: %v", err)
			}
			logrus.Infof("Trace written to %s", tracePath)
		}
		if resultsPath != "" {
			if err := report.SaveJSON(resultsPath); err != nil {
				logrus.Fatalf("saving results: %v", err)
			}
			logrus.Infof("Results written to %s", resultsPath)
		}
		if len(report.Stalled) > 0 {
			os.Exit(2)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadRunConfig layers the config file (or the defaults) under every flag
// the user set explicitly, then validates the result.
func loadRunConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyRunFlags(cmd *cobra.Command, cfg *sim.Config) error {
	flags := cmd.Flags()
	if err := applyTopologyFlags(cmd, &cfg.Topology); err != nil {
		return err
	}
	if flags.Changed("collective") {
		cfg.Collective.Type = collectiveType
	}
	if flags.Changed("data-size") {
		cfg.Collective.DataSize = dataSize
	}
	if flags.Changed("injection") {
		cfg.Collective.Injection = injectionPolicy
	}
	if flags.Changed("unidirectional") {
		cfg.Collective.Bidirectional = !unidirectional
	}
	if flags.Changed("npus") {
		cfg.Collective.NPUs = collectiveNPUs
	}
	if flags.Changed("group-id") {
		cfg.Collective.GroupID = groupID
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Horizon = simulationHorizon
	}
	if flags.Changed("jitter") {
		cfg.Network.Jitter = linkJitter
	}
	if flags.Changed("trace-level") {
		cfg.Trace.Level = traceLevel
	}
	if flags.Changed("trace-format") {
		cfg.Trace.Format = traceFormat
	}
	if flags.Changed("trace-compression") {
		cfg.Trace.Compression = traceCompression
	}
	if flags.Changed("trace-path") {
		cfg.Trace.Path = tracePath
	}
	// exporting or summarizing needs something recorded
	if (cfg.Trace.Path != "" || summarizeTrace) && cfg.Trace.Level != string(trace.TraceLevelPackets) {
		cfg.Trace.Level = string(trace.TraceLevelPackets)
	}
	tracePath = cfg.Trace.Path
	return nil
}

func applyTopologyFlags(cmd *cobra.Command, tc *sim.TopologyConfig) error {
	flags := cmd.Flags()
	if flags.Changed("topology") {
		tc.Kind = topologyKind
		if topologyKind != "hierarchical" {
			tc.Tiers = nil
		}
	}
	if flags.Changed("tiers") {
		tiers, err := parseTiers(tierSpecs)
		if err != nil {
			return err
		}
		tc.Tiers = tiers
		// recomputed from the tiers unless given explicitly
		tc.Nodes = 0
	}
	if flags.Changed("nodes") {
		tc.Nodes = numNodes
	}
	if flags.Changed("dims") {
		tc.Dims = topologyDims
	}
	return nil
}

func writeTrace(path string, st *trace.SimulationTrace, tc sim.TraceConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Export(f, st, tc.Format, trace.Compression(tc.Compression)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run command's flags to the package-level vars.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (flags override its values)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// System topology
	cmd.Flags().StringVar(&topologyKind, "topology", "ring", "Topology kind (ring, mesh, torus, hierarchical)")
	cmd.Flags().IntVar(&numNodes, "nodes", 16, "Number of NPUs")
	cmd.Flags().IntSliceVar(&topologyDims, "dims", nil, "Comma-separated mesh/torus shape, e.g. 2,4")

	// Collective
	cmd.Flags().StringVar(&collectiveType, "collective", "all-reduce", "Collective (all-reduce, all-gather, reduce-scatter, all-to-all)")
	cmd.Flags().Uint64Var(&dataSize, "data-size", 1<<20, "Bytes each node contributes")
	cmd.Flags().StringVar(&injectionPolicy, "injection", "normal", "Injection policy (normal, aggressive)")
	cmd.Flags().BoolVar(&unidirectional, "unidirectional", false, "Run only the clockwise stream")
	cmd.Flags().IntSliceVar(&collectiveNPUs, "npus", nil, "Comma-separated subset of nodes taking part (default all)")
	cmd.Flags().IntVar(&groupID, "group-id", 1, "Communicator group id")

	// Run control
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for link jitter")
	cmd.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Stop after this many ticks (0 = run until idle)")
	cmd.Flags().Int64Var(&linkJitter, "jitter", 0, "Max extra ticks of random delay per message")

	// Outputs
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace level (none, packets)")
	cmd.Flags().StringVar(&tracePath, "trace-path", "", "Export the packet trace to this file")
	cmd.Flags().StringVar(&traceFormat, "trace-format", "json", "Trace encoding (json, msgpack)")
	cmd.Flags().StringVar(&traceCompression, "trace-compression", "none", "Trace compression (none, gzip, zstd)")
	cmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Print trace statistics after the report")
	cmd.Flags().StringVar(&resultsPath, "results-path", "", "Save the run report as JSON to this file")
	cmd.Flags().StringSliceVar(&tierSpecs, "tiers", nil, "Hierarchical tiers as kind:size, innermost first, e.g. ring:4,ring:2")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	registerTopologyFlags(topologyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(topologyCmd)
}
