package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/collective-sim/collective-sim/sim"
	"github.com/collective-sim/collective-sim/sim/cluster"
	"github.com/collective-sim/collective-sim/sim/topology"
)

var (
	inspectNode int      // Node whose neighbors the topology command prints
	tierSpecs   []string // kind:size per hierarchical tier, innermost first
)

// topologyCmd prints what one node sees of the system topology
var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print a node's dimensions and neighbors",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg := sim.DefaultConfig()
		if configPath != "" {
			loaded, err := sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			cfg = loaded
		}
		if err := applyTopologyFlags(cmd, &cfg.Topology); err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("invalid configuration: %v", err)
		}
		if err := describeTopology(os.Stdout, cfg.Topology, inspectNode); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// describeTopology writes every dimension of node's system topology with
// its receivers and senders in both directions.
func describeTopology(w io.Writer, tc sim.TopologyConfig, node int) error {
	topo, err := cluster.BuildSystemTopology(tc, node, logrus.StandardLogger())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "node %d: %s topology of %d nodes, %d dimension(s)\n", node, tc.Kind, tc.Nodes, topo.NumDimensions())
	for d := 0; d < topo.NumDimensions(); d++ {
		b := topo.At(d)
		fmt.Fprintf(w, "dim %d: %s %s, shape %v, index %d, members %v\n",
			d, b.Role(), b.Kind(), b.Dims(), b.Index(), b.Members())
		for _, dir := range []topology.Direction{topology.Clockwise, topology.Anticlockwise} {
			fmt.Fprintf(w, "  %-13s receivers %v  senders %v\n", dir, b.Receivers(node, dir), b.Senders(node, dir))
		}
	}
	return nil
}

// parseTiers turns "ring:4" style specs into tier configs.
func parseTiers(specs []string) ([]sim.TierConfig, error) {
	tiers := make([]sim.TierConfig, 0, len(specs))
	for _, entry := range specs {
		kind, size, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: want kind:size", entry)
		}
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", entry, err)
		}
		tiers = append(tiers, sim.TierConfig{Kind: kind, Size: n})
	}
	return tiers, nil
}

func registerTopologyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (flags override its values)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&topologyKind, "topology", "ring", "Topology kind (ring, mesh, torus, hierarchical)")
	cmd.Flags().IntVar(&numNodes, "nodes", 16, "Number of NPUs")
	cmd.Flags().IntSliceVar(&topologyDims, "dims", nil, "Comma-separated mesh/torus shape, e.g. 2,4")
	cmd.Flags().StringSliceVar(&tierSpecs, "tiers", nil, "Hierarchical tiers as kind:size, innermost first, e.g. ring:4,ring:2")
	cmd.Flags().IntVar(&inspectNode, "node", 0, "Node to describe")
}
