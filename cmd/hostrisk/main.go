package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/csirtlab/hostrisk/pkg/config"
	"github.com/csirtlab/hostrisk/pkg/ingest"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/recommend"
	"github.com/csirtlab/hostrisk/pkg/render"
	"github.com/csirtlab/hostrisk/pkg/similarity"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

func main() {
	var (
		topologyPath = flag.String("topology", "", "Topology file (.yaml or .snap)")
		configPath   = flag.String("config", "", "Optional configuration file (YAML)")
		attackedIP   = flag.String("ip", "", "IP address of the attacked host")
		maxDistance  = flag.Int("max-distance", -1, "Maximum link distance from the attacked host")
		limit        = flag.Int("limit", -1, "Maximum hosts to display (0 = all)")
		workers      = flag.Int("workers", 0, "Scoring workers (0 = sequential)")
		verbose      = flag.Bool("verbose", false, "Show per-host similarity warnings")
	)
	flag.Parse()

	logger := logging.NewDefaultLogger()

	if *topologyPath == "" || *attackedIP == "" {
		fmt.Fprintln(os.Stderr, "usage: hostrisk -topology <file> -ip <attacked host> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("config load failed", logging.Error(err))
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override file configuration.
	if *maxDistance >= 0 {
		cfg.MaxDistance = *maxDistance
	}
	if *limit >= 0 {
		cfg.Limit = *limit
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *verbose {
		cfg.Verbose = true
	}

	graph, err := loadTopology(*topologyPath)
	if err != nil {
		logger.Error("topology load failed",
			logging.String("path", *topologyPath), logging.Error(err))
		os.Exit(1)
	}

	runID := uuid.NewString()
	runLogger := logger.With(logging.RunID(runID))
	runLogger.Info("run starting",
		logging.HostIP(*attackedIP),
		logging.Int("hosts", graph.HostCount()),
		logging.Distance(cfg.MaxDistance))

	engine := similarity.NewEngine(cfg.EngineConfig(), runLogger)
	recommender := recommend.New(engine, runLogger)

	res, err := recommender.Recommend(graph, *attackedIP, recommend.Options{
		MaxDistance: cfg.MaxDistance,
		Limit:       cfg.Limit,
		Workers:     cfg.Workers,
	})
	if err != nil {
		runLogger.Error("recommendation failed", logging.Error(err))
		os.Exit(1)
	}

	runLogger.Info("run complete",
		logging.Candidates(res.TotalCandidates),
		logging.Latency(res.Elapsed))

	printer := render.NewPrinter(os.Stdout, cfg.Limit, cfg.Verbose)
	printer.PrintResult(res)
}

// loadTopology picks the loader by file extension. Snapshots are the
// snappy-compressed format WriteSnapshot produces; everything else is
// treated as YAML.
func loadTopology(path string) (*topology.Graph, error) {
	if strings.HasSuffix(path, ".snap") {
		return ingest.LoadSnapshot(path)
	}
	return ingest.LoadYAML(path)
}
