package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/csirtlab/hostrisk/pkg/config"
	"github.com/csirtlab/hostrisk/pkg/ingest"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/notify"
	"github.com/csirtlab/hostrisk/pkg/recommend"
	"github.com/csirtlab/hostrisk/pkg/server"
	"github.com/csirtlab/hostrisk/pkg/similarity"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "Listen address")
		topologyPath = flag.String("topology", "", "Topology file (.yaml or .snap)")
		databaseURL  = flag.String("database-url", "", "Load topology from PostgreSQL instead of a file")
		configPath   = flag.String("config", "", "Optional configuration file (YAML)")
		notifyAddr   = flag.String("notify", "", "Optional pub socket address for run broadcasts")
		workers      = flag.Int("workers", 0, "Scoring workers (0 = sequential)")
	)
	flag.Parse()

	logger := logging.NewDefaultLogger()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("config load failed", logging.Error(err))
			os.Exit(1)
		}
		cfg = loaded
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graph, err := loadTopology(ctx, *topologyPath, *databaseURL)
	if err != nil {
		logger.Error("topology load failed", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("topology loaded",
		logging.Int("hosts", graph.HostCount()),
		logging.Int("links", graph.LinkCount()))

	auth, err := buildAuthenticator()
	if err != nil {
		logger.Error("auth setup failed", logging.Error(err))
		os.Exit(1)
	}
	if auth.Enabled() {
		logger.Info("authentication enabled")
	} else {
		logger.Warn("authentication disabled, server is open")
	}

	var publisher *notify.Publisher
	if *notifyAddr != "" {
		publisher, err = notify.NewPublisher(*notifyAddr)
		if err != nil {
			logger.Error("notify setup failed", logging.Error(err))
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("run broadcasts enabled", logging.String("addr", *notifyAddr))
	}

	engine := similarity.NewEngine(cfg.EngineConfig(), logger)
	recommender := recommend.New(engine, logger)

	srv := server.NewServer(graph, recommender, server.Options{
		Addr:        *addr,
		MaxDistance: cfg.MaxDistance,
		Workers:     cfg.Workers,
		Auth:        auth,
		Publisher:   publisher,
		Logger:      logger,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("server exited")
}

// loadTopology prefers the database when a URL is given, otherwise a file.
func loadTopology(ctx context.Context, path, databaseURL string) (*topology.Graph, error) {
	if databaseURL != "" {
		src, err := ingest.NewPGSource(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Load(ctx)
	}
	if strings.HasSuffix(path, ".snap") {
		return ingest.LoadSnapshot(path)
	}
	return ingest.LoadYAML(path)
}

// buildAuthenticator reads credentials from the environment:
// HOSTRISK_JWT_SECRET enables bearer tokens, HOSTRISK_API_KEY_HASHES is a
// comma-separated list of bcrypt hashes.
func buildAuthenticator() (*server.Authenticator, error) {
	secret := os.Getenv("HOSTRISK_JWT_SECRET")

	var hashes []string
	if raw := os.Getenv("HOSTRISK_API_KEY_HASHES"); raw != "" {
		for _, h := range strings.Split(raw, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hashes = append(hashes, h)
			}
		}
	}

	return server.NewAuthenticator(secret, hashes)
}
