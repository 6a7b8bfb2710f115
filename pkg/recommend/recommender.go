// Package recommend orchestrates discovery, scoring and ranking of hosts
// similar to an attacked reference host.
package recommend

import (
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/parallel"
	"github.com/csirtlab/hostrisk/pkg/similarity"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

// Options bounds one recommendation run.
type Options struct {
	MaxDistance int // inclusive BFS bound, >= 0
	Limit       int // 0 = return everything
	Workers     int // scoring parallelism; 0 or 1 = sequential
}

// Result is the output contract handed to presentation: the ranked list plus
// the full pre-truncation candidate count for accurate "found N" reporting.
type Result struct {
	Reference       *inventory.Host
	TotalCandidates int
	MaxDistance     int
	Hosts           []*inventory.Host
	Elapsed         time.Duration
}

// Recommender scores and ranks candidate hosts against a reference.
type Recommender struct {
	engine *similarity.Engine
	logger logging.Logger
}

// New creates a Recommender around a configured similarity engine.
func New(engine *similarity.Engine, logger logging.Logger) *Recommender {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Recommender{engine: engine, logger: logger}
}

// Recommend walks the topology outward from the attacked host, scores every
// candidate found within the distance bound, and returns them sorted by risk
// descending, ties broken by ascending IP. It performs no I/O and never
// mutates the graph.
func (r *Recommender) Recommend(graph *topology.Graph, referenceIP string, opts Options) (*Result, error) {
	if opts.MaxDistance < 0 {
		return nil, fmt.Errorf("max distance must be >= 0, got %d", opts.MaxDistance)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit must be > 0 when set, got %d", opts.Limit)
	}

	start := time.Now()

	reference := graph.Host(referenceIP)
	discovered, err := topology.Discover(graph, referenceIP, opts.MaxDistance)
	if err != nil {
		return nil, err
	}

	r.logger.Info("candidates discovered",
		logging.HostIP(referenceIP),
		logging.Distance(opts.MaxDistance),
		logging.Candidates(len(discovered)),
	)

	scored := make([]*inventory.Host, len(discovered))
	parallel.ForEach(len(discovered), opts.Workers, func(i int) {
		scored[i] = r.engine.Score(reference, discovered[i].Host)
	})

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Risk != scored[j].Risk {
			return scored[i].Risk > scored[j].Risk
		}
		return ipLess(scored[i].IP, scored[j].IP)
	})

	total := len(scored)
	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}

	return &Result{
		Reference:       reference,
		TotalCandidates: total,
		MaxDistance:     opts.MaxDistance,
		Hosts:           scored,
		Elapsed:         time.Since(start),
	}, nil
}

// ipLess orders addresses numerically when both parse, lexically otherwise,
// so risk ties always break the same way.
func ipLess(a, b string) bool {
	addrA, errA := netip.ParseAddr(a)
	addrB, errB := netip.ParseAddr(b)
	if errA == nil && errB == nil {
		return addrA.Less(addrB)
	}
	return a < b
}
