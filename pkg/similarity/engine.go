package similarity

import (
	"fmt"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/logging"
)

// Config fixes the per-run scoring policy. Every candidate in one
// recommendation run is scored with the same weights, so risk values stay
// comparable for sorting.
type Config struct {
	OSWeight          float64
	HardwareWeight    float64
	SoftwareWeight    float64
	CriticalThreshold float64
	FieldWeights      FieldWeights
	RequiredSoftware  []string
}

// DefaultConfig favors the OS category, which is the strongest attack
// surface signal, over hardware and individual software packages.
func DefaultConfig() Config {
	return Config{
		OSWeight:          0.5,
		HardwareWeight:    0.2,
		SoftwareWeight:    0.3,
		CriticalThreshold: 0.5,
		FieldWeights:      DefaultFieldWeights(),
	}
}

type weightedComparator struct {
	cmp    Comparator
	weight float64
}

// Engine orchestrates the comparator hierarchy for host pairs.
type Engine struct {
	comparators []weightedComparator
	totalWeight float64
	logger      logging.Logger
}

// NewEngine builds an engine with the fixed comparator order OS, hardware,
// software. Warning order depends on this and is never reordered afterward.
func NewEngine(cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	comparators := []weightedComparator{
		{
			cmp: NewOSComparator(CategoryConfig{
				Name:              "os",
				Weights:           cfg.FieldWeights,
				CriticalThreshold: cfg.CriticalThreshold,
			}),
			weight: cfg.OSWeight,
		},
		{
			cmp: NewHardwareComparator(CategoryConfig{
				Name:              "hardware",
				Weights:           cfg.FieldWeights,
				CriticalThreshold: cfg.CriticalThreshold,
			}),
			weight: cfg.HardwareWeight,
		},
		{
			cmp: NewSoftwareComparator(CategoryConfig{
				Name:              "software",
				Weights:           cfg.FieldWeights,
				CriticalThreshold: cfg.CriticalThreshold,
				Required:          cfg.RequiredSoftware,
			}),
			weight: cfg.SoftwareWeight,
		},
	}

	total := 0.0
	for _, wc := range comparators {
		total += wc.weight
	}

	return &Engine{comparators: comparators, totalWeight: total, logger: logger}
}

// Score runs every comparator for the pair and returns a scored copy of the
// candidate: risk set to the weighted average of the category similarities,
// one warning appended per critical category result, in comparator order.
// The candidate passed in is never mutated.
func (e *Engine) Score(ref, cand *inventory.Host) *inventory.Host {
	scored := cand.Clone()
	scored.Warnings = nil

	var weightedSum float64
	for _, wc := range e.comparators {
		res := wc.cmp.Compare(ref, cand)
		weightedSum += res.Score * wc.weight

		if res.Critical {
			scored.Warnings = append(scored.Warnings, inventory.Warning{
				Source: fmt.Sprintf("%s: %s", wc.cmp.Name(), res.Detail),
				Score:  res.Score,
			})
		}

		e.logger.Debug("category compared",
			logging.HostIP(cand.IP),
			logging.String("category", wc.cmp.Name()),
			logging.Float64("similarity", res.Score),
			logging.Bool("critical", res.Critical),
		)
	}

	if e.totalWeight > 0 {
		scored.Risk = weightedSum / e.totalWeight
	}
	return scored
}
