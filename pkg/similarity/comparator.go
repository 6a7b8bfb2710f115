// Package similarity scores how alike two hosts' platform stacks are.
//
// One shared comparison algorithm runs for every component category; the
// categories differ only in their field weighting and critical-mismatch
// policy, carried in a CategoryConfig.
package similarity

import (
	"fmt"

	"github.com/csirtlab/hostrisk/pkg/cpe"
	"github.com/csirtlab/hostrisk/pkg/inventory"
)

// FieldWeights controls how much each identifier field contributes to a
// single-pair comparison.
type FieldWeights struct {
	Vendor  float64
	Product float64
	Version float64
}

// DefaultFieldWeights weight vendor and product equally and version lightly:
// a version gap is a minor signal, a vendor or product gap is not.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{Vendor: 0.4, Product: 0.4, Version: 0.2}
}

func (w FieldWeights) total() float64 {
	return w.Vendor + w.Product + w.Version
}

// Comparison is the outcome of comparing one component pair.
type Comparison struct {
	Score    float64
	Critical bool
}

// CategoryConfig parameterizes the shared algorithm for one component
// category. Subtyping happens here, not through method overrides.
type CategoryConfig struct {
	Name              string
	Weights           FieldWeights
	CriticalThreshold float64  // mean critical ratio above which the category result is critical
	Required          []string // products that must appear on the candidate
}

// Result is one category's contribution to a host pair's score.
type Result struct {
	Score    float64
	Critical bool
	Detail   string // identifies the mismatching component(s) for warning text
}

// Comparator scores one component category of a host pair.
type Comparator interface {
	Name() string
	Compare(ref, cand *inventory.Host) Result
}

// fieldScore compares one positional field. A wildcard on both sides or an
// exact match scores full credit; a value present on only one side is a
// partial, non-critical difference; two differing values score nothing.
func fieldScore(a, b string) float64 {
	aAny, bAny := cpe.IsAny(a), cpe.IsAny(b)
	switch {
	case aAny && bAny:
		return 1
	case aAny || bAny:
		return 0.5
	case a == b:
		return 1
	default:
		return 0
	}
}

func bothPresentAndDiffer(a, b string) bool {
	return !cpe.IsAny(a) && !cpe.IsAny(b) && a != b
}

// compareIdentifiers is the field-wise single-pair rule from which every
// category comparison is built. A vendor or product conflict is critical and
// discounts the pair to zero.
func compareIdentifiers(ref, cand cpe.Identifier, w FieldWeights) Comparison {
	if ref.Part != cand.Part {
		return Comparison{Score: 0, Critical: true}
	}

	critical := bothPresentAndDiffer(ref.Vendor, cand.Vendor) ||
		bothPresentAndDiffer(ref.Product, cand.Product)
	if critical {
		return Comparison{Score: 0, Critical: true}
	}

	score := fieldScore(ref.Vendor, cand.Vendor)*w.Vendor +
		fieldScore(ref.Product, cand.Product)*w.Product +
		fieldScore(ref.Version, cand.Version)*w.Version
	if t := w.total(); t > 0 {
		score /= t
	}
	return Comparison{Score: score}
}

// compareComponents applies the single-pair rule to parsed components.
// Unparseable data on either side is treated as maximally suspicious.
func compareComponents(ref, cand inventory.Component, w FieldWeights) Comparison {
	if ref.Err != nil || cand.Err != nil {
		return Comparison{Score: 0, Critical: true}
	}
	return compareIdentifiers(ref.ID, cand.ID, w)
}

// singleComparator handles categories with exactly one component per host,
// such as the operating system.
type singleComparator struct {
	cfg  CategoryConfig
	pick func(h *inventory.Host) inventory.Component
}

func (c *singleComparator) Name() string { return c.cfg.Name }

func (c *singleComparator) Compare(ref, cand *inventory.Host) Result {
	refComp, candComp := c.pick(ref), c.pick(cand)
	cmp := compareComponents(refComp, candComp, c.cfg.Weights)
	return Result{
		Score:    cmp.Score,
		Critical: cmp.Critical,
		Detail:   candComp.String(),
	}
}

// multiComparator handles categories holding a set of components, such as
// the installed software stack. Each reference component is greedily matched
// against the candidate component maximizing single-pair similarity, ties
// broken by first-encountered order so results are deterministic.
type multiComparator struct {
	cfg  CategoryConfig
	pick func(h *inventory.Host) []inventory.Component
}

func (c *multiComparator) Name() string { return c.cfg.Name }

func (c *multiComparator) Compare(ref, cand *inventory.Host) Result {
	refComps, candComps := c.pick(ref), c.pick(cand)

	if len(refComps) == 0 && len(candComps) == 0 {
		return Result{Score: 1}
	}

	// Components unmatched on either side contribute zero, so the mean runs
	// over the larger of the two sets.
	denom := len(refComps)
	if len(candComps) > denom {
		denom = len(candComps)
	}

	var sum float64
	criticalPairs := 0
	detail := ""

	for _, rc := range refComps {
		best := Comparison{Score: -1}
		bestDetail := ""
		for _, cc := range candComps {
			cmp := compareComponents(rc, cc, c.cfg.Weights)
			if cmp.Score > best.Score {
				best = cmp
				bestDetail = cc.String()
			}
		}
		if best.Score < 0 {
			// Candidate set is empty: nothing to match against.
			best = Comparison{Score: 0}
			bestDetail = "absent"
		}
		sum += best.Score
		if best.Critical {
			criticalPairs++
			if detail == "" {
				detail = fmt.Sprintf("%s vs %s", rc.String(), bestDetail)
			}
		}
	}

	score := sum / float64(denom)

	critical := false
	if len(refComps) > 0 {
		ratio := float64(criticalPairs) / float64(len(refComps))
		critical = ratio > c.cfg.CriticalThreshold
	}
	if missing := c.missingRequired(candComps); missing != "" {
		critical = true
		if detail == "" {
			detail = fmt.Sprintf("required component %s missing", missing)
		}
	}

	if detail == "" {
		detail = fmt.Sprintf("%d of %d components mismatched", criticalPairs, denom)
	}

	return Result{Score: score, Critical: critical, Detail: detail}
}

// missingRequired returns the first configured must-have product entirely
// absent from the candidate's components, or "".
func (c *multiComparator) missingRequired(comps []inventory.Component) string {
	for _, req := range c.cfg.Required {
		found := false
		for _, comp := range comps {
			if comp.Err == nil && comp.ID.Product == req {
				found = true
				break
			}
		}
		if !found {
			return req
		}
	}
	return ""
}

// NewOSComparator compares the single operating system component.
func NewOSComparator(cfg CategoryConfig) Comparator {
	return &singleComparator{
		cfg:  cfg,
		pick: func(h *inventory.Host) inventory.Component { return h.OS },
	}
}

// NewHardwareComparator compares the hardware component set.
func NewHardwareComparator(cfg CategoryConfig) Comparator {
	return &multiComparator{
		cfg:  cfg,
		pick: func(h *inventory.Host) []inventory.Component { return h.Hardware },
	}
}

// NewSoftwareComparator compares the installed software stacks.
func NewSoftwareComparator(cfg CategoryConfig) Comparator {
	return &multiComparator{
		cfg:  cfg,
		pick: func(h *inventory.Host) []inventory.Component { return h.Software },
	}
}
