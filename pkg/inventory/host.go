// Package inventory models the hosts a recommendation run operates on.
package inventory

import (
	"fmt"
	"strings"

	"github.com/csirtlab/hostrisk/pkg/cpe"
)

// Component is one platform identifier attached to a host. The raw string is
// kept next to the parse result so scoring can degrade gracefully on bad data
// instead of failing the run.
type Component struct {
	Raw string
	ID  cpe.Identifier
	Err error // non-nil when Raw could not be parsed
}

// NewComponent parses raw into a Component. A parse failure is recorded on
// the component, not returned.
func NewComponent(raw string) Component {
	id, err := cpe.Parse(raw)
	return Component{Raw: raw, ID: id, Err: err}
}

// String returns the parsed identifier when available, the raw input otherwise.
func (c Component) String() string {
	if c.Err != nil {
		return c.Raw
	}
	return c.ID.String()
}

// Warning records one critical comparator result against a host.
type Warning struct {
	Source string  // which component pair triggered it
	Score  float64 // the partial similarity at the time
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (similarity %.4f)", w.Source, w.Score)
}

// Host aggregates a machine's identity, its platform identifiers, and the
// outcome of a scoring run. Risk and Warnings are written only by the
// similarity engine; everything else is populated at ingest time.
type Host struct {
	IP       string
	Domains  []string
	Contacts []string

	OS       Component
	Hardware []Component
	Software []Component

	Risk     float64
	Warnings []Warning
}

// Clone returns a deep copy. The similarity engine scores a clone so the
// topology's host instances are never mutated mid-run.
func (h *Host) Clone() *Host {
	clone := &Host{
		IP:       h.IP,
		Domains:  make([]string, len(h.Domains)),
		Contacts: make([]string, len(h.Contacts)),
		OS:       h.OS,
		Hardware: make([]Component, len(h.Hardware)),
		Software: make([]Component, len(h.Software)),
		Risk:     h.Risk,
	}
	copy(clone.Domains, h.Domains)
	copy(clone.Contacts, h.Contacts)
	copy(clone.Hardware, h.Hardware)
	copy(clone.Software, h.Software)
	if len(h.Warnings) > 0 {
		clone.Warnings = make([]Warning, len(h.Warnings))
		copy(clone.Warnings, h.Warnings)
	}
	return clone
}

// Validate checks the identity invariants: an IP and at least one domain and
// contact each.
func (h *Host) Validate() error {
	if h.IP == "" {
		return fmt.Errorf("host has no ip address")
	}
	if len(h.Domains) == 0 {
		return fmt.Errorf("host %s has no domains", h.IP)
	}
	if len(h.Contacts) == 0 {
		return fmt.Errorf("host %s has no contacts", h.IP)
	}
	return nil
}

func (h *Host) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", h.IP, strings.Join(h.Domains, ", "))
	fmt.Fprintf(&b, "\n  os: %s", h.OS)
	if len(h.Software) > 0 {
		names := make([]string, len(h.Software))
		for i, c := range h.Software {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, "\n  software: %s", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "\n  contact: %s", strings.Join(h.Contacts, ", "))
	return b.String()
}
