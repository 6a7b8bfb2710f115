// Package ingest builds topology graphs from external sources: YAML files,
// snappy-compressed JSON snapshots, and Postgres. The core never defines a
// wire format of its own; these loaders are the boundary collaborators that
// feed it.
package ingest

import (
	"fmt"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

// HostSpec is one host record as it appears in topology documents.
type HostSpec struct {
	IP       string   `yaml:"ip" json:"ip"`
	Domains  []string `yaml:"domains" json:"domains"`
	Contacts []string `yaml:"contacts" json:"contacts"`
	OS       string   `yaml:"os" json:"os"`
	Hardware []string `yaml:"hardware,omitempty" json:"hardware,omitempty"`
	Software []string `yaml:"software,omitempty" json:"software,omitempty"`
}

// Document is a full topology description: hosts plus undirected links.
type Document struct {
	Hosts []HostSpec  `yaml:"hosts" json:"hosts"`
	Links [][2]string `yaml:"links" json:"links"`
}

// Build converts a document into a topology graph. Host order and link order
// are preserved, which fixes the traversal order for the whole run.
func Build(doc *Document) (*topology.Graph, error) {
	g := topology.New()

	for i, spec := range doc.Hosts {
		h := &inventory.Host{
			IP:       spec.IP,
			Domains:  spec.Domains,
			Contacts: spec.Contacts,
			OS:       inventory.NewComponent(spec.OS),
		}
		for _, hw := range spec.Hardware {
			h.Hardware = append(h.Hardware, inventory.NewComponent(hw))
		}
		for _, sw := range spec.Software {
			h.Software = append(h.Software, inventory.NewComponent(sw))
		}
		if err := g.AddHost(h); err != nil {
			return nil, fmt.Errorf("host %d: %w", i, err)
		}
	}

	for i, link := range doc.Links {
		if err := g.AddLink(link[0], link[1]); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}

	return g, nil
}
