// Package topology holds the in-memory network adjacency graph and the
// bounded traversal that discovers candidate hosts around an attacked one.
package topology

import (
	"errors"
	"fmt"

	"github.com/csirtlab/hostrisk/pkg/inventory"
)

var (
	// ErrEmptyTopology is returned when a traversal is requested on a graph
	// with no hosts.
	ErrEmptyTopology = errors.New("topology has no hosts")

	// ErrUnknownReferenceHost is returned when the reference host is not a
	// node of the topology.
	ErrUnknownReferenceHost = errors.New("reference host not found in topology")
)

// Graph is an undirected adjacency graph over host identities, keyed by IP.
// Adjacency lists keep insertion order so traversals are deterministic with
// respect to how the topology was built. The recommender never mutates a
// graph once built.
type Graph struct {
	hosts map[string]*inventory.Host
	order []string            // IPs in insertion order
	adj   map[string][]string // IP -> neighbor IPs, insertion-ordered
}

// New creates an empty topology graph.
func New() *Graph {
	return &Graph{
		hosts: make(map[string]*inventory.Host),
		adj:   make(map[string][]string),
	}
}

// AddHost registers a host node. Re-adding an IP replaces the host record
// but keeps its adjacency.
func (g *Graph) AddHost(h *inventory.Host) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if _, exists := g.hosts[h.IP]; !exists {
		g.order = append(g.order, h.IP)
	}
	g.hosts[h.IP] = h
	return nil
}

// AddLink records an undirected adjacency between two registered hosts.
// Duplicate links and self-links are rejected.
func (g *Graph) AddLink(a, b string) error {
	if a == b {
		return fmt.Errorf("self-link on %s", a)
	}
	if _, ok := g.hosts[a]; !ok {
		return fmt.Errorf("link endpoint %s: %w", a, ErrUnknownReferenceHost)
	}
	if _, ok := g.hosts[b]; !ok {
		return fmt.Errorf("link endpoint %s: %w", b, ErrUnknownReferenceHost)
	}
	for _, n := range g.adj[a] {
		if n == b {
			return fmt.Errorf("duplicate link %s-%s", a, b)
		}
	}
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
	return nil
}

// Host returns the host registered under ip, or nil.
func (g *Graph) Host(ip string) *inventory.Host {
	return g.hosts[ip]
}

// Neighbors returns ip's adjacency list in insertion order. The returned
// slice is a copy.
func (g *Graph) Neighbors(ip string) []string {
	src := g.adj[ip]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// HostIPs returns every registered IP in insertion order.
func (g *Graph) HostIPs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// HostCount returns the number of registered hosts.
func (g *Graph) HostCount() int {
	return len(g.hosts)
}

// LinkCount returns the number of undirected links.
func (g *Graph) LinkCount() int {
	total := 0
	for _, n := range g.adj {
		total += len(n)
	}
	return total / 2
}
