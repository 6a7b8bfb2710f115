package topology

import (
	"fmt"

	"github.com/csirtlab/hostrisk/pkg/inventory"
)

// Discovery is one candidate host found by a traversal, with its shortest
// hop distance from the reference host.
type Discovery struct {
	Host     *inventory.Host
	Distance int
}

type bfsEntry struct {
	ip  string
	hop int
}

// Discover performs a breadth-first search from referenceIP, returning every
// host within maxDistance hops inclusive. The reference host itself is never
// included. Results come in non-decreasing distance, and within one distance
// in the order edges were added to their discovering parent, so a given
// topology always yields the same sequence.
//
// maxDistance 0 or a reference with no neighbors yields an empty, non-error
// result. A visited-set handles cycles; per-node state is never stored on
// the graph, so the same topology can be traversed concurrently from
// different reference hosts.
func Discover(g *Graph, referenceIP string, maxDistance int) ([]Discovery, error) {
	if maxDistance < 0 {
		return nil, fmt.Errorf("max distance must be >= 0, got %d", maxDistance)
	}
	if g.HostCount() == 0 {
		return nil, ErrEmptyTopology
	}
	if g.Host(referenceIP) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReferenceHost, referenceIP)
	}

	visited := map[string]bool{referenceIP: true}
	queue := []bfsEntry{{ip: referenceIP, hop: 0}}
	var found []Discovery

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.hop >= maxDistance {
			continue
		}
		nextHop := current.hop + 1

		for _, neighbor := range g.Neighbors(current.ip) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			found = append(found, Discovery{Host: g.Host(neighbor), Distance: nextHop})
			queue = append(queue, bfsEntry{ip: neighbor, hop: nextHop})
		}
	}

	return found, nil
}
