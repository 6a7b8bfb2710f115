package topology

import (
	"testing"

	"github.com/csirtlab/hostrisk/pkg/inventory"
)

func TestGraph_AddHostValidates(t *testing.T) {
	g := New()

	err := g.AddHost(&inventory.Host{IP: "10.0.0.1"})
	if err == nil {
		t.Error("Host without domains/contacts should be rejected")
	}

	if err := g.AddHost(testHost("10.0.0.1")); err != nil {
		t.Fatalf("AddHost failed: %v", err)
	}
	if g.HostCount() != 1 {
		t.Errorf("HostCount: expected 1, got %d", g.HostCount())
	}
}

func TestGraph_AddLinkRequiresBothEndpoints(t *testing.T) {
	g := New()
	g.AddHost(testHost("10.0.0.1"))

	if err := g.AddLink("10.0.0.1", "10.0.0.9"); err == nil {
		t.Error("Link to unregistered host should fail")
	}
	if err := g.AddLink("10.0.0.1", "10.0.0.1"); err == nil {
		t.Error("Self-link should fail")
	}
}

func TestGraph_LinksAreUndirected(t *testing.T) {
	g := New()
	g.AddHost(testHost("10.0.0.1"))
	g.AddHost(testHost("10.0.0.2"))
	if err := g.AddLink("10.0.0.1", "10.0.0.2"); err != nil {
		t.Fatalf("AddLink failed: %v", err)
	}

	if n := g.Neighbors("10.0.0.1"); len(n) != 1 || n[0] != "10.0.0.2" {
		t.Errorf("Forward adjacency wrong: %v", n)
	}
	if n := g.Neighbors("10.0.0.2"); len(n) != 1 || n[0] != "10.0.0.1" {
		t.Errorf("Reverse adjacency wrong: %v", n)
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount: expected 1, got %d", g.LinkCount())
	}
}

func TestGraph_NeighborsReturnsCopy(t *testing.T) {
	g := New()
	g.AddHost(testHost("10.0.0.1"))
	g.AddHost(testHost("10.0.0.2"))
	g.AddLink("10.0.0.1", "10.0.0.2")

	n := g.Neighbors("10.0.0.1")
	n[0] = "tampered"

	if g.Neighbors("10.0.0.1")[0] != "10.0.0.2" {
		t.Error("Mutating the returned slice must not affect the graph")
	}
}
