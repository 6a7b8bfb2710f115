package topology

import (
	"errors"
	"fmt"
	"testing"

	"github.com/csirtlab/hostrisk/pkg/inventory"
)

func testHost(ip string) *inventory.Host {
	return &inventory.Host{
		IP:       ip,
		Domains:  []string{fmt.Sprintf("host-%s.example.org", ip)},
		Contacts: []string{"admin@example.org"},
		OS:       inventory.NewComponent("cpe:/o:acme:linux:5.1"),
	}
}

func buildChain(t *testing.T, ips ...string) *Graph {
	t.Helper()
	g := New()
	for _, ip := range ips {
		if err := g.AddHost(testHost(ip)); err != nil {
			t.Fatalf("AddHost(%s) failed: %v", ip, err)
		}
	}
	for i := 1; i < len(ips); i++ {
		if err := g.AddLink(ips[i-1], ips[i]); err != nil {
			t.Fatalf("AddLink failed: %v", err)
		}
	}
	return g
}

func TestDiscover_Chain(t *testing.T) {
	// A-B-C-D chain, reference A, maxDistance 2: B at 1, C at 2, D excluded.
	g := buildChain(t, "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4")

	found, err := Discover(g, "10.0.0.1", 2)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(found) != 2 {
		t.Fatalf("Expected 2 hosts, got %d", len(found))
	}
	if found[0].Host.IP != "10.0.0.2" || found[0].Distance != 1 {
		t.Errorf("First: expected 10.0.0.2 at distance 1, got %s at %d", found[0].Host.IP, found[0].Distance)
	}
	if found[1].Host.IP != "10.0.0.3" || found[1].Distance != 2 {
		t.Errorf("Second: expected 10.0.0.3 at distance 2, got %s at %d", found[1].Host.IP, found[1].Distance)
	}
}

func TestDiscover_ExcludesReference(t *testing.T) {
	// Cycle A-B, traversal must not rediscover the reference.
	g := buildChain(t, "10.0.0.1", "10.0.0.2")
	if err := g.AddLink("10.0.0.2", "10.0.0.1"); err == nil {
		t.Fatal("Duplicate link should be rejected")
	}

	found, err := Discover(g, "10.0.0.1", 5)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	for _, d := range found {
		if d.Host.IP == "10.0.0.1" {
			t.Error("Reference host must not appear in results")
		}
	}
	if len(found) != 1 {
		t.Errorf("Expected 1 host, got %d", len(found))
	}
}

func TestDiscover_ZeroDistance(t *testing.T) {
	g := buildChain(t, "10.0.0.1", "10.0.0.2")

	found, err := Discover(g, "10.0.0.1", 0)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("maxDistance 0 should find nothing, got %d", len(found))
	}
}

func TestDiscover_IsolatedReference(t *testing.T) {
	g := New()
	if err := g.AddHost(testHost("10.0.0.1")); err != nil {
		t.Fatalf("AddHost failed: %v", err)
	}

	found, err := Discover(g, "10.0.0.1", 3)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("No neighbors should mean no results, got %d", len(found))
	}
}

func TestDiscover_LevelOrderIsDeterministic(t *testing.T) {
	// Star plus a second level; order must follow link insertion order.
	g := New()
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		if err := g.AddHost(testHost(ip)); err != nil {
			t.Fatalf("AddHost failed: %v", err)
		}
	}
	g.AddLink("10.0.0.1", "10.0.0.3")
	g.AddLink("10.0.0.1", "10.0.0.2")
	g.AddLink("10.0.0.2", "10.0.0.4")

	want := []string{"10.0.0.3", "10.0.0.2", "10.0.0.4"}
	for run := 0; run < 5; run++ {
		found, err := Discover(g, "10.0.0.1", 2)
		if err != nil {
			t.Fatalf("Discover failed: %v", err)
		}
		if len(found) != len(want) {
			t.Fatalf("Expected %d hosts, got %d", len(want), len(found))
		}
		for i, d := range found {
			if d.Host.IP != want[i] {
				t.Errorf("Run %d position %d: expected %s, got %s", run, i, want[i], d.Host.IP)
			}
		}
	}
}

func TestDiscover_ShortestDistanceWins(t *testing.T) {
	// Diamond: A-B, A-C, B-D, C-D. D is at distance 2 via either path.
	g := New()
	for _, ip := range []string{"a", "b", "c", "d"} {
		if err := g.AddHost(testHost(ip)); err != nil {
			t.Fatalf("AddHost failed: %v", err)
		}
	}
	g.AddLink("a", "b")
	g.AddLink("a", "c")
	g.AddLink("b", "d")
	g.AddLink("c", "d")

	found, err := Discover(g, "a", 3)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("Expected 3 hosts, got %d", len(found))
	}
	for _, disc := range found {
		if disc.Host.IP == "d" && disc.Distance != 2 {
			t.Errorf("d should be discovered at distance 2, got %d", disc.Distance)
		}
	}
}

func TestDiscover_Errors(t *testing.T) {
	if _, err := Discover(New(), "10.0.0.1", 1); !errors.Is(err, ErrEmptyTopology) {
		t.Errorf("Empty graph: expected ErrEmptyTopology, got %v", err)
	}

	g := buildChain(t, "10.0.0.1")
	if _, err := Discover(g, "192.168.0.9", 1); !errors.Is(err, ErrUnknownReferenceHost) {
		t.Errorf("Unknown reference: expected ErrUnknownReferenceHost, got %v", err)
	}

	if _, err := Discover(g, "10.0.0.1", -1); err == nil {
		t.Error("Negative maxDistance should be rejected")
	}
}
