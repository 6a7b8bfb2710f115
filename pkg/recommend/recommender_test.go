package recommend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/similarity"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

func newHost(ip, os string, software ...string) *inventory.Host {
	h := &inventory.Host{
		IP:       ip,
		Domains:  []string{fmt.Sprintf("host-%s.example.org", ip)},
		Contacts: []string{"csirt@example.org"},
		OS:       inventory.NewComponent(os),
	}
	for _, s := range software {
		h.Software = append(h.Software, inventory.NewComponent(s))
	}
	return h
}

// starGraph builds a reference linked directly to every other host.
func starGraph(t *testing.T, reference *inventory.Host, others ...*inventory.Host) *topology.Graph {
	t.Helper()
	g := topology.New()
	require.NoError(t, g.AddHost(reference))
	for _, h := range others {
		require.NoError(t, g.AddHost(h))
		require.NoError(t, g.AddLink(reference.IP, h.IP))
	}
	return g
}

func newRecommender() *Recommender {
	engine := similarity.NewEngine(similarity.DefaultConfig(), logging.NewNopLogger())
	return New(engine, logging.NewNopLogger())
}

func TestRecommend_RanksByRiskDescending(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	twin := newHost("10.0.0.2", "cpe:/o:acme:linux:5.1")
	near := newHost("10.0.0.3", "cpe:/o:acme:linux:4.9")
	far := newHost("10.0.0.4", "cpe:/o:microsoft:windows:10")

	g := starGraph(t, ref, far, near, twin)

	res, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1})
	require.NoError(t, err)

	require.Len(t, res.Hosts, 3)
	assert.Equal(t, "10.0.0.2", res.Hosts[0].IP)
	assert.Equal(t, "10.0.0.3", res.Hosts[1].IP)
	assert.Equal(t, "10.0.0.4", res.Hosts[2].IP)
	for i := 1; i < len(res.Hosts); i++ {
		assert.GreaterOrEqual(t, res.Hosts[i-1].Risk, res.Hosts[i].Risk)
	}
}

func TestRecommend_TiesBreakByAscendingIP(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	// Two identical candidates; 10.0.0.9 added before 10.0.0.2 to prove the
	// tie-break does not follow insertion or discovery order.
	a := newHost("10.0.0.9", "cpe:/o:acme:linux:5.1")
	b := newHost("10.0.0.2", "cpe:/o:acme:linux:5.1")

	g := starGraph(t, ref, a, b)

	res, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1})
	require.NoError(t, err)

	require.Len(t, res.Hosts, 2)
	assert.Equal(t, res.Hosts[0].Risk, res.Hosts[1].Risk)
	assert.Equal(t, "10.0.0.2", res.Hosts[0].IP)
	assert.Equal(t, "10.0.0.9", res.Hosts[1].IP)
}

func TestRecommend_NumericIPOrdering(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	a := newHost("10.0.0.10", "cpe:/o:acme:linux:5.1")
	b := newHost("10.0.0.9", "cpe:/o:acme:linux:5.1")

	g := starGraph(t, ref, a, b)

	res, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1})
	require.NoError(t, err)

	// Numeric, not lexicographic: 10.0.0.9 sorts before 10.0.0.10.
	require.Len(t, res.Hosts, 2)
	assert.Equal(t, "10.0.0.9", res.Hosts[0].IP)
	assert.Equal(t, "10.0.0.10", res.Hosts[1].IP)
}

func TestRecommend_LimitKeepsTotalCount(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	var others []*inventory.Host
	for i := 2; i <= 11; i++ {
		others = append(others, newHost(fmt.Sprintf("10.0.0.%d", i), "cpe:/o:acme:linux:5.1"))
	}
	g := starGraph(t, ref, others...)

	res, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1, Limit: 3})
	require.NoError(t, err)

	assert.Len(t, res.Hosts, 3)
	assert.Equal(t, 10, res.TotalCandidates)
	assert.Equal(t, 1, res.MaxDistance)
}

func TestRecommend_OrderIndependentOfInsertion(t *testing.T) {
	build := func(ips []string) *topology.Graph {
		g := topology.New()
		ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
		require.NoError(t, g.AddHost(ref))
		for _, ip := range ips {
			require.NoError(t, g.AddHost(newHost(ip, "cpe:/o:acme:linux:5.1")))
			require.NoError(t, g.AddLink(ref.IP, ip))
		}
		return g
	}

	ips := []string{"10.0.0.5", "10.0.0.3", "10.0.0.4", "10.0.0.2"}
	reversed := []string{"10.0.0.2", "10.0.0.4", "10.0.0.3", "10.0.0.5"}

	r := newRecommender()
	res1, err := r.Recommend(build(ips), "10.0.0.1", Options{MaxDistance: 1})
	require.NoError(t, err)
	res2, err := r.Recommend(build(reversed), "10.0.0.1", Options{MaxDistance: 1})
	require.NoError(t, err)

	require.Equal(t, len(res1.Hosts), len(res2.Hosts))
	for i := range res1.Hosts {
		assert.Equal(t, res1.Hosts[i].IP, res2.Hosts[i].IP)
	}
}

func TestRecommend_ParallelMatchesSequential(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1", "cpe:/a:nginx:nginx:1.24")
	var others []*inventory.Host
	for i := 2; i <= 30; i++ {
		os := "cpe:/o:acme:linux:5.1"
		if i%3 == 0 {
			os = "cpe:/o:microsoft:windows:10"
		}
		others = append(others, newHost(fmt.Sprintf("10.0.0.%d", i), os))
	}

	r := newRecommender()
	seq, err := r.Recommend(starGraph(t, ref.Clone(), cloneAll(others)...), ref.IP, Options{MaxDistance: 1, Workers: 1})
	require.NoError(t, err)
	par, err := r.Recommend(starGraph(t, ref.Clone(), cloneAll(others)...), ref.IP, Options{MaxDistance: 1, Workers: 8})
	require.NoError(t, err)

	require.Equal(t, len(seq.Hosts), len(par.Hosts))
	for i := range seq.Hosts {
		assert.Equal(t, seq.Hosts[i].IP, par.Hosts[i].IP)
		assert.Equal(t, seq.Hosts[i].Risk, par.Hosts[i].Risk)
	}
}

func cloneAll(hosts []*inventory.Host) []*inventory.Host {
	out := make([]*inventory.Host, len(hosts))
	for i, h := range hosts {
		out[i] = h.Clone()
	}
	return out
}

func TestRecommend_WarningsSurviveRanking(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	cand := newHost("10.0.0.2", "cpe:/o:microsoft:windows:10")

	g := starGraph(t, ref, cand)

	res, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1})
	require.NoError(t, err)

	require.Len(t, res.Hosts, 1)
	require.NotEmpty(t, res.Hosts[0].Warnings)
	// Topology host instances stay pristine.
	assert.Empty(t, g.Host("10.0.0.2").Warnings)
	assert.Zero(t, g.Host("10.0.0.2").Risk)
}

func TestRecommend_InvalidOptions(t *testing.T) {
	ref := newHost("10.0.0.1", "cpe:/o:acme:linux:5.1")
	g := starGraph(t, ref)

	_, err := newRecommender().Recommend(g, ref.IP, Options{MaxDistance: -1})
	assert.Error(t, err)

	_, err = newRecommender().Recommend(g, ref.IP, Options{MaxDistance: 1, Limit: -2})
	assert.Error(t, err)
}
