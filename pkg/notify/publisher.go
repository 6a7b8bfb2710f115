// Package notify broadcasts completed recommendation runs over an NNG pub
// socket so downstream consumers (dashboards, ticketing hooks) can react
// without polling.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports (tcp, ipc, inproc).
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/recommend"
)

// HostScore is the broadcast form of one ranked host.
type HostScore struct {
	IP       string  `json:"ip"`
	Risk     float64 `json:"risk"`
	Warnings int     `json:"warnings"`
}

// RunSummary is the JSON message published after each run.
type RunSummary struct {
	RunID           string      `json:"run_id"`
	ReferenceIP     string      `json:"reference_ip"`
	MaxDistance     int         `json:"max_distance"`
	TotalCandidates int         `json:"total_candidates"`
	Ranked          []HostScore `json:"ranked"`
	ElapsedMillis   int64       `json:"elapsed_ms"`
	Timestamp       time.Time   `json:"timestamp"`
}

// Summarize converts a recommendation result to its broadcast form.
func Summarize(runID string, res *recommend.Result) RunSummary {
	ranked := make([]HostScore, len(res.Hosts))
	for i, h := range res.Hosts {
		ranked[i] = hostScore(h)
	}
	return RunSummary{
		RunID:           runID,
		ReferenceIP:     res.Reference.IP,
		MaxDistance:     res.MaxDistance,
		TotalCandidates: res.TotalCandidates,
		Ranked:          ranked,
		ElapsedMillis:   res.Elapsed.Milliseconds(),
		Timestamp:       time.Now().UTC(),
	}
}

func hostScore(h *inventory.Host) HostScore {
	return HostScore{IP: h.IP, Risk: h.Risk, Warnings: len(h.Warnings)}
}

// Publisher owns the pub socket.
type Publisher struct {
	sock mangos.Socket
}

// NewPublisher opens a pub socket listening on addr
// (e.g. "tcp://0.0.0.0:5555").
func NewPublisher(addr string) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("create pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Publisher{sock: sock}, nil
}

// Publish sends one run summary to every connected subscriber.
func (p *Publisher) Publish(summary RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := p.sock.Send(data); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	return nil
}

// Close shuts the socket down.
func (p *Publisher) Close() error {
	return p.sock.Close()
}
