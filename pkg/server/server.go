// Package server exposes the recommender over HTTP: a JSON endpoint, a
// GraphQL endpoint, health, and prometheus metrics. It is one presentation
// collaborator among several and holds no scoring logic of its own.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/csirtlab/hostrisk/pkg/inventory"
	"github.com/csirtlab/hostrisk/pkg/logging"
	"github.com/csirtlab/hostrisk/pkg/metrics"
	"github.com/csirtlab/hostrisk/pkg/notify"
	"github.com/csirtlab/hostrisk/pkg/recommend"
	"github.com/csirtlab/hostrisk/pkg/topology"
)

// Options configures the HTTP server.
type Options struct {
	Addr        string
	MaxDistance int // default bound when a request does not set one
	Workers     int
	Auth        *Authenticator
	Publisher   *notify.Publisher // optional run broadcast
	Logger      logging.Logger
	Registerer  prometheus.Registerer
}

// Server serves recommendations over a read-only topology.
type Server struct {
	graph       *topology.Graph
	recommender *recommend.Recommender
	opts        Options
	metrics     *metrics.Registry
	logger      logging.Logger
	startTime   time.Time
	httpServer  *http.Server

	gqlOnce   sync.Once
	gqlSchema graphql.Schema
	gqlErr    error
}

// NewServer wires the recommender behind HTTP handlers.
func NewServer(graph *topology.Graph, recommender *recommend.Recommender, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Auth == nil {
		opts.Auth = &Authenticator{}
	}

	return &Server{
		graph:       graph,
		recommender: recommender,
		opts:        opts,
		metrics:     metrics.NewRegistry(opts.Registerer),
		logger:      opts.Logger,
		startTime:   time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/recommend", s.instrument("/api/v1/recommend", s.authenticated(s.handleRecommend)))
	mux.HandleFunc("/graphql", s.instrument("/graphql", s.authenticated(s.handleGraphQL)))

	return mux
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", s.opts.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	}
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.opts.Auth.Authenticate(r); err != nil {
			s.writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"hosts":  s.graph.HostCount(),
		"links":  s.graph.LinkCount(),
	})
}

// recommendRequest is the JSON body of POST /api/v1/recommend.
type recommendRequest struct {
	IP          string `json:"ip"`
	MaxDistance *int   `json:"max_distance,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type hostResponse struct {
	IP       string   `json:"ip"`
	Domains  []string `json:"domains"`
	Contacts []string `json:"contacts"`
	Risk     float64  `json:"risk"`
	Warnings []string `json:"warnings,omitempty"`
}

type recommendResponse struct {
	RunID           string         `json:"run_id"`
	ReferenceIP     string         `json:"reference_ip"`
	MaxDistance     int            `json:"max_distance"`
	TotalCandidates int            `json:"total_candidates"`
	Hosts           []hostResponse `json:"hosts"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("use POST"))
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.IP == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("ip is required"))
		return
	}

	maxDistance := s.opts.MaxDistance
	if req.MaxDistance != nil {
		maxDistance = *req.MaxDistance
	}

	res, err := s.runRecommendation(req.IP, maxDistance, req.Limit)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	runID := uuid.NewString()
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.Publish(notify.Summarize(runID, res)); err != nil {
			s.logger.Warn("run broadcast failed", logging.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, recommendResponse{
		RunID:           runID,
		ReferenceIP:     req.IP,
		MaxDistance:     res.MaxDistance,
		TotalCandidates: res.TotalCandidates,
		Hosts:           hostResponses(res.Hosts),
	})
}

// runRecommendation executes one run and records its metrics.
func (s *Server) runRecommendation(ip string, maxDistance, limit int) (*recommend.Result, error) {
	start := time.Now()
	res, err := s.recommender.Recommend(s.graph, ip, recommend.Options{
		MaxDistance: maxDistance,
		Limit:       limit,
		Workers:     s.opts.Workers,
	})
	if err != nil {
		s.metrics.RecordRun("error", time.Since(start), 0, 0)
		return nil, err
	}

	warningCount := 0
	for _, h := range res.Hosts {
		warningCount += len(h.Warnings)
	}
	s.metrics.RecordRun("ok", res.Elapsed, res.TotalCandidates, warningCount)
	return res, nil
}

func hostResponses(hosts []*inventory.Host) []hostResponse {
	out := make([]hostResponse, len(hosts))
	for i, h := range hosts {
		resp := hostResponse{
			IP:       h.IP,
			Domains:  h.Domains,
			Contacts: h.Contacts,
			Risk:     h.Risk,
		}
		for _, warn := range h.Warnings {
			resp.Warnings = append(resp.Warnings, warn.String())
		}
		out[i] = resp
	}
	return out
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, topology.ErrUnknownReferenceHost):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrEmptyTopology):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
