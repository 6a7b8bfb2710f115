package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csirtlab/hostrisk/pkg/topology"
)

// PGSource loads topology from a Postgres inventory database with the
// schema:
//
//	hosts(ip text primary key, domains text[], contacts text[],
//	      os text, hardware text[], software text[], added_at timestamptz)
//	links(id serial primary key, a_ip text references hosts,
//	      b_ip text references hosts)
type PGSource struct {
	pool *pgxpool.Pool
}

// NewPGSource connects to the inventory database and verifies reachability.
func NewPGSource(ctx context.Context, databaseURL string) (*PGSource, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return &PGSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGSource) Close() {
	s.pool.Close()
}

// Load reads the full host inventory and adjacency into a topology graph.
// Hosts come back ordered by insertion time and links by id, so the graph
// builds the same way on every load.
func (s *PGSource) Load(ctx context.Context) (*topology.Graph, error) {
	doc := &Document{}

	rows, err := s.pool.Query(ctx, `
		SELECT ip, domains, contacts, os, hardware, software
		FROM hosts
		ORDER BY added_at, ip
	`)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var spec HostSpec
		if err := rows.Scan(&spec.IP, &spec.Domains, &spec.Contacts, &spec.OS, &spec.Hardware, &spec.Software); err != nil {
			return nil, fmt.Errorf("scan host: %w", err)
		}
		doc.Hosts = append(doc.Hosts, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hosts: %w", err)
	}
	rows.Close()

	linkRows, err := s.pool.Query(ctx, `SELECT a_ip, b_ip FROM links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var a, b string
		if err := linkRows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		doc.Links = append(doc.Links, [2]string{a, b})
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	return Build(doc)
}
