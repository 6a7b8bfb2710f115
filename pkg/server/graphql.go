package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
)

// buildSchema defines the GraphQL surface: a recommendation query mirroring
// the REST endpoint, plus health.
func (s *Server) buildSchema() (graphql.Schema, error) {
	warningType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Warning",
		Fields: graphql.Fields{
			"source": &graphql.Field{Type: graphql.String},
			"score":  &graphql.Field{Type: graphql.Float},
		},
	})

	hostType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Host",
		Fields: graphql.Fields{
			"ip":       &graphql.Field{Type: graphql.String},
			"domains":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"contacts": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"risk":     &graphql.Field{Type: graphql.Float},
			"warnings": &graphql.Field{Type: graphql.NewList(warningType)},
		},
	})

	recommendationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Recommendation",
		Fields: graphql.Fields{
			"referenceIp":     &graphql.Field{Type: graphql.String},
			"maxDistance":     &graphql.Field{Type: graphql.Int},
			"totalCandidates": &graphql.Field{Type: graphql.Int},
			"hosts":           &graphql.Field{Type: graphql.NewList(hostType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"recommend": &graphql.Field{
				Type: recommendationType,
				Args: graphql.FieldConfigArgument{
					"ip":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"maxDistance": &graphql.ArgumentConfig{Type: graphql.Int},
					"limit":       &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: s.resolveRecommend,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func (s *Server) resolveRecommend(p graphql.ResolveParams) (any, error) {
	ip, _ := p.Args["ip"].(string)

	maxDistance := s.opts.MaxDistance
	if v, ok := p.Args["maxDistance"].(int); ok {
		maxDistance = v
	}
	limit := 0
	if v, ok := p.Args["limit"].(int); ok {
		limit = v
	}

	res, err := s.runRecommendation(ip, maxDistance, limit)
	if err != nil {
		return nil, err
	}

	hosts := make([]map[string]any, len(res.Hosts))
	for i, h := range res.Hosts {
		warnings := make([]map[string]any, len(h.Warnings))
		for j, warn := range h.Warnings {
			warnings[j] = map[string]any{"source": warn.Source, "score": warn.Score}
		}
		hosts[i] = map[string]any{
			"ip":       h.IP,
			"domains":  h.Domains,
			"contacts": h.Contacts,
			"risk":     h.Risk,
			"warnings": warnings,
		}
	}

	return map[string]any{
		"referenceIp":     res.Reference.IP,
		"maxDistance":     res.MaxDistance,
		"totalCandidates": res.TotalCandidates,
		"hosts":           hosts,
	}, nil
}

// schema builds the GraphQL schema once and reuses it.
func (s *Server) schema() (graphql.Schema, error) {
	s.gqlOnce.Do(func() {
		s.gqlSchema, s.gqlErr = s.buildSchema()
	})
	return s.gqlSchema, s.gqlErr
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("use POST"))
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	schema, err := s.schema()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	s.writeJSON(w, http.StatusOK, result)
}
