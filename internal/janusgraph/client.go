package janusgraph

import (
	"errors"
	"fmt"
	"sync"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"go.uber.org/zap"

	"kubegraph/internal/graph/model"
)

// ErrNotConnected is returned by every store operation while no Gremlin
// server connection is established. The API layer maps it to 503.
var ErrNotConnected = errors.New("graph store is not connected")

// Config locates the JanusGraph server's Gremlin endpoint.
type Config struct {
	Host string
	Port int
}

func (c Config) url() string {
	return fmt.Sprintf("ws://%s:%d/gremlin", c.Host, c.Port)
}

// Store talks to JanusGraph over a Gremlin websocket connection. All writes
// upsert by the asset_id property, so repeating an import is idempotent.
// The zero value is unusable; construct with New and call Connect.
type Store struct {
	cfg    Config
	logger *zap.Logger
	policy model.RiskPolicy

	mu     sync.Mutex
	client *gremlingo.Client
}

func New(cfg Config, logger *zap.Logger) *Store {
	return &Store{
		cfg:    cfg,
		logger: logger,
		policy: model.DefaultRiskPolicy(),
	}
}

// Connect dials the Gremlin server and verifies it answers a trivial
// traversal. Safe to call again after a failure.
func (s *Store) Connect() error {
	client, err := gremlingo.NewClient(s.cfg.url())
	if err != nil {
		return fmt.Errorf("connect gremlin server %s: %w", s.cfg.url(), err)
	}

	rs, err := client.Submit(vertexCountQuery)
	if err == nil {
		_, err = rs.All()
	}
	if err != nil {
		client.Close()
		return fmt.Errorf("ping gremlin server %s: %w", s.cfg.url(), err)
	}

	s.mu.Lock()
	if s.client != nil {
		s.client.Close()
	}
	s.client = client
	s.mu.Unlock()

	s.logger.Info("connected to janusgraph", zap.String("url", s.cfg.url()))
	return nil
}

func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *Store) submit(query string) ([]*gremlingo.Result, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return nil, ErrNotConnected
	}

	rs, err := client.Submit(query)
	if err != nil {
		return nil, err
	}
	return rs.All()
}

// Upsert merges the batch, all vertices before any edge, so every edge
// submission finds both endpoints already present. A mid-batch failure leaves
// the elements written so far in place; re-running the pass converges.
func (s *Store) Upsert(vertices []model.Vertex, edges []model.Edge) (model.ImportSummary, error) {
	var summary model.ImportSummary

	for _, v := range vertices {
		if _, err := s.submit(upsertVertexQuery(v)); err != nil {
			return summary, fmt.Errorf("upsert vertex %s: %w", v.Key, err)
		}
		summary.Vertices++
	}
	for _, e := range edges {
		if _, err := s.submit(upsertEdgeQuery(e)); err != nil {
			return summary, fmt.Errorf("upsert edge %s: %w", e.String(), err)
		}
		summary.Edges++
	}

	s.logger.Info("graph import finished",
		zap.Int("vertices", summary.Vertices),
		zap.Int("edges", summary.Edges))
	return summary, nil
}

// Query submits a caller-supplied Gremlin traversal verbatim and returns the
// normalized result values. Server-side evaluation errors come back as-is so
// the caller sees what the server rejected.
func (s *Store) Query(query string) ([]interface{}, error) {
	results, err := s.submit(query)
	if err != nil {
		return nil, err
	}

	out := make([]interface{}, 0, len(results))
	for _, r := range results {
		out = append(out, normalize(r.GetInterface()))
	}
	return out, nil
}

// AttackPaths finds lateral-movement routes. An empty source starts from
// exposed vertices, an empty target terminates on sensitive ones. A source
// or target that names no vertex yields an empty result, not an error.
func (s *Store) AttackPaths(source, target string) ([]model.AttackPath, error) {
	results, err := s.submit(attackPathQuery(source, target))
	if err != nil {
		return nil, err
	}

	paths := make([]model.AttackPath, 0, len(results))
	for _, r := range results {
		p, err := r.GetPath()
		if err != nil {
			s.logger.Debug("skipping non-path result", zap.Error(err))
			continue
		}
		hops, labels := decodePathObjects(p.Objects)
		if len(hops) == 0 {
			continue
		}
		paths = append(paths, s.policy.BuildPath(hops, labels))
	}
	return paths, nil
}

// Assets returns the stored vertices, optionally restricted to one kind.
func (s *Store) Assets(kind string) ([]model.Vertex, error) {
	results, err := s.submit(assetsQuery(kind))
	if err != nil {
		return nil, err
	}

	vertices := make([]model.Vertex, 0, len(results))
	for _, r := range results {
		if v, ok := decodeVertexMap(r.GetInterface()); ok {
			vertices = append(vertices, v)
		}
	}
	sortVertices(vertices)
	return vertices, nil
}

// GraphData returns the whole graph in a shape frontends can render directly.
func (s *Store) GraphData() (model.GraphData, error) {
	vertices, err := s.Assets("")
	if err != nil {
		return model.GraphData{}, err
	}

	results, err := s.submit(edgesQuery())
	if err != nil {
		return model.GraphData{}, err
	}
	edges := make([]model.Edge, 0, len(results))
	for _, r := range results {
		if e, ok := decodeEdgeProjection(r.GetInterface()); ok {
			edges = append(edges, e)
		}
	}

	return model.GraphData{Nodes: vertices, Edges: edges}, nil
}

// Stats reports vertex and edge totals plus a per-label vertex breakdown.
func (s *Store) Stats() (model.GraphStats, error) {
	var stats model.GraphStats

	n, err := s.count(vertexCountQuery)
	if err != nil {
		return stats, err
	}
	stats.VertexCount = n

	n, err = s.count(edgeCountQuery)
	if err != nil {
		return stats, err
	}
	stats.EdgeCount = n

	results, err := s.submit(labelCountQuery)
	if err != nil {
		return stats, err
	}
	stats.LabelCounts = map[string]int64{}
	for _, r := range results {
		for k, v := range decodeLabelCounts(r.GetInterface()) {
			stats.LabelCounts[k] = v
		}
	}
	return stats, nil
}

// Clear drops every edge and vertex and reports how many of each were
// removed. Counts are read before the drop, so a write racing the clear can
// skew them slightly.
func (s *Store) Clear() (model.ClearSummary, error) {
	var summary model.ClearSummary

	vertices, err := s.count(vertexCountQuery)
	if err != nil {
		return summary, err
	}
	edges, err := s.count(edgeCountQuery)
	if err != nil {
		return summary, err
	}

	if _, err := s.submit(dropEdgesQuery); err != nil {
		return summary, fmt.Errorf("drop edges: %w", err)
	}
	if _, err := s.submit(dropVerticesQuery); err != nil {
		return summary, fmt.Errorf("drop vertices: %w", err)
	}

	summary.VerticesDeleted = vertices
	summary.EdgesDeleted = edges
	s.logger.Info("graph cleared",
		zap.Int64("vertices", vertices),
		zap.Int64("edges", edges))
	return summary, nil
}

func (s *Store) count(query string) (int64, error) {
	results, err := s.submit(query)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return asInt64(results[0].GetInterface()), nil
}
