package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kubegraph/internal/graph/export"
	"kubegraph/internal/janusgraph"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// failStore maps a store error onto the right status: an unconnected store
// is a 503, everything else a 500.
func failStore(c *gin.Context, err error) {
	if errors.Is(err, janusgraph.ErrNotConnected) {
		fail(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	fail(c, http.StatusInternalServerError, err.Error())
}

func (s *Server) health(c *gin.Context) {
	success(c, gin.H{
		"status":               "ok",
		"janusgraph_connected": s.store.Connected(),
		"k8s_connected":        s.collector.Connected(),
	})
}

// collect runs one collection pass: list the cluster, derive vertices and
// edges, upsert them. Only one pass runs at a time.
func (s *Server) collect(c *gin.Context) {
	if !s.collectMu.TryLock() {
		fail(c, http.StatusConflict, "collection already in progress")
		return
	}
	defer s.collectMu.Unlock()

	if !s.collector.Connected() {
		fail(c, http.StatusServiceUnavailable, "kubernetes cluster is not connected")
		return
	}

	collection, err := s.collector.CollectAll(c.Request.Context())
	if err != nil {
		collectionFailures.Inc()
		fail(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	vertices, edges := s.builder.Build(collection.Assets)
	summary, err := s.store.Upsert(vertices, edges)
	if err != nil {
		collectionFailures.Inc()
		s.logger.Error("graph import failed", zap.Error(err))
		failStore(c, err)
		return
	}

	collectionsTotal.Inc()
	importedVertices.Add(float64(summary.Vertices))
	importedEdges.Add(float64(summary.Edges))

	success(c, gin.H{
		"collected":  len(collection.Assets),
		"errors":     collection.Errors,
		"started_at": collection.StartedAt,
		"duration":   collection.Duration,
		"imported":   summary,
	})
}

func (s *Server) assets(c *gin.Context) {
	vertices, err := s.store.Assets(c.Query("asset_type"))
	if err != nil {
		failStore(c, err)
		return
	}
	success(c, vertices)
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// query submits a caller-supplied Gremlin traversal. A traversal the server
// rejects comes back as 400 with the server's message.
func (s *Server) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.store.Query(req.Query)
	if err != nil {
		if errors.Is(err, janusgraph.ErrNotConnected) {
			fail(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	success(c, gin.H{"data": results, "total": len(results)})
}

func (s *Server) attackPaths(c *gin.Context) {
	paths, err := s.store.AttackPaths(c.Query("source"), c.Query("target"))
	if err != nil {
		failStore(c, err)
		return
	}
	success(c, gin.H{"paths": paths})
}

func (s *Server) graphStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		failStore(c, err)
		return
	}
	success(c, stats)
}

func (s *Server) graphData(c *gin.Context) {
	data, err := s.store.GraphData()
	if err != nil {
		failStore(c, err)
		return
	}
	success(c, data)
}

func (s *Server) graphExport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.store.GraphData()
	if err != nil {
		failStore(c, err)
		return
	}

	rendered, err := s.exporter.Render(c.Request.Context(), data, format)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, contentType(format), rendered)
}

func contentType(format export.Format) string {
	switch format {
	case export.FormatPNG:
		return "image/png"
	case export.FormatSVG:
		return "image/svg+xml"
	default:
		return "text/vnd.graphviz"
	}
}

func (s *Server) clearGraph(c *gin.Context) {
	summary, err := s.store.Clear()
	if err != nil {
		failStore(c, err)
		return
	}
	success(c, summary)
}
