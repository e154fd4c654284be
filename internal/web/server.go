package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kubegraph/internal/graph/export"
	"kubegraph/internal/graph/model"
)

// Store is the graph backend the API serves from.
type Store interface {
	Connected() bool
	Upsert(vertices []model.Vertex, edges []model.Edge) (model.ImportSummary, error)
	Query(query string) ([]interface{}, error)
	AttackPaths(source, target string) ([]model.AttackPath, error)
	Assets(kind string) ([]model.Vertex, error)
	GraphData() (model.GraphData, error)
	Stats() (model.GraphStats, error)
	Clear() (model.ClearSummary, error)
}

// Collector is the cluster side of a collection pass.
type Collector interface {
	Connected() bool
	CollectAll(ctx context.Context) (model.Collection, error)
}

// Server wires the HTTP API over the store and the cluster collector.
type Server struct {
	store     Store
	collector Collector
	builder   *model.Builder
	exporter  *export.Exporter
	logger    *zap.Logger

	// collectMu serializes collection passes; a second concurrent
	// POST /collect is rejected with 409 instead of queueing.
	collectMu sync.Mutex
}

func NewServer(store Store, collector Collector, logger *zap.Logger) *Server {
	return &Server{
		store:     store,
		collector: collector,
		builder:   model.NewBuilder(),
		exporter:  export.NewExporter(model.DefaultRiskPolicy()),
		logger:    logger,
	}
}

// Router builds the gin engine with every route attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.cors())

	r.GET("/health", s.health)
	r.POST("/collect", s.collect)
	r.GET("/assets", s.assets)
	r.POST("/query", s.query)
	r.GET("/attack-paths", s.attackPaths)
	r.GET("/graph/stats", s.graphStats)
	r.GET("/graph/data", s.graphData)
	r.GET("/graph/export", s.graphExport)
	r.DELETE("/graph", s.clearGraph)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
