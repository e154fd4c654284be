package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubegraph_collections_total",
		Help: "Collection passes that completed and were imported.",
	})
	collectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubegraph_collection_failures_total",
		Help: "Collection passes that failed before or during import.",
	})
	importedVertices = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubegraph_imported_vertices_total",
		Help: "Vertices upserted across all collection passes.",
	})
	importedEdges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubegraph_imported_edges_total",
		Help: "Edges upserted across all collection passes.",
	})
)
