package janusgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kubegraph/internal/graph/model"
)

func TestUpsertVertexQuery(t *testing.T) {
	v := model.Vertex{
		Key:       "Pod:prod:web-1",
		Label:     model.KindPod,
		Name:      "web-1",
		Namespace: "prod",
		Properties: map[string]string{
			"phase":  "Running",
			"pod_ip": "10.1.0.7",
		},
	}

	q := upsertVertexQuery(v)

	assert.Equal(t,
		"g.V().has('asset_id','Pod:prod:web-1').fold()"+
			".coalesce(unfold(), addV('Pod').property('asset_id','Pod:prod:web-1'))"+
			".property('name','web-1')"+
			".property('namespace','prod')"+
			".property('kind','Pod')"+
			".property('phase','Running')"+
			".property('pod_ip','10.1.0.7')",
		q)
}

func TestUpsertVertexQueryClusterScoped(t *testing.T) {
	v := model.Vertex{Key: "Node::worker-1", Label: model.KindNode, Name: "worker-1"}
	q := upsertVertexQuery(v)

	assert.Contains(t, q, "addV('Node')")
	assert.NotContains(t, q, "namespace")
}

func TestUpsertVertexQueryEscapes(t *testing.T) {
	v := model.Vertex{
		Key:   "ConfigMap:prod:it's",
		Label: model.KindConfigMap,
		Name:  `it's`,
	}
	q := upsertVertexQuery(v)
	assert.Contains(t, q, `'it\'s'`)
	assert.NotContains(t, q, "'it's'")
}

func TestUpsertEdgeQuery(t *testing.T) {
	e := model.Edge{
		Source: "Pod:prod:web-1",
		Target: "Node::worker-1",
		Label:  model.EdgeRunsOn,
	}

	q := upsertEdgeQuery(e)

	assert.Equal(t,
		"g.V().has('asset_id','Pod:prod:web-1').as('src')"+
			".V().has('asset_id','Node::worker-1')"+
			".coalesce(inE('runs_on').where(outV().has('asset_id','Pod:prod:web-1')), "+
			"addE('runs_on').from('src'))",
		q)
}

func TestAttackPathQuery(t *testing.T) {
	q := attackPathQuery("web", "db-creds")
	assert.Equal(t,
		"g.V().has('name','web')"+
			".repeat(outE().inV().simplePath())"+
			".until(has('name','db-creds'))"+
			".path().by(valueMap('asset_id','name','kind')).by(label()).limit(10)",
		q)
}

func TestAttackPathQueryDefaults(t *testing.T) {
	q := attackPathQuery("", "")
	assert.Contains(t, q, "g.V().has('exposed','true')")
	assert.Contains(t, q, ".until(has('sensitive','true'))")
	assert.Contains(t, q, "limit(20)")

	q = attackPathQuery("web", "")
	assert.Contains(t, q, "g.V().has('name','web')")
	assert.Contains(t, q, ".until(has('sensitive','true'))")

	q = attackPathQuery("", "db-creds")
	assert.Contains(t, q, "g.V().has('exposed','true')")
	assert.Contains(t, q, ".until(has('name','db-creds'))")
}

func TestAssetsQuery(t *testing.T) {
	assert.Equal(t, "g.V().valueMap()", assetsQuery(""))
	assert.Equal(t, "g.V().hasLabel('Pod').valueMap()", assetsQuery("Pod"))
}
