package janusgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubegraph/internal/graph/model"
)

func TestDecodeVertexMap(t *testing.T) {
	raw := map[interface{}]interface{}{
		"asset_id":  []interface{}{"Pod:prod:web-1"},
		"kind":      []interface{}{"Pod"},
		"name":      []interface{}{"web-1"},
		"namespace": []interface{}{"prod"},
		"phase":     []interface{}{"Running"},
	}

	v, ok := decodeVertexMap(raw)
	require.True(t, ok)
	assert.Equal(t, "Pod:prod:web-1", v.Key)
	assert.Equal(t, model.KindPod, v.Label)
	assert.Equal(t, "web-1", v.Name)
	assert.Equal(t, "prod", v.Namespace)
	assert.Equal(t, map[string]string{"phase": "Running"}, v.Properties)
}

func TestDecodeVertexMapRejectsNonVertices(t *testing.T) {
	_, ok := decodeVertexMap("not a map")
	assert.False(t, ok)

	_, ok = decodeVertexMap(map[string]interface{}{"name": []interface{}{"x"}})
	assert.False(t, ok)
}

func TestDecodeEdgeProjection(t *testing.T) {
	raw := map[string]interface{}{
		"source": "Pod:prod:web-1",
		"target": "Node::worker-1",
		"label":  "runs_on",
	}

	e, ok := decodeEdgeProjection(raw)
	require.True(t, ok)
	assert.Equal(t, model.Edge{
		Source: "Pod:prod:web-1",
		Target: "Node::worker-1",
		Label:  model.EdgeRunsOn,
	}, e)
}

func TestDecodePathObjects(t *testing.T) {
	objects := []interface{}{
		map[interface{}]interface{}{
			"asset_id": []interface{}{"Ingress:prod:web"},
			"kind":     []interface{}{"Ingress"},
			"name":     []interface{}{"web"},
		},
		"routes_to",
		map[string]interface{}{
			"asset_id": []interface{}{"Service:prod:web"},
			"kind":     []interface{}{"Service"},
			"name":     []interface{}{"web"},
		},
	}

	hops, labels := decodePathObjects(objects)
	require.Len(t, hops, 2)
	assert.Equal(t, model.PathHop{Key: "Ingress:prod:web", Kind: "Ingress", Name: "web"}, hops[0])
	assert.Equal(t, model.PathHop{Key: "Service:prod:web", Kind: "Service", Name: "web"}, hops[1])
	assert.Equal(t, []string{"routes_to"}, labels)
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(7), asInt64(int64(7)))
	assert.Equal(t, int64(7), asInt64(int32(7)))
	assert.Equal(t, int64(7), asInt64(7))
	assert.Equal(t, int64(7), asInt64(float64(7)))
	assert.Zero(t, asInt64("7"))
	assert.Zero(t, asInt64(nil))
}

func TestDecodeLabelCounts(t *testing.T) {
	raw := map[interface{}]interface{}{
		"Pod":  int64(3),
		"Node": int32(1),
	}
	assert.Equal(t, map[string]int64{"Pod": 3, "Node": 1}, decodeLabelCounts(raw))
}

func TestNormalize(t *testing.T) {
	raw := map[interface{}]interface{}{
		"outer": []interface{}{
			map[interface{}]interface{}{"inner": int64(1)},
		},
	}

	got := normalize(raw)
	assert.Equal(t, map[string]interface{}{
		"outer": []interface{}{
			map[string]interface{}{"inner": int64(1)},
		},
	}, got)
}
