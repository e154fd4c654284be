package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubegraph/internal/graph/model"
)

func testData() model.GraphData {
	return model.GraphData{
		Nodes: []model.Vertex{
			{Key: "Pod:prod:web-1", Label: model.KindPod, Name: "web-1", Namespace: "prod"},
			{Key: "Secret:prod:db-creds", Label: model.KindSecret, Name: "db-creds", Namespace: "prod"},
			{Key: "Node::worker-1", Label: model.KindNode, Name: "worker-1"},
		},
		Edges: []model.Edge{
			{Source: "Pod:prod:web-1", Target: "Node::worker-1", Label: model.EdgeRunsOn},
		},
	}
}

func TestWriteDOT(t *testing.T) {
	e := NewExporter(model.DefaultRiskPolicy())

	var buf bytes.Buffer
	require.NoError(t, e.WriteDOT(&buf, testData()))
	out := buf.String()

	assert.Contains(t, out, "digraph AssetGraph {")
	assert.Contains(t, out, "rankdir=LR;")
	assert.Contains(t, out, `"Pod:prod:web-1" [label="Pod\nweb-1\n(prod)"`)
	assert.Contains(t, out, `"Pod:prod:web-1" -> "Node::worker-1" [label="runs_on"];`)

	// Secrets render in the critical color, pods in the medium one.
	assert.Contains(t, out, `"Secret:prod:db-creds" [label="Secret\ndb-creds\n(prod)", fillcolor="#ff4d4d"];`)
	assert.Contains(t, out, `"Pod:prod:web-1" [label="Pod\nweb-1\n(prod)", fillcolor="#ffe066"];`)
}

func TestWriteDOTDeterministic(t *testing.T) {
	e := NewExporter(model.DefaultRiskPolicy())
	data := testData()

	var first bytes.Buffer
	require.NoError(t, e.WriteDOT(&first, data))

	reversed := model.GraphData{
		Nodes: []model.Vertex{data.Nodes[2], data.Nodes[1], data.Nodes[0]},
		Edges: data.Edges,
	}
	var second bytes.Buffer
	require.NoError(t, e.WriteDOT(&second, reversed))

	assert.Equal(t, first.String(), second.String())
}

func TestWriteDOTEscapes(t *testing.T) {
	e := NewExporter(model.DefaultRiskPolicy())
	data := model.GraphData{
		Nodes: []model.Vertex{
			{Key: `ConfigMap:prod:with"quote`, Label: model.KindConfigMap, Name: `with"quote`, Namespace: "prod"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, e.WriteDOT(&buf, data))
	assert.Contains(t, buf.String(), `\"quote`)
	assert.NotContains(t, buf.String(), `[label="with"quote`)
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"":    FormatDOT,
		"dot": FormatDOT,
		"PNG": FormatPNG,
		"svg": FormatSVG,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("gif")
	assert.Error(t, err)
}
