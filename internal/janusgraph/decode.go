package janusgraph

import (
	"fmt"
	"sort"

	"kubegraph/internal/graph/model"
)

// The driver hands back whatever the server's GraphSON deserializer produced:
// maps keyed by string or by interface{}, scalar lists from valueMap, and
// int32/int64 counters. The helpers below normalize all of that before it
// reaches the model types.

// asMap normalizes either map flavor to map[string]interface{}.
func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}

// scalar unwraps the single-element lists valueMap produces around each
// property value and stringifies the result.
func scalar(v interface{}) string {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// decodeVertexMap turns one valueMap result into a GraphData node. Reserved
// keys become struct fields, the rest land in Properties.
func decodeVertexMap(raw interface{}) (model.Vertex, bool) {
	m := asMap(raw)
	if m == nil {
		return model.Vertex{}, false
	}

	v := model.Vertex{
		Key:        scalar(m["asset_id"]),
		Label:      model.Kind(scalar(m["kind"])),
		Name:       scalar(m["name"]),
		Namespace:  scalar(m["namespace"]),
		Properties: map[string]string{},
	}
	for k, val := range m {
		switch k {
		case "asset_id", "kind", "name", "namespace":
			continue
		}
		v.Properties[k] = scalar(val)
	}
	return v, v.Key != ""
}

// decodeEdgeProjection turns one edgesQuery result into a GraphData edge.
func decodeEdgeProjection(raw interface{}) (model.Edge, bool) {
	m := asMap(raw)
	if m == nil {
		return model.Edge{}, false
	}
	e := model.Edge{
		Source: scalar(m["source"]),
		Target: scalar(m["target"]),
		Label:  model.EdgeLabel(scalar(m["label"])),
	}
	return e, e.Source != "" && e.Target != ""
}

// decodePathObjects splits a traversal path's alternating objects into vertex
// hops and edge labels. Vertices arrive as value maps, edges as label strings.
func decodePathObjects(objects []interface{}) ([]model.PathHop, []string) {
	var hops []model.PathHop
	var labels []string
	for _, obj := range objects {
		if s, ok := obj.(string); ok {
			labels = append(labels, s)
			continue
		}
		if m := asMap(obj); m != nil {
			hops = append(hops, model.PathHop{
				Key:  scalar(m["asset_id"]),
				Kind: scalar(m["kind"]),
				Name: scalar(m["name"]),
			})
		}
	}
	return hops, labels
}

// decodeLabelCounts turns a groupCount result into a sorted-key-stable map.
func decodeLabelCounts(raw interface{}) map[string]int64 {
	counts := make(map[string]int64)
	for k, v := range asMap(raw) {
		counts[k] = asInt64(v)
	}
	return counts
}

// normalize rewrites driver values into JSON-encodable ones: interface-keyed
// maps become string-keyed, recursively.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}, map[string]interface{}:
		m := asMap(val)
		out := make(map[string]interface{}, len(m))
		for k, inner := range m {
			out[k] = normalize(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	default:
		return v
	}
}

func sortVertices(vertices []model.Vertex) {
	sort.Slice(vertices, func(i, j int) bool { return vertices[i].Key < vertices[j].Key })
}
