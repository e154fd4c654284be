package janusgraph

import (
	"fmt"
	"sort"
	"strings"

	"kubegraph/internal/graph/model"
)

// Traversals are submitted to the Gremlin server as strings, the way the
// original ad hoc query endpoint requires anyway. Every value interpolated
// into a traversal goes through escape first.

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func quoted(s string) string {
	return "'" + escape(s) + "'"
}

// upsertVertexQuery merges a vertex by its asset_id property: an existing
// vertex is reused, otherwise one is added, and all properties are rewritten
// either way. Re-submitting the same vertex is therefore a no-op.
func upsertVertexQuery(v model.Vertex) string {
	var b strings.Builder
	fmt.Fprintf(&b, "g.V().has('asset_id',%s).fold()", quoted(v.Key))
	fmt.Fprintf(&b, ".coalesce(unfold(), addV(%s).property('asset_id',%s))", quoted(string(v.Label)), quoted(v.Key))
	fmt.Fprintf(&b, ".property('name',%s)", quoted(v.Name))
	if v.Namespace != "" {
		fmt.Fprintf(&b, ".property('namespace',%s)", quoted(v.Namespace))
	}
	fmt.Fprintf(&b, ".property('kind',%s)", quoted(string(v.Label)))

	keys := make([]string, 0, len(v.Properties))
	for k := range v.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ".property(%s,%s)", quoted(k), quoted(v.Properties[k]))
	}
	return b.String()
}

// upsertEdgeQuery merges an edge between two asset_id-keyed vertices: if an
// edge with the same label already connects them it is kept, otherwise one
// is added. Missing endpoints make the traversal yield nothing, which is the
// desired behavior for edges whose vertex upsert failed earlier in the pass.
func upsertEdgeQuery(e model.Edge) string {
	label := quoted(string(e.Label))
	return fmt.Sprintf(
		"g.V().has('asset_id',%s).as('src').V().has('asset_id',%s)"+
			".coalesce(inE(%s).where(outV().has('asset_id',%s)), addE(%s).from('src'))",
		quoted(e.Source), quoted(e.Target), label, quoted(e.Source), label)
}

// attackPathQuery walks outgoing edges without revisiting vertices. With no
// source the walk starts from externally exposed vertices; with no target it
// terminates on sensitive ones. The path carries vertex value maps and edge
// labels alternately, which decodePath relies on.
func attackPathQuery(source, target string) string {
	var b strings.Builder

	if source != "" {
		fmt.Fprintf(&b, "g.V().has('name',%s)", quoted(source))
	} else {
		b.WriteString("g.V().has('exposed','true')")
	}

	b.WriteString(".repeat(outE().inV().simplePath())")

	if target != "" {
		fmt.Fprintf(&b, ".until(has('name',%s))", quoted(target))
	} else {
		b.WriteString(".until(has('sensitive','true'))")
	}

	limit := 20
	if source != "" && target != "" {
		limit = 10
	}
	fmt.Fprintf(&b, ".path().by(valueMap('asset_id','name','kind')).by(label()).limit(%d)", limit)
	return b.String()
}

func assetsQuery(kind string) string {
	if kind != "" {
		return fmt.Sprintf("g.V().hasLabel(%s).valueMap()", quoted(kind))
	}
	return "g.V().valueMap()"
}

func edgesQuery() string {
	return "g.E().project('source','target','label')" +
		".by(outV().values('asset_id')).by(inV().values('asset_id')).by(label())"
}

const (
	vertexCountQuery  = "g.V().count()"
	edgeCountQuery    = "g.E().count()"
	labelCountQuery   = "g.V().groupCount().by(label)"
	dropEdgesQuery    = "g.E().drop()"
	dropVerticesQuery = "g.V().drop()"
)
