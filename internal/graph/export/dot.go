package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"kubegraph/internal/graph/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatDOT Format = "dot"
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates a format string from the API, defaulting to DOT.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatDOT, "":
		return FormatDOT, nil
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Exporter renders graph snapshots as DOT or as images via graphviz. Node
// fill colors follow the risk policy so high-value resources stand out.
type Exporter struct {
	policy model.RiskPolicy
}

func NewExporter(policy model.RiskPolicy) *Exporter {
	return &Exporter{policy: policy}
}

// Render encodes the graph in the requested format.
func (e *Exporter) Render(ctx context.Context, data model.GraphData, format Format) ([]byte, error) {
	var dot bytes.Buffer
	if err := e.WriteDOT(&dot, data); err != nil {
		return nil, err
	}
	if format == FormatDOT {
		return dot.Bytes(), nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes(dot.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse dot: %w", err)
	}
	defer graph.Close()

	var out bytes.Buffer
	target := graphviz.PNG
	if format == FormatSVG {
		target = graphviz.SVG
	}
	if err := gv.Render(ctx, graph, target, &out); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return out.Bytes(), nil
}

// WriteDOT writes the graph as a left-to-right digraph with one box per
// vertex, colored by risk, and one labeled arrow per edge. Output order is
// deterministic.
func (e *Exporter) WriteDOT(w io.Writer, data model.GraphData) error {
	nodes := append([]model.Vertex(nil), data.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
	edges := append([]model.Edge(nil), data.Edges...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].String() < edges[j].String() })

	fmt.Fprintln(w, "digraph AssetGraph {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=filled];")
	fmt.Fprintln(w, "")

	for _, n := range nodes {
		label := escapeLabel(string(n.Label)) + `\n` + escapeLabel(n.Name)
		if n.Namespace != "" {
			label += `\n(` + escapeLabel(n.Namespace) + `)`
		}
		fmt.Fprintf(w, "  %s [label=\"%s\", fillcolor=\"%s\"];\n",
			quoteID(n.Key), label, riskColor(e.policy.Risk(n.Label)))
	}

	fmt.Fprintln(w, "")
	for _, edge := range edges {
		fmt.Fprintf(w, "  %s -> %s [label=\"%s\"];\n",
			quoteID(edge.Source), quoteID(edge.Target), escapeLabel(string(edge.Label)))
	}

	fmt.Fprintln(w, "}")
	return nil
}

func riskColor(level model.RiskLevel) string {
	switch level {
	case model.RiskCritical:
		return "#ff4d4d"
	case model.RiskHigh:
		return "#ffa64d"
	case model.RiskMedium:
		return "#ffe066"
	default:
		return "#b3e6b3"
	}
}

func quoteID(id string) string {
	return `"` + escapeLabel(id) + `"`
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
