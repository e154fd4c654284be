package model

import (
	"sort"
)

// Builder turns one collection pass worth of assets into the vertex and edge
// sets to upsert. Build is deterministic: the same asset batch produces the
// same output regardless of input order.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build derives one vertex per asset and the relationship edges between them.
// Edges are only emitted when both endpoints exist in the batch, so a partial
// collection never produces dangling references.
func (b *Builder) Build(assets []Asset) ([]Vertex, []Edge) {
	index := make(map[string]Asset, len(assets))
	for _, a := range assets {
		index[a.Key()] = a
	}

	vertices := make([]Vertex, 0, len(assets))
	for _, key := range sortedKeys(index) {
		vertices = append(vertices, buildVertex(index[key]))
	}

	seen := make(map[string]struct{})
	edges := make([]Edge, 0)
	add := func(source, target string, label EdgeLabel) {
		if _, ok := index[target]; !ok {
			return
		}
		e := Edge{Source: source, Target: target, Label: label}
		if _, dup := seen[e.String()]; dup {
			return
		}
		seen[e.String()] = struct{}{}
		edges = append(edges, e)
	}

	for _, key := range sortedKeys(index) {
		asset := index[key]
		switch asset.Kind {
		case KindPod:
			b.podEdges(asset, add)
		case KindService:
			b.serviceEdges(asset, index, add)
		case KindDeployment:
			b.deploymentEdges(asset, index, add)
		case KindRoleBinding, KindClusterRoleBinding:
			b.bindingEdges(asset, add)
		case KindIngress:
			b.ingressEdges(asset, add)
		case KindSecret, KindConfigMap, KindRole, KindServiceAccount:
			b.namespaceEdge(asset, add)
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].String() < edges[j].String() })
	return vertices, edges
}

func (b *Builder) podEdges(pod Asset, add func(string, string, EdgeLabel)) {
	props, ok := pod.Properties.(PodProperties)
	if !ok {
		return
	}
	if props.NodeName != "" {
		add(pod.Key(), AssetKey(KindNode, "", props.NodeName), EdgeRunsOn)
	}
	if props.ServiceAccount != "" {
		add(pod.Key(), AssetKey(KindServiceAccount, pod.Namespace, props.ServiceAccount), EdgeUses)
	}
	b.namespaceEdge(pod, add)
}

func (b *Builder) serviceEdges(svc Asset, index map[string]Asset, add func(string, string, EdgeLabel)) {
	b.namespaceEdge(svc, add)
	props, ok := svc.Properties.(ServiceProperties)
	if !ok {
		return
	}
	for _, pod := range matchPods(index, svc.Namespace, props.Selector) {
		add(svc.Key(), pod.Key(), EdgeSelects)
	}
}

func (b *Builder) deploymentEdges(deploy Asset, index map[string]Asset, add func(string, string, EdgeLabel)) {
	b.namespaceEdge(deploy, add)
	props, ok := deploy.Properties.(DeploymentProperties)
	if !ok {
		return
	}
	for _, pod := range matchPods(index, deploy.Namespace, props.Selector) {
		add(deploy.Key(), pod.Key(), EdgeManages)
	}
}

func (b *Builder) bindingEdges(binding Asset, add func(string, string, EdgeLabel)) {
	props, ok := binding.Properties.(BindingProperties)
	if !ok {
		return
	}

	switch props.RoleRef.Kind {
	case "Role":
		add(binding.Key(), AssetKey(KindRole, binding.Namespace, props.RoleRef.Name), EdgeReferences)
	case "ClusterRole":
		add(binding.Key(), AssetKey(KindClusterRole, "", props.RoleRef.Name), EdgeReferences)
	}

	for _, subject := range props.Subjects {
		if subject.Kind != "ServiceAccount" {
			// User and Group subjects have no vertex to resolve against.
			continue
		}
		ns := subject.Namespace
		if ns == "" {
			ns = binding.Namespace
		}
		add(binding.Key(), AssetKey(KindServiceAccount, ns, subject.Name), EdgeGrantsTo)
	}

	if binding.Kind == KindRoleBinding {
		b.namespaceEdge(binding, add)
	}
}

func (b *Builder) ingressEdges(ing Asset, add func(string, string, EdgeLabel)) {
	b.namespaceEdge(ing, add)
	props, ok := ing.Properties.(IngressProperties)
	if !ok {
		return
	}
	for _, backend := range props.Backends {
		if backend.ServiceName == "" {
			continue
		}
		add(ing.Key(), AssetKey(KindService, ing.Namespace, backend.ServiceName), EdgeRoutesTo)
	}
}

func (b *Builder) namespaceEdge(asset Asset, add func(string, string, EdgeLabel)) {
	if asset.Namespace == "" {
		return
	}
	add(asset.Key(), AssetKey(KindNamespace, "", asset.Namespace), EdgeInNamespace)
}

// matchPods returns the batch's pods in the given namespace whose label map
// is a superset of the selector. An empty selector selects nothing.
func matchPods(index map[string]Asset, namespace string, selector map[string]string) []Asset {
	if len(selector) == 0 {
		return nil
	}
	var pods []Asset
	for _, key := range sortedKeys(index) {
		a := index[key]
		if a.Kind != KindPod || a.Namespace != namespace {
			continue
		}
		if SelectorMatches(selector, a.Labels) {
			pods = append(pods, a)
		}
	}
	return pods
}

// SelectorMatches reports whether labels contains every selector pair.
func SelectorMatches(selector, labels map[string]string) bool {
	if len(selector) == 0 {
		return false
	}
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}

func buildVertex(a Asset) Vertex {
	props := map[string]string{}
	if a.Properties != nil {
		props = a.Properties.Flatten()
	}
	for k, v := range a.Labels {
		props["label_"+k] = v
	}
	if !a.CreatedAt.IsZero() {
		props["creation_timestamp"] = a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if exposed(a) {
		props["exposed"] = "true"
	}
	if sensitive(a.Kind) {
		props["sensitive"] = "true"
	}
	return Vertex{
		Key:        a.Key(),
		Label:      a.Kind,
		Name:       a.Name,
		Namespace:  a.Namespace,
		Properties: props,
	}
}

// exposed marks entry points reachable from outside the cluster; the default
// attack-path traversal starts from these vertices.
func exposed(a Asset) bool {
	switch a.Kind {
	case KindIngress:
		return true
	case KindService:
		if props, ok := a.Properties.(ServiceProperties); ok {
			return props.Exposed()
		}
	}
	return false
}

// sensitive marks high-value targets; the default attack-path traversal
// terminates on these vertices.
func sensitive(kind Kind) bool {
	return kind == KindSecret || kind == KindNode
}

func sortedKeys(index map[string]Asset) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
