package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a collected Kubernetes resource type.
type Kind string

const (
	KindPod                Kind = "Pod"
	KindService            Kind = "Service"
	KindDeployment         Kind = "Deployment"
	KindNamespace          Kind = "Namespace"
	KindNode               Kind = "Node"
	KindIngress            Kind = "Ingress"
	KindSecret             Kind = "Secret"
	KindConfigMap          Kind = "ConfigMap"
	KindRole               Kind = "Role"
	KindRoleBinding        Kind = "RoleBinding"
	KindClusterRole        Kind = "ClusterRole"
	KindClusterRoleBinding Kind = "ClusterRoleBinding"
	KindServiceAccount     Kind = "ServiceAccount"
)

// Kinds lists every collected kind in a fixed order, used for stats label
// counts and for iterating collectors deterministically.
var Kinds = []Kind{
	KindPod, KindService, KindDeployment, KindNamespace, KindNode,
	KindIngress, KindSecret, KindConfigMap, KindRole, KindRoleBinding,
	KindClusterRole, KindClusterRoleBinding, KindServiceAccount,
}

// EdgeLabel is the fixed relationship vocabulary between vertices.
type EdgeLabel string

const (
	EdgeRunsOn      EdgeLabel = "runs_on"
	EdgeUses        EdgeLabel = "uses"
	EdgeSelects     EdgeLabel = "selects"
	EdgeManages     EdgeLabel = "manages"
	EdgeInNamespace EdgeLabel = "in_namespace"
	EdgeReferences  EdgeLabel = "references"
	EdgeGrantsTo    EdgeLabel = "grants_to"
	EdgeRoutesTo    EdgeLabel = "routes_to"
)

// Asset is one normalized Kubernetes resource instance.
type Asset struct {
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace,omitempty"`
	Kind        Kind              `json:"kind"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	Properties  Properties        `json:"properties,omitempty"`
}

// Key returns the asset's stable identifier, unique per kind+namespace+name.
// Cluster-scoped assets have an empty namespace segment: "Node::worker-1".
func (a Asset) Key() string {
	return AssetKey(a.Kind, a.Namespace, a.Name)
}

// AssetKey builds the Kind:namespace:name identifier used as the asset_id
// vertex property and for edge resolution during a build pass.
func AssetKey(kind Kind, namespace, name string) string {
	return string(kind) + ":" + namespace + ":" + name
}

// Properties is the kind-specific part of an Asset. Each implementation is a
// typed record; Flatten produces the string property map persisted on the
// vertex. Additional holds forward-compatible fields that have no typed slot.
type Properties interface {
	Flatten() map[string]string
}

// PodProperties captures scheduling and identity fields of a Pod.
type PodProperties struct {
	PodIP           string            `json:"pod_ip,omitempty"`
	HostIP          string            `json:"host_ip,omitempty"`
	Phase           string            `json:"phase,omitempty"`
	NodeName        string            `json:"node_name,omitempty"`
	ServiceAccount  string            `json:"service_account,omitempty"`
	ContainerImages []string          `json:"container_images,omitempty"`
	HostNetwork     bool              `json:"host_network,omitempty"`
	Additional      map[string]string `json:"additional,omitempty"`
}

func (p PodProperties) Flatten() map[string]string {
	m := map[string]string{
		"pod_ip":          p.PodIP,
		"host_ip":         p.HostIP,
		"phase":           p.Phase,
		"node_name":       p.NodeName,
		"service_account": p.ServiceAccount,
	}
	if len(p.ContainerImages) > 0 {
		m["container_images"] = strings.Join(p.ContainerImages, ",")
	}
	if p.HostNetwork {
		m["host_network"] = "true"
	}
	return merge(m, p.Additional)
}

// ServicePort mirrors one port entry of a Service spec.
type ServicePort struct {
	Name       string `json:"name,omitempty"`
	Port       int32  `json:"port"`
	TargetPort string `json:"target_port,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	NodePort   int32  `json:"node_port,omitempty"`
}

type ServiceProperties struct {
	ClusterIP   string            `json:"cluster_ip,omitempty"`
	ExternalIPs []string          `json:"external_ips,omitempty"`
	Ports       []ServicePort     `json:"ports,omitempty"`
	Selector    map[string]string `json:"selector,omitempty"`
	Type        string            `json:"type,omitempty"`
	Additional  map[string]string `json:"additional,omitempty"`
}

// Exposed reports whether the service is reachable from outside the cluster.
func (p ServiceProperties) Exposed() bool {
	return p.Type == "NodePort" || p.Type == "LoadBalancer" || len(p.ExternalIPs) > 0
}

func (p ServiceProperties) Flatten() map[string]string {
	ports := make([]string, 0, len(p.Ports))
	for _, sp := range p.Ports {
		ports = append(ports, strconv.Itoa(int(sp.Port)))
	}
	m := map[string]string{
		"cluster_ip": p.ClusterIP,
		"type":       p.Type,
	}
	if len(p.ExternalIPs) > 0 {
		m["external_ips"] = strings.Join(p.ExternalIPs, ",")
	}
	if len(ports) > 0 {
		m["ports"] = strings.Join(ports, ",")
	}
	if len(p.Selector) > 0 {
		m["selector"] = flattenMap(p.Selector)
	}
	return merge(m, p.Additional)
}

type DeploymentProperties struct {
	Replicas       int32             `json:"replicas"`
	ReadyReplicas  int32             `json:"ready_replicas"`
	Selector       map[string]string `json:"selector,omitempty"`
	Strategy       string            `json:"strategy,omitempty"`
	TemplateLabels map[string]string `json:"template_labels,omitempty"`
	Additional     map[string]string `json:"additional,omitempty"`
}

func (p DeploymentProperties) Flatten() map[string]string {
	m := map[string]string{
		"replicas":       strconv.Itoa(int(p.Replicas)),
		"ready_replicas": strconv.Itoa(int(p.ReadyReplicas)),
		"strategy":       p.Strategy,
	}
	if len(p.Selector) > 0 {
		m["selector"] = flattenMap(p.Selector)
	}
	return merge(m, p.Additional)
}

type NamespaceProperties struct {
	Phase      string            `json:"phase,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

func (p NamespaceProperties) Flatten() map[string]string {
	return merge(map[string]string{"phase": p.Phase}, p.Additional)
}

// Taint mirrors one node taint.
type Taint struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect,omitempty"`
}

type NodeProperties struct {
	InternalIP       string            `json:"node_ip,omitempty"`
	OSImage          string            `json:"os_image,omitempty"`
	KernelVersion    string            `json:"kernel_version,omitempty"`
	ContainerRuntime string            `json:"container_runtime,omitempty"`
	KubeletVersion   string            `json:"kubelet_version,omitempty"`
	Taints           []Taint           `json:"taints,omitempty"`
	Additional       map[string]string `json:"additional,omitempty"`
}

func (p NodeProperties) Flatten() map[string]string {
	m := map[string]string{
		"node_ip":           p.InternalIP,
		"os_image":          p.OSImage,
		"kernel_version":    p.KernelVersion,
		"container_runtime": p.ContainerRuntime,
		"kubelet_version":   p.KubeletVersion,
	}
	if len(p.Taints) > 0 {
		keys := make([]string, 0, len(p.Taints))
		for _, t := range p.Taints {
			keys = append(keys, t.Key)
		}
		m["taints"] = strings.Join(keys, ",")
	}
	return merge(m, p.Additional)
}

// IngressBackend is one host/path to service route of an Ingress rule.
type IngressBackend struct {
	Host        string `json:"host,omitempty"`
	Path        string `json:"path,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	ServicePort int32  `json:"service_port,omitempty"`
}

type IngressProperties struct {
	Backends     []IngressBackend  `json:"backends,omitempty"`
	IngressClass string            `json:"ingress_class,omitempty"`
	Additional   map[string]string `json:"additional,omitempty"`
}

func (p IngressProperties) Flatten() map[string]string {
	m := map[string]string{"ingress_class": p.IngressClass}
	if len(p.Backends) > 0 {
		routes := make([]string, 0, len(p.Backends))
		for _, b := range p.Backends {
			routes = append(routes, b.Host+b.Path+"->"+b.ServiceName)
		}
		m["backends"] = strings.Join(routes, ",")
	}
	return merge(m, p.Additional)
}

// SecretProperties deliberately carries only the data key names so credential
// values are never persisted in the graph.
type SecretProperties struct {
	Type       string            `json:"type,omitempty"`
	DataKeys   []string          `json:"data_keys,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

func (p SecretProperties) Flatten() map[string]string {
	m := map[string]string{"type": p.Type}
	if len(p.DataKeys) > 0 {
		m["data_keys"] = strings.Join(p.DataKeys, ",")
	}
	return merge(m, p.Additional)
}

type ConfigMapProperties struct {
	DataKeys   []string          `json:"data_keys,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

func (p ConfigMapProperties) Flatten() map[string]string {
	m := map[string]string{}
	if len(p.DataKeys) > 0 {
		m["data_keys"] = strings.Join(p.DataKeys, ",")
	}
	return merge(m, p.Additional)
}

// PolicyRule mirrors one RBAC rule.
type PolicyRule struct {
	Verbs         []string `json:"verbs,omitempty"`
	APIGroups     []string `json:"api_groups,omitempty"`
	Resources     []string `json:"resources,omitempty"`
	ResourceNames []string `json:"resource_names,omitempty"`
}

type RoleProperties struct {
	Rules      []PolicyRule      `json:"rules,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

func (p RoleProperties) Flatten() map[string]string {
	m := map[string]string{"rule_count": strconv.Itoa(len(p.Rules))}
	verbs := map[string]struct{}{}
	for _, r := range p.Rules {
		for _, v := range r.Verbs {
			verbs[v] = struct{}{}
		}
	}
	if len(verbs) > 0 {
		list := make([]string, 0, len(verbs))
		for v := range verbs {
			list = append(list, v)
		}
		sort.Strings(list)
		m["verbs"] = strings.Join(list, ",")
	}
	return merge(m, p.Additional)
}

// RoleRef mirrors the roleRef of a binding.
type RoleRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Subject mirrors one binding subject.
type Subject struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

type BindingProperties struct {
	RoleRef    RoleRef           `json:"role_ref"`
	Subjects   []Subject         `json:"subjects,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

func (p BindingProperties) Flatten() map[string]string {
	m := map[string]string{
		"role_ref_kind": p.RoleRef.Kind,
		"role_ref_name": p.RoleRef.Name,
	}
	if len(p.Subjects) > 0 {
		subs := make([]string, 0, len(p.Subjects))
		for _, s := range p.Subjects {
			subs = append(subs, s.Kind+"/"+s.Name)
		}
		m["subjects"] = strings.Join(subs, ",")
	}
	return merge(m, p.Additional)
}

type ServiceAccountProperties struct {
	Secrets          []string          `json:"secrets,omitempty"`
	ImagePullSecrets []string          `json:"image_pull_secrets,omitempty"`
	Additional       map[string]string `json:"additional,omitempty"`
}

func (p ServiceAccountProperties) Flatten() map[string]string {
	m := map[string]string{}
	if len(p.Secrets) > 0 {
		m["secrets"] = strings.Join(p.Secrets, ",")
	}
	if len(p.ImagePullSecrets) > 0 {
		m["image_pull_secrets"] = strings.Join(p.ImagePullSecrets, ",")
	}
	return merge(m, p.Additional)
}

// Vertex is the graph-store representation of one Asset.
type Vertex struct {
	Key        string            `json:"id"`
	Label      Kind              `json:"label"`
	Name       string            `json:"name"`
	Namespace  string            `json:"namespace,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge is a directed, labeled relationship between two vertices, identified
// by the source and target vertex keys.
type Edge struct {
	Source string    `json:"source"`
	Target string    `json:"target"`
	Label  EdgeLabel `json:"label"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s-[%s]->%s", e.Source, e.Label, e.Target)
}

// Collection is the outcome of one collection pass over the cluster.
type Collection struct {
	Assets    []Asset   `json:"assets"`
	Errors    []string  `json:"errors,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration,omitempty"`
}

// ImportSummary reports what one upsert pass wrote to the store.
type ImportSummary struct {
	Vertices int `json:"vertices"`
	Edges    int `json:"edges"`
}

// ClearSummary reports what a clear operation removed.
type ClearSummary struct {
	VerticesDeleted int64 `json:"vertices_deleted"`
	EdgesDeleted    int64 `json:"edges_deleted"`
}

// GraphStats aggregates store-wide counts.
type GraphStats struct {
	VertexCount int64            `json:"vertex_count"`
	EdgeCount   int64            `json:"edge_count"`
	LabelCounts map[string]int64 `json:"label_counts"`
}

// GraphData is the node/edge listing consumed by the force-directed UI view.
type GraphData struct {
	Nodes []Vertex `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

func merge(m, additional map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	for k, v := range additional {
		m[k] = v
	}
	return m
}

func flattenMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return strings.Join(pairs, ",")
}
