package cluster

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"kubegraph/internal/graph/model"
)

// Collector lists the configured resource kinds from the cluster and
// normalizes each item into a model.Asset. All cluster access is read-only.
type Collector struct {
	clientset kubernetes.Interface
	logger    *zap.Logger
}

func NewCollector(clientset kubernetes.Interface, logger *zap.Logger) *Collector {
	return &Collector{clientset: clientset, logger: logger}
}

// Connected reports whether a cluster client has been constructed.
func (c *Collector) Connected() bool {
	return c != nil && c.clientset != nil
}

type kindCollector func(ctx context.Context) ([]model.Asset, error)

// CollectAll lists every kind in parallel. A kind whose listing fails (for
// example a missing RBAC permission) is recorded in Collection.Errors and
// skipped; the remaining kinds are still collected. Errors are not retried.
func (c *Collector) CollectAll(ctx context.Context) (model.Collection, error) {
	if !c.Connected() {
		return model.Collection{}, fmt.Errorf("kubernetes client not connected")
	}

	collectors := map[model.Kind]kindCollector{
		model.KindPod:                c.collectPods,
		model.KindService:            c.collectServices,
		model.KindDeployment:         c.collectDeployments,
		model.KindNamespace:          c.collectNamespaces,
		model.KindNode:               c.collectNodes,
		model.KindIngress:            c.collectIngresses,
		model.KindSecret:             c.collectSecrets,
		model.KindConfigMap:          c.collectConfigMaps,
		model.KindRole:               c.collectRoles,
		model.KindRoleBinding:        c.collectRoleBindings,
		model.KindClusterRole:        c.collectClusterRoles,
		model.KindClusterRoleBinding: c.collectClusterRoleBindings,
		model.KindServiceAccount:     c.collectServiceAccounts,
	}

	started := time.Now()
	var mu sync.Mutex
	byKind := make(map[model.Kind][]model.Asset, len(collectors))
	var failures []string

	g, gctx := errgroup.WithContext(ctx)
	for kind, collect := range collectors {
		kind, collect := kind, collect
		g.Go(func() error {
			assets, err := collect(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("listing failed, kind skipped",
					zap.String("kind", string(kind)), zap.Error(err))
				failures = append(failures, fmt.Sprintf("list %s: %v", kind, err))
				return nil
			}
			byKind[kind] = assets
			return nil
		})
	}
	// Worker errors are folded into failures above; the group only carries
	// context cancellation.
	if err := g.Wait(); err != nil {
		return model.Collection{}, err
	}

	sort.Strings(failures)
	collection := model.Collection{
		Errors:    failures,
		StartedAt: started,
		Duration:  time.Since(started).String(),
	}
	for _, kind := range model.Kinds {
		collection.Assets = append(collection.Assets, byKind[kind]...)
	}

	c.logger.Info("collection pass finished",
		zap.Int("assets", len(collection.Assets)),
		zap.Int("failed_kinds", len(failures)),
		zap.Duration("elapsed", time.Since(started)))
	return collection, nil
}

func (c *Collector) collectPods(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, pod := range list.Items {
		images := make([]string, 0, len(pod.Spec.Containers))
		for _, container := range pod.Spec.Containers {
			images = append(images, container.Image)
		}
		assets = append(assets, model.Asset{
			Name:        pod.Name,
			Namespace:   pod.Namespace,
			Kind:        model.KindPod,
			Labels:      pod.Labels,
			Annotations: pod.Annotations,
			CreatedAt:   pod.CreationTimestamp.Time,
			Properties: model.PodProperties{
				PodIP:           pod.Status.PodIP,
				HostIP:          pod.Status.HostIP,
				Phase:           string(pod.Status.Phase),
				NodeName:        pod.Spec.NodeName,
				ServiceAccount:  pod.Spec.ServiceAccountName,
				ContainerImages: images,
				HostNetwork:     pod.Spec.HostNetwork,
			},
		})
	}
	return assets, nil
}

func (c *Collector) collectServices(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().Services("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, svc := range list.Items {
		ports := make([]model.ServicePort, 0, len(svc.Spec.Ports))
		for _, port := range svc.Spec.Ports {
			ports = append(ports, model.ServicePort{
				Name:       port.Name,
				Port:       port.Port,
				TargetPort: port.TargetPort.String(),
				Protocol:   string(port.Protocol),
				NodePort:   port.NodePort,
			})
		}
		assets = append(assets, model.Asset{
			Name:        svc.Name,
			Namespace:   svc.Namespace,
			Kind:        model.KindService,
			Labels:      svc.Labels,
			Annotations: svc.Annotations,
			CreatedAt:   svc.CreationTimestamp.Time,
			Properties: model.ServiceProperties{
				ClusterIP:   svc.Spec.ClusterIP,
				ExternalIPs: svc.Spec.ExternalIPs,
				Ports:       ports,
				Selector:    svc.Spec.Selector,
				Type:        string(svc.Spec.Type),
			},
		})
	}
	return assets, nil
}

func (c *Collector) collectDeployments(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.AppsV1().Deployments("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, deploy := range list.Items {
		props := model.DeploymentProperties{
			ReadyReplicas: deploy.Status.ReadyReplicas,
			Strategy:      string(deploy.Spec.Strategy.Type),
		}
		if deploy.Spec.Replicas != nil {
			props.Replicas = *deploy.Spec.Replicas
		}
		if deploy.Spec.Selector != nil {
			props.Selector = deploy.Spec.Selector.MatchLabels
		}
		props.TemplateLabels = deploy.Spec.Template.Labels
		assets = append(assets, model.Asset{
			Name:        deploy.Name,
			Namespace:   deploy.Namespace,
			Kind:        model.KindDeployment,
			Labels:      deploy.Labels,
			Annotations: deploy.Annotations,
			CreatedAt:   deploy.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectNamespaces(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, ns := range list.Items {
		assets = append(assets, model.Asset{
			Name:        ns.Name,
			Kind:        model.KindNamespace,
			Labels:      ns.Labels,
			Annotations: ns.Annotations,
			CreatedAt:   ns.CreationTimestamp.Time,
			Properties: model.NamespaceProperties{
				Phase: string(ns.Status.Phase),
			},
		})
	}
	return assets, nil
}

func (c *Collector) collectNodes(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, node := range list.Items {
		props := model.NodeProperties{
			OSImage:          node.Status.NodeInfo.OSImage,
			KernelVersion:    node.Status.NodeInfo.KernelVersion,
			ContainerRuntime: node.Status.NodeInfo.ContainerRuntimeVersion,
			KubeletVersion:   node.Status.NodeInfo.KubeletVersion,
		}
		for _, addr := range node.Status.Addresses {
			if addr.Type == "InternalIP" {
				props.InternalIP = addr.Address
				break
			}
		}
		for _, taint := range node.Spec.Taints {
			props.Taints = append(props.Taints, model.Taint{
				Key:    taint.Key,
				Value:  taint.Value,
				Effect: string(taint.Effect),
			})
		}
		assets = append(assets, model.Asset{
			Name:        node.Name,
			Kind:        model.KindNode,
			Labels:      node.Labels,
			Annotations: node.Annotations,
			CreatedAt:   node.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectIngresses(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.NetworkingV1().Ingresses("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, ing := range list.Items {
		props := model.IngressProperties{}
		if ing.Spec.IngressClassName != nil {
			props.IngressClass = *ing.Spec.IngressClassName
		}
		for _, rule := range ing.Spec.Rules {
			if rule.HTTP == nil {
				continue
			}
			for _, path := range rule.HTTP.Paths {
				backend := model.IngressBackend{
					Host: rule.Host,
					Path: path.Path,
				}
				if path.Backend.Service != nil {
					backend.ServiceName = path.Backend.Service.Name
					backend.ServicePort = path.Backend.Service.Port.Number
				}
				props.Backends = append(props.Backends, backend)
			}
		}
		assets = append(assets, model.Asset{
			Name:        ing.Name,
			Namespace:   ing.Namespace,
			Kind:        model.KindIngress,
			Labels:      ing.Labels,
			Annotations: ing.Annotations,
			CreatedAt:   ing.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

// collectSecrets records key names only; secret values never leave the
// cluster API response.
func (c *Collector) collectSecrets(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().Secrets("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, secret := range list.Items {
		keys := make([]string, 0, len(secret.Data))
		for k := range secret.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assets = append(assets, model.Asset{
			Name:        secret.Name,
			Namespace:   secret.Namespace,
			Kind:        model.KindSecret,
			Labels:      secret.Labels,
			Annotations: secret.Annotations,
			CreatedAt:   secret.CreationTimestamp.Time,
			Properties: model.SecretProperties{
				Type:     string(secret.Type),
				DataKeys: keys,
			},
		})
	}
	return assets, nil
}

func (c *Collector) collectConfigMaps(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().ConfigMaps("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, cm := range list.Items {
		keys := make([]string, 0, len(cm.Data))
		for k := range cm.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assets = append(assets, model.Asset{
			Name:        cm.Name,
			Namespace:   cm.Namespace,
			Kind:        model.KindConfigMap,
			Labels:      cm.Labels,
			Annotations: cm.Annotations,
			CreatedAt:   cm.CreationTimestamp.Time,
			Properties: model.ConfigMapProperties{
				DataKeys: keys,
			},
		})
	}
	return assets, nil
}

func (c *Collector) collectRoles(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.RbacV1().Roles("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, role := range list.Items {
		props := model.RoleProperties{}
		for _, rule := range role.Rules {
			props.Rules = append(props.Rules, model.PolicyRule{
				Verbs:         rule.Verbs,
				APIGroups:     rule.APIGroups,
				Resources:     rule.Resources,
				ResourceNames: rule.ResourceNames,
			})
		}
		assets = append(assets, model.Asset{
			Name:        role.Name,
			Namespace:   role.Namespace,
			Kind:        model.KindRole,
			Labels:      role.Labels,
			Annotations: role.Annotations,
			CreatedAt:   role.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectRoleBindings(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.RbacV1().RoleBindings("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, rb := range list.Items {
		props := model.BindingProperties{
			RoleRef: model.RoleRef{Kind: rb.RoleRef.Kind, Name: rb.RoleRef.Name},
		}
		for _, subject := range rb.Subjects {
			props.Subjects = append(props.Subjects, model.Subject{
				Kind:      subject.Kind,
				Name:      subject.Name,
				Namespace: subject.Namespace,
			})
		}
		assets = append(assets, model.Asset{
			Name:        rb.Name,
			Namespace:   rb.Namespace,
			Kind:        model.KindRoleBinding,
			Labels:      rb.Labels,
			Annotations: rb.Annotations,
			CreatedAt:   rb.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectClusterRoles(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.RbacV1().ClusterRoles().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, cr := range list.Items {
		props := model.RoleProperties{}
		for _, rule := range cr.Rules {
			props.Rules = append(props.Rules, model.PolicyRule{
				Verbs:         rule.Verbs,
				APIGroups:     rule.APIGroups,
				Resources:     rule.Resources,
				ResourceNames: rule.ResourceNames,
			})
		}
		assets = append(assets, model.Asset{
			Name:        cr.Name,
			Kind:        model.KindClusterRole,
			Labels:      cr.Labels,
			Annotations: cr.Annotations,
			CreatedAt:   cr.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectClusterRoleBindings(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.RbacV1().ClusterRoleBindings().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, crb := range list.Items {
		props := model.BindingProperties{
			RoleRef: model.RoleRef{Kind: crb.RoleRef.Kind, Name: crb.RoleRef.Name},
		}
		for _, subject := range crb.Subjects {
			props.Subjects = append(props.Subjects, model.Subject{
				Kind:      subject.Kind,
				Name:      subject.Name,
				Namespace: subject.Namespace,
			})
		}
		assets = append(assets, model.Asset{
			Name:        crb.Name,
			Kind:        model.KindClusterRoleBinding,
			Labels:      crb.Labels,
			Annotations: crb.Annotations,
			CreatedAt:   crb.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}

func (c *Collector) collectServiceAccounts(ctx context.Context) ([]model.Asset, error) {
	list, err := c.clientset.CoreV1().ServiceAccounts("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(list.Items))
	for _, sa := range list.Items {
		props := model.ServiceAccountProperties{}
		for _, secret := range sa.Secrets {
			props.Secrets = append(props.Secrets, secret.Name)
		}
		for _, secret := range sa.ImagePullSecrets {
			props.ImagePullSecrets = append(props.ImagePullSecrets, secret.Name)
		}
		assets = append(assets, model.Asset{
			Name:        sa.Name,
			Namespace:   sa.Namespace,
			Kind:        model.KindServiceAccount,
			Labels:      sa.Labels,
			Annotations: sa.Annotations,
			CreatedAt:   sa.CreationTimestamp.Time,
			Properties:  props,
		})
	}
	return assets, nil
}
