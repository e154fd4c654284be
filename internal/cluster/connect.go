package cluster

import (
	"bytes"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/crypto/ssh"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// SSHOptions fetches a kubeconfig from a remote host over SSH, for clusters
// whose kubeconfig is only present on a jump host.
type SSHOptions struct {
	Host       string
	Port       int
	User       string
	Password   string
	RemotePath string
}

// ConnectOptions selects how the cluster connection is established. Exactly
// one path is used, checked in order: in-cluster, SSH-fetched kubeconfig,
// explicit kubeconfig path, default kubeconfig resolution.
type ConnectOptions struct {
	InCluster      bool
	KubeconfigPath string
	SSH            *SSHOptions
}

// Connect builds a Kubernetes clientset from the configured source.
func Connect(opts ConnectOptions) (*kubernetes.Clientset, error) {
	cfg, err := restConfig(opts)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create kubernetes client: %w", err)
	}
	return clientset, nil
}

func restConfig(opts ConnectOptions) (*rest.Config, error) {
	if opts.InCluster {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("load in-cluster config: %w", err)
		}
		return cfg, nil
	}

	if opts.SSH != nil {
		kubeconfig, err := fetchRemoteKubeconfig(*opts.SSH)
		if err != nil {
			return nil, err
		}
		cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("parse remote kubeconfig: %w", err)
		}
		return cfg, nil
	}

	// An empty path falls back to clientcmd's default resolution order
	// (KUBECONFIG, then ~/.kube/config).
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if opts.KubeconfigPath != "" {
		loadingRules.ExplicitPath = opts.KubeconfigPath
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, nil).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}
	return cfg, nil
}

func fetchRemoteKubeconfig(opts SSHOptions) ([]byte, error) {
	if opts.Port == 0 {
		opts.Port = 22
	}
	if opts.RemotePath == "" {
		opts.RemotePath = "~/.kube/config"
	}

	config := &ssh.ClientConfig{
		User: opts.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(opts.Password),
		},
		// The remote host is operator-configured, not discovered.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	if err := session.Run("cat " + opts.RemotePath); err != nil {
		return nil, fmt.Errorf("read remote kubeconfig %s: %w", opts.RemotePath, err)
	}
	return out.Bytes(), nil
}
