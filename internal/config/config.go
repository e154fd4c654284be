package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from a YAML file with
// defaults applied for anything left unset.
type Config struct {
	JanusGraph JanusGraphConfig `yaml:"janusgraph"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type JanusGraphConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KubernetesConfig struct {
	KubeconfigPath string     `yaml:"kubeconfig_path"`
	InCluster      bool       `yaml:"in_cluster"`
	SSH            *SSHConfig `yaml:"ssh"`
}

// SSHConfig fetches the kubeconfig from a remote host instead of the local
// filesystem. Only used when present.
type SSHConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	RemotePath string `yaml:"remote_path"`
}

type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads the configuration file at path. An empty path tries the default
// locations and falls back to pure defaults when none exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = discover()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func discover() string {
	for _, candidate := range []string{"config.yaml", "/etc/kubegraph/config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func (c *Config) applyDefaults() {
	if c.JanusGraph.Host == "" {
		c.JanusGraph.Host = "localhost"
	}
	if c.JanusGraph.Port == 0 {
		c.JanusGraph.Port = 8182
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Kubernetes.SSH != nil {
		if c.Kubernetes.SSH.Port == 0 {
			c.Kubernetes.SSH.Port = 22
		}
		if c.Kubernetes.SSH.RemotePath == "" {
			c.Kubernetes.SSH.RemotePath = "~/.kube/config"
		}
	}
}
