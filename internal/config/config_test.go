package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
janusgraph:
  host: graph.internal
  port: 18182
kubernetes:
  kubeconfig_path: /etc/kube/config
api:
  port: 9000
logging:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "graph.internal", cfg.JanusGraph.Host)
	assert.Equal(t, 18182, cfg.JanusGraph.Port)
	assert.Equal(t, "/etc/kube/config", cfg.Kubernetes.KubeconfigPath)
	assert.Nil(t, cfg.Kubernetes.SSH)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.Addr())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.JanusGraph.Host)
	assert.Equal(t, 8182, cfg.JanusGraph.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.API.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadSSHDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
kubernetes:
  ssh:
    host: jump.internal
    user: ops
    password: secret
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.Kubernetes.SSH)
	assert.Equal(t, 22, cfg.Kubernetes.SSH.Port)
	assert.Equal(t, "~/.kube/config", cfg.Kubernetes.SSH.RemotePath)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "janusgraph: ["))
	assert.Error(t, err)
}
