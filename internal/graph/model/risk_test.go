package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRiskLevels(t *testing.T) {
	p := DefaultRiskPolicy()

	assert.Equal(t, RiskCritical, p.Risk(KindSecret))
	assert.Equal(t, RiskHigh, p.Risk(KindNode))
	assert.Equal(t, RiskHigh, p.Risk(KindServiceAccount))
	assert.Equal(t, RiskMedium, p.Risk(KindPod))
	assert.Equal(t, RiskLow, p.Risk(KindConfigMap))
	assert.Equal(t, RiskLow, p.Risk(Kind("Unknown")))
}

func TestBuildPath(t *testing.T) {
	p := DefaultRiskPolicy()
	hops := []PathHop{
		{Key: "Ingress:prod:web", Kind: "Ingress", Name: "web"},
		{Key: "Service:prod:web", Kind: "Service", Name: "web"},
		{Key: "Pod:prod:web-1", Kind: "Pod", Name: "web-1"},
		{Key: "Secret:prod:db-creds", Kind: "Secret", Name: "db-creds"},
	}
	labels := []string{"routes_to", "selects", "uses"}

	path := p.BuildPath(hops, labels)

	require.Len(t, path.Steps, 4)
	assert.NotEmpty(t, path.ID)
	assert.Equal(t, "web", path.Source)
	assert.Equal(t, "db-creds", path.Target)

	assert.Equal(t, `entry point Ingress "web"`, path.Steps[0].Description)
	assert.Equal(t, `move via routes_to to Service "web"`, path.Steps[1].Description)
	assert.Equal(t, `move via uses to Secret "db-creds"`, path.Steps[3].Description)
	assert.Equal(t, RiskCritical, path.Steps[3].RiskLevel)

	// The secret step dominates the total.
	assert.Equal(t, RiskCritical, path.TotalRisk)
	assert.Greater(t, path.Likelihood, 0.0)
	assert.LessOrEqual(t, path.Likelihood, 1.0)
}

func TestBuildPathDistinctIDs(t *testing.T) {
	p := DefaultRiskPolicy()
	hops := []PathHop{{Key: "Pod:prod:a", Kind: "Pod", Name: "a"}}

	first := p.BuildPath(hops, nil)
	second := p.BuildPath(hops, nil)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDefaultScore(t *testing.T) {
	p := DefaultRiskPolicy()

	single := []AttackStep{{RiskLevel: RiskMedium}}
	total, likelihood := p.ScorePath(single)
	assert.Equal(t, RiskMedium, total)
	assert.Equal(t, 0.5, likelihood)

	// Longer paths are damped below the mean step factor.
	long := []AttackStep{
		{RiskLevel: RiskMedium},
		{RiskLevel: RiskMedium},
		{RiskLevel: RiskMedium},
	}
	_, damped := p.ScorePath(long)
	assert.Less(t, damped, 0.5)
	assert.GreaterOrEqual(t, damped, 0.01)

	total, likelihood = p.ScorePath(nil)
	assert.Equal(t, RiskLow, total)
	assert.Zero(t, likelihood)
}
