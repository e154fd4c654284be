package model

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// RiskLevel tags one attack step or a whole path.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// AttackStep is one hop of a derived lateral-movement route.
type AttackStep struct {
	NodeID      string    `json:"node_id"`
	NodeType    string    `json:"node_type"`
	NodeName    string    `json:"node_name"`
	Description string    `json:"description"`
	RiskLevel   RiskLevel `json:"risk_level"`
}

// AttackPath is a read-only, derived view over existing vertices and edges.
// It owns no persistent state and is recomputed per query.
type AttackPath struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Steps      []AttackStep `json:"steps"`
	TotalRisk  RiskLevel    `json:"total_risk"`
	Likelihood float64      `json:"likelihood"`
}

// RiskPolicy maps resource kinds to risk levels and scores whole paths. The
// scoring function is replaceable; the default is documented in DESIGN.md.
type RiskPolicy struct {
	KindRisk  map[Kind]RiskLevel
	ScorePath func(steps []AttackStep) (RiskLevel, float64)
}

// DefaultRiskPolicy reflects how attractive each resource is as a pivot:
// credentials and node access rank highest, cluster-wide RBAC grants next,
// workload and routing objects in the middle, inert config at the bottom.
func DefaultRiskPolicy() RiskPolicy {
	p := RiskPolicy{
		KindRisk: map[Kind]RiskLevel{
			KindSecret:             RiskCritical,
			KindNode:               RiskHigh,
			KindClusterRole:        RiskHigh,
			KindClusterRoleBinding: RiskHigh,
			KindServiceAccount:     RiskHigh,
			KindPod:                RiskMedium,
			KindService:            RiskMedium,
			KindDeployment:         RiskMedium,
			KindIngress:            RiskMedium,
			KindRole:               RiskMedium,
			KindRoleBinding:        RiskMedium,
			KindNamespace:          RiskLow,
			KindConfigMap:          RiskLow,
		},
	}
	p.ScorePath = p.defaultScore
	return p
}

// Risk returns the policy's level for a kind, defaulting to LOW for kinds
// outside the collected vocabulary.
func (p RiskPolicy) Risk(kind Kind) RiskLevel {
	if level, ok := p.KindRisk[kind]; ok {
		return level
	}
	return RiskLow
}

// BuildPath assembles an AttackPath from a decoded traversal path. hops holds
// the visited vertices in order; edgeLabels the traversed edge labels between
// them (len(edgeLabels) == len(hops)-1 when the traversal yields both).
func (p RiskPolicy) BuildPath(hops []PathHop, edgeLabels []string) AttackPath {
	steps := make([]AttackStep, 0, len(hops))
	for i, hop := range hops {
		step := AttackStep{
			NodeID:    hop.Key,
			NodeType:  hop.Kind,
			NodeName:  hop.Name,
			RiskLevel: p.Risk(Kind(hop.Kind)),
		}
		if i == 0 {
			step.Description = fmt.Sprintf("entry point %s %q", hop.Kind, hop.Name)
		} else if i-1 < len(edgeLabels) {
			step.Description = fmt.Sprintf("move via %s to %s %q", edgeLabels[i-1], hop.Kind, hop.Name)
		} else {
			step.Description = fmt.Sprintf("move to %s %q", hop.Kind, hop.Name)
		}
		steps = append(steps, step)
	}

	total, likelihood := p.ScorePath(steps)
	path := AttackPath{
		ID:         uuid.NewString(),
		Steps:      steps,
		TotalRisk:  total,
		Likelihood: likelihood,
	}
	if len(hops) > 0 {
		path.Source = hops[0].Name
		path.Target = hops[len(hops)-1].Name
	}
	return path
}

// PathHop is one vertex of a decoded traversal path.
type PathHop struct {
	Key  string
	Kind string
	Name string
}

// defaultScore: total risk is the highest step risk; likelihood is the mean
// per-step traversal factor damped by 0.95 per extra hop, clamped to
// [0.01, 1.0]. Longer routes are less likely even when every hop is easy.
func (p RiskPolicy) defaultScore(steps []AttackStep) (RiskLevel, float64) {
	if len(steps) == 0 {
		return RiskLow, 0
	}

	total := RiskLow
	sum := 0.0
	for _, s := range steps {
		if riskOrder[s.RiskLevel] > riskOrder[total] {
			total = s.RiskLevel
		}
		sum += stepFactor(s.RiskLevel)
	}

	likelihood := (sum / float64(len(steps))) * math.Pow(0.95, float64(len(steps)-1))
	likelihood = math.Min(1.0, math.Max(0.01, likelihood))
	return total, math.Round(likelihood*100) / 100
}

func stepFactor(level RiskLevel) float64 {
	switch level {
	case RiskCritical:
		return 0.90
	case RiskHigh:
		return 0.70
	case RiskMedium:
		return 0.50
	default:
		return 0.30
	}
}
