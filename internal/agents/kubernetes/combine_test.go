package kubernetes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/kairos/internal/triage/model"
)

func TestCombineReportsEmpty(t *testing.T) {
	findings := CombineReports(nil, nil)

	assert.Equal(t, model.FindingsStatusHealthy, findings.Status)
	assert.Equal(t, "No issues found in any namespace", findings.ProblemIdentified)
	require.NotNil(t, findings.RAGSolution)
	assert.False(t, findings.RAGSolution.SolutionsFound)
}

func TestCombineReportsConcatenatesLists(t *testing.T) {
	reports := []*model.NamespaceReport{
		{
			Namespace:     "acme-payments-stage",
			UnhealthyPods: []model.PodIssue{{Name: "payments-1", Reason: "CrashLoopBackOff"}},
			RootCauses:    []string{"CrashLoopBackOff"},
			Events:        []model.ClusterEvent{{Type: "Warning", Reason: "BackOff", Message: "restarting"}},
		},
		{
			Namespace:     "acme-checkout-stage",
			UnhealthyPods: []model.PodIssue{{Name: "checkout-1", Reason: "ImagePullBackOff"}},
			RootCauses:    []string{"ImagePullBackOff"},
		},
	}

	findings := CombineReports(reports, &model.TargetInfo{
		Environment:  "stage",
		BusinessUnit: "acme",
		Namespaces:   []string{"acme-payments-stage", "acme-checkout-stage"},
	})

	assert.Equal(t, model.FindingsStatusIssuesFound, findings.Status)
	assert.Len(t, findings.UnhealthyPods, 2)
	assert.Len(t, findings.RootCauses, 2)
	assert.Len(t, findings.Events, 1)
	assert.Equal(t, []string{"acme-payments-stage", "acme-checkout-stage"}, findings.NamespacesAnalyzed)
	assert.Equal(t, "stage", findings.Environment)
}

func TestCombineReportsSelectsMostDetailedReport(t *testing.T) {
	// The third report carries the intelligent analysis; its diagnosis must
	// win over the earlier reports even though they also have issues.
	reports := []*model.NamespaceReport{
		{
			Namespace:         "ns-a",
			ProblemIdentified: "explicit problem in ns-a",
			RootCause:         "bad config",
		},
		{
			Namespace:     "ns-b",
			UnhealthyPods: []model.PodIssue{{Name: "pod-b", Reason: "OOMKilled"}},
		},
		{
			Namespace: "ns-c",
			Intelligent: &model.IntelligentAnalysis{
				ProblemSummary: "payments cannot reach the database",
				RootCause:      "NetworkPolicy blocks egress",
			},
		},
	}

	findings := CombineReports(reports, nil)

	assert.Equal(t, "payments cannot reach the database", findings.ProblemIdentified)
	assert.Equal(t, "NetworkPolicy blocks egress", findings.RootCause)
	assert.Equal(t, "payments cannot reach the database", findings.Summary)
	require.NotNil(t, findings.Intelligent)
}

func TestCombineReportsSolutionPreference(t *testing.T) {
	withSolutions := []*model.NamespaceReport{{
		Namespace:        "ns",
		RootCauses:       []string{"OOMKilled"},
		Solution:         []string{"raise memory limits"},
		ImmediateActions: []string{"restart the pod"},
	}}
	findings := CombineReports(withSolutions, nil)
	assert.Equal(t, []string{"raise memory limits"}, findings.Solution)

	withActions := []*model.NamespaceReport{{
		Namespace:        "ns",
		RootCauses:       []string{"OOMKilled"},
		ImmediateActions: []string{"restart the pod"},
	}}
	findings = CombineReports(withActions, nil)
	assert.Equal(t, []string{"restart the pod"}, findings.Solution)

	bare := []*model.NamespaceReport{{
		Namespace:  "ns",
		RootCauses: []string{"OOMKilled"},
	}}
	findings = CombineReports(bare, nil)
	assert.Len(t, findings.Solution, 3) // generic fallback
}

func TestCombineReportsCapsSolutions(t *testing.T) {
	report := &model.NamespaceReport{Namespace: "ns", RootCauses: []string{"x"}}
	for i := 0; i < 8; i++ {
		report.Solution = append(report.Solution, fmt.Sprintf("step %d", i))
	}

	findings := CombineReports([]*model.NamespaceReport{report}, nil)
	assert.Len(t, findings.Solution, 5)
}

func TestCombineReportsAllHealthy(t *testing.T) {
	reports := []*model.NamespaceReport{
		{Namespace: "ns-a", HealthyPods: []string{"api-1", "api-2"}},
	}

	findings := CombineReports(reports, nil)

	assert.Equal(t, model.FindingsStatusHealthy, findings.Status)
	assert.Equal(t, "All namespaces are healthy", findings.ProblemIdentified)
	assert.Len(t, findings.HealthyPods, 2)
}
