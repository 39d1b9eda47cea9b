package kubernetes

import (
	"fmt"

	"github.com/moolen/kairos/internal/triage/model"
)

const maxSolutionItems = 5

// CombineReports merges N independent per-namespace reports into one
// KubernetesFindings.
//
// Structured lists (events, pods, root causes, actions, solutions) are
// concatenated across all reports. The top-level textual diagnosis comes from
// exactly one "most detailed" report, selected by priority: the first report
// with an intelligent analysis, else the first with unhealthy pods, else the
// first with an explicit problem/root-cause string. Sibling reports'
// descriptions are dropped on purpose; only their lists survive.
func CombineReports(reports []*model.NamespaceReport, target *model.TargetInfo) *model.KubernetesFindings {
	if len(reports) == 0 {
		return &model.KubernetesFindings{
			FindingsCore: model.FindingsCore{
				Status:            model.FindingsStatusHealthy,
				ProblemIdentified: "No issues found in any namespace",
				RootCause:         "All namespaces are healthy",
				Solution:          []string{},
				Summary:           "All applications are running normally",
				RAGSolution:       model.NoRAGSolution("No historical solution available"),
			},
		}
	}

	combined := &model.KubernetesFindings{}
	var selected *model.NamespaceReport
	var withAnalysis, withUnhealthy, withProblem *model.NamespaceReport
	var solutions []string
	hasIssues := false

	for _, rep := range reports {
		if rep == nil {
			continue
		}
		combined.Events = append(combined.Events, rep.Events...)
		combined.UnhealthyPods = append(combined.UnhealthyPods, rep.UnhealthyPods...)
		combined.HealthyPods = append(combined.HealthyPods, rep.HealthyPods...)
		combined.RootCauses = append(combined.RootCauses, rep.RootCauses...)
		combined.ImmediateActions = append(combined.ImmediateActions, rep.ImmediateActions...)
		solutions = append(solutions, rep.Solution...)

		switch {
		case rep.Intelligent != nil:
			hasIssues = true
			if withAnalysis == nil {
				withAnalysis = rep
			}
		case len(rep.UnhealthyPods) > 0:
			hasIssues = true
			if withUnhealthy == nil {
				withUnhealthy = rep
			}
		case rep.ProblemIdentified != "" || rep.RootCause != "":
			hasIssues = true
			if withProblem == nil {
				withProblem = rep
			}
		}
	}

	// Selection priority: intelligent analysis > unhealthy pods > explicit
	// problem fields.
	switch {
	case withAnalysis != nil:
		selected = withAnalysis
	case withUnhealthy != nil:
		selected = withUnhealthy
	case withProblem != nil:
		selected = withProblem
	}

	if hasIssues || len(combined.UnhealthyPods) > 0 || len(combined.RootCauses) > 0 {
		combined.Status = model.FindingsStatusIssuesFound
		combined.ProblemIdentified, combined.RootCause = describeSelected(selected, len(reports))
	} else {
		combined.Status = model.FindingsStatusHealthy
		combined.ProblemIdentified = "All namespaces are healthy"
		combined.RootCause = "No issues detected"
	}

	combined.Summary = buildSummary(selected, combined)

	// Solution preference: explicit per-report solutions, then immediate
	// actions, then the generic fallback. Always capped.
	switch {
	case len(solutions) > 0:
		combined.Solution = capItems(solutions)
	case len(combined.ImmediateActions) > 0:
		combined.Solution = capItems(combined.ImmediateActions)
	default:
		combined.Solution = []string{
			"Review pod status and events",
			"Check application logs",
			"Verify configuration",
		}
	}

	if selected != nil {
		combined.Intelligent = selected.Intelligent
		if selected.RAGSolution != nil {
			combined.RAGSolution = selected.RAGSolution
		}
	}
	if combined.RAGSolution == nil {
		combined.RAGSolution = model.NoRAGSolution("No historical solution available")
	}

	if target != nil {
		combined.NamespacesAnalyzed = target.Namespaces
		combined.Environment = target.Environment
		combined.BusinessUnit = target.BusinessUnit
	}
	return combined
}

func describeSelected(selected *model.NamespaceReport, reportCount int) (problem, rootCause string) {
	if selected == nil {
		return "Issues detected but no detailed analysis available",
			fmt.Sprintf("Analysis indicates problems across %d namespaces", reportCount)
	}
	if selected.Intelligent != nil {
		problem = selected.Intelligent.ProblemSummary
		rootCause = selected.Intelligent.RootCause
		if problem == "" {
			problem = "Intelligent analysis available but problem summary missing"
		}
		if rootCause == "" {
			rootCause = "Intelligent analysis available but root cause missing"
		}
		return problem, rootCause
	}
	problem = selected.ProblemIdentified
	rootCause = selected.RootCause
	if problem == "" && rootCause == "" {
		problem = "Issues detected in namespace analysis"
		rootCause = fmt.Sprintf("Multiple indicators suggest problems across %d namespaces", reportCount)
	}
	return problem, rootCause
}

func buildSummary(selected *model.NamespaceReport, combined *model.KubernetesFindings) string {
	if selected != nil && selected.Intelligent != nil && selected.Intelligent.ProblemSummary != "" {
		return selected.Intelligent.ProblemSummary
	}

	var parts []string
	if n := len(combined.UnhealthyPods); n > 0 {
		parts = append(parts, fmt.Sprintf("Found %d unhealthy pods", n))
	}
	if n := len(combined.RootCauses); n > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d root causes", n))
	}
	if n := len(combined.Events); n > 0 {
		parts = append(parts, fmt.Sprintf("Analyzed %d events", n))
	}
	if len(parts) == 0 {
		return "All applications are running normally"
	}
	summary := parts[0]
	for _, p := range parts[1:] {
		summary += "; " + p
	}
	return summary
}

func capItems(items []string) []string {
	if len(items) > maxSolutionItems {
		return items[:maxSolutionItems]
	}
	return items
}
