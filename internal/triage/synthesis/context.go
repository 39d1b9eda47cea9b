package synthesis

import (
	"regexp"
	"strings"

	"github.com/moolen/kairos/internal/triage/model"
)

// Pod names carry replicaset hash and pod suffixes appended to the service
// name, e.g. payment-service-7d9f8b6c5d-x2vqp.
var podSuffixPattern = regexp.MustCompile(`(-[a-f0-9]{8,10})?-[a-z0-9]{5}$`)

// ServiceFromPodName strips the generated suffixes off a pod name, leaving
// the owning service/deployment name.
func ServiceFromPodName(podName string) string {
	service := podSuffixPattern.ReplaceAllString(podName, "")
	if service == "" {
		return podName
	}
	return service
}

// BuildRAGContext assembles the structured hints for the historical-solution
// query from whatever the run has gathered so far.
func BuildRAGContext(state *model.WorkflowState, target *model.TargetInfo) *model.RAGContext {
	ragCtx := &model.RAGContext{}

	if target != nil {
		ragCtx.Environment = target.Environment
		ragCtx.IssueType = target.IssueType
		if len(target.Namespaces) > 0 {
			ragCtx.Namespace = target.Namespaces[0]
		}
		ragCtx.Services = append(ragCtx.Services, target.Applications...)
	}

	seen := map[string]bool{}
	for _, svc := range ragCtx.Services {
		seen[svc] = true
	}

	if k8s, ok := kubernetesFindings(state); ok {
		for _, pod := range k8s.UnhealthyPods {
			if svc := ServiceFromPodName(pod.Name); svc != "" && !seen[svc] {
				seen[svc] = true
				ragCtx.Services = append(ragCtx.Services, svc)
			}
			if pod.Reason != "" {
				ragCtx.ErrorPatterns = append(ragCtx.ErrorPatterns, pod.Reason)
			}
		}
		ragCtx.ErrorPatterns = append(ragCtx.ErrorPatterns, k8s.RootCauses...)
	}
	if jf, ok := jenkinsFindings(state); ok && jf.FailureType != "" {
		ragCtx.ErrorPatterns = append(ragCtx.ErrorPatterns, jf.FailureType)
	}

	return ragCtx
}

// ProblemDescription builds the retrieval query text from the strongest
// problem statement available.
func ProblemDescription(state *model.WorkflowState) string {
	var parts []string
	if state.Correlation != nil && state.Correlation.PrimaryRootCause != "" {
		parts = append(parts, state.Correlation.PrimaryRootCause)
	}
	for _, resp := range []*model.AgentResponse{state.KubernetesResponse, state.GitHubResponse, state.JenkinsResponse} {
		if resp == nil || resp.Findings == nil {
			continue
		}
		core := resp.Findings.Core()
		if core.ProblemIdentified != "" {
			parts = append(parts, core.ProblemIdentified)
		}
		if core.RootCause != "" {
			parts = append(parts, core.RootCause)
		}
	}
	if len(parts) == 0 {
		return state.UserPrompt
	}
	return strings.Join(parts, ". ")
}

func kubernetesFindings(state *model.WorkflowState) (*model.KubernetesFindings, bool) {
	if state.KubernetesResponse == nil || state.KubernetesResponse.Findings == nil {
		return nil, false
	}
	k8s, ok := state.KubernetesResponse.Findings.(*model.KubernetesFindings)
	return k8s, ok
}

func jenkinsFindings(state *model.WorkflowState) (*model.JenkinsFindings, bool) {
	if state.JenkinsResponse == nil || state.JenkinsResponse.Findings == nil {
		return nil, false
	}
	jf, ok := state.JenkinsResponse.Findings.(*model.JenkinsFindings)
	return jf, ok
}
