package synthesis

import (
	"strings"

	"github.com/moolen/kairos/internal/triage/model"
)

const (
	maxActionItems    = 5
	maxRAGActionItems = 2
	maxPerAgentItems  = 3
)

// CollectActionItems assembles the prioritized action list: correlation
// actions first, then up to two historical solutions, then up to three items
// per agent. The result is deduplicated and capped at five.
func CollectActionItems(state *model.WorkflowState) []string {
	seen := map[string]bool{}
	var items []string
	add := func(item string) {
		item = strings.TrimSpace(item)
		if item == "" {
			return
		}
		key := strings.ToLower(item)
		if seen[key] {
			return
		}
		seen[key] = true
		items = append(items, item)
	}

	if state.Correlation != nil {
		for _, action := range state.Correlation.ImmediateActions {
			add(action)
		}
		if state.Correlation.ActionableSolution != "" {
			add(state.Correlation.ActionableSolution)
		}
	}

	if state.HistoricalSolutions != nil && state.HistoricalSolutions.SolutionsFound {
		for i, sol := range state.HistoricalSolutions.RecommendedSolutions {
			if i == maxRAGActionItems {
				break
			}
			if sol.JiraID != "" {
				add(sol.Solution + " (see " + sol.JiraID + ")")
			} else {
				add(sol.Solution)
			}
		}
	}

	for _, resp := range []*model.AgentResponse{state.KubernetesResponse, state.GitHubResponse, state.JenkinsResponse} {
		if resp == nil {
			continue
		}
		count := 0
		for _, action := range resp.NextActions {
			if count == maxPerAgentItems {
				break
			}
			add(action)
			count++
		}
		if resp.Findings != nil {
			for _, sol := range resp.Findings.Core().Solution {
				if count == maxPerAgentItems {
					break
				}
				add(sol)
				count++
			}
		}
	}

	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}
	return items
}
