// Package workflow drives the triage routing graph: a bounded loop over the
// orchestrator, the agent nodes and the terminal summarizer, mutating one
// WorkflowState per request.
package workflow

import (
	"context"

	"github.com/moolen/kairos/internal/rag"
	"github.com/moolen/kairos/internal/triage/correlation"
	"github.com/moolen/kairos/internal/triage/model"
	"github.com/moolen/kairos/internal/triage/routing"
	"github.com/moolen/kairos/internal/triage/synthesis"
)

// GitHubAnalyzer analyzes the pull request referenced by a prompt.
type GitHubAnalyzer interface {
	Analyze(ctx context.Context, userPrompt string) (*model.GitHubFindings, error)
}

// KubernetesDebugger inspects application health in one namespace.
type KubernetesDebugger interface {
	DebugApplicationHealth(ctx context.Context, namespace, environment, businessUnit string) (*model.NamespaceReport, error)
}

// JenkinsAnalyzer analyzes the build referenced by a prompt.
type JenkinsAnalyzer interface {
	Analyze(ctx context.Context, userPrompt string) (*model.JenkinsFindings, error)
}

// TargetResolver maps a prompt to a troubleshooting target.
type TargetResolver interface {
	Resolve(ctx context.Context, prompt string) (*model.TargetInfo, error)
}

// Services bundles the collaborators the engine nodes call. Router,
// Correlator and Synthesizer must be set; the others may be nil, in which
// case the corresponding node reports an agent failure instead of analyzing.
type Services struct {
	Router      *routing.Router
	Correlator  *correlation.Engine
	Synthesizer *synthesis.Synthesizer
	Retriever   rag.Retriever

	GitHub     GitHubAnalyzer
	Kubernetes KubernetesDebugger
	Jenkins    JenkinsAnalyzer
	Resolver   TargetResolver
}
