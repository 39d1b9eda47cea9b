package routing

import "strings"

// Canonical keyword lists, shared by re-routing and post-agent routing so the
// two paths can never drift apart. Jenkins keywords are checked before
// Kubernetes keywords everywhere: build failures are the more specific
// signal.
var (
	// healthCheckKeywords flag Kubernetes-side health/deployment problems in
	// check names, bot comments and analysis text.
	healthCheckKeywords = []string{
		"health check", "healthcheck", "health", "probe", "readiness",
		"liveness", "deployment", "k8s", "kubernetes",
	}

	// jenkinsKeywords flag CI build problems.
	jenkinsKeywords = []string{
		"jenkins", "build failed", "build", "ci/cd", "continuous-integration",
		"ci workflow",
	}

	// promptHealthKeywords detect health/K8s phrasing in the raw user prompt.
	promptHealthKeywords = []string{
		"health", "degraded", "unhealthy", "probe", "crash", "restart",
	}

	// promptJenkinsKeywords detect Jenkins/CI phrasing in the raw user prompt.
	promptJenkinsKeywords = []string{"jenkins", "build", "ci/cd", "pipeline"}

	// prMentionKeywords detect an explicit PR reference, gating the
	// kubernetes -> github chain.
	prMentionKeywords = []string{"pr", "pull request", "github.com"}

	// fallbackKubernetesKeywords drive the keyword classifier when the
	// routing LLM is unavailable.
	fallbackKubernetesKeywords = []string{
		"pod", "namespace", "k8s", "kubernetes", "crash", "health", "deploy",
	}
	fallbackJenkinsKeywords = []string{"jenkins", "build", "ci/cd", "console"}
	fallbackGitHubKeywords  = []string{"github", "pr", "pull request"}
)

// containsAny reports whether the lowercased text contains any keyword.
func containsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// firstMatch returns the first keyword contained in the lowercased text.
func firstMatch(text string, keywords []string) (string, bool) {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
