// Package synthesis produces the final diagnosis of a triage run: the
// synthesized response, its deterministically derived confidence, the
// collected action items and the developer-facing summary rendering.
package synthesis

import "github.com/moolen/kairos/internal/triage/model"

// DeriveConfidence maps the number of agents that produced findings to the
// response confidence. This derivation is purely structural; LLM output
// never influences it.
func DeriveConfidence(agentsWithFindings int) (confident bool, level model.Confidence, reasoning string) {
	switch {
	case agentsWithFindings >= 2:
		return true, model.ConfidenceHigh, "Multiple agents produced corroborating findings"
	case agentsWithFindings == 1:
		return true, model.ConfidenceMedium, "A single agent produced findings"
	default:
		return false, model.ConfidenceLow, "No agent produced findings"
	}
}
