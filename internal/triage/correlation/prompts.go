package correlation

const correlationSystemPrompt = `You are a correlation engine that analyzes findings from multiple DevOps agents to identify cross-cutting root causes.

Your role is to:
- Correlate findings from GitHub, Kubernetes, and Jenkins agents
- Identify relationships between different issues and failures
- Provide a unified analysis and coordinated remediation
- Highlight critical issues that require immediate attention

If issues are related, show how they connect. If they are separate, say so clearly.`

const correlationUserPromptTemplate = `Analyze and correlate findings from multiple DevOps agents.

User request:
%s

GitHub Analysis:
%s

Kubernetes Analysis:
%s

Jenkins Analysis:
%s

IMPORTANT: Respond with ONLY valid JSON in the following format:

{
    "correlation_found": true,
    "correlation_type": "health_probe|image_build|application_code|configuration|network_issue|authentication_issue|other",
    "correlation_confidence": "high|medium|low",
    "root_cause_chain": "How the issues connect across systems",
    "primary_root_cause": "Root cause connecting all issues",
    "actionable_solution": "Single coordinated solution addressing all systems",
    "evidence": ["Evidence point connecting systems"],
    "immediate_actions": ["Immediate fix or verification step"],
    "priority": "critical|high|medium|low"
}`
