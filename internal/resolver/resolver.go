// Package resolver turns free-text triage requests into concrete
// troubleshooting targets: which environment, business unit, applications
// and Kubernetes namespaces the debugger should look at. Resolution combines
// prompt extraction with a hot-reloadable YAML mapping table.
package resolver

import (
	"context"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/triage/model"
)

const cacheSize = 256

// The namespace keyword must start a word; a bare \b would match the "ns"
// suffix of hyphenated namespace names.
var (
	environmentPattern = regexp.MustCompile(`(?i)\b(production|prod|staging|stage|development|dev)\b`)
	namespacePattern   = regexp.MustCompile(`(?i)(?:^|\s)(?:namespaces?|ns)[:=]?\s+([a-z0-9-]+(?:\s*,\s*[a-z0-9-]+)*)`)
	inNamespacePattern = regexp.MustCompile(`(?i)\bin\s+(?:the\s+)?([a-z0-9-]+)\s+namespace\b`)
	applicationPattern = regexp.MustCompile(`(?i)\bapp(?:lication)?s?[:=]?\s+([a-z0-9-]+(?:\s*,\s*[a-z0-9-]+)*)`)
	businessUnitHint   = regexp.MustCompile(`(?i)\b(?:business unit|bu)[:=]?\s+([a-z0-9-]+)`)
)

var severityKeywords = []string{"urgent", "critical", "outage", "down", "sev1", "sev-1"}

// issueTypeRules classify the request for the historical-solution query.
var issueTypeRules = []struct {
	keywords  []string
	issueType string
}{
	{[]string{"health check", "healthcheck", "probe", "readiness", "liveness"}, "health_check_failure"},
	{[]string{"crash", "crashloop", "restart"}, "pod_crash"},
	{[]string{"image", "pull"}, "image_pull_failure"},
	{[]string{"build", "jenkins", "pipeline"}, "build_failure"},
	{[]string{"deploy", "rollout"}, "deployment_failure"},
}

// Resolver maps prompts to troubleshooting targets. Safe for concurrent use;
// the mapping table can be swapped at runtime via SetTable.
type Resolver struct {
	mu     sync.RWMutex
	table  *MappingTable
	cache  *lru.Cache[string, *model.TargetInfo]
	logger *logging.Logger
}

// New creates a Resolver over the given table. A nil table falls back to the
// built-in defaults.
func New(table *MappingTable) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	cache, _ := lru.New[string, *model.TargetInfo](cacheSize)
	return &Resolver{
		table:  table,
		cache:  cache,
		logger: logging.GetLogger("resolver"),
	}
}

// SetTable replaces the mapping table and drops cached resolutions. Called by
// the file watcher on hot reload.
func (r *Resolver) SetTable(table *MappingTable) {
	if table == nil {
		return
	}
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
	r.cache.Purge()
	r.logger.InfoWithFields("mapping table replaced",
		logging.Field("mappings", len(table.Mappings)),
		logging.Field("patterns", len(table.Patterns)))
}

// Resolve extracts the troubleshooting target from a prompt. It never fails;
// an uninformative prompt resolves to the table defaults.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (*model.TargetInfo, error) {
	if cached, ok := r.cache.Get(prompt); ok {
		return cached, nil
	}

	r.mu.RLock()
	table := r.table
	r.mu.RUnlock()

	lower := strings.ToLower(prompt)
	target := &model.TargetInfo{
		Environment:  table.Defaults.Environment,
		BusinessUnit: table.Defaults.BusinessUnit,
	}

	if m := environmentPattern.FindString(lower); m != "" {
		target.Environment = normalizeEnvironment(m)
	}
	if m := businessUnitHint.FindStringSubmatch(lower); m != nil {
		target.BusinessUnit = m[1]
	}

	target.Applications = extractApplications(lower, table)
	target.Namespaces = resolveNamespaces(lower, table, target)
	target.IssueType = classifyIssueType(lower)
	if containsAny(lower, severityKeywords) {
		target.Severity = "high"
	} else {
		target.Severity = "medium"
	}

	r.logger.InfoWithFields("target resolved",
		logging.Field("environment", target.Environment),
		logging.Field("business_unit", target.BusinessUnit),
		logging.Field("applications", strings.Join(target.Applications, ",")),
		logging.Field("namespaces", strings.Join(target.Namespaces, ",")))

	r.cache.Add(prompt, target)
	return target, nil
}

// extractApplications collects applications from both the explicit prompt
// syntax and known application names appearing anywhere in the text.
func extractApplications(lower string, table *MappingTable) []string {
	seen := map[string]bool{}
	var apps []string
	add := func(app string) {
		app = strings.TrimSpace(app)
		if app != "" && !seen[app] {
			seen[app] = true
			apps = append(apps, app)
		}
	}

	if m := applicationPattern.FindStringSubmatch(lower); m != nil {
		for _, app := range strings.Split(m[1], ",") {
			add(app)
		}
	}
	for _, mapping := range table.Mappings {
		if strings.Contains(lower, strings.ToLower(mapping.Application)) {
			add(mapping.Application)
		}
	}
	return apps
}

// resolveNamespaces picks namespaces by precedence: namespaces named in the
// prompt, then explicit table mappings, then pattern expansion, then the
// business-unit default.
func resolveNamespaces(lower string, table *MappingTable, target *model.TargetInfo) []string {
	seen := map[string]bool{}
	var namespaces []string
	add := func(ns string) {
		ns = strings.TrimSpace(ns)
		if ns != "" && !seen[ns] {
			seen[ns] = true
			namespaces = append(namespaces, ns)
		}
	}

	if m := namespacePattern.FindStringSubmatch(lower); m != nil {
		for _, ns := range strings.Split(m[1], ",") {
			add(ns)
		}
	}
	if m := inNamespacePattern.FindStringSubmatch(lower); m != nil {
		add(m[1])
	}
	if len(namespaces) > 0 {
		return namespaces
	}

	for _, app := range target.Applications {
		if mapped := lookupMapping(table, app, target.Environment); len(mapped) > 0 {
			for _, ns := range mapped {
				add(ns)
			}
			continue
		}
		for _, pattern := range table.Patterns {
			add(expandPattern(pattern, target, app))
		}
	}
	if len(namespaces) == 0 {
		add(target.BusinessUnit + "-" + target.Environment)
	}
	return namespaces
}

func lookupMapping(table *MappingTable, app, environment string) []string {
	for _, mapping := range table.Mappings {
		if !strings.EqualFold(mapping.Application, app) {
			continue
		}
		if namespaces, ok := mapping.Environments[environment]; ok {
			return namespaces
		}
	}
	return nil
}

func expandPattern(pattern string, target *model.TargetInfo, app string) string {
	replacer := strings.NewReplacer(
		"{business_unit}", target.BusinessUnit,
		"{application}", app,
		"{environment}", target.Environment,
	)
	return replacer.Replace(pattern)
}

func classifyIssueType(lower string) string {
	for _, rule := range issueTypeRules {
		if containsAny(lower, rule.keywords) {
			return rule.issueType
		}
	}
	return "general"
}

func normalizeEnvironment(env string) string {
	switch strings.ToLower(env) {
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "dev", "development":
		return "dev"
	}
	return strings.ToLower(env)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
