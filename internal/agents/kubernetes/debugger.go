// Package kubernetes implements the Kubernetes analyzer: per-namespace pod
// and event scanning via client-go, an optional LLM diagnosis pass, and the
// multi-namespace combination that folds N reports into one findings record.
package kubernetes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/provider"
	"github.com/moolen/kairos/internal/triage/model"
)

// maxAnalyzedPods caps how many unhealthy pods feed the LLM diagnosis.
const maxAnalyzedPods = 3

// restartThreshold marks a pod unhealthy even when its phase looks fine.
const restartThreshold = 3

// Debugger inspects application health in a namespace.
type Debugger struct {
	client kubernetes.Interface
	llm    provider.Provider
	logger *logging.Logger
}

// NewDebugger creates a Debugger. llm may be nil; the debugger then reports
// raw observations without the LLM diagnosis pass.
func NewDebugger(client kubernetes.Interface, llm provider.Provider) *Debugger {
	return &Debugger{
		client: client,
		llm:    llm,
		logger: logging.GetLogger("agents.kubernetes"),
	}
}

// NewClient builds a client-go clientset, preferring in-cluster config and
// falling back to the local kubeconfig.
func NewClient() (kubernetes.Interface, error) {
	config, err := buildClientConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(config)
}

func buildClientConfig() (*rest.Config, error) {
	config, err := rest.InClusterConfig()
	if err == nil {
		return config, nil
	}

	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		if home := os.Getenv("HOME"); home != "" {
			kubeconfig = fmt.Sprintf("%s/.kube/config", home)
		}
	}
	config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}
	return config, nil
}

// DebugApplicationHealth scans one namespace and produces a report: pod
// health classification, warning events, derived root causes and remediation
// actions, plus an optional LLM diagnosis of the worst offenders.
func (d *Debugger) DebugApplicationHealth(ctx context.Context, namespace, environment, businessUnit string) (*model.NamespaceReport, error) {
	report := &model.NamespaceReport{
		Namespace:    namespace,
		Environment:  environment,
		BusinessUnit: businessUnit,
	}

	pods, err := d.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}

	for i := range pods.Items {
		pod := &pods.Items[i]
		if issue, unhealthy := classifyPod(pod); unhealthy {
			report.UnhealthyPods = append(report.UnhealthyPods, issue)
		} else {
			report.HealthyPods = append(report.HealthyPods, pod.Name)
		}
	}

	events, err := d.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		d.logger.WarnWithFields("failed to list events",
			logging.Field("namespace", namespace),
			logging.Field("error", err.Error()))
		report.Errors = append(report.Errors, model.ErrorRecord{
			Source: "kubernetes_agent",
			Error:  fmt.Sprintf("event listing failed: %v", err),
		})
	} else {
		for i := range events.Items {
			ev := &events.Items[i]
			if ev.Type != corev1.EventTypeNormal {
				report.Events = append(report.Events, model.ClusterEvent{
					Type:    ev.Type,
					Reason:  ev.Reason,
					Object:  fmt.Sprintf("%s/%s", ev.InvolvedObject.Kind, ev.InvolvedObject.Name),
					Message: ev.Message,
				})
			}
		}
	}

	report.RootCauses, report.ImmediateActions = deriveRootCauses(report)

	if d.llm != nil && len(report.UnhealthyPods) > 0 {
		if analysis := d.analyzeWithLLM(ctx, report); analysis != nil {
			report.Intelligent = analysis
			report.ProblemIdentified = analysis.ProblemSummary
			report.RootCause = analysis.RootCause
			report.Solution = analysis.DeveloperActions
		}
	} else if len(report.RootCauses) > 0 {
		report.ProblemIdentified = fmt.Sprintf("%d unhealthy pods in %s", len(report.UnhealthyPods), namespace)
		report.RootCause = report.RootCauses[0]
	}

	d.logger.InfoWithFields("namespace debugged",
		logging.Field("namespace", namespace),
		logging.Field("unhealthy_pods", len(report.UnhealthyPods)),
		logging.Field("events", len(report.Events)),
		logging.Field("root_causes", len(report.RootCauses)))
	return report, nil
}

// classifyPod decides whether a pod is unhealthy and why.
func classifyPod(pod *corev1.Pod) (model.PodIssue, bool) {
	issue := model.PodIssue{Name: pod.Name, Phase: string(pod.Status.Phase)}

	for i := range pod.Status.ContainerStatuses {
		cs := &pod.Status.ContainerStatuses[i]
		issue.Restarts += cs.RestartCount
		if w := cs.State.Waiting; w != nil && w.Reason != "" && w.Reason != "ContainerCreating" {
			issue.Reason = w.Reason
			issue.Message = w.Message
			return issue, true
		}
		if t := cs.LastTerminationState.Terminated; t != nil && cs.RestartCount >= restartThreshold {
			issue.Reason = t.Reason
			issue.Message = t.Message
			return issue, true
		}
	}

	switch pod.Status.Phase {
	case corev1.PodRunning, corev1.PodSucceeded:
		if issue.Restarts >= restartThreshold {
			issue.Reason = "ExcessiveRestarts"
			return issue, true
		}
		for _, cond := range pod.Status.Conditions {
			if cond.Type == corev1.PodReady && cond.Status != corev1.ConditionTrue && pod.Status.Phase == corev1.PodRunning {
				issue.Reason = "NotReady"
				issue.Message = cond.Message
				return issue, true
			}
		}
		return issue, false
	default:
		issue.Reason = string(pod.Status.Phase)
		issue.Message = pod.Status.Message
		return issue, true
	}
}

// rootCauseHints maps waiting/termination reasons to a cause description and
// an immediate action.
var rootCauseHints = map[string][2]string{
	"CrashLoopBackOff": {
		"Application is crashing repeatedly after startup",
		"Check application logs for the crashing container",
	},
	"ImagePullBackOff": {
		"Container image cannot be pulled from the registry",
		"Verify the image tag exists and registry credentials are configured",
	},
	"ErrImagePull": {
		"Container image pull failed",
		"Verify the image tag exists and registry credentials are configured",
	},
	"OOMKilled": {
		"Container exceeded its memory limit",
		"Increase the memory limit or investigate the memory leak",
	},
	"CreateContainerConfigError": {
		"Container configuration is invalid (missing secret or configmap)",
		"Verify referenced secrets and configmaps exist in the namespace",
	},
	"NotReady": {
		"Pod is running but failing its readiness probe",
		"Check the readiness probe endpoint and application startup time",
	},
	"ExcessiveRestarts": {
		"Container restarts exceed the healthy threshold",
		"Inspect recent container logs and liveness probe configuration",
	},
}

func deriveRootCauses(report *model.NamespaceReport) (causes, actions []string) {
	seen := map[string]bool{}
	for _, pod := range report.UnhealthyPods {
		if pod.Reason == "" || seen[pod.Reason] {
			continue
		}
		seen[pod.Reason] = true
		if hint, ok := rootCauseHints[pod.Reason]; ok {
			causes = append(causes, fmt.Sprintf("%s: %s", pod.Reason, hint[0]))
			actions = append(actions, hint[1])
		} else {
			causes = append(causes, fmt.Sprintf("%s: pod %s is unhealthy", pod.Reason, pod.Name))
			actions = append(actions, fmt.Sprintf("Describe pod %s and inspect its events", pod.Name))
		}
	}
	for _, ev := range report.Events {
		key := "event:" + ev.Reason
		if seen[key] || ev.Reason == "" {
			continue
		}
		seen[key] = true
		if strings.Contains(strings.ToLower(ev.Message), "probe") {
			causes = append(causes, fmt.Sprintf("%s: %s", ev.Reason, ev.Message))
		}
	}
	return causes, actions
}

const analysisSystemPrompt = `You are a Kubernetes debugging expert. Given pod health observations and warning events from one namespace, identify the underlying problem.

Respond with ONLY valid JSON:
{
  "problem_summary": "one sentence describing the problem",
  "root_cause": "the most likely root cause",
  "developer_actions": ["concrete action a developer should take"]
}`

func (d *Debugger) analyzeWithLLM(ctx context.Context, report *model.NamespaceReport) *model.IntelligentAnalysis {
	pods := report.UnhealthyPods
	if len(pods) > maxAnalyzedPods {
		pods = pods[:maxAnalyzedPods]
	}
	input := map[string]any{
		"namespace":      report.Namespace,
		"unhealthy_pods": pods,
		"events":         report.Events,
		"root_causes":    report.RootCauses,
	}
	serialized, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil
	}

	content, err := d.llm.Complete(ctx, analysisSystemPrompt, string(serialized))
	if err != nil {
		d.logger.WarnWithFields("namespace diagnosis LLM call failed",
			logging.Field("namespace", report.Namespace),
			logging.Field("error", err.Error()))
		return nil
	}
	raw, err := provider.ExtractJSONObject(content)
	if err != nil {
		return nil
	}
	var analysis model.IntelligentAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil
	}
	return &analysis
}
