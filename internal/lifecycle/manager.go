package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/kairos/internal/logging"
)

// Manager starts components in dependency order and stops them in reverse
// order, with a per-component shutdown timeout.
type Manager struct {
	components        []Component
	dependencies      map[Component][]Component
	running           map[Component]bool
	shutdownTimeout   time.Duration
	mu                sync.RWMutex
	logger            *logging.Logger
	registrationMutex sync.Mutex
	startedComponents []Component
}

// NewManager creates a lifecycle manager with a 30 second shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		components:      []Component{},
		dependencies:    make(map[Component][]Component),
		running:         make(map[Component]bool),
		shutdownTimeout: 30 * time.Second,
		logger:          logging.GetLogger("lifecycle.manager"),
	}
}

// Register registers a component with optional dependencies. Dependencies
// must already be registered; a component starts only after its dependencies
// and stops before them.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.registrationMutex.Lock()
	defer m.registrationMutex.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}
	for _, c := range m.components {
		if c == component {
			return fmt.Errorf("component %s is already registered", component.Name())
		}
	}
	for _, dep := range dependsOn {
		found := false
		for _, registered := range m.components {
			if registered == dep {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("dependency %s is not registered", dep.Name())
		}
	}
	if m.wouldCreateCycle(component, dependsOn) {
		return fmt.Errorf("registering %s would create a circular dependency", component.Name())
	}

	m.components = append(m.components, component)
	m.dependencies[component] = dependsOn
	m.running[component] = false

	m.logger.Debug("Registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

func (m *Manager) wouldCreateCycle(component Component, dependencies []Component) bool {
	visited := make(map[Component]bool)
	return m.hasCycleDFS(component, dependencies, visited)
}

func (m *Manager) hasCycleDFS(node Component, dependencies []Component, visited map[Component]bool) bool {
	for _, dep := range dependencies {
		if dep == node {
			return true
		}
		if visited[dep] {
			continue
		}
		visited[dep] = true
		if m.hasCycleDFS(node, m.dependencies[dep], visited) {
			return true
		}
	}
	return false
}

// Start starts all registered components in dependency order. If any
// component fails, the already-started ones are stopped in reverse order.
func (m *Manager) Start(ctx context.Context) error {
	m.registrationMutex.Lock()
	defer m.registrationMutex.Unlock()

	m.startedComponents = []Component{}
	for _, component := range m.topologicalSort() {
		m.logger.Info("Starting %s", component.Name())
		startTime := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.stopComponentsForRollback()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.mu.Lock()
		m.running[component] = true
		m.startedComponents = append(m.startedComponents, component)
		m.mu.Unlock()

		m.logger.Info("%s started successfully (took %dms)", component.Name(), time.Since(startTime).Milliseconds())
	}

	m.logger.Info("All components started successfully")
	return nil
}

func (m *Manager) topologicalSort() []Component {
	visited := make(map[Component]bool)
	sorted := []Component{}
	for _, component := range m.components {
		if !visited[component] {
			m.topologicalSortDFS(component, visited, &sorted)
		}
	}
	return sorted
}

func (m *Manager) topologicalSortDFS(component Component, visited map[Component]bool, sorted *[]Component) {
	visited[component] = true
	for _, dep := range m.dependencies[component] {
		if !visited[dep] {
			m.topologicalSortDFS(dep, visited, sorted)
		}
	}
	*sorted = append(*sorted, component)
}

func (m *Manager) stopComponentsForRollback() {
	for i := len(m.startedComponents) - 1; i >= 0; i-- {
		component := m.startedComponents[i]
		m.logger.Debug("Rolling back: stopping %s", component.Name())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}
}

// Stop stops all started components in reverse order. Each component gets
// its own timeout; errors are logged, never returned.
func (m *Manager) Stop(ctx context.Context) error {
	m.registrationMutex.Lock()
	defer m.registrationMutex.Unlock()

	m.logger.Info("Stopping all components")

	for i := len(m.startedComponents) - 1; i >= 0; i-- {
		component := m.startedComponents[i]
		if !m.IsRunning(component) {
			continue
		}

		m.logger.Info("Stopping %s", component.Name())
		startTime := time.Now()

		componentCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		err := component.Stop(componentCtx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				m.logger.Warn("Component %s exceeded grace period (%dms timeout), forcing termination",
					component.Name(), m.shutdownTimeout.Milliseconds())
			} else {
				m.logger.Error("Error stopping %s: %v", component.Name(), err)
			}
		} else {
			m.logger.Info("%s stopped successfully (took %dms)", component.Name(), time.Since(startTime).Milliseconds())
		}

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}

	m.logger.Info("All components stopped")
	return nil
}

// IsRunning reports whether the component started and has not stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	running, exists := m.running[component]
	return exists && running
}

// SetShutdownTimeout sets the per-component graceful shutdown timeout.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
	m.logger.Debug("Shutdown timeout set to %dms", timeout.Milliseconds())
}
