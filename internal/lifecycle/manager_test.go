package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (c *testComponent) Start(_ context.Context) error {
	*c.events = append(*c.events, "start:"+c.name)
	return c.startErr
}

func (c *testComponent) Stop(_ context.Context) error {
	*c.events = append(*c.events, "stop:"+c.name)
	return c.stopErr
}

func (c *testComponent) Name() string { return c.name }

func newTestComponent(name string, events *[]string) *testComponent {
	return &testComponent{name: name, events: events}
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager()
	var events []string

	a := newTestComponent("a", &events)
	require.NoError(t, m.Register(a))

	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(a), "duplicate registration")
	assert.Error(t, m.Register(newTestComponent("", &events)))

	unregistered := newTestComponent("ghost", &events)
	assert.Error(t, m.Register(newTestComponent("b", &events), unregistered))
}

func TestStartStopOrder(t *testing.T) {
	m := NewManager()
	var events []string

	tracing := newTestComponent("tracing", &events)
	store := newTestComponent("store", &events)
	api := newTestComponent("api", &events)

	// Register out of dependency order; the topological sort fixes it.
	require.NoError(t, m.Register(tracing))
	require.NoError(t, m.Register(store, tracing))
	require.NoError(t, m.Register(api, store, tracing))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []string{"start:tracing", "start:store", "start:api"}, events)
	assert.True(t, m.IsRunning(api))

	require.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, []string{
		"start:tracing", "start:store", "start:api",
		"stop:api", "stop:store", "stop:tracing",
	}, events)
	assert.False(t, m.IsRunning(api))
}

func TestStartFailureRollsBack(t *testing.T) {
	m := NewManager()
	var events []string

	a := newTestComponent("a", &events)
	b := newTestComponent("b", &events)
	b.startErr = errors.New("listen failed")

	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b, a))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")

	// a was started and must be rolled back; b never ran its Stop.
	assert.Equal(t, []string{"start:a", "start:b", "stop:a"}, events)
	assert.False(t, m.IsRunning(a))
}

func TestStopToleratesComponentErrors(t *testing.T) {
	m := NewManager()
	var events []string

	a := newTestComponent("a", &events)
	b := newTestComponent("b", &events)
	a.stopErr = errors.New("flush failed")

	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b, a))
	require.NoError(t, m.Start(context.Background()))

	m.SetShutdownTimeout(time.Second)
	assert.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}
