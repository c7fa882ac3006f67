package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPredicates(t *testing.T) {
	assert.True(t, NewHealthy("registry", "ok").IsHealthy())
	assert.True(t, NewDegraded("gateway", "slow").IsDegraded())
	assert.True(t, NewUnhealthy("swarm", "stalled").IsUnhealthy())

	s := NewHealthy("registry", "ok")
	assert.True(t, s.Healthy)
	assert.False(t, s.Timestamp.IsZero())
}

func TestMonitorUpdateAndGet(t *testing.T) {
	m := NewMonitor()

	_, exists := m.Get("registry")
	assert.False(t, exists)

	m.UpdateHealthy("registry", "monitor running")
	got, exists := m.Get("registry")
	assert.True(t, exists)
	assert.Equal(t, "registry", got.Component)
	assert.True(t, got.IsHealthy())

	m.UpdateUnhealthy("registry", "monitor stopped")
	got, _ = m.Get("registry")
	assert.True(t, got.IsUnhealthy())
}

func TestAggregate(t *testing.T) {
	m := NewMonitor()
	m.UpdateHealthy("registry", "ok")
	m.UpdateHealthy("gateway", "ok")

	agg := m.Aggregate("cogmesh")
	assert.True(t, agg.IsHealthy())
	assert.True(t, agg.Healthy)
	assert.Len(t, agg.SubStatuses, 2)

	m.UpdateDegraded("gateway", "slow responses")
	agg = m.Aggregate("cogmesh")
	assert.True(t, agg.IsDegraded())
	assert.False(t, agg.Healthy)

	m.UpdateUnhealthy("registry", "stopped")
	agg = m.Aggregate("cogmesh")
	assert.True(t, agg.IsUnhealthy())
}
