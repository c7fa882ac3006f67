package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
	"github.com/c360/cogmesh/registry"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			"create-namespace",
			"create-namespace water /cognitive-cities/domains/water",
			CreateNamespace{Domain: "water", Path: "/cognitive-cities/domains/water"},
		},
		{
			"bind-channel with bandwidth",
			"bind-channel transportation energy 500",
			BindChannel{Source: "transportation", Target: "energy", Bandwidth: 500},
		},
		{
			"bind-channel default bandwidth",
			"bind-channel transportation energy",
			BindChannel{Source: "transportation", Target: "energy", Bandwidth: 1000},
		},
		{
			"start-swarm with agents",
			"start-swarm traffic-swarm transportation 5",
			StartSwarm{ID: "traffic-swarm", Domain: "transportation", Agents: 5},
		},
		{
			"start-swarm default agents",
			"start-swarm traffic-swarm transportation",
			StartSwarm{ID: "traffic-swarm", Domain: "transportation", Agents: 3},
		},
		{
			"detect-emergence bare",
			"detect-emergence",
			DetectEmergence{Domain: "all", Threshold: 100},
		},
		{
			"detect-emergence with args",
			"detect-emergence energy 42.5",
			DetectEmergence{Domain: "energy", Threshold: 42.5},
		},
		{
			"adapt-namespace default mode",
			"adapt-namespace transportation",
			AdaptNamespace{Domain: "transportation", Mode: registry.ModeManual},
		},
		{
			"adapt-namespace auto",
			"adapt-namespace transportation auto",
			AdaptNamespace{Domain: "transportation", Mode: registry.ModeAuto},
		},
		{
			"tolerates extra whitespace",
			"  bind-channel   transportation   energy  ",
			BindChannel{Source: "transportation", Target: "energy", Bandwidth: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandRejects(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"frobnicate the mesh",
		"create-namespace water",
		"bind-channel transportation",
		"bind-channel transportation energy -5",
		"bind-channel transportation energy many",
		"start-swarm traffic-swarm",
		"start-swarm traffic-swarm transportation -1",
		"detect-emergence energy -3",
		"detect-emergence energy lots",
		"adapt-namespace",
		"adapt-namespace transportation frantic",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func newDispatcher(t *testing.T) (*Dispatcher, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	return NewDispatcher(reg), reg
}

func TestDispatcherExecute(t *testing.T) {
	d, reg := newDispatcher(t)
	ctx := context.Background()

	out, err := d.Execute(ctx, "create-namespace transportation /cognitive-cities/domains/transportation")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace transportation created")

	_, err = d.Execute(ctx, "create-namespace energy /cognitive-cities/domains/energy")
	require.NoError(t, err)

	out, err = d.Execute(ctx, "bind-channel transportation energy 500")
	require.NoError(t, err)
	assert.Contains(t, out, "transportation -> energy (bandwidth 500)")

	out, err = d.Execute(ctx, "start-swarm traffic-swarm transportation")
	require.NoError(t, err)
	assert.Contains(t, out, "swarm traffic-swarm started in domain transportation with 3 agents")

	sw, err := reg.Swarm("traffic-swarm")
	require.NoError(t, err)
	defer func() { _ = sw.StopAgents(time.Second) }()

	out, err = d.Execute(ctx, "detect-emergence")
	require.NoError(t, err)
	assert.Contains(t, out, "no emergence detected")

	out, err = d.Execute(ctx, "adapt-namespace transportation auto")
	require.NoError(t, err)
	assert.Contains(t, out, "set to auto adaptation")

	out, err = d.Execute(ctx, "adapt-namespace transportation manual")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace transportation adapted")
}

func TestDispatcherEchoesVerbOnError(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Execute(context.Background(), "bind-channel transportation energy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind-channel:")
	assert.True(t, errors.IsNotFound(err))
}

func TestDispatcherEmergenceResponse(t *testing.T) {
	d, reg := newDispatcher(t)
	ctx := context.Background()

	for _, domain := range []string{"transportation", "energy"} {
		_, err := reg.CreateNamespace(domain, "")
		require.NoError(t, err)
	}
	ch, err := reg.BindChannel("transportation", "energy", 2000)
	require.NoError(t, err)
	for i := 0; i < 150; i++ {
		_, err := ch.Send(message.New(message.KindCognitive, "transportation", "energy", []byte("x")))
		require.NoError(t, err)
	}

	out, err := d.Execute(ctx, "detect-emergence all 100")
	require.NoError(t, err)
	assert.Contains(t, out, "emergence detected: high-load-correlation")
}

func TestRenderers(t *testing.T) {
	reg := registry.New()
	for _, domain := range []string{"transportation", "energy"} {
		_, err := reg.CreateNamespace(domain, "/cognitive-cities/domains/"+domain)
		require.NoError(t, err)
	}
	ch, err := reg.BindChannel("transportation", "energy", 500)
	require.NoError(t, err)
	for i := 0; i < 250; i++ {
		_, err := ch.Send(message.New(message.KindCognitive, "transportation", "energy", []byte("x")))
		require.NoError(t, err)
	}
	_, err = reg.CreateSwarm("traffic-swarm", "transportation", 0)
	require.NoError(t, err)
	_, err = reg.DetectPattern("traffic-sync", []string{"transportation"})
	require.NoError(t, err)

	snap := reg.Snapshot()

	assert.Equal(t, "energy\ntransportation\n", RenderDomains(snap))
	assert.Contains(t, RenderChannels(snap), "transportation-energy: bandwidth=500 load=250\n")
	assert.Contains(t, RenderSwarms(snap), "traffic-swarm: domain=transportation members=0 coherence=0.00\n")

	stats := RenderStats(snap)
	assert.Contains(t, stats, "Cognitive Statistics\n===================\nUptime: Active\n")
	assert.Contains(t, stats, "Messages processed: 250\n")
	assert.Contains(t, stats, "Patterns detected: 1\n")

	patterns := RenderPatterns(snap)
	assert.Contains(t, patterns, "traffic-sync: observations=1 significance=0.50 domains=transportation")
	assert.Contains(t, patterns, " first=20")
	assert.Contains(t, patterns, " last=20")

	monitor := RenderMonitor(snap)
	assert.Contains(t, monitor, "Cognitive Cities Monitor - Active\n")
	assert.Contains(t, monitor, "Domains: 2 | Channels: 1 | Swarms: 1\n")
	assert.Contains(t, monitor, "Overall cognitive load: 50%\n")
}

func TestRenderersEmpty(t *testing.T) {
	snap := registry.New().Snapshot()
	assert.Equal(t, "No cognitive domains\n", RenderDomains(snap))
	assert.Equal(t, "No neural channels\n", RenderChannels(snap))
	assert.Equal(t, "No active swarms\n", RenderSwarms(snap))
	assert.Equal(t, "No emergent patterns\n", RenderPatterns(snap))
	assert.Contains(t, RenderMonitor(snap), "Overall cognitive load: 0%\n")
}
