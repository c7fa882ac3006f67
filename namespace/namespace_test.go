package namespace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
)

func newLoadedChannel(t *testing.T, source, target string, capacity uint64, load int) *channel.Channel {
	t.Helper()
	ch, err := channel.New(source, target, capacity)
	require.NoError(t, err)
	for i := 0; i < load; i++ {
		msg := message.New(message.KindCognitive, source, target, []byte("load"))
		_, err := ch.Send(msg)
		require.NoError(t, err)
	}
	return ch
}

func TestNewValidation(t *testing.T) {
	ns, err := New("", "/cognitive/transportation")
	require.Error(t, err)
	assert.Nil(t, ns)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewDefaults(t *testing.T) {
	ns, err := New("transportation", "/cognitive/transportation")
	require.NoError(t, err)

	assert.Equal(t, "transportation", ns.Domain())
	assert.Equal(t, "/cognitive/transportation", ns.RootPath())
	assert.Zero(t, ns.CognitiveLoad())
	assert.Zero(t, ns.ChannelCount())
	assert.True(t, ns.LastAdaptedAt().IsZero())
}

func TestBindChannel(t *testing.T) {
	ns, err := New("transportation", "/cognitive/transportation")
	require.NoError(t, err)

	err = ns.BindChannel(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	ch, err := channel.New("transportation", "energy", 10)
	require.NoError(t, err)

	require.NoError(t, ns.BindChannel(ch))
	require.NoError(t, ns.BindChannel(ch), "rebinding the same channel is a no-op")
	assert.Equal(t, 1, ns.ChannelCount())
	assert.Equal(t, []*channel.Channel{ch}, ns.Channels())
}

func TestBindOrderPreserved(t *testing.T) {
	ns, err := New("transportation", "/cognitive/transportation")
	require.NoError(t, err)

	a := newLoadedChannel(t, "transportation", "energy", 10, 0)
	b := newLoadedChannel(t, "transportation", "governance", 10, 0)
	require.NoError(t, ns.BindChannel(a))
	require.NoError(t, ns.BindChannel(b))

	got := ns.Channels()
	require.Len(t, got, 2)
	assert.Equal(t, a.ID(), got[0].ID())
	assert.Equal(t, b.ID(), got[1].ID())
}

func TestAdaptWithNoChannels(t *testing.T) {
	ns, err := New("transportation", "/cognitive/transportation")
	require.NoError(t, err)

	report := ns.Adapt()
	assert.Zero(t, report.AvgLoad)
	assert.Zero(t, report.CognitiveLoad)
	assert.False(t, report.Adapted)
	assert.True(t, ns.LastAdaptedAt().IsZero())
}

// An average load of exactly 100 sits at the threshold and does not cascade;
// one message more tips the average over and adapts every overloaded channel.
func TestAdaptThresholdIsStrict(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	ns, err := New("transportation", "/cognitive/transportation",
		WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	ch := newLoadedChannel(t, "transportation", "energy", 110, 100)
	require.NoError(t, ns.BindChannel(ch))

	report := ns.Adapt()
	assert.Equal(t, 100.0, report.AvgLoad)
	assert.Equal(t, uint64(100), report.CognitiveLoad)
	assert.False(t, report.Adapted)
	assert.Equal(t, uint64(110), ch.Capacity())
	assert.True(t, ns.LastAdaptedAt().IsZero())

	_, err = ch.Send(message.New(message.KindCognitive, "transportation", "energy", []byte("tip")))
	require.NoError(t, err)

	report = ns.Adapt()
	assert.Equal(t, 101.0, report.AvgLoad)
	assert.Equal(t, uint64(101), report.CognitiveLoad)
	assert.True(t, report.Adapted)
	assert.Equal(t, 1, report.Adaptations)
	assert.Equal(t, uint64(121), ch.Capacity(), "10% growth, rounded up")
	assert.Equal(t, fixed, ns.LastAdaptedAt().UTC())
}

func TestAdaptAveragesAcrossChannels(t *testing.T) {
	ns, err := New("transportation", "/cognitive/transportation")
	require.NoError(t, err)

	hot := newLoadedChannel(t, "transportation", "energy", 200, 150)
	cold := newLoadedChannel(t, "transportation", "governance", 200, 50)
	require.NoError(t, ns.BindChannel(hot))
	require.NoError(t, ns.BindChannel(cold))

	report := ns.Adapt()
	assert.Equal(t, 100.0, report.AvgLoad)
	assert.False(t, report.Adapted)

	// Three more on the hot channel: average 101.5, cascade fires. The hot
	// channel is under its own 0.8 ratio threshold (153/200) so best-effort
	// adaptation grows neither channel.
	for i := 0; i < 3; i++ {
		_, err := hot.Send(message.New(message.KindCognitive, "transportation", "energy", []byte("tip")))
		require.NoError(t, err)
	}
	report = ns.Adapt()
	assert.Equal(t, 101.5, report.AvgLoad)
	assert.Equal(t, uint64(101), report.CognitiveLoad, "cognitive load floors the average")
	assert.True(t, report.Adapted)
	assert.Zero(t, report.Adaptations)
	assert.Equal(t, uint64(200), hot.Capacity())
	assert.Equal(t, uint64(200), cold.Capacity())
	assert.False(t, ns.LastAdaptedAt().IsZero())
}
