package channel

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
)

func newTestMessage(t *testing.T) *message.Message {
	t.Helper()
	return message.New(message.KindCognitive, "transportation", "energy", []byte("route-update"))
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		target   string
		capacity uint64
	}{
		{"empty source", "", "energy", 10},
		{"empty target", "transportation", "", 10},
		{"zero capacity", "transportation", "energy", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := New(tt.source, tt.target, tt.capacity)
			require.Error(t, err)
			assert.Nil(t, ch)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestNewDefaults(t *testing.T) {
	ch, err := New("transportation", "energy", 10)
	require.NoError(t, err)

	assert.Equal(t, "transportation", ch.Source())
	assert.Equal(t, "energy", ch.Target())
	assert.Equal(t, uint64(10), ch.Capacity())
	assert.Zero(t, ch.Load())
	assert.Contains(t, ch.ID(), "transportation-energy-")
	assert.True(t, ch.LastAdaptedAt().IsZero())
}

func TestSendNilMessage(t *testing.T) {
	ch, err := New("transportation", "energy", 10)
	require.NoError(t, err)

	_, err = ch.Send(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Zero(t, ch.Load())
}

func TestFIFOOrdering(t *testing.T) {
	ch, err := New("transportation", "energy", 100)
	require.NoError(t, err)

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		msg := message.New(message.KindCognitive, "transportation", "energy",
			[]byte(fmt.Sprintf("payload-%d", i)))
		ids = append(ids, msg.ID())
		status, err := ch.Send(msg)
		require.NoError(t, err)
		assert.Equal(t, Sent, status)
	}

	for i := 0; i < n; i++ {
		msg, ok := ch.Receive()
		require.True(t, ok)
		assert.Equal(t, ids[i], msg.ID(), "message %d out of order", i)
	}

	_, ok := ch.Receive()
	assert.False(t, ok)
	assert.Zero(t, ch.Load())
}

func TestReceiveEmpty(t *testing.T) {
	ch, err := New("transportation", "energy", 10)
	require.NoError(t, err)

	msg, ok := ch.Receive()
	assert.False(t, ok)
	assert.Nil(t, msg)
}

func TestSendStampsCreatedAt(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	ch, err := New("transportation", "energy", 10, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	msg := newTestMessage(t)
	_, err = ch.Send(msg)
	require.NoError(t, err)

	got, ok := ch.Receive()
	require.True(t, ok)
	assert.Equal(t, fixed, got.CreatedAt().UTC())
}

// A burst past capacity grows the channel instead of dropping: the send that
// arrives with the queue exactly full triggers a 10% (round up) growth and
// still lands under the new capacity.
func TestSendAtCapacityAdapts(t *testing.T) {
	ch, err := New("transportation", "energy", 10)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		status, err := ch.Send(newTestMessage(t))
		require.NoError(t, err)
		assert.Equal(t, Sent, status)
	}
	assert.Equal(t, uint64(10), ch.Capacity(), "no growth while sends fit")
	assert.Equal(t, uint64(10), ch.Load())

	status, err := ch.Send(newTestMessage(t))
	require.NoError(t, err)
	assert.Equal(t, Sent, status)
	assert.Equal(t, uint64(11), ch.Capacity())
	assert.Equal(t, uint64(11), ch.Load())
	assert.False(t, ch.LastAdaptedAt().IsZero())

	stats := ch.Stats()
	assert.Equal(t, uint64(11), stats.Sent)
	assert.Equal(t, uint64(1), stats.Adaptations)
	assert.Zero(t, stats.OverCapacity)
}

func TestAdaptCapacityBelowThresholdIsNoOp(t *testing.T) {
	ch, err := New("transportation", "energy", 10)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		_, err := ch.Send(newTestMessage(t))
		require.NoError(t, err)
	}
	// Load ratio is exactly 0.8; the threshold is strict.
	assert.False(t, ch.AdaptCapacity())
	assert.Equal(t, uint64(10), ch.Capacity())
	assert.True(t, ch.LastAdaptedAt().IsZero())

	_, err = ch.Send(newTestMessage(t))
	require.NoError(t, err)
	assert.True(t, ch.AdaptCapacity())
	assert.Equal(t, uint64(11), ch.Capacity())
	assert.False(t, ch.LastAdaptedAt().IsZero())
}

func TestAdaptCapacityMonotonic(t *testing.T) {
	ch, err := New("transportation", "energy", 5)
	require.NoError(t, err)

	prev := ch.Capacity()
	for i := 0; i < 100; i++ {
		_, err := ch.Send(newTestMessage(t))
		require.NoError(t, err)
		cur := ch.Capacity()
		assert.GreaterOrEqual(t, cur, prev, "capacity shrank on send %d", i)
		prev = cur
	}
	assert.GreaterOrEqual(t, prev, uint64(100), "capacity kept pace with undrained load")
}

func TestGrowthRoundsUpAtLeastOne(t *testing.T) {
	// At small capacities ceil(cap * 1.1) already exceeds cap, so growth
	// holds even where a 10% step would truncate to zero.
	ch, err := New("transportation", "energy", 1)
	require.NoError(t, err)

	_, err = ch.Send(newTestMessage(t))
	require.NoError(t, err)
	status, err := ch.Send(newTestMessage(t))
	require.NoError(t, err)
	assert.Equal(t, Sent, status)
	assert.Equal(t, uint64(2), ch.Capacity())
}

func TestSendOverCapacityWhenAdaptationDeclines(t *testing.T) {
	// A threshold past 1.0 makes the at-capacity adaptation decline, so the
	// send queues over capacity instead of growing the channel.
	ch, err := New("transportation", "energy", 2, WithThreshold(2.0))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		status, err := ch.Send(newTestMessage(t))
		require.NoError(t, err)
		assert.Equal(t, Sent, status)
	}

	status, err := ch.Send(newTestMessage(t))
	require.NoError(t, err)
	assert.Equal(t, SentOverCapacity, status)
	assert.Equal(t, uint64(2), ch.Capacity(), "declined adaptation leaves capacity alone")
	assert.Equal(t, uint64(3), ch.Load())
	assert.Greater(t, ch.LoadRatio(), 1.0)

	// Nothing was dropped: all three messages drain in order.
	for i := 0; i < 3; i++ {
		_, ok := ch.Receive()
		require.True(t, ok)
	}

	stats := ch.Stats()
	assert.Equal(t, uint64(3), stats.Sent)
	assert.Equal(t, uint64(3), stats.Received)
	assert.Equal(t, uint64(1), stats.OverCapacity)
	assert.Zero(t, stats.Adaptations)
}

func TestSendStatusString(t *testing.T) {
	assert.Equal(t, "sent", Sent.String())
	assert.Equal(t, "over_capacity", SentOverCapacity.String())
	assert.Equal(t, "status(7)", SendStatus(7).String())
}

func TestConcurrentSendReceiveNoLoss(t *testing.T) {
	ch, err := New("transportation", "energy", 8)
	require.NoError(t, err)

	const (
		producers  = 8
		perProduce = 200
		total      = producers * perProduce
	)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProduce; i++ {
				_, err := ch.Send(newTestMessage(t))
				assert.NoError(t, err)
			}
		}()
	}

	done := make(chan struct{})
	seen := make(map[string]struct{}, total)
	go func() {
		defer close(done)
		for len(seen) < total {
			msg, ok := ch.Receive()
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			seen[msg.ID()] = struct{}{}
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out draining channel")
	}

	assert.Len(t, seen, total, "every accepted message was delivered exactly once")
	assert.Zero(t, ch.Load())

	stats := ch.Stats()
	assert.Equal(t, uint64(total), stats.Sent)
	assert.Equal(t, uint64(total), stats.Received)
}
