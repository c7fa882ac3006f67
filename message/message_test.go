package message

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cogmesh/errors"
)

func TestNewDefaults(t *testing.T) {
	msg := New(KindNeural, "transportation", "energy", []byte("payload"))

	assert.NotEmpty(t, msg.ID())
	assert.Equal(t, KindNeural, msg.Kind())
	assert.Equal(t, "transportation", msg.SourceDomain())
	assert.Equal(t, "energy", msg.TargetDomain())
	assert.Empty(t, msg.SwarmID())
	assert.Equal(t, uint32(0), msg.Priority())
	assert.True(t, msg.CreatedAt().IsZero(), "creation time stamped by the channel, not the constructor")
	assert.Equal(t, 1.0, msg.Confidence())
}

func TestNewWithOptions(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := New(KindSwarm, "energy", "swarm-coordination", nil,
		WithPriority(80),
		WithSwarmID("grid-balancers"),
		WithConfidence(0.9),
		WithTime(created),
	)

	assert.Equal(t, uint32(80), msg.Priority())
	assert.Equal(t, "grid-balancers", msg.SwarmID())
	assert.Equal(t, 0.9, msg.Confidence())
	assert.True(t, msg.CreatedAt().Equal(created))
}

func TestStampCreated(t *testing.T) {
	msg := New(KindNeural, "a", "b", nil)
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	msg.StampCreated(first)
	assert.True(t, msg.CreatedAt().Equal(first))

	// Already stamped messages are left untouched.
	msg.StampCreated(later)
	assert.True(t, msg.CreatedAt().Equal(first))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		invalid bool
	}{
		{"valid", New(KindNeural, "a", "b", nil), false},
		{"unknown kind", New(Kind(7), "a", "b", nil), true},
		{"empty source", New(KindNeural, "", "b", nil), true},
		{"empty target", New(KindNeural, "a", "", nil), true},
		{"confidence too high", New(KindNeural, "a", "b", nil, WithConfidence(1.1)), true},
		{"confidence negative", New(KindNeural, "a", "b", nil, WithConfidence(-0.1)), true},
		{"confidence boundary", New(KindNeural, "a", "b", nil, WithConfidence(0)), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.invalid {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "cognitive", KindCognitive.String())
	assert.Equal(t, "neural", KindNeural.String())
	assert.Equal(t, "swarm", KindSwarm.String())
	assert.Equal(t, "emergence", KindEmergence.String())
	assert.Equal(t, "adapt", KindAdapt.String())
	assert.Equal(t, "evolve", KindEvolve.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestJSONRoundTrip(t *testing.T) {
	msg := New(KindEmergence, "governance", "environment", []byte{0x01, 0x02},
		WithPriority(5),
		WithSwarmID("observers"),
		WithConfidence(0.75),
		WithTime(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, msg.ID(), decoded.ID())
	assert.Equal(t, msg.Kind(), decoded.Kind())
	assert.Equal(t, msg.SourceDomain(), decoded.SourceDomain())
	assert.Equal(t, msg.TargetDomain(), decoded.TargetDomain())
	assert.Equal(t, msg.SwarmID(), decoded.SwarmID())
	assert.Equal(t, msg.Priority(), decoded.Priority())
	assert.True(t, msg.CreatedAt().Equal(decoded.CreatedAt()))
	assert.Equal(t, msg.Payload(), decoded.Payload())
	assert.Equal(t, msg.Confidence(), decoded.Confidence())
}

func TestUnmarshalFlexibleCreatedAt(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frame := `{"id":"x","kind":202,"source_domain":"a","target_domain":"b","confidence":1,"created_at":%s}`

	tests := []struct {
		name      string
		createdAt string
	}{
		{"rfc3339 string", `"2025-06-01T12:00:00Z"`},
		{"unix seconds", `1748779200`},
		{"unix milliseconds", `1748779200000`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded Message
			require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(frame, tt.createdAt)), &decoded))
			assert.True(t, decoded.CreatedAt().Equal(created),
				"got %v, want %v", decoded.CreatedAt(), created)
		})
	}

	// Absent created_at stays unstamped.
	var decoded Message
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":"x","kind":202,"source_domain":"a","target_domain":"b","confidence":1}`), &decoded))
	assert.True(t, decoded.CreatedAt().IsZero())
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	// Kind 7 is not a defined transport kind.
	var decoded Message
	err := json.Unmarshal([]byte(`{"id":"x","kind":7,"source_domain":"a","target_domain":"b","confidence":1}`), &decoded)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
