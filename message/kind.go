package message

import "fmt"

// Kind identifies the transport type of a message. The numeric values extend
// a 9P-style message numbering scheme, leaving the standard range below 200
// untouched.
type Kind uint8

const (
	// KindCognitive carries cognitive state exchanged between namespaces.
	KindCognitive Kind = 200
	// KindNeural is the general inter-namespace transport type.
	KindNeural Kind = 202
	// KindSwarm carries swarm coordination traffic.
	KindSwarm Kind = 204
	// KindEmergence notifies about detected emergent behavior.
	KindEmergence Kind = 206
	// KindAdapt requests adaptive reconfiguration.
	KindAdapt Kind = 208
	// KindEvolve synchronizes evolution state.
	KindEvolve Kind = 210
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCognitive:
		return "cognitive"
	case KindNeural:
		return "neural"
	case KindSwarm:
		return "swarm"
	case KindEmergence:
		return "emergence"
	case KindAdapt:
		return "adapt"
	case KindEvolve:
		return "evolve"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsValid reports whether k is one of the defined transport kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindCognitive, KindNeural, KindSwarm, KindEmergence, KindAdapt, KindEvolve:
		return true
	default:
		return false
	}
}
