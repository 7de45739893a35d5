package rag

// State tracks the workflow lifecycle. Transitions only move forward:
// Uninitialized -> Initialized -> Embedded. Re-initializing and
// re-embedding are idempotent; embedding is additive.
type State int

const (
	// StateUninitialized means no model or index has been wired up.
	StateUninitialized State = iota

	// StateInitialized means the handles are live but nothing is indexed.
	StateInitialized

	// StateEmbedded means at least one document was successfully embedded.
	StateEmbedded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}
