package main

import "fmt"

// ValidationError covers malformed transactions/blocks, bad signatures,
// bad addresses, and unmet proof-of-work — spec §7. AddTransaction and
// Verify report these as `false`; AddBlock returns the error itself so
// callers and logging can distinguish the reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// StateConflictError marks a block that is structurally valid but does
// not connect to the current tip. It is not a failure: the chain state
// machine routes it to the pending set rather than rejecting it.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: %s", e.Reason)
}

// CryptoError covers key load failures and malformed signature bytes.
// Verification surfaces these as `false`; wallet loading surfaces them
// as an explicit error.
type CryptoError struct {
	Reason string
	Err    error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("crypto error: %s", e.Reason)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// ProtocolError covers malformed gossip JSON and unknown message types.
// The offending peer is not penalized (spec §7).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// IOError wraps UDP listen failures, unreadable or unwritable wallet
// files, config files, and chain-store failures; these propagate to the
// caller. UDP send failures are logged by the gossip node, not wrapped.
type IOError struct {
	Reason string
	Err    error
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("io error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("io error: %s", e.Reason)
}

func (e *IOError) Unwrap() error { return e.Err }
