package api

import (
	"github.com/google/uuid"

	"github.com/boltprotocol/bolt-core/primitives"
)

// Result carries the outcome an external processor sends back through an
// Event's response channel: exactly one of Commitment and Err is set.
type Result struct {
	Commitment primitives.InclusionCommitment
	Err        *Error
}

// Event is emitted onto the server's events channel for every authenticated
// request the inner handler accepts. Response is buffered to size 1 so the
// processor's send never blocks on the HTTP handler having already moved on
// (e.g. after a request timeout), mirroring the one-shot reply channel the
// original processor split uses. ID correlates an event with its log lines
// across the handoff to an external processor.
type Event struct {
	ID       uuid.UUID
	Request  primitives.CommitmentRequest
	Response chan Result
}

// NewEvent wraps req in an Event with a fresh ID and a size-1 response channel.
func NewEvent(req primitives.CommitmentRequest) *Event {
	return &Event{ID: uuid.New(), Request: req, Response: make(chan Result, 1)}
}
