// Package api implements the commitments API (C3): an authenticated
// JSON-RPC server that accepts inclusion requests over HTTP and hands them
// off to an external processor through an event channel, the same split the
// original sidecar draws between its inner handler and outer RPC server.
package api

import (
	"context"

	"github.com/boltprotocol/bolt-core/primitives"
)

// Method names the commitments API recognizes.
const (
	GetVersionMethod      = "bolt_getVersion"
	RequestInclusionMethod = "bolt_requestInclusion"
)

// SignatureHeader is the HTTP header carrying the authentication signature
// over an inclusion request, in the form "{address}:{hex-signature}".
const SignatureHeader = "x-bolt-signature"

// CommitmentsAPI is a request-processing contract for turning a validated,
// already-authenticated InclusionRequest into a commitment. Server does not
// call it: Server hands each accepted request off as an Event on its events
// channel instead.
type CommitmentsAPI interface {
	RequestInclusion(ctx context.Context, req *primitives.InclusionRequest) (primitives.InclusionCommitment, *Error)
}
