package primitives

import (
	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/boltprotocol/bolt-core/internal/jsonutil"
)

// Delegation/Revocation action discriminants, matching the relay's wire
// encoding.
const (
	ActionDelegate uint8 = 0
	ActionRevoke   uint8 = 1
)

// Delegation binds a validator public key to a delegatee public key,
// authorizing the delegatee to submit constraints on the validator's
// behalf.
//
// Reference: https://docs.boltprotocol.xyz/api/builder#delegate
type Delegation struct {
	Action          uint8            `json:"action"`
	ValidatorPubkey phase0.BLSPubKey `json:"validator_pubkey"`
	DelegateePubkey phase0.BLSPubKey `json:"delegatee_pubkey"`
}

// SignedDelegation is a Delegation signed by the validator's BLS key.
type SignedDelegation struct {
	Message   Delegation          `json:"message"`
	Signature phase0.BLSSignature `json:"signature"`
}

func (s *SignedDelegation) String() string {
	return jsonutil.StringifyPretty(s)
}

// Revocation is the inverse of a Delegation.
//
// Reference: https://docs.boltprotocol.xyz/api/builder#revoke
type Revocation struct {
	Action          uint8            `json:"action"`
	ValidatorPubkey phase0.BLSPubKey `json:"validator_pubkey"`
	DelegateePubkey phase0.BLSPubKey `json:"delegatee_pubkey"`
}

// SignedRevocation is a Revocation signed by the validator's BLS key.
type SignedRevocation struct {
	Message   Revocation          `json:"message"`
	Signature phase0.BLSSignature `json:"signature"`
}

func (s *SignedRevocation) String() string {
	return jsonutil.StringifyPretty(s)
}
