package primitives

import (
	"fmt"

	"github.com/attestantio/go-eth2-client/spec/phase0"

	"github.com/boltprotocol/bolt-core/internal/jsonutil"
)

// ConstraintsMessage is a batched form of one or more inclusion requests
// sharing a slot and signer.
//
// Reference: https://docs.boltprotocol.xyz/api/builder
type ConstraintsMessage struct {
	Pubkey       phase0.BLSPubKey `json:"pubkey"`
	Slot         uint64           `json:"slot"`
	Top          bool             `json:"top"`
	Transactions []HexTransaction `json:"transactions"`
}

func (m *ConstraintsMessage) String() string {
	return jsonutil.Stringify(m)
}

// SignedConstraints is the authenticated envelope carrying a BLS signature
// over the canonical serialization of the constraints message.
type SignedConstraints struct {
	Message   ConstraintsMessage  `json:"message"`
	Signature phase0.BLSSignature `json:"signature"`
}

func (s *SignedConstraints) String() string {
	return jsonutil.Stringify(s)
}

// BatchedSignedConstraints is the wire shape submitted to the relay.
type BatchedSignedConstraints = []*SignedConstraints

// ConstraintsWithProofData is the admitted, decoded form of a
// ConstraintsMessage stored by the cache: the original message plus the
// decoded hash/hash-tree-root data for every one of its transactions.
type ConstraintsWithProofData struct {
	Message      ConstraintsMessage
	Transactions []DecodedTransaction
}

// NewConstraintsWithProofData decodes every raw transaction in message and
// returns the admitted, decoded form. A decode failure on any transaction
// aborts the whole conversion.
func NewConstraintsWithProofData(message ConstraintsMessage) (ConstraintsWithProofData, error) {
	decoded := make([]DecodedTransaction, 0, len(message.Transactions))
	for i, raw := range message.Transactions {
		d, err := DecodeTransaction(raw)
		if err != nil {
			return ConstraintsWithProofData{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		decoded = append(decoded, d)
	}

	return ConstraintsWithProofData{
		Message:      message,
		Transactions: decoded,
	}, nil
}
