package primitives

import (
	"encoding/binary"
	"errors"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/boltprotocol/bolt-core/internal/jsonutil"
)

// ErrEmptyTransactions is returned when an inclusion request carries no
// transactions.
var ErrEmptyTransactions = errors.New("inclusion request: transactions must not be empty")

// InclusionRequest is a user's signed ask that specific transactions be
// included in a specific slot's block. The user signature itself travels
// out-of-band in the api.SignatureHeader request header, not as a struct
// field, since it authenticates the HTTP request rather than the JSON
// payload alone.
type InclusionRequest struct {
	Slot         uint64           `json:"slot"`
	Transactions []HexTransaction `json:"txs"`
	TopOfBlock   bool             `json:"top,omitempty"`
}

func (r *InclusionRequest) String() string {
	return jsonutil.Stringify(r)
}

// Validate checks the structural invariants of an inclusion request:
// non-empty transactions, and a target slot strictly in the future of the
// given head slot.
func (r *InclusionRequest) Validate(headSlot uint64) error {
	if len(r.Transactions) == 0 {
		return ErrEmptyTransactions
	}
	if r.Slot <= headSlot {
		return errors.New("inclusion request: target slot must be in the future")
	}
	return nil
}

// TransactionHashes decodes every raw transaction and returns their
// canonical hashes, in the original order. Used to build the
// authentication digest.
func (r *InclusionRequest) TransactionHashes() ([]gethCommon.Hash, error) {
	hashes := make([]gethCommon.Hash, 0, len(r.Transactions))
	for _, raw := range r.Transactions {
		decoded, err := DecodeTransaction(raw)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, decoded.Hash)
	}
	return hashes, nil
}

// Digest computes the authentication digest for this request:
// keccak256(concat(tx_hash_i for i in 0..n) || u64_le(target_slot)).
func (r *InclusionRequest) Digest() (gethCommon.Hash, error) {
	hashes, err := r.TransactionHashes()
	if err != nil {
		return gethCommon.Hash{}, err
	}

	data := make([]byte, 0, len(hashes)*32+8)
	for _, h := range hashes {
		data = append(data, h.Bytes()...)
	}

	var slotLE [8]byte
	binary.LittleEndian.PutUint64(slotLE[:], r.Slot)
	data = append(data, slotLE[:]...)

	return crypto.Keccak256Hash(data), nil
}

// CommitmentRequest wraps the single inclusion-request variant this core
// currently recognizes. It mirrors the original processor-facing enum so
// that a future request kind can be added without changing the Event
// plumbing in package api.
type CommitmentRequest struct {
	Inclusion *InclusionRequest
}

// NewInclusionCommitmentRequest wraps an InclusionRequest.
func NewInclusionCommitmentRequest(req *InclusionRequest) CommitmentRequest {
	return CommitmentRequest{Inclusion: req}
}

// Digest delegates to the wrapped request kind.
func (c *CommitmentRequest) Digest() (gethCommon.Hash, error) {
	if c.Inclusion != nil {
		return c.Inclusion.Digest()
	}
	return gethCommon.Hash{}, errors.New("commitment request: no variant set")
}
