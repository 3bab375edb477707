package primitives

import (
	"fmt"

	"github.com/boltprotocol/bolt-core/internal/jsonutil"
)

// SignedCommitment is a processor-produced response: the original request
// plus a signature binding the sidecar's identity to the commitment. It is
// the internal shape that flows back through an Event's reply channel.
type SignedCommitment struct {
	Request   InclusionRequest
	Signature [65]byte // ECDSA signature, R || S || V
}

// InclusionCommitment is the public, client-visible shape returned from the
// commitments API: a SignedCommitment with any server-only fields dropped.
type InclusionCommitment struct {
	Slot         uint64           `json:"slot"`
	Transactions []HexTransaction `json:"txs"`
	TopOfBlock   bool             `json:"top,omitempty"`
	Signature    string           `json:"signature"`
}

func (c *InclusionCommitment) String() string {
	return jsonutil.Stringify(c)
}

// ToPublic converts a SignedCommitment into its client-visible
// InclusionCommitment form.
func (s *SignedCommitment) ToPublic() InclusionCommitment {
	return InclusionCommitment{
		Slot:         s.Request.Slot,
		Transactions: s.Request.Transactions,
		TopOfBlock:   s.Request.TopOfBlock,
		Signature:    fmt.Sprintf("0x%x", s.Signature[:]),
	}
}
