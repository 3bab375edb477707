// Package cryptoutil provides the signing primitives the commitments API
// and its test fixtures need: ECDSA signing/recovery for inclusion-request
// authentication, and a BLS signing helper for constructing signed
// constraints/delegations/revocations.
package cryptoutil

import (
	"crypto/ecdsa"
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/boltprotocol/bolt-core/primitives"
)

// SignableECDSA is implemented by any type that can be signed and verified
// with ECDSA. Digest doesn't enforce a specific hash or encoding method;
// callers decide what goes into it.
type SignableECDSA interface {
	// Digest returns the 32-byte digest to sign.
	Digest() (gethCommon.Hash, error)
}

// Signer signs SignableECDSA values with a secp256k1 key and recovers
// signer addresses from signatures.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner creates a new Signer with the given secp256k1 private key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Address returns the Ethereum address derived from the signer's public key.
func (s *Signer) Address() gethCommon.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign signs obj's digest, returning a 65-byte [R || S || V] signature.
func (s *Signer) Sign(obj SignableECDSA) ([65]byte, error) {
	digest, err := obj.Digest()
	if err != nil {
		return [65]byte{}, fmt.Errorf("digest: %w", err)
	}

	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return [65]byte{}, fmt.Errorf("sign: %w", err)
	}

	var out [65]byte
	copy(out[:], sig)
	return out, nil
}

// RecoverAddress recovers the signer address from a signature over obj's
// digest.
func RecoverAddress(obj SignableECDSA, signature []byte) (gethCommon.Address, error) {
	digest, err := obj.Digest()
	if err != nil {
		return gethCommon.Address{}, fmt.Errorf("digest: %w", err)
	}

	pub, err := crypto.SigToPub(digest.Bytes(), signature)
	if err != nil {
		return gethCommon.Address{}, fmt.Errorf("recover: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// SignCommitment signs req and returns the processor-shaped SignedCommitment.
// This is provided for test fixtures and reference external-processor
// implementations; the commitments API server itself never calls it — it
// only ever receives a SignedCommitment back through an Event's reply
// channel.
func SignCommitment(req primitives.InclusionRequest, signer *Signer) (primitives.SignedCommitment, error) {
	sig, err := signer.Sign(&req)
	if err != nil {
		return primitives.SignedCommitment{}, err
	}
	return primitives.SignedCommitment{Request: req, Signature: sig}, nil
}
