package cryptoutil

import (
	"fmt"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/flashbots/go-boost-utils/bls"

	"github.com/boltprotocol/bolt-core/primitives"
)

// BLSSigner signs delegation, revocation, and constraints messages with a
// BLS secret key. It exists so tests (and any external processor that
// wants it) can mint valid signed fixtures without hand-rolling BLS
// signing; nothing inside cache/relay/api calls it on the hot path, since
// verifying these signatures is the boost node's responsibility and
// producing them is the external processor's, both out of this core's
// scope per spec.md.
type BLSSigner struct {
	sk *bls.SecretKey
	pk *bls.PublicKey
}

// NewBLSSigner creates a signer from a raw 32-byte BLS secret key.
func NewBLSSigner(secretKeyBytes []byte) (*BLSSigner, error) {
	sk, err := bls.SecretKeyFromBytes(secretKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("bls secret key: %w", err)
	}
	return &BLSSigner{sk: sk, pk: bls.PublicKeyFromSecretKey(sk)}, nil
}

// PublicKey returns the signer's BLS public key in phase0 wire form.
func (s *BLSSigner) PublicKey() phase0.BLSPubKey {
	var pk phase0.BLSPubKey
	copy(pk[:], bls.PublicKeyToBytes(s.pk))
	return pk
}

func (s *BLSSigner) signMessage(msg []byte) phase0.BLSSignature {
	sig := bls.SignMessage(msg, s.sk)
	var out phase0.BLSSignature
	copy(out[:], bls.SignatureToBytes(sig))
	return out
}

// SignConstraints signs a ConstraintsMessage's constraintsDigest bytes (not
// its SSZ serialization) and returns the signed envelope.
func (s *BLSSigner) SignConstraints(msg primitives.ConstraintsMessage) (*primitives.SignedConstraints, error) {
	digest, err := constraintsDigest(msg)
	if err != nil {
		return nil, err
	}
	return &primitives.SignedConstraints{Message: msg, Signature: s.signMessage(digest)}, nil
}

// SignDelegation signs a Delegation and returns the signed envelope.
func (s *BLSSigner) SignDelegation(d primitives.Delegation) *primitives.SignedDelegation {
	return &primitives.SignedDelegation{Message: d, Signature: s.signMessage(delegationDigest(d))}
}

// SignRevocation signs a Revocation and returns the signed envelope.
func (s *BLSSigner) SignRevocation(r primitives.Revocation) *primitives.SignedRevocation {
	return &primitives.SignedRevocation{Message: r, Signature: s.signMessage(revocationDigest(r))}
}

// constraintsDigest builds a deterministic byte digest for a constraints
// message: pubkey || slot (8 bytes BE) || top (1 byte) || concat(tx raw
// bytes). This stands in for the full SSZ hash-tree-root serialization the
// production wire format uses; the cache and relay client never inspect
// the BLS signature contents, so any canonical, order-sensitive encoding
// is sufficient for a faithful fixture signer.
func constraintsDigest(msg primitives.ConstraintsMessage) ([]byte, error) {
	data := append([]byte{}, msg.Pubkey[:]...)
	data = appendUint64BE(data, msg.Slot)
	if msg.Top {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	for _, tx := range msg.Transactions {
		data = append(data, tx...)
	}
	return data, nil
}

func delegationDigest(d primitives.Delegation) []byte {
	data := []byte{d.Action}
	data = append(data, d.ValidatorPubkey[:]...)
	data = append(data, d.DelegateePubkey[:]...)
	return data
}

func revocationDigest(r primitives.Revocation) []byte {
	data := []byte{r.Action}
	data = append(data, r.ValidatorPubkey[:]...)
	data = append(data, r.DelegateePubkey[:]...)
	return data
}

func appendUint64BE(data []byte, v uint64) []byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return append(data, b[:]...)
}
