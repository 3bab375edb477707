package relay

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/attestantio/go-builder-client/api/bellatrix"
	"github.com/attestantio/go-builder-client/api/capella"
	"github.com/attestantio/go-builder-client/api/deneb"
	builderSpec "github.com/attestantio/go-builder-client/spec"
	consensusSpec "github.com/attestantio/go-eth2-client/spec"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	fastssz "github.com/ferranbt/fastssz"

	"github.com/boltprotocol/bolt-core/internal/jsonutil"
)

// VersionedSignedBuilderBidWithProofs wraps a builderSpec.VersionedSignedBuilderBid
// with constraint inclusion proofs, matching the relay's header_with_proofs
// response shape.
//
// Adapted from the boost-side wrapper. The two JSON directions differ:
// UnmarshalJSON reads a "version"/"data" envelope with "proofs" beside it,
// while MarshalJSON writes the fork's "message"/"signature"/"proofs" flat,
// with no "version" field. Both use a per-fork switch instead of plain
// struct embedding.
type VersionedSignedBuilderBidWithProofs struct {
	Proofs *InclusionProof `json:"proofs,omitempty"`
	*builderSpec.VersionedSignedBuilderBid
}

func (v *VersionedSignedBuilderBidWithProofs) MarshalJSON() ([]byte, error) {
	switch v.Version {
	case consensusSpec.DataVersionBellatrix:
		return json.Marshal(struct {
			Message   *bellatrix.BuilderBid `json:"message"`
			Signature phase0.BLSSignature   `json:"signature"`
			Proofs    *InclusionProof       `json:"proofs"`
		}{
			Message:   v.Bellatrix.Message,
			Signature: v.Bellatrix.Signature,
			Proofs:    v.Proofs,
		})
	case consensusSpec.DataVersionCapella:
		return json.Marshal(struct {
			Message   *capella.BuilderBid `json:"message"`
			Signature phase0.BLSSignature `json:"signature"`
			Proofs    *InclusionProof     `json:"proofs"`
		}{
			Message:   v.Capella.Message,
			Signature: v.Capella.Signature,
			Proofs:    v.Proofs,
		})
	case consensusSpec.DataVersionDeneb:
		return json.Marshal(struct {
			Message   *deneb.BuilderBid   `json:"message"`
			Signature phase0.BLSSignature `json:"signature"`
			Proofs    *InclusionProof     `json:"proofs"`
		}{
			Message:   v.Deneb.Message,
			Signature: v.Deneb.Signature,
			Proofs:    v.Proofs,
		})
	}

	return nil, fmt.Errorf("unknown data version %d", v.Version)
}

func (v *VersionedSignedBuilderBidWithProofs) UnmarshalJSON(data []byte) error {
	var partialBid struct {
		Version consensusSpec.DataVersion `json:"version"`
		Proofs  *InclusionProof           `json:"proofs"`
	}
	if err := json.Unmarshal(data, &partialBid); err != nil {
		return err
	}

	v.VersionedSignedBuilderBid = &builderSpec.VersionedSignedBuilderBid{}

	switch partialBid.Version {
	case consensusSpec.DataVersionDeneb:
		var dataBid struct {
			Message *deneb.SignedBuilderBid `json:"data"`
		}
		if err := json.Unmarshal(data, &dataBid); err != nil {
			return err
		}
		v.Proofs = partialBid.Proofs
		v.Version = partialBid.Version
		v.Deneb = dataBid.Message
		return nil
	case consensusSpec.DataVersionCapella:
		var dataBid struct {
			Message *capella.SignedBuilderBid `json:"data"`
		}
		if err := json.Unmarshal(data, &dataBid); err != nil {
			return err
		}
		v.Proofs = partialBid.Proofs
		v.Version = partialBid.Version
		v.Capella = dataBid.Message
		return nil
	case consensusSpec.DataVersionBellatrix:
		var dataBid struct {
			Message *bellatrix.SignedBuilderBid `json:"data"`
		}
		if err := json.Unmarshal(data, &dataBid); err != nil {
			return err
		}
		v.Proofs = partialBid.Proofs
		v.Version = partialBid.Version
		v.Bellatrix = dataBid.Message
		return nil
	}

	return fmt.Errorf("failed to unmarshal VersionedSignedBuilderBidWithProofs: unknown version %d", partialBid.Version)
}

func (v *VersionedSignedBuilderBidWithProofs) String() string {
	return jsonutil.Stringify(v)
}

func (p *InclusionProof) String() string {
	return jsonutil.Stringify(p)
}

// HexBytes is a byte slice that marshals as a 0x-prefixed hex string.
type HexBytes []byte

// Equal reports bytewise equality.
func (h HexBytes) Equal(other HexBytes) bool {
	return bytes.Equal(h, other)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%#x"`, []byte(h))), nil
}

func (h *HexBytes) UnmarshalJSON(input []byte) error {
	if len(input) == 0 {
		return errors.New("input missing")
	}
	if !bytes.HasPrefix(input, []byte{'"', '0', 'x'}) {
		return errors.New("invalid prefix")
	}
	if !bytes.HasSuffix(input, []byte{'"'}) {
		return errors.New("invalid suffix")
	}

	var data string
	if err := json.Unmarshal(input, &data); err != nil {
		return err
	}

	res, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return err
	}

	*h = res
	return nil
}

// InclusionProof is a Merkle multiproof of inclusion of a set of
// transaction hashes into the block committed to by a builder bid.
type InclusionProof struct {
	TransactionHashes  []phase0.Hash32 `json:"transaction_hashes"`
	GeneralizedIndexes []uint64        `json:"generalized_indexes"`
	MerkleHashes       []*HexBytes     `json:"merkle_hashes"`
}

// InclusionProofFromMultiProof converts a fastssz.Multiproof into an
// InclusionProof, without filling in TransactionHashes (the caller is
// expected to bind those from the constraints the proof was generated
// against).
func InclusionProofFromMultiProof(mp *fastssz.Multiproof) *InclusionProof {
	merkleHashes := make([]*HexBytes, len(mp.Hashes))
	for i, h := range mp.Hashes {
		merkleHashes[i] = new(HexBytes)
		*(merkleHashes[i]) = h
	}

	generalIndexes := make([]uint64, len(mp.Indices))
	for i, idx := range mp.Indices {
		generalIndexes[i] = uint64(idx)
	}

	return &InclusionProof{
		MerkleHashes:       merkleHashes,
		GeneralizedIndexes: generalIndexes,
	}
}
