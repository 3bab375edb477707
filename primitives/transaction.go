package primitives

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	fastssz "github.com/ferranbt/fastssz"
)

// maxBytesPerTransaction is the consensus-specs bound used to merkleize a
// Transaction as an SSZ List[byte, MAX_BYTES_PER_TRANSACTION].
const maxBytesPerTransaction = 1073741824 // 2**30

// HexTransaction is a single raw, RLP/EIP-2718-encoded transaction,
// marshalled as a 0x-prefixed hex string on the wire.
type HexTransaction []byte

// Equal reports whether two raw transactions are bytewise identical, the
// canonical duplicate test for the constraints cache.
func (h HexTransaction) Equal(other HexTransaction) bool {
	return bytes.Equal(h, other)
}

// MarshalJSON implements json.Marshaler.
func (h HexTransaction) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%#x"`, []byte(h))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HexTransaction) UnmarshalJSON(input []byte) error {
	if len(input) == 0 {
		return errors.New("input missing")
	}
	var data string
	if err := json.Unmarshal(input, &data); err != nil {
		return err
	}
	if !strings.HasPrefix(data, "0x") {
		return errors.New("invalid prefix")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return err
	}
	*h = raw
	return nil
}

// DecodedTransaction is the per-transaction data retained once a raw
// transaction has been successfully decoded and admitted into the cache.
type DecodedTransaction struct {
	Raw          HexTransaction
	Hash         gethCommon.Hash
	HashTreeRoot [32]byte
}

// txHashTreeRootContainer adapts a raw transaction to fastssz's HashRoot
// interface so it can be merkleized the same way consensus-specs types are.
type txHashTreeRootContainer []byte

func (t txHashTreeRootContainer) HashTreeRoot() ([32]byte, error) {
	return fastssz.HashWithDefaultHasher(t)
}

func (t txHashTreeRootContainer) HashTreeRootWith(hh *fastssz.Hasher) error {
	indx := hh.Index()
	hh.AppendBytes32(t)
	numChunks := (maxBytesPerTransaction + 31) / 32
	hh.MerkleizeWithMixin(indx, uint64(len(t)), uint64(numChunks))
	return nil
}

// DecodeTransaction decodes a raw EIP-2718 transaction envelope and returns
// its canonical hash and SSZ hash-tree root. A decode failure is the only
// way this function can fail; it performs no other validation.
func DecodeTransaction(raw HexTransaction) (DecodedTransaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return DecodedTransaction{}, fmt.Errorf("decode transaction: %w", err)
	}

	root, err := txHashTreeRootContainer(raw).HashTreeRoot()
	if err != nil {
		return DecodedTransaction{}, fmt.Errorf("hash tree root transaction: %w", err)
	}

	return DecodedTransaction{
		Raw:          raw,
		Hash:         tx.Hash(),
		HashTreeRoot: root,
	}, nil
}
