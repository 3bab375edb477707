package api

import (
	"encoding/hex"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"

	"github.com/boltprotocol/bolt-core/cryptoutil"
	"github.com/boltprotocol/bolt-core/primitives"
)

// authenticate recomputes req's digest, recovers the address that produced
// sigHeader, and checks it matches the claimed address in the header and,
// if set, the whitelist. sigHeader has the form "{address}:{hex-signature}",
// with either side optionally 0x-prefixed.
func authenticate(req *primitives.InclusionRequest, sigHeader string, whitelist map[gethCommon.Address]struct{}) (gethCommon.Address, *Error) {
	claimed, sig, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return gethCommon.Address{}, ErrUnauthorized
	}

	recovered, err := cryptoutil.RecoverAddress(req, sig)
	if err != nil {
		return gethCommon.Address{}, ErrUnauthorized
	}

	if recovered != claimed {
		return gethCommon.Address{}, ErrUnauthorized
	}

	if whitelist != nil {
		if _, ok := whitelist[recovered]; !ok {
			return gethCommon.Address{}, ErrUnauthorized
		}
	}

	return recovered, nil
}

func parseSignatureHeader(header string) (gethCommon.Address, []byte, error) {
	if header == "" {
		return gethCommon.Address{}, nil, errEmptyHeader
	}

	parts := strings.SplitN(header, ":", 2)
	if len(parts) != 2 {
		return gethCommon.Address{}, nil, errMalformedHeader
	}

	addr := gethCommon.HexToAddress(parts[0])

	sigHex := strings.TrimPrefix(parts[1], "0x")
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return gethCommon.Address{}, nil, errMalformedHeader
	}
	if len(sig) != 65 {
		return gethCommon.Address{}, nil, errMalformedHeader
	}

	return addr, sig, nil
}

type authParseError string

func (e authParseError) Error() string { return string(e) }

const (
	errEmptyHeader     authParseError = "signature header missing"
	errMalformedHeader authParseError = "signature header malformed"
)
