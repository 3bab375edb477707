package relay

import (
	"fmt"

	consensusSpec "github.com/attestantio/go-eth2-client/spec"
	"github.com/holiman/uint256"

	builderSpec "github.com/attestantio/go-builder-client/spec"
)

// bidValue extracts the builder's declared payment, in wei, from a versioned
// signed builder bid. The relay and the builder-spec wire types already
// carry this as a *uint256.Int; this just picks the right fork's message
// out of the union so callers can log or compare it without a version
// switch of their own.
func bidValue(bid *builderSpec.VersionedSignedBuilderBid) (*uint256.Int, error) {
	switch bid.Version {
	case consensusSpec.DataVersionBellatrix:
		if bid.Bellatrix == nil || bid.Bellatrix.Message == nil {
			return nil, fmt.Errorf("bellatrix bid missing message")
		}
		return bid.Bellatrix.Message.Value, nil
	case consensusSpec.DataVersionCapella:
		if bid.Capella == nil || bid.Capella.Message == nil {
			return nil, fmt.Errorf("capella bid missing message")
		}
		return bid.Capella.Message.Value, nil
	case consensusSpec.DataVersionDeneb:
		if bid.Deneb == nil || bid.Deneb.Message == nil {
			return nil, fmt.Errorf("deneb bid missing message")
		}
		return bid.Deneb.Message.Value, nil
	}

	return nil, fmt.Errorf("unknown data version %d", bid.Version)
}
