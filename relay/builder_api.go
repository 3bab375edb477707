package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	"github.com/attestantio/go-eth2-client/spec/phase0"

	builderSpec "github.com/attestantio/go-builder-client/spec"

	"github.com/boltprotocol/bolt-core/primitives"
)

// Status proxies GET /eth/v1/builder/status. The relay's status code is
// returned unchanged; a non-2xx response is not an error at this layer.
func (c *Client) Status(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(StatusPath).String(), nil)
	if err != nil {
		return 0, transportErr(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, transportErr(err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// RegisterValidators proxies POST /eth/v1/builder/validators. On success,
// it additionally propagates any delegations whose validator pubkey is in
// the incoming registration set. A failure of that propagation is logged
// but not returned, since the primary registration has already succeeded.
func (c *Client) RegisterValidators(ctx context.Context, registrations []*apiv1.SignedValidatorRegistration) error {
	body, err := json.Marshal(registrations)
	if err != nil {
		return deserializationErr(err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(RegisterValidatorsPath).String(), body)
	if err != nil {
		return transportErr(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errResp, decodeErr := decodeErrorResponse(resp)
		if decodeErr != nil {
			return deserializationErr(decodeErr)
		}
		return failedErr(ErrFailedRegisteringValidators, errResp)
	}

	pubkeys := make(map[phase0.BLSPubKey]struct{}, len(registrations))
	for _, r := range registrations {
		if r == nil || r.Message == nil {
			continue
		}
		pubkeys[r.Message.Pubkey] = struct{}{}
	}

	selected := make([]primitives.SignedDelegation, 0)
	for _, d := range c.delegationsSnapshot() {
		if _, ok := pubkeys[d.Message.ValidatorPubkey]; ok {
			selected = append(selected, d)
		}
	}

	if len(selected) == 0 {
		return nil
	}

	if err := c.Delegate(ctx, selected); err != nil {
		c.log.WithError(err).Error("failed to propagate delegations during validator registration")
	}

	return nil
}

// GetHeader proxies GET /eth/v1/builder/header/{slot}/{parent}/{pubkey}.
func (c *Client) GetHeader(ctx context.Context, params GetHeaderParams) (*builderSpec.VersionedSignedBuilderBid, error) {
	path := fmt.Sprintf(GetHeaderPathFormat, params.Slot, params.ParentHashHex(), params.PublicKeyHex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path).String(), nil)
	if err != nil {
		return nil, transportErr(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errResp, decodeErr := decodeErrorResponse(resp)
		if decodeErr != nil {
			return nil, deserializationErr(decodeErr)
		}
		return nil, failedErr(ErrFailedGettingHeader, errResp)
	}

	bid := new(builderSpec.VersionedSignedBuilderBid)
	if err := json.NewDecoder(resp.Body).Decode(bid); err != nil {
		return nil, deserializationErr(err)
	}

	if value, err := bidValue(bid); err != nil {
		c.log.WithError(err).Warn("failed to read bid value")
	} else {
		c.log.WithField("slot", params.Slot).WithField("value_wei", value.String()).Debug("received builder bid")
	}

	return bid, nil
}

// GetPayload proxies POST /eth/v1/builder/blinded_blocks.
func (c *Client) GetPayload(ctx context.Context, signedBlindedBlock any) (json.RawMessage, error) {
	body, err := json.Marshal(signedBlindedBlock)
	if err != nil {
		return nil, deserializationErr(err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(GetPayloadPath).String(), body)
	if err != nil {
		return nil, transportErr(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errResp, decodeErr := decodeErrorResponse(resp)
		if decodeErr != nil {
			return nil, deserializationErr(decodeErr)
		}
		return nil, failedErr(ErrFailedGettingPayload, errResp)
	}

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, deserializationErr(err)
	}

	return payload, nil
}

// GetHeaderParams are the path parameters shared by GetHeader and
// GetHeaderWithProofs.
type GetHeaderParams struct {
	Slot       uint64
	ParentHash [32]byte
	PublicKey  [48]byte
}

func (p GetHeaderParams) ParentHashHex() string {
	return hexPrefixed(p.ParentHash[:])
}

func (p GetHeaderParams) PublicKeyHex() string {
	return hexPrefixed(p.PublicKey[:])
}
