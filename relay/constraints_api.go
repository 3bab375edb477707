package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	consensusSpec "github.com/attestantio/go-eth2-client/spec"

	"github.com/boltprotocol/bolt-core/primitives"
)

// SubmitConstraints proxies POST to SubmitConstraintsPath.
func (c *Client) SubmitConstraints(ctx context.Context, constraints primitives.BatchedSignedConstraints) error {
	body, err := json.Marshal(constraints)
	if err != nil {
		return deserializationErr(err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(SubmitConstraintsPath).String(), body)
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
		return failedErr(ErrFailedSubmittingConstraints, errResp)
	}

	return nil
}

// GetHeaderWithProofs proxies GET to the header_with_proofs path, parsing
// a versioned envelope and enforcing that the fork version equals the
// client's configured expected fork. The version is checked before the bid
// itself is decoded, so a response for another fork yields ErrInvalidFork
// whatever its "data" holds.
func (c *Client) GetHeaderWithProofs(ctx context.Context, params GetHeaderParams) (*VersionedSignedBuilderBidWithProofs, error) {
	path := fmt.Sprintf(GetHeaderWithProofsPathFormat, params.Slot, params.ParentHashHex(), params.PublicKeyHex())

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

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(err)
	}

	var envelope struct {
		Version consensusSpec.DataVersion `json:"version"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, deserializationErr(err)
	}
	if envelope.Version != c.expectedFork {
		return nil, invalidForkErr(envelope.Version.String())
	}

	bid := new(VersionedSignedBuilderBidWithProofs)
	if err := json.Unmarshal(raw, bid); err != nil {
		return nil, deserializationErr(err)
	}

	if value, err := bidValue(bid.VersionedSignedBuilderBid); err != nil {
		c.log.WithError(err).Warn("failed to read bid value")
	} else {
		c.log.WithField("slot", params.Slot).WithField("value_wei", value.String()).Debug("received builder bid with proofs")
	}

	// TODO: verify bid.Proofs against the ConstraintsWithProofData the
	// cache held for this slot before returning the bid upward; this core
	// does not bind proofs to stored constraints yet (spec.md §9).

	return bid, nil
}

// Delegate proxies POST to DelegatePath.
func (c *Client) Delegate(ctx context.Context, signed []primitives.SignedDelegation) error {
	body, err := json.Marshal(signed)
	if err != nil {
		return deserializationErr(err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(DelegatePath).String(), body)
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
		return failedErr(ErrFailedDelegating, errResp)
	}

	return nil
}

// Revoke proxies POST to RevokePath.
func (c *Client) Revoke(ctx context.Context, signed []primitives.SignedRevocation) error {
	body, err := json.Marshal(signed)
	if err != nil {
		return deserializationErr(err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(RevokePath).String(), body)
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
		return failedErr(ErrFailedRevoking, errResp)
	}

	return nil
}

func newJSONRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	return req, nil
}

func decodeErrorResponse(resp *http.Response) (*ErrorResponse, error) {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return nil, err
	}
	return &errResp, nil
}

func hexPrefixed(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
