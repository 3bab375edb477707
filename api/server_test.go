package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boltprotocol/bolt-core/cryptoutil"
	"github.com/boltprotocol/bolt-core/primitives"
)

var testKey *ecdsa.PrivateKey

func init() {
	k, err := crypto.HexToECDSA("fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19")
	if err != nil {
		panic(err)
	}
	testKey = k
}

func testTx(nonce uint64) primitives.HexTransaction {
	inner := types.NewTransaction(nonce, gethCommon.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)
	signed, err := types.SignTx(inner, types.HomesteadSigner{}, testKey)
	if err != nil {
		panic(err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return primitives.HexTransaction(raw)
}

func startTestServer(t *testing.T, events chan *Event) (addr string, stop func()) {
	t.Helper()

	srv := NewServer(events)
	require.NoError(t, srv.Bind("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()

	return srv.LocalAddr().String(), func() {
		cancel()
		<-done
	}
}

func postRPC(t *testing.T, addr, method string, params any, sigHeader string) *Response {
	t.Helper()

	rawParams, err := json.Marshal(params)
	require.NoError(t, err)

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  json.RawMessage(rawParams),
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/", addr), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("content-type", "application/json")
	if sigHeader != "" {
		req.Header.Set(SignatureHeader, sigHeader)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return &rpcResp
}

func TestRequestInclusion_Unauthorized(t *testing.T) {
	events := make(chan *Event, 1)
	addr, stop := startTestServer(t, events)
	defer stop()

	req := primitives.InclusionRequest{Slot: 12, Transactions: []primitives.HexTransaction{testTx(0)}}

	resp := postRPC(t, addr, RequestInclusionMethod, []primitives.InclusionRequest{req}, "")

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)

	select {
	case <-events:
		t.Fatal("no event should be emitted for an unauthorized request")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestInclusion_AuthorizedRoundTrip(t *testing.T) {
	events := make(chan *Event, 1)
	addr, stop := startTestServer(t, events)
	defer stop()

	req := primitives.InclusionRequest{Slot: 12, Transactions: []primitives.HexTransaction{testTx(0)}}

	signer := cryptoutil.NewSigner(testKey)
	sig, err := signer.Sign(&req)
	require.NoError(t, err)
	sigHeader := fmt.Sprintf("%s:0x%x", signer.Address().Hex(), sig[:])

	replyCh := make(chan *Response, 1)
	go func() {
		replyCh <- postRPC(t, addr, RequestInclusionMethod, []primitives.InclusionRequest{req}, sigHeader)
	}()

	var event *Event
	select {
	case event = <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event to be emitted for an authorized request")
	}

	commitmentSigner := cryptoutil.NewSigner(testKey)
	signed, err := cryptoutil.SignCommitment(*event.Request.Inclusion, commitmentSigner)
	require.NoError(t, err)

	event.Response <- Result{Commitment: signed.ToPublic()}

	resp := <-replyCh
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)

	var commitment primitives.InclusionCommitment
	require.NoError(t, json.Unmarshal(resp.Result, &commitment))
	assert.Equal(t, req.Slot, commitment.Slot)
}

func TestGetVersion_NeverAuthenticates(t *testing.T) {
	events := make(chan *Event, 1)
	addr, stop := startTestServer(t, events)
	defer stop()

	resp := postRPC(t, addr, GetVersionMethod, []any{}, "")
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)

	var version string
	require.NoError(t, json.Unmarshal(resp.Result, &version))
	assert.NotEmpty(t, version)
}

func TestRequestInclusion_WhitelistRejectsUnknownSigner(t *testing.T) {
	events := make(chan *Event, 1)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	srv := NewServer(events, WithWhitelist([]gethCommon.Address{crypto.PubkeyToAddress(other.PublicKey)}))
	require.NoError(t, srv.Bind("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	req := primitives.InclusionRequest{Slot: 12, Transactions: []primitives.HexTransaction{testTx(0)}}
	signer := cryptoutil.NewSigner(testKey)
	sig, err := signer.Sign(&req)
	require.NoError(t, err)
	sigHeader := fmt.Sprintf("%s:0x%x", signer.Address().Hex(), sig[:])

	resp := postRPC(t, srv.LocalAddr().String(), RequestInclusionMethod, []primitives.InclusionRequest{req}, sigHeader)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)
}
