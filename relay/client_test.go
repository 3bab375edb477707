package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apiv1 "github.com/attestantio/go-eth2-client/api/v1"
	consensusSpec "github.com/attestantio/go-eth2-client/spec"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boltprotocol/bolt-core/primitives"
)

func TestEndpoint_JoinsAbsoluteAndRelativePaths(t *testing.T) {
	base, err := url.Parse("http://h:8080/")
	require.NoError(t, err)
	c := NewClient(base)

	want, err := url.Parse("http://h:8080/a/b")
	require.NoError(t, err)

	assert.Equal(t, want.String(), c.endpoint("/a/b").String())
	assert.Equal(t, want.String(), c.endpoint("a/b").String())
}

func TestStatus_ReturnsRelayStatusUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base)

	code, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestSubmitConstraints_NonOKSurfacesRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Code: 400, Message: "bad constraints"})
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base)

	err = c.SubmitConstraints(context.Background(), primitives.BatchedSignedConstraints{})
	require.Error(t, err)

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, ErrFailedSubmittingConstraints, relayErr.Kind)
	assert.Equal(t, "bad constraints", relayErr.Response.Message)
}

func TestSubmitConstraints_OKSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SubmitConstraintsPath, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base)

	err = c.SubmitConstraints(context.Background(), primitives.BatchedSignedConstraints{})
	require.NoError(t, err)
}

func TestGetHeaderWithProofs_RejectsUnexpectedFork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"version":"capella","data":{}}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base, WithExpectedFork(consensusSpec.DataVersionDeneb))

	_, err = c.GetHeaderWithProofs(context.Background(), GetHeaderParams{Slot: 1})
	require.Error(t, err)

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, ErrInvalidFork, relayErr.Kind)
	assert.Equal(t, "capella", relayErr.Fork)
}

func TestRegisterValidators_PropagatesMatchingDelegations(t *testing.T) {
	var delegateCalled bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RegisterValidatorsPath:
			w.WriteHeader(http.StatusOK)
		case DelegatePath:
			delegateCalled = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base)

	var validatorPubkey phase0.BLSPubKey
	validatorPubkey[0] = 0xAB

	c.AddDelegations([]primitives.SignedDelegation{
		{Message: primitives.Delegation{ValidatorPubkey: validatorPubkey}},
	})

	reg := &apiv1.SignedValidatorRegistration{
		Message: &apiv1.ValidatorRegistration{Pubkey: validatorPubkey},
	}

	err = c.RegisterValidators(context.Background(), []*apiv1.SignedValidatorRegistration{reg})
	require.NoError(t, err)
	assert.True(t, delegateCalled)
}

func TestRegisterValidators_DelegationFailureDoesNotFailRegistration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RegisterValidatorsPath:
			w.WriteHeader(http.StatusOK)
		case DelegatePath:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Code: 500, Message: "boom"})
		}
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c := NewClient(base)

	var validatorPubkey phase0.BLSPubKey
	validatorPubkey[0] = 0xAB
	c.AddDelegations([]primitives.SignedDelegation{
		{Message: primitives.Delegation{ValidatorPubkey: validatorPubkey}},
	})

	reg := &apiv1.SignedValidatorRegistration{
		Message: &apiv1.ValidatorRegistration{Pubkey: validatorPubkey},
	}

	err = c.RegisterValidators(context.Background(), []*apiv1.SignedValidatorRegistration{reg})
	assert.NoError(t, err, "delegation propagation failures must not fail validator registration")
}

func TestFindDelegatees_DeduplicatesAndFiltersByValidator(t *testing.T) {
	base, err := url.Parse("http://h")
	require.NoError(t, err)
	c := NewClient(base)

	var v1, v2, d1 phase0.BLSPubKey
	v1[0], v2[0], d1[0] = 1, 2, 9

	c.AddDelegations([]primitives.SignedDelegation{
		{Message: primitives.Delegation{ValidatorPubkey: v1, DelegateePubkey: d1}},
		{Message: primitives.Delegation{ValidatorPubkey: v1, DelegateePubkey: d1}}, // duplicate
		{Message: primitives.Delegation{ValidatorPubkey: v2, DelegateePubkey: d1}},
	})

	found := c.FindDelegatees(v1)
	assert.Len(t, found, 1)
	_, ok := found[d1]
	assert.True(t, ok)
}
