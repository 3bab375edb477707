// Package relay implements the constraints/builder relay client (C2): a
// protocol adapter that proxies the builder API while layering constraint
// submission, delegation tracking, and proof-carrying header retrieval on
// top.
package relay

import (
	"net/http"
	"net/url"
	"sync"

	consensusSpec "github.com/attestantio/go-eth2-client/spec"
	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/sirupsen/logrus"

	"github.com/boltprotocol/bolt-core/primitives"
)

// Client wraps a single relay base URL and a shared HTTP client, plus an
// append-only list of signed delegations.
type Client struct {
	url    *url.URL
	client *http.Client
	log    logrus.FieldLogger

	expectedFork consensusSpec.DataVersion

	delegationsMu sync.RWMutex
	delegations   []primitives.SignedDelegation
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the shared *http.Client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger overrides the client's logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithExpectedFork sets the fork version GetHeaderWithProofs requires the
// relay's response to match. Defaults to Deneb: the protocol is pinned to
// a specific consensus fork per spec.md §9, and migrating across forks is
// a deployment-time concern handled by constructing a new Client.
func WithExpectedFork(version consensusSpec.DataVersion) Option {
	return func(c *Client) { c.expectedFork = version }
}

// NewClient creates a relay client for the given base URL.
func NewClient(baseURL *url.URL, opts ...Option) *Client {
	c := &Client{
		url:          baseURL,
		client:       &http.Client{},
		log:          logrus.StandardLogger(),
		expectedFork: consensusSpec.DataVersionDeneb,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddDelegations appends delegations to the client's tracked set. The
// slice is treated as append-only under a lock: delegations already
// tracked are never mutated or removed by this method.
func (c *Client) AddDelegations(delegations []primitives.SignedDelegation) {
	c.delegationsMu.Lock()
	defer c.delegationsMu.Unlock()
	c.delegations = append(c.delegations, delegations...)
}

// FindDelegatees returns the de-duplicated set of delegatee public keys
// delegated to by validatorPubkey.
func (c *Client) FindDelegatees(validatorPubkey phase0.BLSPubKey) map[phase0.BLSPubKey]struct{} {
	c.delegationsMu.RLock()
	defer c.delegationsMu.RUnlock()

	found := make(map[phase0.BLSPubKey]struct{})
	for _, d := range c.delegations {
		if d.Message.ValidatorPubkey == validatorPubkey {
			found[d.Message.DelegateePubkey] = struct{}{}
		}
	}
	return found
}

// delegationsSnapshot returns a shallow copy of the currently tracked
// delegations, safe to range over without holding the lock.
func (c *Client) delegationsSnapshot() []primitives.SignedDelegation {
	c.delegationsMu.RLock()
	defer c.delegationsMu.RUnlock()
	out := make([]primitives.SignedDelegation, len(c.delegations))
	copy(out, c.delegations)
	return out
}

// endpoint resolves path against the client's base URL. If joining fails
// (a malformed path), it logs and falls back to the base URL so the
// subsequent HTTP call fails cleanly rather than panicking.
func (c *Client) endpoint(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Error("failed to parse relay endpoint path")
		return c.url
	}
	return c.url.ResolveReference(ref)
}
