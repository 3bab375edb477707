package relay

// Builder-API and constraints-API paths the relay client proxies to and
// extends, per spec.md §6.
const (
	StatusPath             = "/eth/v1/builder/status"
	RegisterValidatorsPath = "/eth/v1/builder/validators"
	GetHeaderPathFormat    = "/eth/v1/builder/header/%d/%s/%s"
	GetHeaderWithProofsPathFormat = "/eth/v1/builder/header_with_proofs/%d/%s/%s"
	GetPayloadPath          = "/eth/v1/builder/blinded_blocks"
	SubmitConstraintsPath    = "/constraints/v1/builder/constraints"
	DelegatePath             = "/constraints/v1/builder/delegate"
	RevokePath               = "/constraints/v1/builder/revoke"
)
