package types

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ChainSelector identifies a remote network/ledger.
type ChainSelector uint64

// DeliveryArgs controls remote execution of a delivered message. It is
// forwarded verbatim to the message router.
type DeliveryArgs struct {
	GasLimit uint64
	Strict   bool
}

// Endpoint is the configured route between this bridge and one remote chain.
// The zero value means "not configured".
type Endpoint struct {
	// Sender is the address authorized to be the claimed origin of inbound
	// messages from this chain.
	Sender ethcommon.Address

	// Receiver is the contract on the remote chain that outbound messages
	// are addressed to.
	Receiver ethcommon.Address

	// TransferPaused rejects outbound transfers to this chain when true.
	TransferPaused bool

	DeliveryArgs DeliveryArgs
}

// Configured reports whether the endpoint has a route set up. Both addresses
// are non-zero for any endpoint accepted by the registry, so checking the
// receiver is sufficient.
func (e Endpoint) Configured() bool {
	return e.Receiver != (ethcommon.Address{})
}

// TokenAmount is a token/amount pair attached to a routed message. The bridge
// never attaches tokens to its messages; value moves via burn and mint.
type TokenAmount struct {
	Token  ethcommon.Address
	Amount *big.Int
}

// Message is the canonical body handed to the message router for delivery.
type Message struct {
	// Receiver is the ABI-encoded address of the destination contract.
	Receiver []byte

	// Data carries the ABI-encoded transfer payload (amount, recipient).
	Data []byte

	// TokenAmounts is always empty for a burn-and-mint bridge.
	TokenAmounts []TokenAmount

	// FeeToken is the token the delivery fee is paid in. The zero address
	// means native currency.
	FeeToken ethcommon.Address

	// ExtraArgs is the tagged, ABI-encoded DeliveryArgs.
	ExtraArgs []byte
}

// InboundMessage is a message delivered by the router.
type InboundMessage struct {
	MessageID           ethcommon.Hash
	SourceChainSelector ChainSelector

	// Sender is the ABI-encoded address the router claims the message
	// originated from. It is authenticated against the registry before any
	// token is minted.
	Sender []byte

	Payload []byte
}

// AdminToken is the capability a caller must present to mutate endpoint
// configuration or sweep funds. Tokens compare by identity; only the value
// handed out at construction time authorizes.
type AdminToken struct {
	id *adminID
}

// adminID must have non-zero size: allocations of zero-size types can share
// an address, which would collapse distinct tokens into one identity.
type adminID struct{ _ byte }

// NewAdminToken mints a fresh, unique capability value.
func NewAdminToken() AdminToken {
	return AdminToken{id: new(adminID)}
}

// Valid reports whether the token carries an identity at all.
func (t AdminToken) Valid() bool {
	return t.id != nil
}
