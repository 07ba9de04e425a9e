package types

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Event is an entry in the bridge's append-only event log.
type Event interface {
	// Name returns the stable event name used in logs and the API.
	Name() string
}

// TransferInitiated records a successful outbound transfer dispatch.
type TransferInitiated struct {
	MessageID         ethcommon.Hash
	DestChainSelector ChainSelector
	Receiver          ethcommon.Address
	Recipient         ethcommon.Address
	Amount            *big.Int
	Fee               *big.Int
}

func (TransferInitiated) Name() string { return "TransferInitiated" }

// TransferCompleted records a validated inbound delivery and mint.
type TransferCompleted struct {
	MessageID           ethcommon.Hash
	SourceChainSelector ChainSelector
	Sender              ethcommon.Address
	Recipient           ethcommon.Address
	Amount              *big.Int
}

func (TransferCompleted) Name() string { return "TransferCompleted" }

// EndpointSet records a full endpoint (re)configuration.
type EndpointSet struct {
	ChainSelector ChainSelector
	Endpoint      Endpoint
}

func (EndpointSet) Name() string { return "EndpointSet" }

// EndpointDeleted records the removal of an endpoint.
type EndpointDeleted struct {
	ChainSelector ChainSelector
}

func (EndpointDeleted) Name() string { return "EndpointDeleted" }
