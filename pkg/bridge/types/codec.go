package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	transferPayloadArgs = abi.Arguments{
		{Name: "amount", Type: mustNewType("uint256")},
		{Name: "recipient", Type: mustNewType("address")},
	}

	addressArgs = abi.Arguments{
		{Name: "addr", Type: mustNewType("address")},
	}

	deliveryArgsArgs = abi.Arguments{
		{Name: "gasLimit", Type: mustNewType("uint256")},
		{Name: "strict", Type: mustNewType("bool")},
	}

	// deliveryArgsTag prefixes the encoded DeliveryArgs so the router can
	// distinguish argument versions.
	deliveryArgsTag = crypto.Keccak256([]byte("BRIDGE DeliveryArgsV1"))[:4]
)

// EncodeTransferPayload packs (amount, recipient) into the canonical message
// payload.
func EncodeTransferPayload(amount *big.Int, recipient ethcommon.Address) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("[Codec] transfer amount must be positive")
	}
	data, err := transferPayloadArgs.Pack(amount, recipient)
	if err != nil {
		return nil, fmt.Errorf("[Codec] failed to pack transfer payload: %w", err)
	}
	return data, nil
}

// DecodeTransferPayload unpacks a canonical payload back into (amount, recipient).
func DecodeTransferPayload(data []byte) (*big.Int, ethcommon.Address, error) {
	values, err := transferPayloadArgs.Unpack(data)
	if err != nil {
		return nil, ethcommon.Address{}, fmt.Errorf("[Codec] failed to unpack transfer payload: %w", err)
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, ethcommon.Address{}, fmt.Errorf("[Codec] payload amount has unexpected type %T", values[0])
	}
	recipient, ok := values[1].(ethcommon.Address)
	if !ok {
		return nil, ethcommon.Address{}, fmt.Errorf("[Codec] payload recipient has unexpected type %T", values[1])
	}
	return amount, recipient, nil
}

// EncodeAddress ABI-encodes a single address, the wire form used for message
// senders and receivers.
func EncodeAddress(addr ethcommon.Address) []byte {
	// Packing a lone static address cannot fail.
	data, err := addressArgs.Pack(addr)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeAddress decodes an ABI-encoded address.
func DecodeAddress(data []byte) (ethcommon.Address, error) {
	values, err := addressArgs.Unpack(data)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("[Codec] failed to unpack address: %w", err)
	}
	addr, ok := values[0].(ethcommon.Address)
	if !ok {
		return ethcommon.Address{}, fmt.Errorf("[Codec] decoded address has unexpected type %T", values[0])
	}
	return addr, nil
}

// EncodeDeliveryArgs encodes DeliveryArgs with the version tag prefix.
func EncodeDeliveryArgs(args DeliveryArgs) ([]byte, error) {
	data, err := deliveryArgsArgs.Pack(new(big.Int).SetUint64(args.GasLimit), args.Strict)
	if err != nil {
		return nil, fmt.Errorf("[Codec] failed to pack delivery args: %w", err)
	}
	return append(append([]byte{}, deliveryArgsTag...), data...), nil
}

// DecodeDeliveryArgs decodes tagged DeliveryArgs.
func DecodeDeliveryArgs(data []byte) (DeliveryArgs, error) {
	if len(data) < len(deliveryArgsTag) || !bytes.Equal(data[:len(deliveryArgsTag)], deliveryArgsTag) {
		return DeliveryArgs{}, fmt.Errorf("[Codec] delivery args missing version tag")
	}
	values, err := deliveryArgsArgs.Unpack(data[len(deliveryArgsTag):])
	if err != nil {
		return DeliveryArgs{}, fmt.Errorf("[Codec] failed to unpack delivery args: %w", err)
	}
	gasLimit, ok := values[0].(*big.Int)
	if !ok {
		return DeliveryArgs{}, fmt.Errorf("[Codec] delivery args gas limit has unexpected type %T", values[0])
	}
	strict, ok := values[1].(bool)
	if !ok {
		return DeliveryArgs{}, fmt.Errorf("[Codec] delivery args strict flag has unexpected type %T", values[1])
	}
	return DeliveryArgs{GasLimit: gasLimit.Uint64(), Strict: strict}, nil
}

// NewTransferMessage builds the canonical outbound message for a transfer of
// amount to recipient routed through the given endpoint.
func NewTransferMessage(ep Endpoint, recipient ethcommon.Address, amount *big.Int) (Message, error) {
	payload, err := EncodeTransferPayload(amount, recipient)
	if err != nil {
		return Message{}, err
	}
	extraArgs, err := EncodeDeliveryArgs(ep.DeliveryArgs)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Receiver:  EncodeAddress(ep.Receiver),
		Data:      payload,
		FeeToken:  ethcommon.Address{}, // fees are paid in native currency
		ExtraArgs: extraArgs,
	}, nil
}
