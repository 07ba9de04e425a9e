package types_test

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

func TestTransferPayloadRoundTrip(t *testing.T) {
	amount := big.NewInt(123456789)
	recipient := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")

	data, err := types.EncodeTransferPayload(amount, recipient)
	require.NoError(t, err)
	require.Len(t, data, 64)

	gotAmount, gotRecipient, err := types.DecodeTransferPayload(data)
	require.NoError(t, err)
	require.Equal(t, 0, amount.Cmp(gotAmount))
	require.Equal(t, recipient, gotRecipient)
}

func TestEncodeTransferPayloadRejectsNonPositiveAmount(t *testing.T) {
	recipient := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")

	_, err := types.EncodeTransferPayload(nil, recipient)
	require.Error(t, err)

	_, err = types.EncodeTransferPayload(big.NewInt(0), recipient)
	require.Error(t, err)

	_, err = types.EncodeTransferPayload(big.NewInt(-5), recipient)
	require.Error(t, err)
}

func TestDecodeTransferPayloadRejectsTruncatedData(t *testing.T) {
	data, err := types.EncodeTransferPayload(big.NewInt(1), ethcommon.HexToAddress("0x01"))
	require.NoError(t, err)

	_, _, err = types.DecodeTransferPayload(data[:32])
	require.Error(t, err)
}

func TestAddressRoundTrip(t *testing.T) {
	addr := ethcommon.HexToAddress("0x00000000000000000000000000000000000000bb")

	data := types.EncodeAddress(addr)
	require.Len(t, data, 32)

	got, err := types.DecodeAddress(data)
	require.NoError(t, err)
	require.Equal(t, addr, got)
}

func TestDeliveryArgsRoundTrip(t *testing.T) {
	args := types.DeliveryArgs{GasLimit: 200000, Strict: true}

	data, err := types.EncodeDeliveryArgs(args)
	require.NoError(t, err)

	got, err := types.DecodeDeliveryArgs(data)
	require.NoError(t, err)
	require.Equal(t, args, got)
}

func TestDecodeDeliveryArgsRejectsMissingTag(t *testing.T) {
	data, err := types.EncodeDeliveryArgs(types.DeliveryArgs{GasLimit: 1, Strict: false})
	require.NoError(t, err)

	// Corrupt the version tag.
	data[0] ^= 0xff
	_, err = types.DecodeDeliveryArgs(data)
	require.Error(t, err)

	_, err = types.DecodeDeliveryArgs(nil)
	require.Error(t, err)
}

func TestNewTransferMessage(t *testing.T) {
	endpoint := types.Endpoint{
		Sender:       ethcommon.HexToAddress("0x01"),
		Receiver:     ethcommon.HexToAddress("0x02"),
		DeliveryArgs: types.DeliveryArgs{GasLimit: 100000, Strict: false},
	}
	recipient := ethcommon.HexToAddress("0x03")

	msg, err := types.NewTransferMessage(endpoint, recipient, big.NewInt(42))
	require.NoError(t, err)

	// Receiver is the ABI-encoded endpoint receiver.
	gotReceiver, err := types.DecodeAddress(msg.Receiver)
	require.NoError(t, err)
	require.Equal(t, endpoint.Receiver, gotReceiver)

	// Payload carries (amount, recipient).
	amount, gotRecipient, err := types.DecodeTransferPayload(msg.Data)
	require.NoError(t, err)
	require.Equal(t, int64(42), amount.Int64())
	require.Equal(t, recipient, gotRecipient)

	// Fees are native, no tokens ride along.
	require.Equal(t, ethcommon.Address{}, msg.FeeToken)
	require.Empty(t, msg.TokenAmounts)

	args, err := types.DecodeDeliveryArgs(msg.ExtraArgs)
	require.NoError(t, err)
	require.Equal(t, endpoint.DeliveryArgs, args)
}

func TestEndpointConfigured(t *testing.T) {
	require.False(t, types.Endpoint{}.Configured())
	require.True(t, types.Endpoint{Receiver: ethcommon.HexToAddress("0x01")}.Configured())
}

func TestAdminTokenIdentity(t *testing.T) {
	a := types.NewAdminToken()
	b := types.NewAdminToken()
	require.True(t, a.Valid())
	// Tokens compare by pointer identity, not by value.
	require.False(t, a == b)
	c := a
	require.True(t, a == c)
	require.False(t, types.AdminToken{}.Valid())
}
