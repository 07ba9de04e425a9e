package registry_test

import (
	"sync"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/toolback/tokenbridge/pkg/bridge/registry"
	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

type recordingSink struct {
	mu     sync.Mutex
	events []types.Event
}

func (s *recordingSink) Append(event types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) all() []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Event{}, s.events...)
}

var (
	sender   = ethcommon.HexToAddress("0x00000000000000000000000000000000000000c1")
	receiver = ethcommon.HexToAddress("0x00000000000000000000000000000000000000d1")
)

func newRegistry(t *testing.T) (*registry.Registry, types.AdminToken, *recordingSink) {
	t.Helper()
	admin := types.NewAdminToken()
	sink := &recordingSink{}
	reg, err := registry.New(&registry.Config{Admin: admin, Events: sink})
	require.NoError(t, err)
	return reg, admin, sink
}

func TestSetEndpointValidation(t *testing.T) {
	reg, admin, _ := newRegistry(t)

	err := reg.SetEndpoint(admin, 1, ethcommon.Address{}, receiver, false, 100000, false)
	require.ErrorIs(t, err, registry.ErrZeroAddress)

	err = reg.SetEndpoint(admin, 1, sender, ethcommon.Address{}, false, 100000, false)
	require.ErrorIs(t, err, registry.ErrZeroAddress)

	err = reg.SetEndpoint(admin, 1, sender, receiver, false, 0, false)
	require.ErrorIs(t, err, registry.ErrZeroGasLimit)

	// Nothing was configured and nothing was logged.
	require.False(t, reg.Endpoint(1).Configured())
	require.Empty(t, reg.SupportedChains())
}

func TestSetEndpointRequiresAdminToken(t *testing.T) {
	reg, _, sink := newRegistry(t)

	err := reg.SetEndpoint(types.NewAdminToken(), 1, sender, receiver, false, 100000, false)
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	err = reg.SetEndpoint(types.AdminToken{}, 1, sender, receiver, false, 100000, false)
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	require.Empty(t, sink.all())
}

func TestSetEndpointStoresAndEmits(t *testing.T) {
	reg, admin, sink := newRegistry(t)

	require.NoError(t, reg.SetEndpoint(admin, 42, sender, receiver, true, 200000, true))

	endpoint := reg.Endpoint(42)
	require.True(t, endpoint.Configured())
	require.Equal(t, sender, endpoint.Sender)
	require.Equal(t, receiver, endpoint.Receiver)
	require.True(t, endpoint.TransferPaused)
	require.Equal(t, uint64(200000), endpoint.DeliveryArgs.GasLimit)
	require.True(t, endpoint.DeliveryArgs.Strict)

	events := sink.all()
	require.Len(t, events, 1)
	set, ok := events[0].(types.EndpointSet)
	require.True(t, ok)
	require.Equal(t, types.ChainSelector(42), set.ChainSelector)
	require.Equal(t, endpoint, set.Endpoint)
}

func TestSupportedChainsAppendOnceInOrder(t *testing.T) {
	reg, admin, _ := newRegistry(t)

	require.NoError(t, reg.SetEndpoint(admin, 7, sender, receiver, false, 1, false))
	require.NoError(t, reg.SetEndpoint(admin, 3, sender, receiver, false, 1, false))
	require.NoError(t, reg.SetEndpoint(admin, 9, sender, receiver, false, 1, false))

	// Reconfiguring does not re-append.
	require.NoError(t, reg.SetEndpoint(admin, 3, sender, receiver, true, 2, true))

	require.Equal(t, []types.ChainSelector{7, 3, 9}, reg.SupportedChains())
}

func TestRemoveEndpointKeepsAuditLog(t *testing.T) {
	reg, admin, sink := newRegistry(t)

	require.NoError(t, reg.SetEndpoint(admin, 5, sender, receiver, false, 1, false))
	require.NoError(t, reg.RemoveEndpoint(admin, 5))

	require.False(t, reg.Endpoint(5).Configured())
	require.Equal(t, types.Endpoint{}, reg.Endpoint(5))
	require.Equal(t, []types.ChainSelector{5}, reg.SupportedChains())

	// Re-adding after removal does not duplicate the log entry.
	require.NoError(t, reg.SetEndpoint(admin, 5, sender, receiver, false, 1, false))
	require.Equal(t, []types.ChainSelector{5}, reg.SupportedChains())

	events := sink.all()
	require.Len(t, events, 3)
	_, ok := events[1].(types.EndpointDeleted)
	require.True(t, ok)
}

func TestRemoveEndpointRequiresAdminToken(t *testing.T) {
	reg, admin, _ := newRegistry(t)
	require.NoError(t, reg.SetEndpoint(admin, 5, sender, receiver, false, 1, false))

	err := reg.RemoveEndpoint(types.NewAdminToken(), 5)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	require.True(t, reg.Endpoint(5).Configured())
}

func TestSetDeliveryArgs(t *testing.T) {
	reg, admin, _ := newRegistry(t)

	err := reg.SetDeliveryArgs(admin, 8, 100, false)
	require.ErrorIs(t, err, registry.ErrUnknownChain)

	require.NoError(t, reg.SetEndpoint(admin, 8, sender, receiver, true, 100, false))

	err = reg.SetDeliveryArgs(admin, 8, 0, false)
	require.ErrorIs(t, err, registry.ErrZeroGasLimit)

	require.NoError(t, reg.SetDeliveryArgs(admin, 8, 300000, true))

	endpoint := reg.Endpoint(8)
	require.Equal(t, uint64(300000), endpoint.DeliveryArgs.GasLimit)
	require.True(t, endpoint.DeliveryArgs.Strict)

	// Only the delivery args changed.
	require.Equal(t, sender, endpoint.Sender)
	require.Equal(t, receiver, endpoint.Receiver)
	require.True(t, endpoint.TransferPaused)
}

func TestEndpointZeroValueForUnknownChain(t *testing.T) {
	reg, _, _ := newRegistry(t)
	require.Equal(t, types.Endpoint{}, reg.Endpoint(12345))
}
