package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/toolback/tokenbridge/pkg/bridge"
	"github.com/toolback/tokenbridge/pkg/bridge/api"
	"github.com/toolback/tokenbridge/pkg/bridge/ledger"
	"github.com/toolback/tokenbridge/pkg/bridge/registry"
	"github.com/toolback/tokenbridge/pkg/bridge/router"
	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

const adminKey = "test-admin-key"

var (
	tokenAddr  = ethcommon.HexToAddress("0x00000000000000000000000000000000000000e1")
	bridgeAddr = ethcommon.HexToAddress("0x00000000000000000000000000000000000000b1")
	routerAddr = ethcommon.HexToAddress("0x00000000000000000000000000000000000000e3")
	callerAddr = ethcommon.HexToAddress("0x00000000000000000000000000000000000000a1")
	recipAddr  = ethcommon.HexToAddress("0x00000000000000000000000000000000000000a2")
	senderAddr = ethcommon.HexToAddress("0x00000000000000000000000000000000000000c1")
	recvrAddr  = ethcommon.HexToAddress("0x00000000000000000000000000000000000000d1")
)

type fixture struct {
	state  *ledger.State
	admin  types.AdminToken
	reg    *registry.Registry
	bridge *bridge.Bridge
	srv    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	state := ledger.NewState()
	minter, err := state.GrantMinter(tokenAddr)
	require.NoError(t, err)
	require.NoError(t, minter.Mint(callerAddr, big.NewInt(100000)))
	require.NoError(t, state.CreditNative(callerAddr, big.NewInt(10000000)))

	admin := types.NewAdminToken()
	events := bridge.NewEventLog()
	reg, err := registry.New(&registry.Config{Admin: admin, Events: events})
	require.NoError(t, err)

	network, err := router.NewLocalNetwork(&router.Config{
		BaseFee:  big.NewInt(1000),
		GasPrice: big.NewInt(0),
	})
	require.NoError(t, err)
	network.Register(42, nullReceiver{})

	b, err := bridge.New(&bridge.Config{
		Token:         tokenAddr,
		Account:       bridgeAddr,
		RouterAccount: routerAddr,
		Admin:         admin,
		Ledger:        state,
		Minter:        minter,
		Router:        network.Endpoint(1, bridgeAddr),
		Registry:      reg,
		Events:        events,
	})
	require.NoError(t, err)

	handler, err := api.NewHandler(&api.Config{
		Bridge:   b,
		Registry: reg,
		Admin:    admin,
		AdminKey: adminKey,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)

	return &fixture{state: state, admin: admin, reg: reg, bridge: b, srv: srv}
}

type nullReceiver struct{}

func (nullReceiver) OnMessageReceived(ctx context.Context, msg types.InboundMessage) error {
	return nil
}

func (f *fixture) configureChain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.reg.SetEndpoint(f.admin, 42, senderAddr, recvrAddr, false, 200000, true))
}

func postJSON(t *testing.T, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetQuote(t *testing.T) {
	f := newFixture(t)
	f.configureChain(t)

	resp, err := http.Get(f.srv.URL + "/api/v1/quote?chain_selector=42&recipient=" + recipAddr.Hex() + "&amount=500")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "1000", body["fee"])

	// A second identical request is served from the cache.
	resp, err = http.Get(f.srv.URL + "/api/v1/quote?chain_selector=42&recipient=" + recipAddr.Hex() + "&amount=500")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	require.Equal(t, "1000", body["fee"])
}

func TestGetQuoteUnknownChain(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/v1/quote?chain_selector=7&recipient=" + recipAddr.Hex() + "&amount=500")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateTransfer(t *testing.T) {
	f := newFixture(t)
	f.configureChain(t)

	resp := postJSON(t, f.srv.URL+"/api/v1/transfers", map[string]interface{}{
		"chain_selector": 42,
		"caller":         callerAddr.Hex(),
		"recipient":      recipAddr.Hex(),
		"amount":         "1000",
		"paid_value":     "1000",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	require.NotEmpty(t, body["message_id"])
	require.Equal(t, int64(99000), f.state.BalanceOf(tokenAddr, callerAddr).Int64())
}

func TestCreateTransferInsufficientFee(t *testing.T) {
	f := newFixture(t)
	f.configureChain(t)

	resp := postJSON(t, f.srv.URL+"/api/v1/transfers", map[string]interface{}{
		"chain_selector": 42,
		"caller":         callerAddr.Hex(),
		"recipient":      recipAddr.Hex(),
		"amount":         "1000",
		"paid_value":     "10",
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminSurfaceRequiresKey(t *testing.T) {
	f := newFixture(t)

	endpointBody := map[string]interface{}{
		"chain_selector": 42,
		"sender":         senderAddr.Hex(),
		"receiver":       recvrAddr.Hex(),
		"gas_limit":      200000,
		"strict":         true,
	}

	resp := postJSON(t, f.srv.URL+"/api/v1/endpoints", endpointBody, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, f.srv.URL+"/api/v1/endpoints", endpointBody, map[string]string{"X-Admin-Key": "wrong"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, f.srv.URL+"/api/v1/endpoints", endpointBody, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.True(t, f.reg.Endpoint(42).Configured())
}

func TestSetEndpointValidationError(t *testing.T) {
	f := newFixture(t)

	resp := postJSON(t, f.srv.URL+"/api/v1/endpoints", map[string]interface{}{
		"chain_selector": 42,
		"sender":         senderAddr.Hex(),
		"receiver":       recvrAddr.Hex(),
		"gas_limit":      0,
	}, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetEndpointAndChains(t *testing.T) {
	f := newFixture(t)
	f.configureChain(t)

	resp, err := http.Get(f.srv.URL + "/api/v1/endpoints/42")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, senderAddr.Hex(), body["sender"])
	require.Equal(t, true, body["configured"])

	resp, err = http.Get(f.srv.URL + "/api/v1/chains")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chains := decodeBody(t, resp)
	require.Len(t, chains["chains"], 1)
}

func TestWithdrawNativeEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := postJSON(t, f.srv.URL+"/api/v1/withdrawals/native", map[string]interface{}{
		"beneficiary": recipAddr.Hex(),
	}, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, f.bridge.Deposit(callerAddr, big.NewInt(500)))

	resp = postJSON(t, f.srv.URL+"/api/v1/withdrawals/native", map[string]interface{}{
		"beneficiary": recipAddr.Hex(),
	}, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, int64(500), f.state.NativeBalance(recipAddr).Int64())
}
