package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/toolback/tokenbridge/pkg/bridge"
	"github.com/toolback/tokenbridge/pkg/bridge/registry"
	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bridge.ErrRouteNotConfigured),
		errors.Is(err, registry.ErrUnknownChain):
		status = http.StatusNotFound
	case errors.Is(err, bridge.ErrRoutePaused),
		errors.Is(err, bridge.ErrInsufficientFee),
		errors.Is(err, bridge.ErrNothingToWithdraw):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrZeroAddress),
		errors.Is(err, registry.ErrZeroGasLimit):
		status = http.StatusBadRequest
	case errors.Is(err, bridge.ErrUnauthorized),
		errors.Is(err, registry.ErrUnauthorized):
		status = http.StatusForbidden
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseSelector(raw string) (types.ChainSelector, error) {
	selector, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain selector %q", raw)
	}
	return types.ChainSelector(selector), nil
}

func parseAddress(raw string) (ethcommon.Address, error) {
	if !ethcommon.IsHexAddress(raw) {
		return ethcommon.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return ethcommon.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// GET /api/v1/quote?chain_selector=&recipient=&amount=
func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	selectorRaw := r.URL.Query().Get("chain_selector")
	recipientRaw := r.URL.Query().Get("recipient")
	amountRaw := r.URL.Query().Get("amount")

	selector, err := parseSelector(selectorRaw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	recipient, err := parseAddress(recipientRaw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(amountRaw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cacheKey := []byte(selectorRaw + "|" + recipientRaw + "|" + amountRaw)
	if cached, err := h.quoteCache.Get(cacheKey); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	fee, err := h.bridge.Quote(r.Context(), selector, recipient, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := json.Marshal(map[string]string{"fee": fee.String()})
	if err != nil {
		writeError(w, err)
		return
	}
	h.quoteCache.Set(cacheKey, body, quoteCacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type transferRequest struct {
	ChainSelector uint64 `json:"chain_selector"`
	Caller        string `json:"caller"`
	Recipient     string `json:"recipient"`
	Amount        string `json:"amount"`
	PaidValue     string `json:"paid_value"`
}

// POST /api/v1/transfers
func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	paidValue, err := parseAmount(req.PaidValue)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	messageID, err := h.bridge.Transfer(r.Context(), caller, types.ChainSelector(req.ChainSelector), recipient, amount, paidValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message_id": messageID.Hex()})
}

type endpointResponse struct {
	ChainSelector uint64 `json:"chain_selector"`
	Sender        string `json:"sender"`
	Receiver      string `json:"receiver"`
	Paused        bool   `json:"paused"`
	GasLimit      uint64 `json:"gas_limit"`
	Strict        bool   `json:"strict"`
	Configured    bool   `json:"configured"`
}

// GET /api/v1/endpoints/{selector}
func (h *Handler) getEndpoint(w http.ResponseWriter, r *http.Request) {
	selector, err := parseSelector(chi.URLParam(r, "selector"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	endpoint := h.registry.Endpoint(selector)
	writeJSON(w, http.StatusOK, endpointResponse{
		ChainSelector: uint64(selector),
		Sender:        endpoint.Sender.Hex(),
		Receiver:      endpoint.Receiver.Hex(),
		Paused:        endpoint.TransferPaused,
		GasLimit:      endpoint.DeliveryArgs.GasLimit,
		Strict:        endpoint.DeliveryArgs.Strict,
		Configured:    endpoint.Configured(),
	})
}

type setEndpointRequest struct {
	ChainSelector uint64 `json:"chain_selector"`
	Sender        string `json:"sender"`
	Receiver      string `json:"receiver"`
	Paused        bool   `json:"paused"`
	GasLimit      uint64 `json:"gas_limit"`
	Strict        bool   `json:"strict"`
}

// POST /api/v1/endpoints (admin)
func (h *Handler) setEndpoint(w http.ResponseWriter, r *http.Request) {
	var req setEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	sender := ethcommon.HexToAddress(req.Sender)
	receiver := ethcommon.HexToAddress(req.Receiver)
	err := h.registry.SetEndpoint(h.admin, types.ChainSelector(req.ChainSelector), sender, receiver, req.Paused, req.GasLimit, req.Strict)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DELETE /api/v1/endpoints/{selector} (admin)
func (h *Handler) removeEndpoint(w http.ResponseWriter, r *http.Request) {
	selector, err := parseSelector(chi.URLParam(r, "selector"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.registry.RemoveEndpoint(h.admin, selector); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deliveryArgsRequest struct {
	GasLimit uint64 `json:"gas_limit"`
	Strict   bool   `json:"strict"`
}

// PUT /api/v1/endpoints/{selector}/delivery-args (admin)
func (h *Handler) setDeliveryArgs(w http.ResponseWriter, r *http.Request) {
	selector, err := parseSelector(chi.URLParam(r, "selector"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req deliveryArgsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.registry.SetDeliveryArgs(h.admin, selector, req.GasLimit, req.Strict); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/chains
func (h *Handler) getChains(w http.ResponseWriter, r *http.Request) {
	chains := h.registry.SupportedChains()
	out := make([]uint64, len(chains))
	for i, c := range chains {
		out[i] = uint64(c)
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"chains": out})
}

type eventResponse struct {
	Name  string      `json:"name"`
	Event types.Event `json:"event"`
}

// GET /api/v1/events
func (h *Handler) getEvents(w http.ResponseWriter, r *http.Request) {
	events := h.bridge.Events()
	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = eventResponse{Name: e.Name(), Event: e}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}

type withdrawRequest struct {
	Beneficiary string `json:"beneficiary"`
	Token       string `json:"token,omitempty"`
}

// POST /api/v1/withdrawals/native (admin)
func (h *Handler) withdrawNative(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	beneficiary, err := parseAddress(req.Beneficiary)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.bridge.WithdrawNative(h.admin, beneficiary); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/v1/withdrawals/token (admin)
func (h *Handler) withdrawToken(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	beneficiary, err := parseAddress(req.Beneficiary)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.bridge.WithdrawToken(h.admin, beneficiary, token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
