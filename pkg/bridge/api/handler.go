package api

import (
	"context"
	"errors"
	"math/big"

	"github.com/coocood/freecache"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

// quoteCacheTTL bounds staleness of cached fee quotes.
const quoteCacheTTL = 5 // seconds

// BridgeService is the bridge core surface the API exposes.
type BridgeService interface {
	Quote(ctx context.Context, selector types.ChainSelector, recipient ethcommon.Address, amount *big.Int) (*big.Int, error)
	Transfer(ctx context.Context, caller ethcommon.Address, selector types.ChainSelector, recipient ethcommon.Address, amount, paidValue *big.Int) (ethcommon.Hash, error)
	WithdrawNative(admin types.AdminToken, beneficiary ethcommon.Address) error
	WithdrawToken(admin types.AdminToken, beneficiary, token ethcommon.Address) error
	Events() []types.Event
}

// EndpointRegistry is the configuration surface the API exposes.
type EndpointRegistry interface {
	SetEndpoint(admin types.AdminToken, selector types.ChainSelector, sender, receiver ethcommon.Address, paused bool, gasLimit uint64, strict bool) error
	RemoveEndpoint(admin types.AdminToken, selector types.ChainSelector) error
	SetDeliveryArgs(admin types.AdminToken, selector types.ChainSelector, gasLimit uint64, strict bool) error
	Endpoint(selector types.ChainSelector) types.Endpoint
	SupportedChains() []types.ChainSelector
}

// Config carries the handler dependencies.
type Config struct {
	Bridge   BridgeService
	Registry EndpointRegistry

	// Admin is the capability presented to gated operations once the
	// request's admin key has been verified.
	Admin types.AdminToken

	// AdminKey is the shared secret expected in the X-Admin-Key header.
	AdminKey string
}

// Handler handles HTTP requests
type Handler struct {
	bridge   BridgeService
	registry EndpointRegistry
	admin    types.AdminToken
	adminKey string

	quoteCache *freecache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("[API] config is nil")
	}
	if cfg.Bridge == nil {
		return nil, errors.New("[API] bridge service is nil")
	}
	if cfg.Registry == nil {
		return nil, errors.New("[API] registry is nil")
	}
	if !cfg.Admin.Valid() {
		return nil, errors.New("[API] admin token is not valid")
	}
	return &Handler{
		bridge:     cfg.Bridge,
		registry:   cfg.Registry,
		admin:      cfg.Admin,
		adminKey:   cfg.AdminKey,
		quoteCache: freecache.NewCache(1 << 20),
	}, nil
}
