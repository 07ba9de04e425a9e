// Package registry holds the per-chain route configuration the bridge core
// reads on every transfer. Mutations are capability-gated; transfer processing
// only ever reads.
package registry

import (
	"errors"
	"fmt"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

var (
	// ErrUnauthorized is returned when the presented admin token does not
	// match the one issued at construction.
	ErrUnauthorized = errors.New("invalid admin token")

	// ErrZeroAddress is returned when a sender or receiver address is zero.
	ErrZeroAddress = errors.New("sender and receiver must be non-zero")

	// ErrZeroGasLimit is returned when delivery args carry a zero gas limit.
	ErrZeroGasLimit = errors.New("gas limit must be positive")

	// ErrUnknownChain is returned when delivery args are updated for a chain
	// with no configured sender.
	ErrUnknownChain = errors.New("chain has no configured endpoint")
)

// EventSink receives the registry's configuration events.
type EventSink interface {
	Append(event types.Event)
}

// Config carries the registry dependencies.
type Config struct {
	Admin  types.AdminToken
	Events EventSink
}

// Registry maps chain selectors to endpoints and keeps the historical log of
// every selector that was ever configured.
type Registry struct {
	mu     sync.RWMutex
	admin  types.AdminToken
	events EventSink

	endpoints map[types.ChainSelector]types.Endpoint

	// supported is append-only. A selector is appended the first time it
	// gains a non-zero sender and never again, even across remove/re-add.
	supported []types.ChainSelector
	seen      map[types.ChainSelector]bool
}

// New creates a registry gated by the given admin token.
func New(cfg *Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("[Registry] config is nil")
	}
	if !cfg.Admin.Valid() {
		return nil, errors.New("[Registry] admin token is not valid")
	}
	if cfg.Events == nil {
		return nil, errors.New("[Registry] event sink is nil")
	}
	return &Registry{
		admin:     cfg.Admin,
		events:    cfg.Events,
		endpoints: make(map[types.ChainSelector]types.Endpoint),
		seen:      make(map[types.ChainSelector]bool),
	}, nil
}

func (r *Registry) authorize(admin types.AdminToken) error {
	if admin != r.admin {
		return ErrUnauthorized
	}
	return nil
}

// SetEndpoint inserts or overwrites the endpoint for a selector. The first
// configuration of a selector appends it to the supported-chains log.
func (r *Registry) SetEndpoint(
	admin types.AdminToken,
	selector types.ChainSelector,
	sender, receiver ethcommon.Address,
	paused bool,
	gasLimit uint64,
	strict bool,
) error {
	if err := r.authorize(admin); err != nil {
		return fmt.Errorf("[Registry] set endpoint: %w", err)
	}
	if sender == (ethcommon.Address{}) || receiver == (ethcommon.Address{}) {
		return fmt.Errorf("[Registry] set endpoint for chain %d: %w", selector, ErrZeroAddress)
	}
	if gasLimit == 0 {
		return fmt.Errorf("[Registry] set endpoint for chain %d: %w", selector, ErrZeroGasLimit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seen[selector] {
		r.seen[selector] = true
		r.supported = append(r.supported, selector)
	}

	endpoint := types.Endpoint{
		Sender:         sender,
		Receiver:       receiver,
		TransferPaused: paused,
		DeliveryArgs:   types.DeliveryArgs{GasLimit: gasLimit, Strict: strict},
	}
	r.endpoints[selector] = endpoint
	r.events.Append(types.EndpointSet{ChainSelector: selector, Endpoint: endpoint})

	log.Info().
		Uint64("chain", uint64(selector)).
		Str("sender", sender.Hex()).
		Str("receiver", receiver.Hex()).
		Bool("paused", paused).
		Uint64("gas_limit", gasLimit).
		Msg("endpoint configured")
	return nil
}

// RemoveEndpoint clears the endpoint back to its zero value. The selector
// stays in the supported-chains log; the log is a permanent record, not a
// currently-active set.
func (r *Registry) RemoveEndpoint(admin types.AdminToken, selector types.ChainSelector) error {
	if err := r.authorize(admin); err != nil {
		return fmt.Errorf("[Registry] remove endpoint: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.endpoints, selector)
	r.events.Append(types.EndpointDeleted{ChainSelector: selector})

	log.Info().Uint64("chain", uint64(selector)).Msg("endpoint removed")
	return nil
}

// SetDeliveryArgs replaces only the delivery-args field of an existing
// endpoint.
func (r *Registry) SetDeliveryArgs(
	admin types.AdminToken,
	selector types.ChainSelector,
	gasLimit uint64,
	strict bool,
) error {
	if err := r.authorize(admin); err != nil {
		return fmt.Errorf("[Registry] set delivery args: %w", err)
	}
	if gasLimit == 0 {
		return fmt.Errorf("[Registry] set delivery args for chain %d: %w", selector, ErrZeroGasLimit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	endpoint, ok := r.endpoints[selector]
	if !ok || endpoint.Sender == (ethcommon.Address{}) {
		return fmt.Errorf("[Registry] set delivery args for chain %d: %w", selector, ErrUnknownChain)
	}
	endpoint.DeliveryArgs = types.DeliveryArgs{GasLimit: gasLimit, Strict: strict}
	r.endpoints[selector] = endpoint

	log.Info().
		Uint64("chain", uint64(selector)).
		Uint64("gas_limit", gasLimit).
		Bool("strict", strict).
		Msg("delivery args updated")
	return nil
}

// Endpoint returns the endpoint for a selector, or the zero value when the
// selector is unconfigured.
func (r *Registry) Endpoint(selector types.ChainSelector) types.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endpoints[selector]
}

// SupportedChains returns a copy of the historical configuration log, in
// first-configuration order.
func (r *Registry) SupportedChains() []types.ChainSelector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]types.ChainSelector, len(r.supported))
	copy(chains, r.supported)
	return chains
}
