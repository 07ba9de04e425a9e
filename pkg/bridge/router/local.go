// Package router provides an in-process implementation of the message-routing
// service the bridge dispatches through. It is the devnet/test transport;
// production deployments put a remote router behind the same interface.
package router

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

var (
	// ErrNoRoute is returned when no receiver is registered for the
	// destination selector.
	ErrNoRoute = errors.New("no receiver registered for destination")

	// ErrUnderpaid is returned when the payment attached to Send does not
	// cover the delivery fee.
	ErrUnderpaid = errors.New("payment below delivery fee")
)

// MessageReceiver is the delivery target for a destination chain.
type MessageReceiver interface {
	OnMessageReceived(ctx context.Context, msg types.InboundMessage) error
}

// Config sets the local network's fee model.
type Config struct {
	// BaseFee is the flat per-message fee in native wei.
	BaseFee *big.Int

	// GasPrice prices the message's delivery gas limit, in wei per gas.
	GasPrice *big.Int
}

// LocalNetwork connects bridges living in one process. Each destination
// selector maps to at most one receiver.
type LocalNetwork struct {
	mu       sync.RWMutex
	baseFee  *big.Int
	gasPrice *big.Int
	routes   map[types.ChainSelector]MessageReceiver
}

// NewLocalNetwork creates an empty network with the given fee model.
func NewLocalNetwork(cfg *Config) (*LocalNetwork, error) {
	if cfg == nil {
		return nil, errors.New("[Router] config is nil")
	}
	if cfg.BaseFee == nil || cfg.BaseFee.Sign() < 0 {
		return nil, errors.New("[Router] base fee must be set and non-negative")
	}
	if cfg.GasPrice == nil || cfg.GasPrice.Sign() < 0 {
		return nil, errors.New("[Router] gas price must be set and non-negative")
	}
	return &LocalNetwork{
		baseFee:  new(big.Int).Set(cfg.BaseFee),
		gasPrice: new(big.Int).Set(cfg.GasPrice),
		routes:   make(map[types.ChainSelector]MessageReceiver),
	}, nil
}

// Register installs the receiver for a destination selector.
func (n *LocalNetwork) Register(selector types.ChainSelector, receiver MessageReceiver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[selector] = receiver
}

// Endpoint binds a source chain identity to the network, producing the router
// handle a single bridge dispatches through.
func (n *LocalNetwork) Endpoint(source types.ChainSelector, sender ethcommon.Address) *Endpoint {
	return &Endpoint{network: n, source: source, sender: sender}
}

// fee prices a message from its delivery gas limit.
func (n *LocalNetwork) fee(msg types.Message) (*big.Int, error) {
	args, err := types.DecodeDeliveryArgs(msg.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("[Router] failed to decode delivery args: %w", err)
	}
	gasCost := new(big.Int).Mul(n.gasPrice, new(big.Int).SetUint64(args.GasLimit))
	return gasCost.Add(gasCost, n.baseFee), nil
}

// Endpoint is a bridge's handle on the local network. It stamps outbound
// messages with the source selector and sender identity the destination
// authenticates against.
type Endpoint struct {
	network *LocalNetwork
	source  types.ChainSelector
	sender  ethcommon.Address

	mu    sync.Mutex
	nonce uint64
}

// QuoteFee returns the delivery cost of msg in native wei. Deterministic for
// a given message.
func (e *Endpoint) QuoteFee(ctx context.Context, selector types.ChainSelector, msg types.Message) (*big.Int, error) {
	return e.network.fee(msg)
}

// Send accepts a paid message for the destination selector, assigns it a
// message id and delivers it to the registered receiver. Delivery failure is
// the router's problem to retry; the send itself still succeeds.
func (e *Endpoint) Send(
	ctx context.Context,
	selector types.ChainSelector,
	msg types.Message,
	payment *big.Int,
) (ethcommon.Hash, error) {
	fee, err := e.network.fee(msg)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	if payment == nil || payment.Cmp(fee) < 0 {
		return ethcommon.Hash{}, fmt.Errorf("[Router] send to chain %d: %w", selector, ErrUnderpaid)
	}

	e.network.mu.RLock()
	receiver, ok := e.network.routes[selector]
	e.network.mu.RUnlock()
	if !ok {
		return ethcommon.Hash{}, fmt.Errorf("[Router] send to chain %d: %w", selector, ErrNoRoute)
	}

	e.mu.Lock()
	e.nonce++
	nonce := e.nonce
	e.mu.Unlock()

	messageID := messageID(e.source, selector, nonce, msg)
	inbound := types.InboundMessage{
		MessageID:           messageID,
		SourceChainSelector: e.source,
		Sender:              types.EncodeAddress(e.sender),
		Payload:             msg.Data,
	}

	if err := receiver.OnMessageReceived(ctx, inbound); err != nil {
		// The source side already committed; redelivery is this layer's
		// responsibility, not the bridge's.
		log.Warn().
			Str("message_id", messageID.Hex()).
			Uint64("dest", uint64(selector)).
			Err(err).
			Msg("delivery rejected by receiver")
	}
	return messageID, nil
}

// messageID derives a unique id from the route, nonce and message body.
func messageID(source, dest types.ChainSelector, nonce uint64, msg types.Message) ethcommon.Hash {
	var header [24]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(source))
	binary.BigEndian.PutUint64(header[8:16], uint64(dest))
	binary.BigEndian.PutUint64(header[16:24], nonce)
	return crypto.Keccak256Hash(header[:], msg.Receiver, msg.Data, msg.ExtraArgs)
}
