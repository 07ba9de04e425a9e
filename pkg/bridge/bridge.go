// Package bridge implements the transfer-control core of a burn-and-mint
// token bridge: admission of outbound transfers, fee settlement, burn and
// dispatch through a message router, and provenance-checked minting of
// inbound deliveries.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/toolback/tokenbridge/internal/metric"
	"github.com/toolback/tokenbridge/pkg/bridge/registry"
	"github.com/toolback/tokenbridge/pkg/bridge/types"
)

// Router is the external message-routing service the bridge dispatches
// through. The router owns delivery, ordering and redelivery; the bridge only
// submits and pays.
type Router interface {
	QuoteFee(ctx context.Context, selector types.ChainSelector, msg types.Message) (*big.Int, error)
	Send(ctx context.Context, selector types.ChainSelector, msg types.Message, payment *big.Int) (ethcommon.Hash, error)
}

// Ledger is the host balance book the bridge mutates. Every method must
// report failure rather than silently no-op, and mutations made after a
// snapshot must be revertible.
type Ledger interface {
	Snapshot() int
	RevertToSnapshot(id int)

	NativeBalance(account ethcommon.Address) *big.Int
	TransferNative(from, to ethcommon.Address, amount *big.Int) error

	BalanceOf(token, holder ethcommon.Address) *big.Int
	TotalSupply(token ethcommon.Address) *big.Int
	TransferToken(token, from, to ethcommon.Address, amount *big.Int) error
}

// TokenMinter is the exclusive mint/burn capability over the bridge token.
type TokenMinter interface {
	Mint(to ethcommon.Address, amount *big.Int) error
	Burn(from ethcommon.Address, amount *big.Int) error
}

// Config carries the bridge dependencies.
type Config struct {
	// Token is the bridged token's address in the ledger.
	Token ethcommon.Address

	// Account is the bridge's own custody account: fee float, stray
	// transfers and in-flight payments live here.
	Account ethcommon.Address

	// RouterAccount receives the native delivery fee on dispatch.
	RouterAccount ethcommon.Address

	Admin    types.AdminToken
	Ledger   Ledger
	Minter   TokenMinter
	Router   Router
	Registry *registry.Registry
	Events   *EventLog
}

// Bridge is the transfer-control core. All public operations are serialized;
// no call observes interleaved state from another.
type Bridge struct {
	mu sync.Mutex

	token         ethcommon.Address
	account       ethcommon.Address
	routerAccount ethcommon.Address

	admin    types.AdminToken
	ledger   Ledger
	minter   TokenMinter
	router   Router
	registry *registry.Registry
	events   *EventLog
}

// New creates a bridge core.
func New(cfg *Config) (*Bridge, error) {
	if cfg == nil {
		return nil, errors.New("[Bridge] config is nil")
	}
	if cfg.Token == (ethcommon.Address{}) {
		return nil, errors.New("[Bridge] token address is zero")
	}
	if cfg.Account == (ethcommon.Address{}) {
		return nil, errors.New("[Bridge] bridge account is zero")
	}
	if cfg.RouterAccount == (ethcommon.Address{}) {
		return nil, errors.New("[Bridge] router account is zero")
	}
	if !cfg.Admin.Valid() {
		return nil, errors.New("[Bridge] admin token is not valid")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("[Bridge] ledger is nil")
	}
	if cfg.Minter == nil {
		return nil, errors.New("[Bridge] minter is nil")
	}
	if cfg.Router == nil {
		return nil, errors.New("[Bridge] router is nil")
	}
	if cfg.Registry == nil {
		return nil, errors.New("[Bridge] registry is nil")
	}
	if cfg.Events == nil {
		return nil, errors.New("[Bridge] event log is nil")
	}
	return &Bridge{
		token:         cfg.Token,
		account:       cfg.Account,
		routerAccount: cfg.RouterAccount,
		admin:         cfg.Admin,
		ledger:        cfg.Ledger,
		minter:        cfg.Minter,
		router:        cfg.Router,
		registry:      cfg.Registry,
		events:        cfg.Events,
	}, nil
}

// Account returns the bridge's custody account.
func (b *Bridge) Account() ethcommon.Address {
	return b.account
}

// Token returns the bridged token address.
func (b *Bridge) Token() ethcommon.Address {
	return b.token
}

// Events returns the bridge event log.
func (b *Bridge) Events() []types.Event {
	return b.events.Events()
}

// Quote returns the router's delivery cost for a hypothetical transfer of
// amount to recipient on the given chain, in native currency. Read-only.
func (b *Bridge) Quote(
	ctx context.Context,
	selector types.ChainSelector,
	recipient ethcommon.Address,
	amount *big.Int,
) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	endpoint := b.registry.Endpoint(selector)
	if !endpoint.Configured() {
		return nil, fmt.Errorf("[Bridge] quote for chain %d: %w", selector, ErrRouteNotConfigured)
	}
	msg, err := types.NewTransferMessage(endpoint, recipient, amount)
	if err != nil {
		return nil, err
	}
	fee, err := b.router.QuoteFee(ctx, selector, msg)
	if err != nil {
		return nil, fmt.Errorf("[Bridge] failed to quote fee for chain %d: %w", selector, err)
	}
	return fee, nil
}

// Transfer admits, settles and dispatches an outbound transfer of amount of
// the bridge token from caller to recipient on the destination chain.
// paidValue is the native payment attached by the caller; the excess over the
// quoted fee is refunded. On success the caller's tokens are burned and the
// router returns the message id. Any failure leaves every balance exactly as
// it was before the call.
func (b *Bridge) Transfer(
	ctx context.Context,
	caller ethcommon.Address,
	selector types.ChainSelector,
	recipient ethcommon.Address,
	amount *big.Int,
	paidValue *big.Int,
) (ethcommon.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Admission: the route must be configured and not paused. An endpoint
	// with no receiver is unconfigured and always rejects.
	endpoint := b.registry.Endpoint(selector)
	if !endpoint.Configured() {
		metric.RecordRejection("route_not_configured")
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] transfer to chain %d: %w", selector, ErrRouteNotConfigured)
	}
	if endpoint.TransferPaused {
		metric.RecordRejection("route_paused")
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] transfer to chain %d: %w", selector, ErrRoutePaused)
	}

	msg, err := types.NewTransferMessage(endpoint, recipient, amount)
	if err != nil {
		return ethcommon.Hash{}, err
	}

	requiredFee, err := b.router.QuoteFee(ctx, selector, msg)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] failed to quote fee for chain %d: %w", selector, err)
	}
	if paidValue == nil || paidValue.Cmp(requiredFee) < 0 {
		metric.RecordRejection("insufficient_fee")
		paid := new(big.Int)
		if paidValue != nil {
			paid.Set(paidValue)
		}
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] transfer to chain %d: %w: required %s, paid %s",
			selector, ErrInsufficientFee, requiredFee.String(), paid.String())
	}

	snapshot := b.ledger.Snapshot()
	messageID, err := b.settleAndDispatch(ctx, caller, selector, endpoint, recipient, amount, paidValue, requiredFee, msg)
	if err != nil {
		b.ledger.RevertToSnapshot(snapshot)
		return ethcommon.Hash{}, err
	}

	b.events.Append(types.TransferInitiated{
		MessageID:         messageID,
		DestChainSelector: selector,
		Receiver:          endpoint.Receiver,
		Recipient:         recipient,
		Amount:            new(big.Int).Set(amount),
		Fee:               requiredFee,
	})
	metric.RecordTransfer(strconv.FormatUint(uint64(selector), 10))

	log.Info().
		Str("message_id", messageID.Hex()).
		Uint64("chain", uint64(selector)).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Str("fee", requiredFee.String()).
		Msg("transfer dispatched")
	return messageID, nil
}

// settleAndDispatch runs the mutating tail of Transfer. The caller reverts
// the ledger snapshot when it returns an error.
func (b *Bridge) settleAndDispatch(
	ctx context.Context,
	caller ethcommon.Address,
	selector types.ChainSelector,
	endpoint types.Endpoint,
	recipient ethcommon.Address,
	amount, paidValue, requiredFee *big.Int,
	msg types.Message,
) (ethcommon.Hash, error) {
	// Collect the attached native payment into custody.
	if err := b.ledger.TransferNative(caller, b.account, paidValue); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] failed to collect payment: %w", err)
	}

	// Refund the excess over the quoted fee. A failed refund is fatal.
	if excess := new(big.Int).Sub(paidValue, requiredFee); excess.Sign() > 0 {
		if err := b.ledger.TransferNative(b.account, caller, excess); err != nil {
			return ethcommon.Hash{}, fmt.Errorf("[Bridge] %w: %s to %s: %v",
				ErrRefundFailed, excess.String(), caller.Hex(), err)
		}
	}

	// Debit the tokens into custody, then destroy them.
	if err := b.ledger.TransferToken(b.token, caller, b.account, amount); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] %w: %v", ErrTokenDebit, err)
	}
	if err := b.minter.Burn(b.account, amount); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] %w: %v", ErrBurn, err)
	}

	// Pay the router and submit the message.
	if err := b.ledger.TransferNative(b.account, b.routerAccount, requiredFee); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] failed to pay delivery fee: %w", err)
	}
	messageID, err := b.router.Send(ctx, selector, msg, requiredFee)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("[Bridge] failed to submit message for chain %d: %w", selector, err)
	}
	return messageID, nil
}

// OnMessageReceived validates provenance of a delivered message and mints the
// bridged amount to its recipient. It is invoked by the trusted router only;
// redelivery and ordering are the router's responsibility, and this layer
// performs no deduplication.
func (b *Bridge) OnMessageReceived(ctx context.Context, msg types.InboundMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sender, err := types.DecodeAddress(msg.Sender)
	if err != nil {
		metric.RecordRejection("untrusted_source")
		return fmt.Errorf("[Bridge] delivery %s: %w: %v", msg.MessageID.Hex(), ErrUntrustedSource, err)
	}
	endpoint := b.registry.Endpoint(msg.SourceChainSelector)
	if endpoint.Sender == (ethcommon.Address{}) || sender != endpoint.Sender {
		metric.RecordRejection("untrusted_source")
		log.Warn().
			Str("message_id", msg.MessageID.Hex()).
			Uint64("chain", uint64(msg.SourceChainSelector)).
			Str("claimed_sender", sender.Hex()).
			Msg("delivery rejected: claimed sender not registered for source chain")
		return fmt.Errorf("[Bridge] delivery %s from chain %d: %w: claimed sender %s",
			msg.MessageID.Hex(), msg.SourceChainSelector, ErrUntrustedSource, sender.Hex())
	}

	amount, recipient, err := types.DecodeTransferPayload(msg.Payload)
	if err != nil {
		metric.RecordRejection("invalid_payload")
		return fmt.Errorf("[Bridge] delivery %s: %w: %v", msg.MessageID.Hex(), ErrInvalidPayload, err)
	}

	snapshot := b.ledger.Snapshot()
	if err := b.minter.Mint(recipient, amount); err != nil {
		b.ledger.RevertToSnapshot(snapshot)
		return fmt.Errorf("[Bridge] delivery %s: mint failed: %w", msg.MessageID.Hex(), err)
	}

	b.events.Append(types.TransferCompleted{
		MessageID:           msg.MessageID,
		SourceChainSelector: msg.SourceChainSelector,
		Sender:              sender,
		Recipient:           recipient,
		Amount:              amount,
	})
	metric.RecordDelivery(strconv.FormatUint(uint64(msg.SourceChainSelector), 10))

	log.Info().
		Str("message_id", msg.MessageID.Hex()).
		Uint64("chain", uint64(msg.SourceChainSelector)).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("delivery minted")
	return nil
}

// Deposit credits native currency to the bridge's custody with no
// accompanying instruction. It lets the bridge hold fee float.
func (b *Bridge) Deposit(from ethcommon.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ledger.TransferNative(from, b.account, amount); err != nil {
		return fmt.Errorf("[Bridge] deposit failed: %w", err)
	}
	return nil
}

func (b *Bridge) authorize(admin types.AdminToken) error {
	if admin != b.admin {
		return ErrUnauthorized
	}
	return nil
}

// UpdateRouter replaces the message router the bridge dispatches through.
// In-flight messages already submitted to the old router are unaffected.
func (b *Bridge) UpdateRouter(admin types.AdminToken, router Router) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.authorize(admin); err != nil {
		return fmt.Errorf("[Bridge] update router: %w", err)
	}
	if router == nil {
		return errors.New("[Bridge] update router: router is nil")
	}
	b.router = router
	log.Info().Msg("router reference updated")
	return nil
}

// WithdrawNative sweeps the bridge's entire native balance to beneficiary.
func (b *Bridge) WithdrawNative(admin types.AdminToken, beneficiary ethcommon.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.authorize(admin); err != nil {
		return fmt.Errorf("[Bridge] withdraw native: %w", err)
	}
	balance := b.ledger.NativeBalance(b.account)
	if balance.Sign() == 0 {
		return fmt.Errorf("[Bridge] withdraw native: %w", ErrNothingToWithdraw)
	}
	if err := b.ledger.TransferNative(b.account, beneficiary, balance); err != nil {
		return fmt.Errorf("[Bridge] %w: %v", ErrWithdrawFailed, err)
	}
	log.Info().Str("beneficiary", beneficiary.Hex()).Str("amount", balance.String()).Msg("native balance swept")
	return nil
}

// WithdrawToken sweeps the bridge's entire balance of the named token to
// beneficiary. The ledger transfer fails loudly rather than returning a false
// success.
func (b *Bridge) WithdrawToken(admin types.AdminToken, beneficiary, token ethcommon.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.authorize(admin); err != nil {
		return fmt.Errorf("[Bridge] withdraw token: %w", err)
	}
	balance := b.ledger.BalanceOf(token, b.account)
	if balance.Sign() == 0 {
		return fmt.Errorf("[Bridge] withdraw token %s: %w", token.Hex(), ErrNothingToWithdraw)
	}
	if err := b.ledger.TransferToken(token, b.account, beneficiary, balance); err != nil {
		return fmt.Errorf("[Bridge] %w: %v", ErrWithdrawFailed, err)
	}
	log.Info().
		Str("token", token.Hex()).
		Str("beneficiary", beneficiary.Hex()).
		Str("amount", balance.String()).
		Msg("token balance swept")
	return nil
}
