package bridge

import "errors"

var (
	// ErrRouteNotConfigured rejects transfers to a chain with no endpoint.
	ErrRouteNotConfigured = errors.New("route not configured")

	// ErrRoutePaused rejects transfers to a chain whose endpoint is paused.
	ErrRoutePaused = errors.New("route paused")

	// ErrInsufficientFee rejects transfers whose payment does not cover the
	// quoted delivery fee. The wrapping error carries required vs paid.
	ErrInsufficientFee = errors.New("insufficient fee")

	// ErrRefundFailed aborts a transfer whose excess payment could not be
	// returned to the caller.
	ErrRefundFailed = errors.New("refund failed")

	// ErrTokenDebit aborts a transfer the token ledger refused to debit.
	ErrTokenDebit = errors.New("token debit failed")

	// ErrBurn aborts a transfer whose burn was refused.
	ErrBurn = errors.New("burn failed")

	// ErrUntrustedSource drops an inbound delivery whose claimed sender does
	// not match the registered sender for its source chain.
	ErrUntrustedSource = errors.New("untrusted source")

	// ErrInvalidPayload drops an inbound delivery whose payload does not
	// decode to (amount, recipient).
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNothingToWithdraw rejects a sweep of a zero balance.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")

	// ErrWithdrawFailed aborts a sweep whose transfer was refused.
	ErrWithdrawFailed = errors.New("withdraw failed")

	// ErrUnauthorized rejects an administrative call with a wrong token.
	ErrUnauthorized = errors.New("invalid admin token")
)
