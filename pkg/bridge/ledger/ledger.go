// Package ledger implements the host ledger the bridge core runs against: an
// in-memory book of native and token balances with journaled snapshot/revert,
// so every public bridge operation can be applied all-or-nothing.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance is returned when a token debit exceeds the
	// holder's balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientNative is returned when a native transfer exceeds the
	// payer's balance.
	ErrInsufficientNative = errors.New("insufficient native balance")

	// ErrInvalidAmount is returned for nil or non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMinterGranted is returned when a second mint authority is requested
	// for the same token.
	ErrMinterGranted = errors.New("mint authority already granted")
)

type tokenKey struct {
	token  ethcommon.Address
	holder ethcommon.Address
}

// State is the mutable balance book. All mutations are recorded in a journal
// so a caller can revert everything back to a snapshot taken earlier in the
// same unit of work.
type State struct {
	mu sync.Mutex

	native   map[ethcommon.Address]*big.Int
	balances map[tokenKey]*big.Int
	supply   map[ethcommon.Address]*big.Int

	minted map[ethcommon.Address]bool

	journal []journalEntry
}

// NewState creates an empty balance book.
func NewState() *State {
	return &State{
		native:   make(map[ethcommon.Address]*big.Int),
		balances: make(map[tokenKey]*big.Int),
		supply:   make(map[ethcommon.Address]*big.Int),
		minted:   make(map[ethcommon.Address]bool),
	}
}

// Snapshot marks the current journal position. Reverting to it undoes every
// mutation applied after this call.
func (s *State) Snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journal)
}

// RevertToSnapshot rolls the state back to a snapshot returned by Snapshot.
func (s *State) RevertToSnapshot(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id > len(s.journal) {
		panic(fmt.Sprintf("[Ledger] invalid snapshot id %d (journal length %d)", id, len(s.journal)))
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:id]
}

// NativeBalance returns the native balance of an account.
func (s *State) NativeBalance(account ethcommon.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAmount(s.native[account])
}

// CreditNative credits native currency to an account out of thin air. It is
// how external deposits enter the book.
func (s *State) CreditNative(account ethcommon.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setNative(account, new(big.Int).Add(orZero(s.native[account]), amount))
	return nil
}

// TransferNative moves native currency between accounts.
func (s *State) TransferNative(from, to ethcommon.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := orZero(s.native[from])
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s holds %s, needs %s",
			ErrInsufficientNative, from.Hex(), balance.String(), amount.String())
	}
	s.setNative(from, new(big.Int).Sub(balance, amount))
	s.setNative(to, new(big.Int).Add(orZero(s.native[to]), amount))
	return nil
}

// BalanceOf returns the balance of holder in the given token.
func (s *State) BalanceOf(token, holder ethcommon.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAmount(s.balances[tokenKey{token, holder}])
}

// TotalSupply returns the circulating supply of the given token.
func (s *State) TotalSupply(token ethcommon.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAmount(s.supply[token])
}

// TransferToken moves tokens between holders. It fails loudly on insufficient
// balance; there is no silent no-op path.
func (s *State) TransferToken(token, from, to ethcommon.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fromKey := tokenKey{token, from}
	balance := orZero(s.balances[fromKey])
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token %s holder %s holds %s, needs %s",
			ErrInsufficientBalance, token.Hex(), from.Hex(), balance.String(), amount.String())
	}
	toKey := tokenKey{token, to}
	s.setBalance(fromKey, new(big.Int).Sub(balance, amount))
	s.setBalance(toKey, new(big.Int).Add(orZero(s.balances[toKey]), amount))
	return nil
}

// GrantMinter hands out the mint/burn capability for a token. The capability
// is exclusive: a second grant for the same token fails, so no other actor can
// reach the money-creation path.
func (s *State) GrantMinter(token ethcommon.Address) (*Minter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.minted[token] {
		return nil, fmt.Errorf("%w: token %s", ErrMinterGranted, token.Hex())
	}
	s.minted[token] = true
	return &Minter{state: s, token: token}, nil
}

// Minter is the exclusive mint/burn capability for one token.
type Minter struct {
	state *State
	token ethcommon.Address
}

// Token returns the token this capability controls.
func (m *Minter) Token() ethcommon.Address {
	return m.token
}

// Mint creates amount new tokens in to's balance, growing total supply.
func (m *Minter) Mint(to ethcommon.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	s := m.state
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{m.token, to}
	s.setBalance(key, new(big.Int).Add(orZero(s.balances[key]), amount))
	s.setSupply(m.token, new(big.Int).Add(orZero(s.supply[m.token]), amount))
	return nil
}

// Burn destroys amount tokens from from's balance, shrinking total supply.
func (m *Minter) Burn(from ethcommon.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	s := m.state
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{m.token, from}
	balance := orZero(s.balances[key])
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token %s holder %s holds %s, burning %s",
			ErrInsufficientBalance, m.token.Hex(), from.Hex(), balance.String(), amount.String())
	}
	s.setBalance(key, new(big.Int).Sub(balance, amount))
	s.setSupply(m.token, new(big.Int).Sub(orZero(s.supply[m.token]), amount))
	return nil
}

// setters record the previous value in the journal before mutating.

func (s *State) setNative(account ethcommon.Address, value *big.Int) {
	s.journal = append(s.journal, nativeChange{account: account, prev: copyAmount(s.native[account])})
	s.native[account] = value
}

func (s *State) setBalance(key tokenKey, value *big.Int) {
	s.journal = append(s.journal, balanceChange{key: key, prev: copyAmount(s.balances[key])})
	s.balances[key] = value
}

func (s *State) setSupply(token ethcommon.Address, value *big.Int) {
	s.journal = append(s.journal, supplyChange{token: token, prev: copyAmount(s.supply[token])})
	s.supply[token] = value
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func copyAmount(v *big.Int) *big.Int {
	return new(big.Int).Set(orZero(v))
}
