package ledger

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// journalEntry undoes a single state mutation.
type journalEntry interface {
	revert(s *State)
}

type nativeChange struct {
	account ethcommon.Address
	prev    *big.Int
}

func (c nativeChange) revert(s *State) {
	s.native[c.account] = c.prev
}

type balanceChange struct {
	key  tokenKey
	prev *big.Int
}

func (c balanceChange) revert(s *State) {
	s.balances[c.key] = c.prev
}

type supplyChange struct {
	token ethcommon.Address
	prev  *big.Int
}

func (c supplyChange) revert(s *State) {
	s.supply[c.token] = c.prev
}
