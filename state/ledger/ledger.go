// Package ledger is a minimal standalone implementation of
// native/hotpotato.Ledger: account balances and a monotonically advancing
// block counter, both persisted through storage.Database the way the
// teacher's core/state.Manager keys balances in its trie. It exists because
// hotpotatod runs outside any larger chain; a production deployment would
// instead satisfy native/hotpotato.Ledger from its own block-execution
// context.
package ledger

import (
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/DenhamPreen/hot-potato/storage"
)

// BlockHashWindow bounds how many blocks back BlockHash will resolve,
// mirroring the host chain's conventional 256-block lookback.
const BlockHashWindow = 256

var (
	blockHeightKey = ethcrypto.Keccak256([]byte("hotpotato/ledger/height"))
	balancePrefix  = []byte("hotpotato/ledger/balance/")
)

func balanceKey(addr [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+20)
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func blockHashSeed(n uint64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> uint(56-8*i))
	}
	return ethcrypto.Keccak256(append([]byte("hotpotato/ledger/block/"), buf...))
}

// Ledger implements native/hotpotato.Ledger against a storage.Database.
type Ledger struct {
	db       storage.Database
	contract [20]byte

	mu     sync.Mutex
	height uint64
}

// New constructs a Ledger for the given contract account, restoring the
// persisted block height if one exists.
func New(db storage.Database, contract [20]byte) (*Ledger, error) {
	l := &Ledger{db: db, contract: contract}
	has, err := db.Has(blockHeightKey)
	if err != nil {
		return nil, fmt.Errorf("ledger: check height: %w", err)
	}
	if has {
		raw, err := db.Get(blockHeightKey)
		if err != nil {
			return nil, fmt.Errorf("ledger: load height: %w", err)
		}
		var height uint64
		if err := rlp.DecodeBytes(raw, &height); err != nil {
			return nil, fmt.Errorf("ledger: decode height: %w", err)
		}
		l.height = height
	}
	return l, nil
}

// BlockNumber implements native/hotpotato.Ledger.
func (l *Ledger) BlockNumber() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// Advance increments and persists the block counter, returning the new
// height. The keeper daemon calls this once per poll tick in place of real
// block production.
func (l *Ledger) Advance() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height++
	encoded, err := rlp.EncodeToBytes(l.height)
	if err != nil {
		return 0, fmt.Errorf("ledger: encode height: %w", err)
	}
	if err := l.db.Put(blockHeightKey, encoded); err != nil {
		return 0, fmt.Errorf("ledger: persist height: %w", err)
	}
	return l.height, nil
}

// BlockHash implements native/hotpotato.Ledger: deterministic per height,
// zero outside the BlockHashWindow lookback.
func (l *Ledger) BlockHash(n uint64) [32]byte {
	current := l.BlockNumber()
	if n > current || current-n > BlockHashWindow {
		return [32]byte{}
	}
	var out [32]byte
	copy(out[:], blockHashSeed(n))
	return out
}

// ContractBalance implements native/hotpotato.Ledger.
func (l *Ledger) ContractBalance() *big.Int {
	balance, err := l.BalanceOf(l.contract)
	if err != nil {
		return big.NewInt(0)
	}
	return balance
}

// Transfer implements native/hotpotato.Ledger: moves amount from the
// contract account to to. A failing transfer leaves both balances
// untouched.
func (l *Ledger) Transfer(to [20]byte, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	contractBalance, err := l.balanceLocked(l.contract)
	if to == l.contract {
		return err == nil && contractBalance.Cmp(amount) >= 0
	}
	if err != nil || contractBalance.Cmp(amount) < 0 {
		return false
	}
	toBalance, err := l.balanceLocked(to)
	if err != nil {
		return false
	}
	if err := l.setBalanceLocked(l.contract, new(big.Int).Sub(contractBalance, amount)); err != nil {
		return false
	}
	if err := l.setBalanceLocked(to, new(big.Int).Add(toBalance, amount)); err != nil {
		// Best-effort rollback of the debit; if this also fails the ledger is
		// left short, which ContractBalance will reflect honestly.
		_ = l.setBalanceLocked(l.contract, contractBalance)
		return false
	}
	return true
}

// Credit deposits amount into addr's balance directly, used by tests to fund
// the contract account or a player's wallet outside a Transfer.
func (l *Ledger) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, err := l.balanceLocked(addr)
	if err != nil {
		return err
	}
	return l.setBalanceLocked(addr, new(big.Int).Add(balance, amount))
}

// BalanceOf returns addr's current balance.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(addr)
}

func (l *Ledger) balanceLocked(addr [20]byte) (*big.Int, error) {
	key := balanceKey(addr)
	has, err := l.db.Has(key)
	if err != nil {
		return nil, fmt.Errorf("ledger: check balance: %w", err)
	}
	if !has {
		return big.NewInt(0), nil
	}
	raw, err := l.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("ledger: load balance: %w", err)
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, fmt.Errorf("ledger: decode balance: %w", err)
	}
	return balance, nil
}

func (l *Ledger) setBalanceLocked(addr [20]byte, amount *big.Int) error {
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("ledger: encode balance: %w", err)
	}
	return l.db.Put(balanceKey(addr), encoded)
}
