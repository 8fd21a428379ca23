package hotpotato

import "math/big"

// fakeLedger is a minimal in-memory stand-in for the host ledger/runtime.
// Tests drive block number and blockhash directly and use deposit to model
// value the host would have already moved into the contract before the
// triggering call reached the engine.
type fakeLedger struct {
	block   uint64
	hashes  map[uint64][32]byte
	balance *big.Int
	failing map[[20]byte]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		hashes:  make(map[uint64][32]byte),
		balance: big.NewInt(0),
		failing: make(map[[20]byte]bool),
	}
}

func (f *fakeLedger) BlockNumber() uint64 { return f.block }

func (f *fakeLedger) BlockHash(n uint64) [32]byte { return f.hashes[n] }

func (f *fakeLedger) ContractBalance() *big.Int { return new(big.Int).Set(f.balance) }

func (f *fakeLedger) Transfer(to [20]byte, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return true
	}
	if f.failing[to] {
		return false
	}
	if amount.Cmp(f.balance) > 0 {
		return false
	}
	f.balance = new(big.Int).Sub(f.balance, amount)
	return true
}

func (f *fakeLedger) deposit(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	f.balance = new(big.Int).Add(f.balance, amount)
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}
