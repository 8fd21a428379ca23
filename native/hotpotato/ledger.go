package hotpotato

import "math/big"

// Ledger is the narrow interface the engine uses to reach the host
// ledger/runtime: call context primitives and the single value-transfer
// primitive. Everything about consensus, key management, and actual balance
// storage lives on the other side of this seam and is out of scope for the
// engine itself.
type Ledger interface {
	// BlockNumber returns the host's current block height.
	BlockNumber() uint64
	// BlockHash returns the hash of block n, or the zero value if n falls
	// outside the host's sliding lookback window (conventionally 256 blocks).
	BlockHash(n uint64) [32]byte
	// ContractBalance returns the engine's actual held balance, which may
	// exceed the engine's accounting pot when value was sent outside an explicit operation
	// or when prior payout attempts partially failed.
	ContractBalance() *big.Int
	// Transfer attempts to pay amount to the given address, returning
	// whether the transfer succeeded. A failing transfer must not mutate
	// ContractBalance.
	Transfer(to [20]byte, amount *big.Int) bool
}
