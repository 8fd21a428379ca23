package hotpotato

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
	"github.com/DenhamPreen/hot-potato/storage"
)

type stubLedger struct {
	block   uint64
	hashes  map[uint64][32]byte
	balance *big.Int
}

func (l *stubLedger) BlockNumber() uint64             { return l.block }
func (l *stubLedger) BlockHash(n uint64) [32]byte     { return l.hashes[n] }
func (l *stubLedger) ContractBalance() *big.Int       { return new(big.Int).Set(l.balance) }
func (l *stubLedger) Transfer(to [20]byte, amount *big.Int) bool {
	if amount.Cmp(l.balance) > 0 {
		return false
	}
	l.balance = new(big.Int).Sub(l.balance, amount)
	return true
}

// TestEnginePersistsLiveStateThroughStore exercises the Persister seam
// end-to-end: an Engine wired to a real Store should leave a recoverable
// live-state record behind after a state-mutating call.
func TestEnginePersistsLiveStateThroughStore(t *testing.T) {
	store := NewStore(storage.NewMemDB())

	ledger := &stubLedger{block: 10, hashes: make(map[uint64][32]byte), balance: big.NewInt(0)}
	config := nativehotpotato.Config{
		BaseEntryPrice:     big.NewInt(100),
		PriceMultiplierBps: 11000,
		KeeperReward:       big.NewInt(1),
		CreatorFee:         big.NewInt(5),
	}
	engine := nativehotpotato.NewEngine(config, ledger, nil, nil)
	engine.SetPersister(store)

	ledger.balance = big.NewInt(100)
	player := [20]byte{9}
	require.NoError(t, engine.Enter(player, big.NewInt(100)))

	loaded, ok, err := store.LoadLiveState()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), loaded.RoundID)
	require.NotNil(t, loaded.Pending)
	require.Equal(t, player, loaded.Pending.Player)
}

// TestRestoreLiveStateRebuildsEngineFromStore simulates a daemon restart: a
// fresh Engine restored from a persisted snapshot must remember that the
// participant already played the in-flight round and must reject a second
// Enter while the restored ticket is still pending.
func TestRestoreLiveStateRebuildsEngineFromStore(t *testing.T) {
	store := NewStore(storage.NewMemDB())

	ledger := &stubLedger{block: 10, hashes: make(map[uint64][32]byte), balance: big.NewInt(1000)}
	config := nativehotpotato.Config{
		BaseEntryPrice:     big.NewInt(100),
		PriceMultiplierBps: 11000,
		KeeperReward:       big.NewInt(1),
		CreatorFee:         big.NewInt(5),
	}
	original := nativehotpotato.NewEngine(config, ledger, nil, nil)
	original.SetPersister(store)

	player := [20]byte{9}
	require.NoError(t, original.Enter(player, big.NewInt(100)))

	loaded, ok, err := store.LoadLiveState()
	require.NoError(t, err)
	require.True(t, ok)

	restored := nativehotpotato.NewEngine(config, ledger, nil, nil)
	restored.RestoreLiveState(loaded)

	require.True(t, restored.HasPlayed(player))
	require.Equal(t, loaded.RoundID, restored.CurrentRound().RoundID)

	err = restored.Enter(player, big.NewInt(200))
	require.Error(t, err)
}
