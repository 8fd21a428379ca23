package hotpotato

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
	"github.com/DenhamPreen/hot-potato/storage"
)

func TestStoreRoundTripMemDB(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	testStoreRoundTrip(t, store)
}

func TestStoreRoundTripLevelDB(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(filepath.Join(dir, "hotpotato"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db)
	testStoreRoundTrip(t, store)
}

func testStoreRoundTrip(t *testing.T, store *Store) {
	t.Helper()

	_, ok, err := store.LoadLiveState()
	require.NoError(t, err)
	require.False(t, ok)

	player := [20]byte{1}
	state := nativehotpotato.RoundState{
		RoundID:      3,
		Participants: [][20]byte{player},
		Holder:       player,
		HasHolder:    true,
		CurrentPrice: big.NewInt(121),
		Pot:          big.NewInt(300),
		PaidTotal:    big.NewInt(300),
		Pending: &nativehotpotato.Ticket{
			Player:           player,
			AmountPaid:       big.NewInt(100),
			TakeBlockNumber:  42,
			CreatedInRoundID: 3,
		},
		Sponsor: &nativehotpotato.Sponsor{
			Address: [20]byte{2},
			Amount:  big.NewInt(9),
			Message: []byte("gl"),
		},
	}
	require.NoError(t, store.SaveLiveState(state))

	loaded, ok, err := store.LoadLiveState()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, state.RoundID, loaded.RoundID)
	require.Equal(t, state.Participants, loaded.Participants)
	require.Equal(t, 0, state.CurrentPrice.Cmp(loaded.CurrentPrice))
	require.NotNil(t, loaded.Pending)
	require.Equal(t, state.Pending.Player, loaded.Pending.Player)
	require.NotNil(t, loaded.Sponsor)
	require.Equal(t, state.Sponsor.Message, loaded.Sponsor.Message)

	_, ok, err = store.LoadRoundSnapshot(1)
	require.NoError(t, err)
	require.False(t, ok)

	snapshot := &nativehotpotato.RoundSnapshot{
		RoundID:      1,
		Participants: [][20]byte{player},
		PaidTotal:    big.NewInt(100),
		PotAfter:     big.NewInt(0),
		FinalSponsor: &nativehotpotato.Sponsor{Address: [20]byte{2}, Amount: big.NewInt(9), Message: []byte("gl")},
	}
	require.NoError(t, store.SaveRoundSnapshot(snapshot))

	loadedSnapshot, ok, err := store.LoadRoundSnapshot(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snapshot.RoundID, loadedSnapshot.RoundID)
	require.Equal(t, 0, snapshot.PaidTotal.Cmp(loadedSnapshot.PaidTotal))
	require.Equal(t, snapshot.FinalSponsor.Message, loadedSnapshot.FinalSponsor.Message)
}
