// Package hotpotato persists the engine's durable state (round history and a
// live-state snapshot) through storage.Database, RLP-encoding records the
// same way the state layer this was grounded on encodes trie values.
package hotpotato

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
	"github.com/DenhamPreen/hot-potato/storage"
)

var (
	liveStateKey        = ethcrypto.Keccak256([]byte("hotpotato/live"))
	roundSnapshotPrefix = []byte("hotpotato/round/")
)

func roundSnapshotKey(roundID uint64) []byte {
	buf := make([]byte, len(roundSnapshotPrefix)+8)
	copy(buf, roundSnapshotPrefix)
	for i := 0; i < 8; i++ {
		buf[len(roundSnapshotPrefix)+i] = byte(roundID >> uint(56-8*i))
	}
	return ethcrypto.Keccak256(buf)
}

type storedLiveState struct {
	RoundID      uint64
	Participants [][20]byte
	Holder       [20]byte
	HasHolder    bool
	CurrentPrice *big.Int
	Pot          *big.Int
	PaidTotal    *big.Int
	HasPending   bool
	Pending      storedTicket
	HasSponsor   bool
	Sponsor      storedSponsor

	SponsorReserved *big.Int `rlp:"optional"`
}

type storedTicket struct {
	Player           [20]byte
	AmountPaid       *big.Int
	TakeBlockNumber  uint64
	CreatedInRoundID uint64
}

type storedSponsor struct {
	Address [20]byte
	Amount  *big.Int
	Message []byte
}

func nonNilBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func toStoredLiveState(s nativehotpotato.RoundState) storedLiveState {
	out := storedLiveState{
		RoundID:      s.RoundID,
		Participants: s.Participants,
		Holder:       s.Holder,
		HasHolder:    s.HasHolder,
		CurrentPrice: nonNilBig(s.CurrentPrice),
		Pot:          nonNilBig(s.Pot),
		PaidTotal:    nonNilBig(s.PaidTotal),

		SponsorReserved: nonNilBig(s.SponsorReserved),
	}
	if s.Pending != nil {
		out.HasPending = true
		out.Pending = storedTicket{
			Player:           s.Pending.Player,
			AmountPaid:       nonNilBig(s.Pending.AmountPaid),
			TakeBlockNumber:  s.Pending.TakeBlockNumber,
			CreatedInRoundID: s.Pending.CreatedInRoundID,
		}
	}
	if s.Sponsor != nil {
		out.HasSponsor = true
		out.Sponsor = storedSponsor{
			Address: s.Sponsor.Address,
			Amount:  nonNilBig(s.Sponsor.Amount),
			Message: s.Sponsor.Message,
		}
	}
	return out
}

func (s storedLiveState) toLiveState() nativehotpotato.RoundState {
	out := nativehotpotato.RoundState{
		RoundID:      s.RoundID,
		Participants: s.Participants,
		Holder:       s.Holder,
		HasHolder:    s.HasHolder,
		CurrentPrice: s.CurrentPrice,
		Pot:          s.Pot,
		PaidTotal:    s.PaidTotal,

		SponsorReserved: s.SponsorReserved,
	}
	if s.HasPending {
		out.Pending = &nativehotpotato.Ticket{
			Player:           s.Pending.Player,
			AmountPaid:       s.Pending.AmountPaid,
			TakeBlockNumber:  s.Pending.TakeBlockNumber,
			CreatedInRoundID: s.Pending.CreatedInRoundID,
		}
	}
	if s.HasSponsor {
		out.Sponsor = &nativehotpotato.Sponsor{
			Address: s.Sponsor.Address,
			Amount:  s.Sponsor.Amount,
			Message: s.Sponsor.Message,
		}
	}
	return out
}

func toStoredSnapshot(s *nativehotpotato.RoundSnapshot) storedRoundSnapshot {
	out := storedRoundSnapshot{
		RoundID:      s.RoundID,
		Participants: s.Participants,
		PaidTotal:    nonNilBig(s.PaidTotal),
		PotAfter:     nonNilBig(s.PotAfter),
	}
	if s.FinalSponsor != nil {
		out.HasFinalSponsor = true
		out.FinalSponsor = storedSponsor{
			Address: s.FinalSponsor.Address,
			Amount:  nonNilBig(s.FinalSponsor.Amount),
			Message: s.FinalSponsor.Message,
		}
	}
	return out
}

type storedRoundSnapshot struct {
	RoundID         uint64
	Participants    [][20]byte
	PaidTotal       *big.Int
	PotAfter        *big.Int
	HasFinalSponsor bool
	FinalSponsor    storedSponsor
}

func (s storedRoundSnapshot) toSnapshot() *nativehotpotato.RoundSnapshot {
	out := &nativehotpotato.RoundSnapshot{
		RoundID:      s.RoundID,
		Participants: s.Participants,
		PaidTotal:    s.PaidTotal,
		PotAfter:     s.PotAfter,
	}
	if s.HasFinalSponsor {
		out.FinalSponsor = &nativehotpotato.Sponsor{
			Address: s.FinalSponsor.Address,
			Amount:  s.FinalSponsor.Amount,
			Message: s.FinalSponsor.Message,
		}
	}
	return out
}

// Store persists engine state through a generic key-value backend.
type Store struct {
	db storage.Database
}

// NewStore wraps db as a Store.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

// SaveLiveState persists the engine's current round state. It implements
// native/hotpotato.Persister so an Engine can be handed a Store directly.
func (s *Store) SaveLiveState(state nativehotpotato.RoundState) error {
	encoded, err := rlp.EncodeToBytes(toStoredLiveState(state))
	if err != nil {
		return fmt.Errorf("state/hotpotato: encode live state: %w", err)
	}
	return s.db.Put(liveStateKey, encoded)
}

// LoadLiveState returns the persisted round state, or ok=false if nothing has
// been saved yet.
func (s *Store) LoadLiveState() (state nativehotpotato.RoundState, ok bool, err error) {
	has, err := s.db.Has(liveStateKey)
	if err != nil {
		return nativehotpotato.RoundState{}, false, fmt.Errorf("state/hotpotato: check live state: %w", err)
	}
	if !has {
		return nativehotpotato.RoundState{}, false, nil
	}
	raw, err := s.db.Get(liveStateKey)
	if err != nil {
		return nativehotpotato.RoundState{}, false, fmt.Errorf("state/hotpotato: load live state: %w", err)
	}
	var stored storedLiveState
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nativehotpotato.RoundState{}, false, fmt.Errorf("state/hotpotato: decode live state: %w", err)
	}
	return stored.toLiveState(), true, nil
}

// SaveRoundSnapshot persists a finalized round's history record.
func (s *Store) SaveRoundSnapshot(snapshot *nativehotpotato.RoundSnapshot) error {
	if snapshot == nil {
		return nil
	}
	encoded, err := rlp.EncodeToBytes(toStoredSnapshot(snapshot))
	if err != nil {
		return fmt.Errorf("state/hotpotato: encode round snapshot: %w", err)
	}
	return s.db.Put(roundSnapshotKey(snapshot.RoundID), encoded)
}

// LoadRoundSnapshot returns the persisted snapshot for roundID, or ok=false
// if the round was never finalized (or never existed).
func (s *Store) LoadRoundSnapshot(roundID uint64) (snapshot *nativehotpotato.RoundSnapshot, ok bool, err error) {
	key := roundSnapshotKey(roundID)
	has, err := s.db.Has(key)
	if err != nil {
		return nil, false, fmt.Errorf("state/hotpotato: check round snapshot: %w", err)
	}
	if !has {
		return nil, false, nil
	}
	raw, err := s.db.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("state/hotpotato: load round snapshot: %w", err)
	}
	var stored storedRoundSnapshot
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state/hotpotato: decode round snapshot: %w", err)
	}
	return stored.toSnapshot(), true, nil
}
