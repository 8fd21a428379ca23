package hotpotato

import "math/big"

// Persister is the optional durability hook an Engine calls at the end of
// every state-mutating operation. It is a read-view-shaped seam, not the
// engine's source of truth: the live struct fields remain authoritative,
// and a Persister failure is discarded rather than rolled back or reported.
type Persister interface {
	SaveLiveState(RoundState) error
	SaveRoundSnapshot(*RoundSnapshot) error
}

// RoundState is a read-only snapshot of the currently open round.
type RoundState struct {
	RoundID      uint64
	Participants [][20]byte
	Holder       [20]byte
	HasHolder    bool
	CurrentPrice    *big.Int
	Pot             *big.Int
	PaidTotal       *big.Int
	Pending         *Ticket
	Sponsor         *Sponsor
	SponsorReserved *big.Int
}

// CurrentRound returns a deep copy of the engine's live round state.
func (e *Engine) CurrentRound() RoundState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveRoundStateLocked()
}

// liveRoundStateLocked builds a RoundState snapshot. Callers must already
// hold e.mu.
func (e *Engine) liveRoundStateLocked() RoundState {
	return RoundState{
		RoundID:         e.roundID,
		Participants:    append([][20]byte(nil), e.participants...),
		Holder:          e.holder,
		HasHolder:       e.hasHolder,
		CurrentPrice:    cloneBig(e.currentPrice),
		Pot:             cloneBig(e.pot),
		PaidTotal:       cloneBig(e.paidTotal),
		Pending:         e.pending.Clone(),
		Sponsor:         e.sponsor.Clone(),
		SponsorReserved: cloneBig(e.sponsorReserved),
	}
}

// RestoreLiveState seeds a freshly constructed Engine from a previously
// persisted RoundState, rebuilding the hasPlayed set from its participant
// list. Callers must restore before the engine serves any request; it does
// not itself acquire the reentrancy guard since no concurrent caller can
// exist yet.
func (e *Engine) RestoreLiveState(state RoundState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.roundID = state.RoundID
	e.participants = append([][20]byte(nil), state.Participants...)
	e.holder = state.Holder
	e.hasHolder = state.HasHolder
	e.currentPrice = cloneBig(state.CurrentPrice)
	e.pot = cloneBig(state.Pot)
	e.paidTotal = cloneBig(state.PaidTotal)
	e.pending = state.Pending.Clone()
	e.sponsor = state.Sponsor.Clone()
	if state.SponsorReserved != nil {
		e.sponsorReserved = cloneBig(state.SponsorReserved)
	} else {
		e.sponsorReserved = big.NewInt(0)
	}

	e.hasPlayed = make(map[[20]byte]bool, len(e.participants))
	for _, p := range e.participants {
		e.hasPlayed[p] = true
	}
}

// persistLocked best-effort persists the current live round state. A
// failure here never fails the triggering operation; the error is
// discarded and is not logged.
func (e *Engine) persistLocked() {
	if e.persist == nil {
		return
	}
	_ = e.persist.SaveLiveState(e.liveRoundStateLocked())
}

// GetConfig returns a deep copy of the engine's current configuration.
func (e *Engine) GetConfig() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.Clone()
}

// RoundSnapshot returns the finalized snapshot for roundID, or nil if the
// round has not yet ended or never existed.
func (e *Engine) RoundSnapshot(roundID uint64) *RoundSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history[roundID].Clone()
}

// HasPlayed reports whether player has already taken a ticket in the
// currently open round.
func (e *Engine) HasPlayed(player [20]byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasPlayed[player]
}
