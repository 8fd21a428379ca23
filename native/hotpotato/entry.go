package hotpotato

import (
	"math/big"

	"github.com/DenhamPreen/hot-potato/core/errors"
)

// Enter takes the current round's hot potato at the prevailing entry price.
// The 50th and final participant slot in a round is free and, on
// settlement, is forced to lose regardless of the random roll. Enter only
// registers the take; holder promotion and price escalation are the Win
// path's effects, applied by Settle once the outcome is known.
func (e *Engine) Enter(player [20]byte, amountPaid *big.Int) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.guardPause("hotpotato"); err != nil {
		return err
	}
	if e.pending != nil {
		return errors.ErrPendingAttemptExists
	}
	if len(e.participants) >= MaxParticipants {
		return errors.ErrMaxParticipantsReached
	}
	if e.hasPlayed[player] {
		return &errors.AlreadyPlayedError{RoundID: e.roundID}
	}

	isFreeSlot := len(e.participants)+1 == MaxParticipants
	required := e.currentPrice
	if isFreeSlot {
		required = big.NewInt(0)
	}
	if amountPaid == nil {
		amountPaid = big.NewInt(0)
	}
	if amountPaid.Cmp(required) < 0 {
		return &errors.InvalidAmountError{Provided: amountPaid, Expected: required}
	}

	e.participants = append(e.participants, player)
	e.hasPlayed[player] = true

	if amountPaid.Sign() > 0 {
		e.creditPot(amountPaid)
	}

	e.pending = &Ticket{
		Player:           player,
		AmountPaid:       new(big.Int).Set(amountPaid),
		TakeBlockNumber:  e.ledger.BlockNumber(),
		CreatedInRoundID: e.roundID,
	}
	e.paidTotal = new(big.Int).Add(e.paidTotal, amountPaid)

	e.emit.Emit(takeEvent(player, amountPaid, e.pending.TakeBlockNumber, e.roundID))

	e.persistLocked()
	return nil
}
