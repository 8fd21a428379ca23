package hotpotato

import (
	"math/big"

	"github.com/DenhamPreen/hot-potato/core/errors"
)

// Sponsor attaches or replaces the round's promotional sponsorship. An
// uncontested slot requires at least MinSponsorAmount; replacing an
// incumbent requires outbidding it by OutbidMultiplierBps. The replacement
// is funded into the pot, and its reservation established, before the
// incumbent's reservation is released and refunded, so a refund failure
// never blocks the new sponsorship from taking effect and never leaves the
// incumbent's reservation stranded.
func (e *Engine) Sponsor(caller [20]byte, amount *big.Int, message []byte) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.guardPause("hotpotato"); err != nil {
		return err
	}
	if len(message) > MaxSponsorMessageLen {
		return errors.ErrMessageTooLong
	}
	if amount == nil {
		amount = big.NewInt(0)
	}

	incumbent := e.sponsor
	if incumbent == nil {
		if amount.Cmp(MinSponsorAmount) < 0 {
			return &errors.InvalidAmountError{Provided: amount, Expected: MinSponsorAmount}
		}

		e.sponsorReserved = new(big.Int).Add(e.sponsorReserved, amount)
		e.creditPot(amount)

		e.sponsor = &Sponsor{
			Address: caller,
			Amount:  new(big.Int).Set(amount),
			Message: append([]byte(nil), message...),
		}
		e.emit.Emit(sponsorUpdatedEvent(caller, amount, message, e.roundID))

		e.persistLocked()
		return nil
	}

	required := ceilMulDiv(incumbent.Amount, big.NewInt(OutbidMultiplierBps), big.NewInt(BpsDenominator))
	if amount.Cmp(required) < 0 {
		return &errors.InvalidAmountError{Provided: amount, Expected: required}
	}

	e.sponsorReserved = new(big.Int).Add(e.sponsorReserved, amount)
	e.creditPot(amount)

	e.sponsorReserved = saturatingSub(e.sponsorReserved, incumbent.Amount)

	if e.tryPay(incumbent.Address, incumbent.Amount) {
		e.emit.Emit(sponsorReplacedEvent(incumbent.Address, incumbent.Amount, e.roundID))
	} else {
		e.emit.Emit(sponsorRefundFailedEvent(incumbent.Address, incumbent.Amount, e.roundID))
		e.emit.Emit(sponsorReplacedEvent(incumbent.Address, incumbent.Amount, e.roundID))
	}

	e.sponsor = &Sponsor{
		Address: caller,
		Amount:  new(big.Int).Set(amount),
		Message: append([]byte(nil), message...),
	}
	e.emit.Emit(sponsorUpdatedEvent(caller, amount, message, e.roundID))

	e.persistLocked()
	return nil
}
