package hotpotato

import "math/big"

// AvailablePot returns the lesser of the accounting pot and the ledger's
// actual held balance, minus whatever is earmarked as sponsorReserved:
// payouts must never promise more than the contract could physically
// transfer, even if the accounting side has drifted ahead after a failed
// prior transfer was skipped rather than re-credited, and a reserved
// incumbent-sponsor refund must never be spent on anything else.
func (e *Engine) AvailablePot() *big.Int {
	actual := e.ledger.ContractBalance()
	clamped := clampToAvailable(e.pot, actual)
	return saturatingSub(clamped, e.sponsorReserved)
}

// creditPot adds amount to the accounting pot and emits PotUpdated. Callers
// must hold the engine's critical section.
func (e *Engine) creditPot(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	e.pot = new(big.Int).Add(e.pot, amount)
	e.emit.Emit(potUpdatedEvent(new(big.Int).Set(e.pot)))
}

// debitPot subtracts amount from the accounting pot, saturating at zero.
// Callers must hold the engine's critical section.
func (e *Engine) debitPot(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	e.pot = saturatingSub(e.pot, amount)
	e.emit.Emit(potUpdatedEvent(new(big.Int).Set(e.pot)))
}

// tryPay attempts to transfer amount to recipient out of the accounting pot,
// clamped to AvailablePot: when less than amount is available, only the
// available part is sent. On success it debits the pot by the transferred
// amount and returns true. On failure (nothing available, or the host
// transfer itself failing) it leaves the pot untouched and returns false;
// the caller is responsible for emitting a diagnostic failure event.
func (e *Engine) tryPay(recipient [20]byte, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return true
	}
	available := e.AvailablePot()
	payable := clampToAvailable(amount, available)
	if payable.Sign() <= 0 {
		return false
	}
	if !e.ledger.Transfer(recipient, payable) {
		return false
	}
	e.debitPot(payable)
	return true
}

// PassiveDeposit credits value sent to the contract outside Enter/Sponsor
// (e.g. a direct transfer) straight into the accounting pot, keeping it in
// sync with the ledger's actual balance.
func (e *Engine) PassiveDeposit(amount *big.Int) {
	unlock, err := e.enter()
	if err != nil {
		return
	}
	defer unlock()
	e.creditPot(amount)
	e.persistLocked()
}
