package hotpotato

import "math/big"

// finalizeRound runs the loss path: pay the creator fee, split the contract's
// real held balance evenly across the round's participants, clear the
// sponsor, record a snapshot, and roll over to a fresh round. Callers must
// hold the engine's critical section and have already cleared e.pending.
func (e *Engine) finalizeRound() {
	endedRoundID := e.roundID
	participants := append([][20]byte(nil), e.participants...)
	paidTotal := new(big.Int).Set(e.paidTotal)

	if e.config.CreatorFee != nil && e.config.CreatorFee.Sign() > 0 {
		fee := clampToAvailable(e.config.CreatorFee, e.AvailablePot())
		e.tryPay(e.config.CreatorAddress, fee)
	}

	// The distribution pool is the contract's actual held balance, not the
	// accounting pot: a stray deposit that pushed the ledger above pot must
	// still be paid out, rather than permanently stranded.
	distributed := big.NewInt(0)
	numEligible := len(participants)
	if numEligible > 0 {
		balanceAfterFees := e.ledger.ContractBalance()
		share := new(big.Int).Div(balanceAfterFees, big.NewInt(int64(numEligible)))
		if share.Sign() > 0 {
			for _, participant := range participants {
				if e.ledger.Transfer(participant, share) {
					distributed = new(big.Int).Add(distributed, share)
				} else {
					e.emit.Emit(participantPayoutFailedEvent(participant, share, endedRoundID))
				}
			}
			e.pot = saturatingSub(e.pot, distributed)
		}
	}

	snapshot := &RoundSnapshot{
		RoundID:      endedRoundID,
		Participants: participants,
		PaidTotal:    paidTotal,
		PotAfter:     new(big.Int).Set(e.pot),
	}

	e.emit.Emit(roundEndedEvent(endedRoundID, distributed, numEligible, new(big.Int).Set(e.pot)))
	e.emit.Emit(potUpdatedEvent(new(big.Int).Set(e.pot)))

	if e.sponsor != nil {
		snapshot.FinalSponsor = e.sponsor.Clone()
		e.sponsor = nil
		e.sponsorReserved = big.NewInt(0)
		e.emit.Emit(sponsorClearedEvent(endedRoundID))
	}

	e.history[endedRoundID] = snapshot
	if e.persist != nil {
		_ = e.persist.SaveRoundSnapshot(snapshot)
	}

	e.roundID++
	e.participants = nil
	e.hasPlayed = make(map[[20]byte]bool)
	e.paidTotal = big.NewInt(0)
	e.holder = [20]byte{}
	e.hasHolder = false
	e.currentPrice = cloneBig(e.config.BaseEntryPrice)
}
