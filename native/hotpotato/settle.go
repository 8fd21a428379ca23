package hotpotato

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/DenhamPreen/hot-potato/core/errors"
)

var zeroHash [32]byte

// Settle resolves the single outstanding ticket. caller is the keeper
// credited with Config.KeeperReward before the outcome is decided. A win
// promotes the player to holder and escalates the entry price, leaving the
// round open for the next take; a loss ends the round, distributing the
// pot and advancing to a fresh round.
func (e *Engine) Settle(caller [20]byte) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.guardPause("hotpotato"); err != nil {
		return err
	}
	ticket := e.pending
	if ticket == nil {
		return errors.ErrNoPendingAttempt
	}
	now := e.ledger.BlockNumber()
	if now < ticket.TakeBlockNumber+SettleDelayBlocks {
		return errors.ErrTooSoonToSettle
	}

	entropyBlock := ticket.TakeBlockNumber
	blockHash := e.ledger.BlockHash(entropyBlock)
	if blockHash == zeroHash {
		return errors.ErrStaleBlockhash
	}

	// Keeper pay is non-blocking: a failed transfer is swallowed and the
	// pot simply keeps the funds.
	e.tryPay(caller, e.config.KeeperReward)

	randomness := rollRandomness(blockHash, ticket.Player, ticket.CreatedInRoundID)
	roll := new(big.Int).Mod(randomness, big.NewInt(10))
	win := roll.Cmp(big.NewInt(WinRollThreshold)) < 0

	// The slot that fills the round forces a loss regardless of the roll,
	// since there is no further holder for the round to continue to.
	if len(e.participants) >= MaxParticipants {
		win = false
	}

	e.pending = nil
	if win {
		e.winPath(ticket.Player)
	} else {
		e.finalizeRound()
	}

	// Settle is emitted last: downstream consumers see NewHolder/RoundEnded/
	// PotUpdated from the Win/Lose path before the Settle event that caused them.
	e.emit.Emit(settleEvent(ticket.Player, win, randomness, ticket.CreatedInRoundID))

	e.persistLocked()
	return nil
}

// winPath applies the Win path's effects: the player keeps the potato as
// the new holder and the entry price escalates for the next take.
func (e *Engine) winPath(player [20]byte) {
	e.holder = player
	e.hasHolder = true
	e.currentPrice = ceilMulDiv(e.currentPrice, big.NewInt(int64(e.config.PriceMultiplierBps)), big.NewInt(BpsDenominator))
	e.emit.Emit(newHolderEvent(player, e.roundID, new(big.Int).Set(e.currentPrice)))
	e.emit.Emit(potUpdatedEvent(new(big.Int).Set(e.pot)))
}

// rollRandomness derives the settlement entropy as
// keccak256(blockHash || player || roundID).
func rollRandomness(blockHash [32]byte, player [20]byte, roundID uint64) *big.Int {
	buf := make([]byte, 0, 32+20+8)
	buf = append(buf, blockHash[:]...)
	buf = append(buf, player[:]...)
	var roundBytes [8]byte
	binary.BigEndian.PutUint64(roundBytes[:], roundID)
	buf = append(buf, roundBytes[:]...)
	digest := crypto.Keccak256(buf)
	return new(big.Int).SetBytes(digest)
}
