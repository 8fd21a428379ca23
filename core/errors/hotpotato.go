// Package errors collects the typed failure modes surfaced by the engine.
// Precondition failures use these types directly; best-effort transfer
// failures (keeper reward, creator fee, participant shares, sponsor refund)
// never surface here; they are reported only via diagnostic events.
package errors

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrPendingAttemptExists is returned by Enter when a settlement ticket
	// is already outstanding engine-wide.
	ErrPendingAttemptExists = errors.New("hotpotato: pending attempt already exists")
	// ErrMaxParticipantsReached is returned by Enter once the round has 50
	// distinct participants.
	ErrMaxParticipantsReached = errors.New("hotpotato: max participants reached for round")
	// ErrNoPendingAttempt is returned by Settle when there is nothing to settle.
	ErrNoPendingAttempt = errors.New("hotpotato: no pending attempt")
	// ErrTooSoonToSettle is returned by Settle before the two-block delay elapses.
	ErrTooSoonToSettle = errors.New("hotpotato: too soon to settle")
	// ErrStaleBlockhash is returned by Settle when the entropy block hash has
	// fallen outside the host's 256-block lookback window.
	ErrStaleBlockhash = errors.New("hotpotato: stale blockhash")
	// ErrNotCreator is returned by UpdateCreator when the caller is not the
	// current creator address.
	ErrNotCreator = errors.New("hotpotato: caller is not the creator")
	// ErrZeroCreator is returned by UpdateCreator when the proposed address is zero.
	ErrZeroCreator = errors.New("hotpotato: creator address must not be zero")
	// ErrMessageTooLong is returned by Sponsor when the message exceeds 256 bytes.
	ErrMessageTooLong = errors.New("hotpotato: sponsor message too long")
	// ErrReentrancyDetected is fatal within a call: a transfer re-entered the engine.
	ErrReentrancyDetected = errors.New("hotpotato: reentrancy detected")
	// ErrTwoStepHandoverDisabled is returned by ProposeCreator/AcceptCreator
	// when the host has not opted into the two-step handover flow.
	ErrTwoStepHandoverDisabled = errors.New("hotpotato: two-step creator handover disabled")
	// ErrNoPendingCreatorProposal is returned by AcceptCreator when no
	// ProposeCreator call is outstanding.
	ErrNoPendingCreatorProposal = errors.New("hotpotato: no pending creator proposal")
	// ErrNotProposedCreator is returned by AcceptCreator when the caller is
	// not the address named in the outstanding proposal.
	ErrNotProposedCreator = errors.New("hotpotato: caller is not the proposed creator")
)

// AlreadyPlayedError reports that sender already entered the current round.
type AlreadyPlayedError struct {
	RoundID uint64
}

func (e *AlreadyPlayedError) Error() string {
	return fmt.Sprintf("hotpotato: address already played round %d", e.RoundID)
}

// InvalidAmountError reports that the attached value did not meet the
// required threshold for the operation being attempted.
type InvalidAmountError struct {
	Provided *big.Int
	Expected *big.Int
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("hotpotato: invalid amount: provided %s, expected at least %s", amountString(e.Provided), amountString(e.Expected))
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
