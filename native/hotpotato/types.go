// Package hotpotato implements the settlement engine for the escalating
// entry-price "hot potato" contest: the take/settle state machine, the
// accounting invariants guarding the pot, and the sponsor replacement
// sub-protocol.
package hotpotato

import "math/big"

const (
	// MaxParticipants bounds a round's participant list; the entrant that
	// fills the 50th slot plays for free and forces a loss on settlement.
	MaxParticipants = 50
	// MaxSponsorMessageLen is the maximum length, in bytes, of a sponsor message.
	MaxSponsorMessageLen = 256
	// SettleDelayBlocks is the minimum number of blocks that must elapse
	// between a take and its settlement.
	SettleDelayBlocks = 2
	// OutbidMultiplierBps is the basis-point multiplier a replacement
	// sponsorship must meet or exceed relative to the incumbent's amount.
	OutbidMultiplierBps = 12000
	// BpsDenominator is 1.0x expressed in basis points.
	BpsDenominator = 10000
	// WinRollThreshold is the modulo-10 cutoff below which a settlement wins.
	WinRollThreshold = 8
)

// MinSponsorAmount is the minimum deposit accepted for an uncontested
// sponsorship slot (1 native token, 18 decimals).
var MinSponsorAmount = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Config holds the engine's immutable construction parameters.
type Config struct {
	BaseEntryPrice     *big.Int
	PriceMultiplierBps uint64
	KeeperReward       *big.Int
	CreatorFee         *big.Int
	CreatorAddress     [20]byte

	// TwoStepCreatorHandover gates the optional ProposeCreator/AcceptCreator
	// pair. When false (the default), UpdateCreator's single-step rotation is
	// the only way to change CreatorAddress.
	TwoStepCreatorHandover bool
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.BaseEntryPrice = cloneBig(c.BaseEntryPrice)
	out.KeeperReward = cloneBig(c.KeeperReward)
	out.CreatorFee = cloneBig(c.CreatorFee)
	return out
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Ticket is the single outstanding take awaiting settlement.
type Ticket struct {
	Player           [20]byte
	AmountPaid       *big.Int
	TakeBlockNumber  uint64
	CreatedInRoundID uint64
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.AmountPaid = cloneBig(t.AmountPaid)
	return &clone
}

// Sponsor is the current promotional sponsorship attached to a round.
type Sponsor struct {
	Address [20]byte
	Amount  *big.Int
	Message []byte
}

// Clone returns a deep copy of the sponsor record.
func (s *Sponsor) Clone() *Sponsor {
	if s == nil {
		return nil
	}
	clone := &Sponsor{Address: s.Address, Amount: cloneBig(s.Amount)}
	clone.Message = append([]byte(nil), s.Message...)
	return clone
}

// RoundSnapshot is the immutable record retained for a finalized round.
// It is additive read-only history, not required by the core state machine.
type RoundSnapshot struct {
	RoundID      uint64
	Participants [][20]byte
	PaidTotal    *big.Int
	PotAfter     *big.Int
	FinalSponsor *Sponsor
}

// Clone returns a deep copy of the snapshot.
func (r *RoundSnapshot) Clone() *RoundSnapshot {
	if r == nil {
		return nil
	}
	clone := &RoundSnapshot{
		RoundID:      r.RoundID,
		PaidTotal:    cloneBig(r.PaidTotal),
		PotAfter:     cloneBig(r.PotAfter),
		FinalSponsor: r.FinalSponsor.Clone(),
	}
	clone.Participants = append([][20]byte(nil), r.Participants...)
	return clone
}
