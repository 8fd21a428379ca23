package hotpotato

import (
	"fmt"
	"math/big"

	"github.com/DenhamPreen/hot-potato/core/events"
	"github.com/DenhamPreen/hot-potato/crypto"
)

// Event type strings are part of the compatibility surface: downstream
// indexers match on these names and the ordering documented alongside each
// emission site.
const (
	TypeTake                    = "hotpotato.take"
	TypeSettle                  = "hotpotato.settle"
	TypeNewHolder               = "hotpotato.new_holder"
	TypeRoundEnded              = "hotpotato.round_ended"
	TypePotUpdated              = "hotpotato.pot_updated"
	TypeSponsorUpdated          = "hotpotato.sponsor_updated"
	TypeSponsorReplaced         = "hotpotato.sponsor_replaced"
	TypeSponsorCleared          = "hotpotato.sponsor_cleared"
	TypeParticipantPayoutFailed = "hotpotato.participant_payout_failed"
	TypeSponsorRefundFailed     = "hotpotato.sponsor_refund_failed"
)

func addrString(addr [20]byte) string {
	return crypto.AddressFromBytes20(addr).String()
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func takeEvent(player [20]byte, pricePaid *big.Int, targetBlock, roundID uint64) events.Record {
	return events.Record{
		Type: TypeTake,
		Attributes: map[string]string{
			"player":      addrString(player),
			"pricePaid":   amountString(pricePaid),
			"targetBlock": fmt.Sprintf("%d", targetBlock),
			"roundId":     fmt.Sprintf("%d", roundID),
		},
	}
}

func settleEvent(player [20]byte, win bool, randomness *big.Int, roundID uint64) events.Record {
	return events.Record{
		Type: TypeSettle,
		Attributes: map[string]string{
			"player":     addrString(player),
			"win":        fmt.Sprintf("%t", win),
			"randomness": amountString(randomness),
			"roundId":    fmt.Sprintf("%d", roundID),
		},
	}
}

func newHolderEvent(holder [20]byte, roundID uint64, newPrice *big.Int) events.Record {
	return events.Record{
		Type: TypeNewHolder,
		Attributes: map[string]string{
			"holder":   addrString(holder),
			"roundId":  fmt.Sprintf("%d", roundID),
			"newPrice": amountString(newPrice),
		},
	}
}

func roundEndedEvent(roundID uint64, payoutAmount *big.Int, numEligible int, potAfter *big.Int) events.Record {
	return events.Record{
		Type: TypeRoundEnded,
		Attributes: map[string]string{
			"roundId":      fmt.Sprintf("%d", roundID),
			"payoutAmount": amountString(payoutAmount),
			"numEligible":  fmt.Sprintf("%d", numEligible),
			"potAfter":     amountString(potAfter),
		},
	}
}

func potUpdatedEvent(newPot *big.Int) events.Record {
	return events.Record{
		Type: TypePotUpdated,
		Attributes: map[string]string{
			"newPot": amountString(newPot),
		},
	}
}

func sponsorUpdatedEvent(sponsor [20]byte, amount *big.Int, message []byte, roundID uint64) events.Record {
	return events.Record{
		Type: TypeSponsorUpdated,
		Attributes: map[string]string{
			"sponsor": addrString(sponsor),
			"amount":  amountString(amount),
			"message": string(message),
			"roundId": fmt.Sprintf("%d", roundID),
		},
	}
}

func sponsorReplacedEvent(previousSponsor [20]byte, refundAmount *big.Int, roundID uint64) events.Record {
	return events.Record{
		Type: TypeSponsorReplaced,
		Attributes: map[string]string{
			"previousSponsor": addrString(previousSponsor),
			"refundAmount":    amountString(refundAmount),
			"roundId":         fmt.Sprintf("%d", roundID),
		},
	}
}

func sponsorClearedEvent(roundID uint64) events.Record {
	return events.Record{
		Type: TypeSponsorCleared,
		Attributes: map[string]string{
			"roundId": fmt.Sprintf("%d", roundID),
		},
	}
}

func participantPayoutFailedEvent(participant [20]byte, amount *big.Int, roundID uint64) events.Record {
	return events.Record{
		Type: TypeParticipantPayoutFailed,
		Attributes: map[string]string{
			"participant": addrString(participant),
			"amount":      amountString(amount),
			"roundId":     fmt.Sprintf("%d", roundID),
		},
	}
}

func sponsorRefundFailedEvent(previousSponsor [20]byte, amount *big.Int, roundID uint64) events.Record {
	return events.Record{
		Type: TypeSponsorRefundFailed,
		Attributes: map[string]string{
			"previousSponsor": addrString(previousSponsor),
			"amount":          amountString(amount),
			"roundId":         fmt.Sprintf("%d", roundID),
		},
	}
}
