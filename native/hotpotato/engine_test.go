package hotpotato

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DenhamPreen/hot-potato/core/errors"
	"github.com/DenhamPreen/hot-potato/core/events"
)

// keeper is the address used across tests to settle tickets and collect the
// keeper reward.
var keeper = addr(0xEE)

func testConfig() Config {
	return Config{
		BaseEntryPrice:     big.NewInt(100),
		PriceMultiplierBps: 11000, // 1.1x per take
		KeeperReward:       big.NewInt(1),
		CreatorFee:         big.NewInt(5),
		CreatorAddress:     addr(0xCC),
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeLedger, *events.Recorder) {
	t.Helper()
	ledger := newFakeLedger()
	ledger.block = 100
	rec := events.NewRecorder(256)
	e := NewEngine(testConfig(), ledger, rec, nil)
	return e, ledger, rec
}

func TestEnterRejectsUnderpayment(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(50))

	err := e.Enter(addr(1), big.NewInt(50))
	require.Error(t, err)
	var invalidAmount *errors.InvalidAmountError
	require.ErrorAs(t, err, &invalidAmount)
}

func TestEnterRejectsReplayWithinRound(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(100))
	require.NoError(t, e.Enter(addr(1), big.NewInt(100)))

	// Settle the outstanding ticket so a second Enter by the same player is
	// rejected for replay rather than for a pending attempt.
	ledger.block += SettleDelayBlocks
	ledger.hashes[100] = [32]byte{1, 2, 3}
	require.NoError(t, e.Settle(keeper))

	round := e.CurrentRound()
	if round.RoundID != 1 {
		t.Skip("round already advanced on first settle; replay case not reachable in this path")
	}

	err := e.Enter(addr(1), big.NewInt(round.CurrentPrice.Int64()))
	require.Error(t, err)
	var alreadyPlayed *errors.AlreadyPlayedError
	require.ErrorAs(t, err, &alreadyPlayed)
}

func TestEnterRejectsWhilePending(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(1000))
	require.NoError(t, e.Enter(addr(1), big.NewInt(100)))

	err := e.Enter(addr(2), big.NewInt(110))
	require.ErrorIs(t, err, errors.ErrPendingAttemptExists)
}

func TestSettleTooSoon(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(100))
	require.NoError(t, e.Enter(addr(1), big.NewInt(100)))

	err := e.Settle(keeper)
	require.ErrorIs(t, err, errors.ErrTooSoonToSettle)
}

func TestSettleStaleBlockhash(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(100))
	require.NoError(t, e.Enter(addr(1), big.NewInt(100)))
	ledger.block += SettleDelayBlocks
	// ledger.hashes[100] left unset: the zero value signals a lookback miss.

	err := e.Settle(keeper)
	require.ErrorIs(t, err, errors.ErrStaleBlockhash)
}

func TestSettleNoPendingAttempt(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.Settle(keeper)
	require.ErrorIs(t, err, errors.ErrNoPendingAttempt)
}

// findHashForOutcome searches small candidate hashes for one that produces
// the requested win/lose outcome for the given player and round, using the
// exact same roll computation Settle uses internally.
func findHashForOutcome(t *testing.T, player [20]byte, roundID uint64, wantWin bool) [32]byte {
	t.Helper()
	for i := 1; i < 10000; i++ {
		var candidate [32]byte
		candidate[0] = byte(i)
		candidate[1] = byte(i >> 8)
		randomness := rollRandomness(candidate, player, roundID)
		roll := new(big.Int).Mod(randomness, big.NewInt(10))
		win := roll.Cmp(big.NewInt(WinRollThreshold)) < 0
		if win == wantWin {
			return candidate
		}
	}
	t.Fatalf("no candidate hash found for win=%v", wantWin)
	return [32]byte{}
}

func TestSettleWinKeepsRoundOpen(t *testing.T) {
	e, ledger, rec := newTestEngine(t)
	player := addr(7)
	ledger.deposit(big.NewInt(100))
	require.NoError(t, e.Enter(player, big.NewInt(100)))

	hash := findHashForOutcome(t, player, 1, true)
	ledger.hashes[100] = hash
	ledger.block += SettleDelayBlocks

	require.NoError(t, e.Settle(keeper))

	round := e.CurrentRound()
	require.Equal(t, uint64(1), round.RoundID)
	require.True(t, round.HasHolder)
	require.Equal(t, player, round.Holder)
	require.Nil(t, round.Pending)

	found := false
	for _, rawEvt := range rec.Recent() {
		if rawEvt.Type == TypeSettle && rawEvt.Attributes["win"] == "true" {
			found = true
		}
	}
	require.True(t, found)
}

func TestSettleLoseDistributesPotAndAdvancesRound(t *testing.T) {
	e, ledger, rec := newTestEngine(t)
	player := addr(9)
	ledger.deposit(big.NewInt(100))
	require.NoError(t, e.Enter(player, big.NewInt(100)))

	hash := findHashForOutcome(t, player, 1, false)
	ledger.hashes[100] = hash
	ledger.block += SettleDelayBlocks

	require.NoError(t, e.Settle(keeper))

	round := e.CurrentRound()
	require.Equal(t, uint64(2), round.RoundID)
	require.False(t, round.HasHolder)
	require.Nil(t, round.Pending)
	require.Equal(t, 0, round.Pot.Sign())

	snapshot := e.RoundSnapshot(1)
	require.NotNil(t, snapshot)
	require.Equal(t, [][20]byte{player}, snapshot.Participants)

	foundRoundEnded := false
	for _, rawEvt := range rec.Recent() {
		if rawEvt.Type == TypeRoundEnded {
			foundRoundEnded = true
		}
	}
	require.True(t, foundRoundEnded)
}

func TestMaxParticipantsForcesLossRegardlessOfRoll(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(big.NewInt(1_000_000))

	for i := 0; i < MaxParticipants-1; i++ {
		player := addr(byte(i + 1))
		round := e.CurrentRound()
		require.NoError(t, e.Enter(player, round.CurrentPrice))

		hash := findHashForOutcome(t, player, round.RoundID, true)
		ledger.hashes[ledger.block] = hash
		ledger.block += SettleDelayBlocks
		require.NoError(t, e.Settle(keeper))
	}

	round := e.CurrentRound()
	require.Equal(t, MaxParticipants-1, len(round.Participants))

	last := addr(byte(MaxParticipants))
	require.NoError(t, e.Enter(last, big.NewInt(0)))

	// Even a hash engineered for a win must be forced to a loss on the 50th slot.
	hash := findHashForOutcome(t, last, round.RoundID, true)
	ledger.hashes[ledger.block] = hash
	ledger.block += SettleDelayBlocks
	require.NoError(t, e.Settle(keeper))

	finalRound := e.CurrentRound()
	require.Equal(t, round.RoundID+1, finalRound.RoundID)
}

func TestSponsorUncontestedRequiresMinimum(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(new(big.Int).Sub(MinSponsorAmount, big.NewInt(1)))

	err := e.Sponsor(addr(1), new(big.Int).Sub(MinSponsorAmount, big.NewInt(1)), []byte("hi"))
	require.Error(t, err)
}

func TestSponsorOutbidRefundsIncumbent(t *testing.T) {
	e, ledger, rec := newTestEngine(t)
	first := addr(1)
	second := addr(2)

	ledger.deposit(MinSponsorAmount)
	require.NoError(t, e.Sponsor(first, MinSponsorAmount, []byte("first")))

	required := ceilMulDiv(MinSponsorAmount, big.NewInt(OutbidMultiplierBps), big.NewInt(BpsDenominator))
	ledger.deposit(required)
	require.NoError(t, e.Sponsor(second, required, []byte("second")))

	round := e.CurrentRound()
	require.NotNil(t, round.Sponsor)
	require.Equal(t, second, round.Sponsor.Address)

	// The incumbent's MinSponsorAmount should have been refunded, leaving the
	// ledger balance at exactly the new sponsor's required deposit.
	require.Equal(t, 0, ledger.ContractBalance().Cmp(required))

	foundReplaced := false
	for _, rawEvt := range rec.Recent() {
		if rawEvt.Type == TypeSponsorReplaced {
			foundReplaced = true
		}
	}
	require.True(t, foundReplaced)
}

func TestSponsorRejectsOverlongMessage(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ledger.deposit(MinSponsorAmount)

	msg := make([]byte, MaxSponsorMessageLen+1)
	err := e.Sponsor(addr(1), MinSponsorAmount, msg)
	require.ErrorIs(t, err, errors.ErrMessageTooLong)
}

func TestUpdateCreatorRequiresCurrentCreator(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.UpdateCreator(addr(1), addr(2))
	require.ErrorIs(t, err, errors.ErrNotCreator)

	require.NoError(t, e.UpdateCreator(addr(0xCC), addr(2)))
	require.Equal(t, addr(2), e.GetConfig().CreatorAddress)
}

func TestTwoStepCreatorHandoverDisabledByDefault(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.ProposeCreator(addr(0xCC), addr(2))
	require.ErrorIs(t, err, errors.ErrTwoStepHandoverDisabled)
}

func TestTwoStepCreatorHandoverFlow(t *testing.T) {
	ledger := newFakeLedger()
	ledger.block = 100
	config := testConfig()
	config.TwoStepCreatorHandover = true
	e := NewEngine(config, ledger, events.NoopEmitter{}, nil)

	require.NoError(t, e.ProposeCreator(addr(0xCC), addr(5)))
	require.ErrorIs(t, e.AcceptCreator(addr(6)), errors.ErrNotProposedCreator)
	require.NoError(t, e.AcceptCreator(addr(5)))
	require.Equal(t, addr(5), e.GetConfig().CreatorAddress)
}

func TestPassiveDepositCreditsPot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.PassiveDeposit(big.NewInt(42))
	round := e.CurrentRound()
	require.Equal(t, 0, round.Pot.Cmp(big.NewInt(42)))
}
