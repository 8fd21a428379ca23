package hotpotato

import (
	"math/big"
	"sync"

	"github.com/DenhamPreen/hot-potato/core/errors"
	"github.com/DenhamPreen/hot-potato/core/events"
	"github.com/DenhamPreen/hot-potato/native/common"
)

// Engine is the settlement engine for a single hot-potato contract instance.
// All mutable state lives directly on the struct, following the in-memory
// native-module idiom: callers serialize through mu, and reentrancy (a
// transfer's recipient code calling back into the engine on the same stack)
// is caught separately by guard.
type Engine struct {
	mu    sync.Mutex
	guard common.ReentrancyGuard

	ledger  Ledger
	emit    events.Emitter
	pause   common.PauseView
	persist Persister

	config Config

	// pot is the accounting balance backing payouts; it may differ from
	// ledger.ContractBalance() when a prior transfer attempt failed and left
	// residual value stranded in the contract.
	pot *big.Int

	// currentPrice is the entry price the next Enter call must meet, absent
	// a free 50th-slot take. It escalates after every winning settlement and
	// resets to BaseEntryPrice when a round ends.
	currentPrice *big.Int

	roundID      uint64
	participants [][20]byte
	hasPlayed    map[[20]byte]bool
	paidTotal    *big.Int
	holder       [20]byte
	hasHolder    bool

	pending *Ticket
	sponsor *Sponsor

	// sponsorReserved is the portion of pot earmarked for the incumbent
	// sponsor's refund; it is never itself available for keeper/creator/
	// participant payouts. See AvailablePot.
	sponsorReserved *big.Int

	history map[uint64]*RoundSnapshot

	proposedCreator    [20]byte
	hasProposedCreator bool
}

// NewEngine constructs an Engine. ledger must be non-nil; a nil emit is
// replaced by events.NoopEmitter{}, and pause may be nil if the host does
// not wire a pause gate.
func NewEngine(config Config, ledger Ledger, emit events.Emitter, pause common.PauseView) *Engine {
	if emit == nil {
		emit = events.NoopEmitter{}
	}
	return &Engine{
		ledger:          ledger,
		emit:            emit,
		pause:           pause,
		config:          config.Clone(),
		pot:             big.NewInt(0),
		currentPrice:    cloneBig(config.BaseEntryPrice),
		roundID:         1,
		hasPlayed:       make(map[[20]byte]bool),
		paidTotal:       big.NewInt(0),
		sponsorReserved: big.NewInt(0),
		history:         make(map[uint64]*RoundSnapshot),
	}
}

// enter acquires the host-level serialization lock and the reentrancy guard
// together; every exported state-mutating operation opens its critical
// section with this and the returned unlock func.
func (e *Engine) enter() (func(), error) {
	e.mu.Lock()
	if err := e.guard.Enter(); err != nil {
		e.mu.Unlock()
		return nil, errors.ErrReentrancyDetected
	}
	return func() {
		e.guard.Exit()
		e.mu.Unlock()
	}, nil
}

func (e *Engine) guardPause(module string) error {
	if e.pause == nil {
		return nil
	}
	return common.Guard(e.pause, module)
}

// SetPersister wires (or clears, with nil) the engine's durability hook.
// Typically called once at daemon startup with a state/hotpotato.Store.
func (e *Engine) SetPersister(persist Persister) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persist = persist
}

// SetConfig replaces the engine's configuration wholesale. Callers typically
// use this only for CreatorFee/KeeperReward/price-curve governance changes;
// UpdateCreator is the dedicated path for creator-address rotation.
func (e *Engine) SetConfig(config Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config.Clone()
}

// UpdateCreator rotates the creator address in a single step. The caller must
// already be the current creator.
func (e *Engine) UpdateCreator(caller, newCreator [20]byte) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if caller != e.config.CreatorAddress {
		return errors.ErrNotCreator
	}
	var zero [20]byte
	if newCreator == zero {
		return errors.ErrZeroCreator
	}
	e.config.CreatorAddress = newCreator
	return nil
}

// ProposeCreator begins the optional two-step creator handover: the current
// creator names a successor, who must separately call AcceptCreator. Disabled
// unless Config.TwoStepCreatorHandover is set.
func (e *Engine) ProposeCreator(caller, proposed [20]byte) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if !e.config.TwoStepCreatorHandover {
		return errors.ErrTwoStepHandoverDisabled
	}
	if caller != e.config.CreatorAddress {
		return errors.ErrNotCreator
	}
	var zero [20]byte
	if proposed == zero {
		return errors.ErrZeroCreator
	}
	e.proposedCreator = proposed
	e.hasProposedCreator = true
	return nil
}

// AcceptCreator completes a two-step handover: the proposed successor claims
// the creator role.
func (e *Engine) AcceptCreator(caller [20]byte) error {
	unlock, err := e.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if !e.config.TwoStepCreatorHandover {
		return errors.ErrTwoStepHandoverDisabled
	}
	if !e.hasProposedCreator {
		return errors.ErrNoPendingCreatorProposal
	}
	if caller != e.proposedCreator {
		return errors.ErrNotProposedCreator
	}
	e.config.CreatorAddress = caller
	e.hasProposedCreator = false
	e.proposedCreator = [20]byte{}
	return nil
}
