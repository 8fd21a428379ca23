package rpc

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	hotpotatoerrors "github.com/DenhamPreen/hot-potato/core/errors"
	"github.com/DenhamPreen/hot-potato/crypto"
	"github.com/DenhamPreen/hot-potato/native/common"
	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
)

type enterParams struct {
	Player     string `json:"player"`
	AmountPaid string `json:"amountPaid"`
}

type settleParams struct {
	Caller string `json:"caller"`
}

type sponsorParams struct {
	Caller  string `json:"caller"`
	Amount  string `json:"amount"`
	Message string `json:"message,omitempty"`
}

type updateCreatorParams struct {
	Caller     string `json:"caller"`
	NewCreator string `json:"newCreator"`
}

type proposeCreatorParams struct {
	Caller   string `json:"caller"`
	Proposed string `json:"proposed"`
}

type acceptCreatorParams struct {
	Caller string `json:"caller"`
}

type roundIDParams struct {
	RoundID uint64 `json:"roundId"`
}

type addressParams struct {
	Address string `json:"address"`
}

type eventsParams struct {
	Limit int `json:"limit,omitempty"`
}

type depositParams struct {
	Amount string `json:"amount"`
}

func (s *Server) handleEnter(w http.ResponseWriter, req *RPCRequest) {
	var params enterParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	player, err := decodeAddress(params.Player)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid player address", err.Error())
		return
	}
	amount, err := decodeAmount(params.AmountPaid)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid amountPaid", err.Error())
		return
	}
	if err := s.engine.Enter(player, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleSettle(w http.ResponseWriter, req *RPCRequest) {
	var params settleParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.engine.Settle(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleSponsor(w http.ResponseWriter, req *RPCRequest) {
	var params sponsorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := decodeAmount(params.Amount)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.engine.Sponsor(caller, amount, []byte(params.Message)); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleUpdateCreator(w http.ResponseWriter, req *RPCRequest) {
	var params updateCreatorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newCreator, err := decodeAddress(params.NewCreator)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid newCreator address", err.Error())
		return
	}
	if err := s.engine.UpdateCreator(caller, newCreator); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleProposeCreator(w http.ResponseWriter, req *RPCRequest) {
	var params proposeCreatorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	proposed, err := decodeAddress(params.Proposed)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid proposed address", err.Error())
		return
	}
	if err := s.engine.ProposeCreator(caller, proposed); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleAcceptCreator(w http.ResponseWriter, req *RPCRequest) {
	var params acceptCreatorParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.engine.AcceptCreator(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	amount, err := decodeAmount(params.Amount)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	s.engine.PassiveDeposit(amount)
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleGetRound(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, formatRoundState(s.engine.CurrentRound()))
}

func (s *Server) handleGetConfig(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, formatConfig(s.engine.GetConfig()))
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, req *RPCRequest) {
	var params roundIDParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	if snapshot := s.engine.RoundSnapshot(params.RoundID); snapshot != nil {
		writeResult(w, req.ID, formatRoundSnapshot(snapshot))
		return
	}
	if s.store != nil {
		if snapshot, ok, err := s.store.LoadRoundSnapshot(params.RoundID); err == nil && ok {
			writeResult(w, req.ID, formatRoundSnapshot(snapshot))
			return
		}
	}
	writeError(w, req.ID, codeUnknownRound, "round not finalized or unknown", params.RoundID)
}

func (s *Server) handleHasPlayed(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	player, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	writeResult(w, req.ID, s.engine.HasPlayed(player))
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	if s.recorder == nil {
		writeResult(w, req.ID, []string{})
		return
	}
	var params eventsParams
	if len(req.Params) == 1 {
		if err := singleParam(req, &params); err != nil {
			writeError(w, req.ID, codeInvalidParams, "invalid params", err.Error())
			return
		}
	}
	recent := s.recorder.Recent()
	if params.Limit > 0 && params.Limit < len(recent) {
		recent = recent[len(recent)-params.Limit:]
	}
	writeResult(w, req.ID, recent)
}

func decodeAddress(s string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(s)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Bytes20(), nil
}

func decodeAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("amount must be a base-10 integer string")
	}
	if v.Sign() < 0 {
		return nil, errors.New("amount must not be negative")
	}
	return v, nil
}

// writeEngineError maps the engine's typed errors onto the domain RPC code
// block. Best-effort transfer failures never reach here since the engine
// only reports them through diagnostic events.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	var invalidAmount *hotpotatoerrors.InvalidAmountError
	var alreadyPlayed *hotpotatoerrors.AlreadyPlayedError
	switch {
	case errors.Is(err, common.ErrModulePaused):
		writeError(w, id, codeModulePaused, "module paused", nil)
	case errors.Is(err, hotpotatoerrors.ErrReentrancyDetected):
		writeError(w, id, codeReentrancyDetected, "reentrancy detected", nil)
	case errors.Is(err, hotpotatoerrors.ErrPendingAttemptExists):
		writeError(w, id, codePendingAttemptExists, "pending attempt exists", nil)
	case errors.Is(err, hotpotatoerrors.ErrMaxParticipantsReached):
		writeError(w, id, codeMaxParticipants, "max participants reached", nil)
	case errors.Is(err, hotpotatoerrors.ErrNoPendingAttempt):
		writeError(w, id, codeNoPendingAttempt, "no pending attempt", nil)
	case errors.Is(err, hotpotatoerrors.ErrTooSoonToSettle):
		writeError(w, id, codeTooSoonToSettle, "too soon to settle", nil)
	case errors.Is(err, hotpotatoerrors.ErrStaleBlockhash):
		writeError(w, id, codeStaleBlockhash, "stale blockhash", nil)
	case errors.Is(err, hotpotatoerrors.ErrNotCreator):
		writeError(w, id, codeNotCreator, "caller is not the creator", nil)
	case errors.Is(err, hotpotatoerrors.ErrZeroCreator):
		writeError(w, id, codeZeroCreator, "creator address must not be zero", nil)
	case errors.Is(err, hotpotatoerrors.ErrMessageTooLong):
		writeError(w, id, codeMessageTooLong, "sponsor message too long", nil)
	case errors.Is(err, hotpotatoerrors.ErrTwoStepHandoverDisabled):
		writeError(w, id, codeTwoStepDisabled, "two-step creator handover disabled", nil)
	case errors.Is(err, hotpotatoerrors.ErrNoPendingCreatorProposal):
		writeError(w, id, codeNoPendingProposal, "no pending creator proposal", nil)
	case errors.Is(err, hotpotatoerrors.ErrNotProposedCreator):
		writeError(w, id, codeNotProposedCreator, "caller is not the proposed creator", nil)
	case errors.As(err, &invalidAmount):
		writeError(w, id, codeInvalidAmount, invalidAmount.Error(), map[string]string{
			"provided": invalidAmount.Provided.String(),
			"expected": invalidAmount.Expected.String(),
		})
	case errors.As(err, &alreadyPlayed):
		writeError(w, id, codeAlreadyPlayed, alreadyPlayed.Error(), strconv.FormatUint(alreadyPlayed.RoundID, 10))
	default:
		writeError(w, id, codeInternal, "internal error", err.Error())
	}
}

func formatRoundState(round nativehotpotato.RoundState) map[string]interface{} {
	participants := make([]string, len(round.Participants))
	for i, p := range round.Participants {
		participants[i] = crypto.AddressFromBytes20(p).String()
	}
	out := map[string]interface{}{
		"roundId":         round.RoundID,
		"participants":    participants,
		"hasHolder":       round.HasHolder,
		"currentPrice":    bigString(round.CurrentPrice),
		"pot":             bigString(round.Pot),
		"paidTotal":       bigString(round.PaidTotal),
		"sponsorReserved": bigString(round.SponsorReserved),
	}
	if round.HasHolder {
		out["holder"] = crypto.AddressFromBytes20(round.Holder).String()
	}
	if round.Pending != nil {
		out["pending"] = map[string]interface{}{
			"player":           crypto.AddressFromBytes20(round.Pending.Player).String(),
			"amountPaid":       bigString(round.Pending.AmountPaid),
			"takeBlockNumber":  round.Pending.TakeBlockNumber,
			"createdInRoundId": round.Pending.CreatedInRoundID,
		}
	}
	if round.Sponsor != nil {
		out["sponsor"] = formatSponsor(round.Sponsor)
	}
	return out
}

func formatSponsor(sponsor *nativehotpotato.Sponsor) map[string]interface{} {
	return map[string]interface{}{
		"address": crypto.AddressFromBytes20(sponsor.Address).String(),
		"amount":  bigString(sponsor.Amount),
		"message": string(sponsor.Message),
	}
}

func formatConfig(cfg nativehotpotato.Config) map[string]interface{} {
	return map[string]interface{}{
		"baseEntryPrice":         bigString(cfg.BaseEntryPrice),
		"priceMultiplierBps":     cfg.PriceMultiplierBps,
		"keeperReward":           bigString(cfg.KeeperReward),
		"creatorFee":             bigString(cfg.CreatorFee),
		"creatorAddress":         crypto.AddressFromBytes20(cfg.CreatorAddress).String(),
		"twoStepCreatorHandover": cfg.TwoStepCreatorHandover,
	}
}

func formatRoundSnapshot(snapshot *nativehotpotato.RoundSnapshot) map[string]interface{} {
	participants := make([]string, len(snapshot.Participants))
	for i, p := range snapshot.Participants {
		participants[i] = crypto.AddressFromBytes20(p).String()
	}
	out := map[string]interface{}{
		"roundId":      snapshot.RoundID,
		"participants": participants,
		"paidTotal":    bigString(snapshot.PaidTotal),
		"potAfter":     bigString(snapshot.PotAfter),
	}
	if snapshot.FinalSponsor != nil {
		out["finalSponsor"] = formatSponsor(snapshot.FinalSponsor)
	}
	return out
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
