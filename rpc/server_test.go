package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DenhamPreen/hot-potato/core/events"
	"github.com/DenhamPreen/hot-potato/crypto"
	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
)

type testLedger struct {
	block   uint64
	balance *big.Int
}

func (l *testLedger) BlockNumber() uint64         { return l.block }
func (l *testLedger) BlockHash(uint64) [32]byte   { return [32]byte{1} }
func (l *testLedger) ContractBalance() *big.Int   { return new(big.Int).Set(l.balance) }
func (l *testLedger) Transfer(_ [20]byte, amount *big.Int) bool {
	if amount.Cmp(l.balance) > 0 {
		return false
	}
	l.balance = new(big.Int).Sub(l.balance, amount)
	return true
}

func newTestServer(t *testing.T) (http.Handler, *testLedger, string) {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	creator := key.PubKey().Address()

	ledger := &testLedger{block: 10, balance: big.NewInt(0)}
	config := nativehotpotato.Config{
		BaseEntryPrice:     big.NewInt(100),
		PriceMultiplierBps: 11000,
		KeeperReward:       big.NewInt(1),
		CreatorFee:         big.NewInt(5),
		CreatorAddress:     creator.Bytes20(),
	}
	recorder := events.NewRecorder(16)
	engine := nativehotpotato.NewEngine(config, ledger, recorder, nil)

	handler := NewServer(engine, recorder, nil, ServerConfig{RateLimitPerSecond: 1000, RateLimitBurst: 1000})
	return handler, ledger, creator.String()
}

func doRPC(t *testing.T, handler http.Handler, method string, params interface{}) RPCResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  []json.RawMessage{raw},
		"id":      1,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestEnterAndGetRoundRoundTrip(t *testing.T) {
	handler, ledger, _ := newTestServer(t)
	ledger.balance = big.NewInt(100)

	playerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	player := playerKey.PubKey().Address().String()

	resp := doRPC(t, handler, "hotpotato_enter", enterParams{Player: player, AmountPaid: "100"})
	require.Nil(t, resp.Error)

	resp = doRPC(t, handler, "hotpotato_getRound", map[string]string{})
	require.Nil(t, resp.Error)
	round, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(1), round["roundId"])
}

func TestEnterRejectsMalformedAddress(t *testing.T) {
	handler, _, _ := newTestServer(t)
	resp := doRPC(t, handler, "hotpotato_enter", enterParams{Player: "not-an-address", AmountPaid: "100"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	handler, _, _ := newTestServer(t)
	resp := doRPC(t, handler, "hotpotato_bogus", map[string]string{})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestDepositCreditsPotWithoutAffectingLedgerBalance(t *testing.T) {
	handler, ledger, _ := newTestServer(t)

	resp := doRPC(t, handler, "hotpotato_deposit", depositParams{Amount: "25"})
	require.Nil(t, resp.Error)

	resp = doRPC(t, handler, "hotpotato_getRound", map[string]string{})
	require.Nil(t, resp.Error)
	round, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "25", round["pot"])
	require.Equal(t, 0, ledger.balance.Sign())
}

func TestSettleTooSoonReturnsDomainErrorCode(t *testing.T) {
	handler, ledger, _ := newTestServer(t)
	ledger.balance = big.NewInt(100)

	playerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	player := playerKey.PubKey().Address().String()

	resp := doRPC(t, handler, "hotpotato_enter", enterParams{Player: player, AmountPaid: "100"})
	require.Nil(t, resp.Error)

	resp = doRPC(t, handler, "hotpotato_settle", settleParams{Caller: player})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeTooSoonToSettle, resp.Error.Code)
}
