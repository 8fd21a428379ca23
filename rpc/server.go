package rpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DenhamPreen/hot-potato/core/events"
	nativehotpotato "github.com/DenhamPreen/hot-potato/native/hotpotato"
	statehotpotato "github.com/DenhamPreen/hot-potato/state/hotpotato"
)

const maxRequestBytes = 1 << 16 // 64 KiB; requests are small fixed-shape JSON objects

// ServerConfig controls the HTTP server's rate limiting.
type ServerConfig struct {
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Server dispatches JSON-RPC 2.0 requests against a live Engine.
type Server struct {
	engine   *nativehotpotato.Engine
	recorder *events.Recorder
	store    *statehotpotato.Store
}

// NewServer builds the HTTP handler for the RPC server: one POST /rpc route
// carrying the JSON-RPC 2.0 envelope, /healthz, and a Prometheus /metrics
// route. recorder and store may be nil; their absence only narrows which
// read methods return data.
func NewServer(engine *nativehotpotato.Engine, recorder *events.Recorder, store *statehotpotato.Store, cfg ServerConfig) http.Handler {
	s := &Server{engine: engine, recorder: recorder, store: store}
	limiter := newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(limiter.middleware).Post("/rpc", s.ServeHTTP)

	return otelhttp.NewHandler(r, "hotpotato-rpc")
}

// ServeHTTP decodes a single JSON-RPC 2.0 request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, nil, codeParseError, "failed to read request body", err.Error())
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.dispatchTable()[req.Method]
	if !ok {
		writeError(w, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	handler(w, req)
}

func (s *Server) dispatchTable() map[string]func(http.ResponseWriter, *RPCRequest) {
	return map[string]func(http.ResponseWriter, *RPCRequest){
		"hotpotato_enter":          s.handleEnter,
		"hotpotato_settle":         s.handleSettle,
		"hotpotato_sponsor":        s.handleSponsor,
		"hotpotato_deposit":        s.handleDeposit,
		"hotpotato_updateCreator":  s.handleUpdateCreator,
		"hotpotato_proposeCreator": s.handleProposeCreator,
		"hotpotato_acceptCreator":  s.handleAcceptCreator,
		"hotpotato_getRound":       s.handleGetRound,
		"hotpotato_getConfig":      s.handleGetConfig,
		"hotpotato_getSnapshot":    s.handleGetSnapshot,
		"hotpotato_hasPlayed":      s.handleHasPlayed,
		"hotpotato_getEvents":      s.handleGetEvents,
	}
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message, Data: data}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func singleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errExactlyOneParam
	}
	return json.Unmarshal(req.Params[0], out)
}
