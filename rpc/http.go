package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakevault/core"
	nativecommon "stakevault/native/common"
	"stakevault/native/stake"
	"stakevault/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20
	gaugeBucketScan = 365

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the staking ledger over JSON-RPC. The ledger serializes all
// state access, so every call holds the server mutex.
type Server struct {
	mu        sync.Mutex
	ledger    *core.Ledger
	log       *slog.Logger
	authToken string
	metrics   *metrics.StakeMetrics
}

func NewServer(ledger *core.Ledger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		ledger:    ledger,
		log:       log,
		authToken: strings.TrimSpace(os.Getenv("STAKEVAULT_RPC_TOKEN")),
		metrics:   metrics.Stake(),
	}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint at the root plus
// health and metrics endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = "request body too large"
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return
	}
	if handler.mutating {
		if authErr := s.requireAuth(r); authErr != nil {
			s.metrics.ObserveOperation(req.Method, "unauthorized")
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	s.mu.Lock()
	result, err := handler.fn(req)
	s.mu.Unlock()
	if err != nil {
		code, status := errorCode(err)
		s.metrics.ObserveOperation(req.Method, "error")
		s.log.Warn("rpc call failed", "method", req.Method, "error", err)
		writeError(w, status, req.ID, code, err.Error(), nil)
		return
	}
	s.metrics.ObserveOperation(req.Method, "ok")
	if handler.mutating {
		s.refreshGauges()
	}
	writeResult(w, req.ID, result)
}

// refreshGauges pushes the pool counters after a successful mutation. Gauge
// precision is float64; the counters themselves stay exact in state.
func (s *Server) refreshGauges() {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine := s.ledger.Engine()
	if tokens, shares, err := engine.TotalStaked(); err == nil {
		t, _ := new(big.Float).SetInt(tokens).Float64()
		sh, _ := new(big.Float).SetInt(shares).Float64()
		s.metrics.SetPool(t, sh)
	}
	if unfunded, err := engine.Unfunded(0, gaugeBucketScan); err == nil {
		u, _ := new(big.Float).SetInt(unfunded).Float64()
		s.metrics.SetUnfunded(u)
	}
	if unsent, err := s.ledger.State().UnsentStakedTokens(); err == nil {
		u, _ := new(big.Float).SetInt(unsent).Float64()
		s.metrics.SetUnsent(u)
	}
}

type method struct {
	mutating bool
	fn       func(*RPCRequest) (interface{}, error)
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"stake_receive":               {true, s.handleReceive},
		"stake_unbond":                {true, s.handleUnbond},
		"stake_claimUnbond":           {true, s.handleClaimUnbond},
		"stake_claimRewards":          {true, s.handleClaimRewards},
		"stake_stakeRewards":          {true, s.handleStakeRewards},
		"stake_updateConfig":          {true, s.handleUpdateConfig},
		"stake_setDistributors":       {true, s.handleSetDistributors},
		"stake_addDistributors":       {true, s.handleAddDistributors},
		"stake_setDistributorsStatus": {true, s.handleSetDistributorsStatus},
		"stake_exposeBalance":         {true, s.handleExposeBalance},
		"stake_getConfig":             {false, s.handleGetConfig},
		"stake_totalStaked":           {false, s.handleTotalStaked},
		"stake_stakeRate":             {false, s.handleStakeRate},
		"stake_unbonding":             {false, s.handleUnbonding},
		"stake_unfunded":              {false, s.handleUnfunded},
		"stake_staked":                {false, s.handleStaked},
		"stake_distributors":          {false, s.handleDistributors},
		"stake_history":               {false, s.handleHistory},
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

// errorCode maps engine errors onto JSON-RPC error codes: malformed input to
// invalid params, permission failures to unauthorized, everything else to the
// generic server error.
func errorCode(err error) (code, status int) {
	switch {
	case errors.Is(err, stake.ErrInvalidAmount),
		errors.Is(err, stake.ErrNotStakeToken),
		errors.Is(err, stake.ErrNoReceiveType):
		return codeInvalidParams, http.StatusBadRequest
	case errors.Is(err, stake.ErrNotAuthorized),
		errors.Is(err, stake.ErrNotDistributor),
		errors.Is(err, nativecommon.ErrModulePaused):
		return codeUnauthorized, http.StatusForbidden
	default:
		return codeServerError, http.StatusBadRequest
	}
}
