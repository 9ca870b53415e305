// Package mcp exposes the suggestion pipeline as Model Context Protocol tools
// over JSON-RPC, either on POST /mcp or on stdio.
package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"domainsuggest/internal/auth"
	"domainsuggest/internal/config"
	"domainsuggest/internal/domains"
	"domainsuggest/internal/suggest"
)

const recentEvaluationsLimit = 20

// Backend is what the tools and resources run against.
type Backend interface {
	Suggest(ctx context.Context, req suggest.Request) suggest.Response
	Evaluate(ctx context.Context, args EvaluateArgs) (any, error)
	CheckAvailability(ctx context.Context, names []string) []domains.Availability
	RecentEvaluations(ctx context.Context, limit int) (any, error)
	Evaluation(ctx context.Context, id string) (any, error)
}

type Server struct {
	Config  config.Config
	Auth    *auth.Service
	Backend Backend
	Logger  *slog.Logger
	Now     func() time.Time

	schemas  map[string]*jsonschema.Schema
	mu       sync.Mutex
	sessions map[string]time.Time
}

// rpcError carries a JSON-RPC error code through dispatch.
type rpcError struct {
	code    int
	message string
	data    any
}

func (e *rpcError) Error() string { return e.message }

func NewServer(cfg config.Config, backend Backend, authSvc *auth.Service) (*Server, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Server{
		Config:   cfg,
		Auth:     authSvc,
		Backend:  backend,
		Logger:   slog.Default(),
		Now:      time.Now,
		schemas:  schemas,
		sessions: make(map[string]time.Time),
	}, nil
}

func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.validateOrigin(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	ctx := r.Context()
	principal := auth.Principal{Subject: "anonymous", Scopes: []string{"*"}, AuthMethod: "anonymous"}
	if s.Auth != nil {
		authenticated, err := s.Auth.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="domainsuggest"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		principal = authenticated
	}
	ctx = auth.WithPrincipal(ctx, principal)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", Error: &ResponseError{Code: codeParseError, Message: "invalid json"}})
		return
	}
	if s.Auth != nil {
		if err := s.Auth.ValidateScopes(principal, s.requiredScope(req)); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}
	sessionID := r.Header.Get("MCP-Session-Id")
	if req.Method != "initialize" && !s.isSessionValid(sessionID) {
		writeError(w, req.ID, codeServerError, "missing or invalid MCP-Session-Id")
		return
	}
	if strings.HasPrefix(req.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	result, err := s.dispatch(ctx, req)
	if err != nil {
		writeDispatchError(w, req.ID, err)
		return
	}
	if req.Method == "initialize" {
		if sessionID == "" || !s.isSessionValid(sessionID) {
			sessionID = s.newSession()
		}
		w.Header().Set("MCP-Session-Id", sessionID)
	}
	w.Header().Set("MCP-Protocol-Version", s.Config.MCP.ProtocolVersion)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": s.Config.MCP.ProtocolVersion,
			"serverInfo": map[string]any{
				"name":    "domainsuggestd",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
		}, nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return ListTools(), nil
	case "tools/call":
		return s.callTool(ctx, req)
	case "resources/list":
		return ListResources(), nil
	case "resources/read":
		return s.readResource(ctx, req)
	default:
		return nil, &rpcError{code: codeMethodNotFound, message: "unknown method: " + req.Method}
	}
}

func (s *Server) callTool(ctx context.Context, req Request) (any, error) {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	t, ok := lookupTool(params.Name)
	if !ok {
		return nil, &rpcError{code: codeInvalidParams, message: "unknown tool: " + params.Name}
	}
	if err := validateArguments(s.schemas[t.Name], params.Arguments); err != nil {
		return nil, &rpcError{code: codeInvalidParams, message: "invalid arguments for " + t.Name, data: err.Error()}
	}
	if principal, ok := auth.PrincipalFromContext(ctx); ok && s.Auth != nil {
		if err := s.Auth.ValidateScopes(principal, t.Scope); err != nil {
			return nil, &rpcError{code: codeServerError, message: "forbidden"}
		}
	}

	start := s.Now()
	result, err := s.execute(ctx, t.Name, params.Arguments)
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mcp tool call",
		"tool", t.Name,
		"inputs_sha256", hashJSON(params.Arguments),
		"latency_ms", s.Now().Sub(start).Milliseconds(),
		"error", err != nil,
	)
	if err != nil {
		return toolResult(map[string]any{"error": err.Error()}, true), nil
	}
	return result, nil
}

func (s *Server) execute(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	switch name {
	case "suggest_domains":
		var args SuggestArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		resp := s.Backend.Suggest(ctx, suggest.Request{
			BusinessDescription: args.BusinessDescription,
			Parameters: &suggest.Parameters{
				Temperature:  args.Temperature,
				MaxNewTokens: args.MaxNewTokens,
				MinP:         args.MinP,
			},
		})
		return toolResult(resp, resp.Status == suggest.StatusError), nil
	case "evaluate_domains":
		var args EvaluateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		out, err := s.Backend.Evaluate(ctx, args)
		if err != nil {
			return nil, err
		}
		return toolResult(out, false), nil
	case "check_availability":
		var args AvailabilityArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		return toolResult(map[string]any{"results": s.Backend.CheckAvailability(ctx, args.Domains)}, false), nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) readResource(ctx context.Context, req Request) (any, error) {
	var params ResourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, err
	}
	var (
		value any
		err   error
	)
	switch {
	case params.URI == "evaluations://recent":
		value, err = s.Backend.RecentEvaluations(ctx, recentEvaluationsLimit)
	case strings.HasPrefix(params.URI, "evaluations://"):
		value, err = s.Backend.Evaluation(ctx, strings.TrimPrefix(params.URI, "evaluations://"))
	default:
		return nil, &rpcError{code: codeInvalidParams, message: "resource not found: " + params.URI}
	}
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"contents": []map[string]any{{
			"uri":      params.URI,
			"mimeType": "application/json",
			"text":     string(data),
		}},
	}, nil
}

func (s *Server) validateOrigin(r *http.Request) error {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.MCP.AllowOrigins) == 0 {
		return nil
	}
	for _, allowed := range s.Config.MCP.AllowOrigins {
		if origin == allowed {
			return nil
		}
	}
	return errors.New("origin not allowed")
}

// requiredScope is the scope checked before dispatch. Tool calls are checked
// again against the scope of the named tool.
func (s *Server) requiredScope(req Request) string {
	switch req.Method {
	case "resources/list", "resources/read":
		return auth.ScopeEvaluate
	case "tools/call":
		var params ToolCallParams
		if err := decodeParams(req.Params, &params); err == nil {
			if t, ok := lookupTool(params.Name); ok {
				return t.Scope
			}
		}
		return auth.ScopeSuggest
	default:
		return auth.ScopeSuggest
	}
}

func (s *Server) newSession() string {
	sessionID := uuid.NewString()
	now := s.Now()
	s.mu.Lock()
	for id, expiry := range s.sessions {
		if !now.Before(expiry) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sessionID] = now.Add(s.Config.MCP.SessionTTL)
	s.mu.Unlock()
	return sessionID
}

func (s *Server) isSessionValid(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	expiry, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.Now().Before(expiry)
}

func hashJSON(raw json.RawMessage) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum[:])
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return &rpcError{code: codeInvalidParams, message: "missing params"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &rpcError{code: codeInvalidParams, message: err.Error()}
	}
	return nil
}

func errorObject(err error) *ResponseError {
	var rpcErr *rpcError
	if errors.As(err, &rpcErr) {
		return &ResponseError{Code: rpcErr.code, Message: rpcErr.message, Data: rpcErr.data}
	}
	return &ResponseError{Code: codeServerError, Message: err.Error()}
}

func writeDispatchError(w http.ResponseWriter, id any, err error) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: id, Error: errorObject(err)})
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	writeDispatchError(w, id, &rpcError{code: code, message: message})
}
