package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// HandlerFunc serves one JSON-RPC method: it receives the raw params
// and returns a result or a wire error.
type HandlerFunc func(params json.RawMessage) (any, *Error)

// Handler routes intent-engine methods (intent.run, history.get, ...)
// to their registered implementations.
type Handler struct {
	mu     sync.RWMutex
	routes map[string]HandlerFunc
	logger *zap.Logger
}

// NewHandler creates a handler with no routes. A nil logger disables
// logging.
func NewHandler(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		routes: make(map[string]HandlerFunc),
		logger: logger,
	}
}

// Register binds a method name to its implementation, replacing any
// earlier binding.
func (h *Handler) Register(method string, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes[method] = fn
}

// Handle dispatches a single request. Version mismatches and unknown
// methods come back as wire errors, never as Go errors.
func (h *Handler) Handle(req Request) Response {
	if req.JSONRPC != "2.0" {
		return NewErrorResponse(req.ID, CodeInvalidRequest, "invalid jsonrpc version", nil)
	}

	h.mu.RLock()
	fn, ok := h.routes[req.Method]
	h.mu.RUnlock()

	if !ok {
		h.logger.Warn("unknown method requested", zap.String("method", req.Method))
		return NewErrorResponse(req.ID, CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method), nil)
	}

	h.logger.Debug("dispatching method", zap.String("method", req.Method))

	result, rpcErr := fn(req.Params)
	if rpcErr != nil {
		h.logger.Debug("method returned error",
			zap.String("method", req.Method),
			zap.Int("code", rpcErr.Code),
			zap.String("message", rpcErr.Message))
		return Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   rpcErr,
		}
	}

	return NewResponse(req.ID, result)
}

// HandleRaw decodes one request from raw bytes and dispatches it. A
// decode failure is a parse error addressed to no request in
// particular.
func (h *Handler) HandleRaw(data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return NewErrorResponse(nil, CodeParseError, "parse error: "+err.Error(), nil)
	}
	return h.Handle(req)
}

// Methods returns the registered method names, sorted.
func (h *Handler) Methods() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	methods := make([]string, 0, len(h.routes))
	for m := range h.routes {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// ParseParams unmarshals method params into a typed struct. Absent or
// null params yield the zero value.
func ParseParams[T any](params json.RawMessage) (T, *Error) {
	var p T
	if len(params) == 0 || string(params) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return p, &Error{
			Code:    CodeInvalidParams,
			Message: fmt.Sprintf("invalid params: %v", err),
		}
	}
	return p, nil
}
