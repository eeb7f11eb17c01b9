package protocol

import "encoding/json"

// JSON-RPC 2.0 message types for agent mode communication.

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"` // string or int; nil for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application-specific error codes.
const (
	CodeIntentInvalid   = -32000
	CodeRunFailed       = -32001
	CodeHistoryDisabled = -32002
	CodeNotFound        = -32003
)

// Method constants for all supported JSON-RPC methods.
const (
	// Intent execution.
	MethodIntentRun      = "intent.run"
	MethodIntentValidate = "intent.validate"

	// Check backend discovery.
	MethodChecksList = "checks.list"

	// Execution history.
	MethodHistoryList = "history.list"
	MethodHistoryGet  = "history.get"
)

// NewResponse creates a successful response.
func NewResponse(id any, result any) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id any, code int, message string, data any) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// Parameter types for the supported methods.

// IntentRunParams holds parameters for the "intent.run" method.
// Exactly one of Path and Source must be set; Source carries an
// inline YAML definition.
type IntentRunParams struct {
	Path   string            `json:"path,omitempty"`
	Source string            `json:"source,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// IntentValidateParams holds parameters for "intent.validate". Same
// path/source rules as IntentRunParams.
type IntentValidateParams struct {
	Path   string            `json:"path,omitempty"`
	Source string            `json:"source,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// HistoryListParams holds parameters for "history.list".
type HistoryListParams struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryGetParams holds parameters for "history.get".
type HistoryGetParams struct {
	IntentID string `json:"intent_id"`
}

// RunOutput is the result of "intent.run".
type RunOutput struct {
	IntentID      string       `json:"intent_id"`
	Goal          string       `json:"goal"`
	Success       bool         `json:"success"`
	Status        string       `json:"status"`
	FailedStep    string       `json:"failed_step,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Duration      string       `json:"duration"`
	Steps         []StepOutput `json:"steps"`
}

// StepOutput describes one step in a run result.
type StepOutput struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidateOutput is the result of "intent.validate".
type ValidateOutput struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError reports one validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CheckInfo describes a check backend in the checks.list response.
type CheckInfo struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}
