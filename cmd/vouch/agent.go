package main

import (
	"bufio"
	gocontext "context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cgast/vouch/pkg/intent"
	"github.com/cgast/vouch/pkg/intentfile"
	"github.com/cgast/vouch/pkg/protocol"
)

// runAgentMode starts the JSON-RPC loop on stdin/stdout. One request
// per line in, one response per line out.
func (a *app) runAgentMode() {
	handler := protocol.NewHandler(a.logger)
	a.registerMethods(handler)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024) // 1MB max line

	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := handler.HandleRaw([]byte(line))
		if err := encoder.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding response: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "stdin read error: %v\n", err)
	}
}

func (a *app) registerMethods(h *protocol.Handler) {
	// intent.run
	h.Register(protocol.MethodIntentRun, func(params json.RawMessage) (any, *protocol.Error) {
		p, perr := protocol.ParseParams[protocol.IntentRunParams](params)
		if perr != nil {
			return nil, perr
		}
		def, derr := loadDefinition(p.Path, p.Source, p.Params)
		if derr != nil {
			return nil, derr
		}
		if vr := intentfile.Validate(def); !vr.Valid() {
			return nil, &protocol.Error{
				Code:    protocol.CodeIntentInvalid,
				Message: "intent validation failed",
				Data:    fieldErrors(vr),
			}
		}

		applyEngineDefaults(&def, a.cfg.Engine)

		in, err := intentfile.Build(def,
			intent.WithRunner(a.runner),
			intent.WithLogger(a.logger),
			intent.WithSink(a.sink()),
		)
		if err != nil {
			return nil, &protocol.Error{Code: protocol.CodeIntentInvalid, Message: err.Error()}
		}

		res := in.Execute(gocontext.Background())
		a.recordRun(res)

		out := runOutput(res)
		if !res.Success {
			return nil, &protocol.Error{
				Code:    protocol.CodeRunFailed,
				Message: res.FailureReason,
				Data:    out,
			}
		}
		return out, nil
	})

	// intent.validate
	h.Register(protocol.MethodIntentValidate, func(params json.RawMessage) (any, *protocol.Error) {
		p, perr := protocol.ParseParams[protocol.IntentValidateParams](params)
		if perr != nil {
			return nil, perr
		}
		def, derr := loadDefinition(p.Path, p.Source, p.Params)
		if derr != nil {
			return nil, derr
		}

		vr := intentfile.Validate(def)
		return protocol.ValidateOutput{
			Valid:  vr.Valid(),
			Errors: fieldErrors(vr),
		}, nil
	})

	// checks.list
	h.Register(protocol.MethodChecksList, func(params json.RawMessage) (any, *protocol.Error) {
		return []protocol.CheckInfo{
			{Kind: "command", Description: "run a shell command and match its output"},
			{Kind: "predicate", Description: "call a Go predicate function (programmatic API only)"},
			{Kind: "file", Description: "assert existence, content, size or mtime of a path"},
			{Kind: "state", Description: "compare a stored snapshot against an expected value"},
			{Kind: "state_diff", Description: "assert two stored snapshots are identical"},
			{Kind: "github", Description: "fetch a repository field from the GitHub API"},
		}, nil
	})

	// history.list
	h.Register(protocol.MethodHistoryList, func(params json.RawMessage) (any, *protocol.Error) {
		if a.hist == nil {
			return nil, &protocol.Error{Code: protocol.CodeHistoryDisabled, Message: "history persistence is disabled"}
		}
		p, perr := protocol.ParseParams[protocol.HistoryListParams](params)
		if perr != nil {
			return nil, perr
		}
		limit := p.Limit
		if limit <= 0 {
			limit = 20
		}
		summaries, err := a.hist.List(limit)
		if err != nil {
			return nil, &protocol.Error{Code: protocol.CodeInternalError, Message: err.Error()}
		}
		return summaries, nil
	})

	// history.get
	h.Register(protocol.MethodHistoryGet, func(params json.RawMessage) (any, *protocol.Error) {
		if a.hist == nil {
			return nil, &protocol.Error{Code: protocol.CodeHistoryDisabled, Message: "history persistence is disabled"}
		}
		p, perr := protocol.ParseParams[protocol.HistoryGetParams](params)
		if perr != nil {
			return nil, perr
		}
		if p.IntentID == "" {
			return nil, &protocol.Error{Code: protocol.CodeInvalidParams, Message: "intent_id is required"}
		}
		res, err := a.hist.Get(p.IntentID)
		if err != nil {
			return nil, &protocol.Error{Code: protocol.CodeNotFound, Message: err.Error()}
		}
		return res, nil
	})
}

// loadDefinition resolves a definition from a file path or an inline
// YAML source. Exactly one of the two must be given.
func loadDefinition(path, source string, params map[string]string) (intentfile.Definition, *protocol.Error) {
	switch {
	case path != "" && source != "":
		return intentfile.Definition{}, &protocol.Error{
			Code: protocol.CodeInvalidParams, Message: "path and source are mutually exclusive"}
	case path != "":
		def, err := intentfile.Load(path, params)
		if err != nil {
			return def, &protocol.Error{Code: protocol.CodeIntentInvalid, Message: err.Error()}
		}
		return def, nil
	case source != "":
		def, err := intentfile.Parse([]byte(source), params)
		if err != nil {
			return def, &protocol.Error{Code: protocol.CodeIntentInvalid, Message: err.Error()}
		}
		return def, nil
	default:
		return intentfile.Definition{}, &protocol.Error{
			Code: protocol.CodeInvalidParams, Message: "path or source is required"}
	}
}

// runOutput flattens an execution result into the wire shape.
func runOutput(res *intent.ExecutionResult) protocol.RunOutput {
	steps := make([]protocol.StepOutput, len(res.Steps))
	for i, s := range res.Steps {
		out := protocol.StepOutput{
			Name:   s.Name,
			Status: string(s.Status),
		}
		if s.Duration > 0 {
			out.Duration = s.Duration.String()
		}
		if s.Result != nil {
			out.Message = s.Result.Message
		}
		steps[i] = out
	}

	return protocol.RunOutput{
		IntentID:      res.IntentID,
		Goal:          res.Goal,
		Success:       res.Success,
		Status:        string(res.Status),
		FailedStep:    res.FailedStep,
		FailureReason: res.FailureReason,
		Duration:      res.Duration.String(),
		Steps:         steps,
	}
}

// fieldErrors converts validation errors into wire form.
func fieldErrors(vr intentfile.ValidationResult) []protocol.FieldError {
	if len(vr.Errors) == 0 {
		return nil
	}
	out := make([]protocol.FieldError, len(vr.Errors))
	for i, e := range vr.Errors {
		out[i] = protocol.FieldError{Field: e.Field, Message: e.Message}
	}
	return out
}
