// Package remote exposes simulation fields to remote callers over HTTP.
//
// The control endpoint speaks a JSON-RPC 2.0 envelope:
//
//	{"jsonrpc":"2.0","id":1,"method":"simulation.update_field",
//	 "params":{"field_name":"ambient_temp","value":12}}
//
// Tick telemetry is streamed to WebSocket clients by [Hub].
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/solarsim/internal/solar"
)

const Version = "2.0"

const (
	MethodUpdateField = "simulation.update_field"
	MethodGetFields   = "simulation.get_fields"
	MethodGetField    = "simulation.get_field"
	MethodDiscover    = "rpc.discover"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Failure kinds for a field write request.
var (
	ErrEmptyRequest     = errors.New("remote: request was empty")
	ErrMalformedRequest = errors.New("remote: unable to parse request")
)

// Messages reported to JSON-RPC callers, after the method name.
const (
	msgEmptyRequest     = "Request was empty"
	msgMalformedRequest = "Unable to parse request"
	msgUnknownField     = "Unknown field"
	msgReadOnlyField    = "Field is read-only"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// UpdateFieldParams is the payload of simulation.update_field.
type UpdateFieldParams struct {
	FieldName string  `json:"field_name"`
	Value     float32 `json:"value"`
}

type getFieldParams struct {
	FieldName string `json:"field_name"`
}

// FieldAccess is the named-field protocol the endpoint drives. Implementations
// serialize writes against simulation ticks.
type FieldAccess interface {
	Get(name string) (solar.Snapshot, bool)
	Set(name string, v float32) (solar.Change, error)
	Fields() []solar.Snapshot
}

// Methods lists the supported RPC methods.
func Methods() []string {
	return []string{MethodUpdateField, MethodGetFields, MethodGetField, MethodDiscover}
}

func isEmpty(params json.RawMessage) bool {
	trimmed := bytes.TrimSpace(params)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodeUpdateField validates and decodes simulation.update_field params.
func DecodeUpdateField(params json.RawMessage) (UpdateFieldParams, error) {
	if isEmpty(params) {
		return UpdateFieldParams{}, ErrEmptyRequest
	}
	var raw struct {
		FieldName *string  `json:"field_name"`
		Value     *float32 `json:"value"`
	}
	if err := json.Unmarshal(params, &raw); err != nil {
		return UpdateFieldParams{}, ErrMalformedRequest
	}
	if raw.FieldName == nil || raw.Value == nil {
		return UpdateFieldParams{}, ErrMalformedRequest
	}
	return UpdateFieldParams{FieldName: *raw.FieldName, Value: *raw.Value}, nil
}

// UpdateMessage renders the confirmation returned for a successful write.
func UpdateMessage(c solar.Change) string {
	return fmt.Sprintf("Updated SimulationState::%s: %v -> %v", c.Name, c.Old, c.New)
}

func methodError(method string, code int, msg string) *Error {
	return &Error{Code: code, Message: method + ": " + msg}
}

// updateFieldError maps a write failure onto its JSON-RPC error.
func updateFieldError(err error) *Error {
	switch {
	case errors.Is(err, ErrEmptyRequest):
		return methodError(MethodUpdateField, CodeInvalidRequest, msgEmptyRequest)
	case errors.Is(err, ErrMalformedRequest):
		return methodError(MethodUpdateField, CodeParseError, msgMalformedRequest)
	case errors.Is(err, solar.ErrUnknownField):
		return methodError(MethodUpdateField, CodeInternalError, msgUnknownField)
	case errors.Is(err, solar.ErrReadOnlyField):
		return methodError(MethodUpdateField, CodeInvalidParams, msgReadOnlyField)
	default:
		return methodError(MethodUpdateField, CodeInternalError, err.Error())
	}
}

// Dispatcher executes decoded JSON-RPC requests against a FieldAccess.
type Dispatcher struct {
	fields   FieldAccess
	onChange func(solar.Change)
}

func NewDispatcher(fields FieldAccess, onChange func(solar.Change)) *Dispatcher {
	return &Dispatcher{fields: fields, onChange: onChange}
}

// UpdateField applies one write request and returns the resulting change.
func (d *Dispatcher) UpdateField(params json.RawMessage) (solar.Change, error) {
	p, err := DecodeUpdateField(params)
	if err != nil {
		return solar.Change{}, err
	}
	change, err := d.fields.Set(p.FieldName, p.Value)
	if err != nil {
		return solar.Change{}, err
	}
	if d.onChange != nil {
		d.onChange(change)
	}
	return change, nil
}

// Dispatch runs req and builds its response.
func (d *Dispatcher) Dispatch(req Request) Response {
	resp := Response{JSONRPC: Version, ID: req.ID}
	if req.ID == nil {
		resp.ID = json.RawMessage("null")
	}

	switch req.Method {
	case MethodUpdateField:
		change, err := d.UpdateField(req.Params)
		if err != nil {
			resp.Error = updateFieldError(err)
			return resp
		}
		resp.Result = UpdateMessage(change)

	case MethodGetFields:
		resp.Result = d.fields.Fields()

	case MethodGetField:
		if isEmpty(req.Params) {
			resp.Error = methodError(MethodGetField, CodeInvalidRequest, msgEmptyRequest)
			return resp
		}
		var p getFieldParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.FieldName == "" {
			resp.Error = methodError(MethodGetField, CodeParseError, msgMalformedRequest)
			return resp
		}
		f, ok := d.fields.Get(p.FieldName)
		if !ok {
			resp.Error = methodError(MethodGetField, CodeInternalError, msgUnknownField)
			return resp
		}
		resp.Result = f

	case MethodDiscover:
		resp.Result = Methods()

	default:
		resp.Error = &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %q", req.Method)}
	}
	return resp
}
