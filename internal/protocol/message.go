package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	TypeRequest  = "req"
	TypeResponse = "res"
	TypeEvent    = "event"

	OpTurn  = "turn"
	OpHello = "hello"
)

const (
	CodeBadRequest = "BAD_REQUEST"
	CodeUnknownOp  = "UNKNOWN_OP"
)

type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrPayload     `json:"error,omitempty"`
}

type ErrPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TurnRequest struct {
	Input string `json:"input"`
}

type ActionPayload struct {
	Kind      string `json:"kind"`
	Directive string `json:"directive"`
	Success   bool   `json:"success"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

type TurnResponse struct {
	Kind       string         `json:"kind"`
	Text       string         `json:"text"`
	Exit       bool           `json:"exit"`
	Action     *ActionPayload `json:"action,omitempty"`
	WorkingDir string         `json:"working_dir"`
	Model      string         `json:"model"`
}

type Hello struct {
	SessionID  string `json:"session_id"`
	WorkingDir string `json:"working_dir"`
	Model      string `json:"model"`
}

func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Reply builds the response frame for req.
func Reply(req Message, payload any) Message {
	return Message{ID: req.ID, Type: TypeResponse, Op: req.Op, Payload: MustRaw(payload)}
}

func Fail(req Message, code, msg string) Message {
	return Message{ID: req.ID, Type: TypeResponse, Op: req.Op, Error: &ErrPayload{Code: code, Message: msg}}
}

func MustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
