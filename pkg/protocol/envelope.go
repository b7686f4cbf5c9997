// ABOUTME: Envelope handling for inbound responses and outbound requests
// ABOUTME: Peeks response/seq_num/message with gjson and stamps command/seq_num with sjson

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Response tags.
const (
	ResponseOK                = "ok"
	ResponseError             = "error"
	ResponseAllMessages       = "all_messages"
	ResponseAdditionalMessage = "additional_message" // Lean < 3.1.1
	ResponseCurrentTasks      = "current_tasks"
)

const seqNumField = "seq_num"

var errNotObject = errors.New("request must encode to a JSON object")

// Response is an inbound message with its envelope fields parsed.
// Raw holds the message exactly as received.
type Response struct {
	Kind      string
	SeqNum    int64
	HasSeqNum bool
	Message   string
	Raw       json.RawMessage
}

// ParseResponse reads the envelope fields of raw without decoding the payload.
func ParseResponse(raw json.RawMessage) *Response {
	fields := gjson.GetManyBytes(raw, "response", seqNumField, "message")
	r := &Response{Raw: raw}
	if fields[0].Type == gjson.String {
		r.Kind = fields[0].Str
	}
	if fields[1].Type == gjson.Number {
		r.SeqNum = fields[1].Int()
		r.HasSeqNum = true
	}
	if fields[2].Type == gjson.String {
		r.Message = fields[2].Str
	}
	return r
}

// SeqNumOf returns the seq_num carried by raw, if any.
func SeqNumOf(raw []byte) (int64, bool) {
	v := gjson.GetBytes(raw, seqNumField)
	if v.Type != gjson.Number {
		return 0, false
	}
	return v.Int(), true
}

// HasSeqNum reports whether raw carries a seq_num.
func HasSeqNum(raw []byte) bool {
	_, ok := SeqNumOf(raw)
	return ok
}

// WithSeqNum returns a copy of raw with seq_num set.
func WithSeqNum(raw []byte, seqNum int64) ([]byte, error) {
	out, err := sjson.SetBytes(append([]byte(nil), raw...), seqNumField, seqNum)
	if err != nil {
		return nil, fmt.Errorf("setting seq_num: %w", err)
	}
	return out, nil
}

// WithoutSeqNum returns a copy of raw with seq_num removed.
func WithoutSeqNum(raw []byte) ([]byte, error) {
	out, err := sjson.DeleteBytes(append([]byte(nil), raw...), seqNumField)
	if err != nil {
		return nil, fmt.Errorf("removing seq_num: %w", err)
	}
	return out, nil
}

// Encode renders req as a wire object with its command name and seqNum.
func Encode(req Request, seqNum int64) (json.RawMessage, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", req.CommandName(), err)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, errNotObject
	}
	if !gjson.GetBytes(raw, "command").Exists() {
		raw, err = sjson.SetBytes(raw, "command", req.CommandName())
		if err != nil {
			return nil, fmt.Errorf("setting command: %w", err)
		}
	}
	raw, err = sjson.SetBytes(raw, seqNumField, seqNum)
	if err != nil {
		return nil, fmt.Errorf("setting seq_num: %w", err)
	}
	return raw, nil
}

// RawRequest is a pre-encoded request object. Any seq_num it carries is
// replaced when it is sent.
type RawRequest json.RawMessage

// CommandName returns the request's command field.
func (r RawRequest) CommandName() string {
	return gjson.GetBytes(r, "command").String()
}

// MarshalJSON returns r unchanged.
func (r RawRequest) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// ErrorResponse builds an "error" response. seqNum is included only when hasSeqNum.
func ErrorResponse(message string, seqNum int64, hasSeqNum bool) json.RawMessage {
	msg := struct {
		Response string `json:"response"`
		Message  string `json:"message"`
		SeqNum   *int64 `json:"seq_num,omitempty"`
	}{Response: ResponseError, Message: message}
	if hasSeqNum {
		msg.SeqNum = &seqNum
	}
	raw, _ := json.Marshal(msg)
	return raw
}

// Decode unmarshals the payload of an "ok" response into T.
func Decode[T any](r *Response) (*T, error) {
	var out T
	if err := json.Unmarshal(r.Raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", r.Kind, err)
	}
	return &out, nil
}
