// ABOUTME: Push notification payloads: diagnostics and progress snapshots
// ABOUTME: Promoted to named types for easyjson codegen (zero-reflection decoding on the hot path)

//go:generate easyjson -all broadcast.go

package protocol

import (
	"encoding/json"

	"github.com/mailru/easyjson"
)

// Severity of a diagnostic message.
type Severity string

const (
	SeverityInformation Severity = "information"
	SeverityWarning     Severity = "warning"
	SeverityError       Severity = "error"
)

// Message is one diagnostic reported by the server.
type Message struct {
	FileName   string            `json:"file_name"`
	PosLine    int               `json:"pos_line"`
	PosCol     int               `json:"pos_col"`
	EndPosLine *int              `json:"end_pos_line,omitempty"`
	EndPosCol  *int              `json:"end_pos_col,omitempty"`
	Severity   Severity          `json:"severity"`
	Caption    string            `json:"caption"`
	Text       string            `json:"text"`
	Widget     *WidgetIdentifier `json:"widget,omitempty"`
}

// AllMessagesResponse carries the full current diagnostic set for all files.
type AllMessagesResponse struct {
	Response string    `json:"response"`
	Msgs     []Message `json:"msgs"`
}

// AdditionalMessageResponse carries one incremental diagnostic. Lean < 3.1.1 only.
type AdditionalMessageResponse struct {
	Response string  `json:"response"`
	Msg      Message `json:"msg"`
}

// Task is one unit of work the server is processing.
type Task struct {
	FileName   string `json:"file_name"`
	PosLine    int    `json:"pos_line"`
	PosCol     int    `json:"pos_col"`
	EndPosLine int    `json:"end_pos_line"`
	EndPosCol  int    `json:"end_pos_col"`
	Desc       string `json:"desc"`
}

// CurrentTasksResponse is a full progress snapshot. Raw holds the message as
// received so listeners can observe it verbatim.
type CurrentTasksResponse struct {
	Response  string          `json:"response"`
	IsRunning bool            `json:"is_running"`
	CurTask   *Task           `json:"cur_task,omitempty"`
	Tasks     []Task          `json:"tasks"`
	Raw       json.RawMessage `json:"-"`
}

// DecodeAllMessages decodes an all_messages payload.
func DecodeAllMessages(raw []byte) (*AllMessagesResponse, error) {
	var out AllMessagesResponse
	if err := easyjson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeAdditionalMessage decodes an additional_message payload.
func DecodeAdditionalMessage(raw []byte) (*AdditionalMessageResponse, error) {
	var out AdditionalMessageResponse
	if err := easyjson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeCurrentTasks decodes a current_tasks payload and keeps raw alongside.
func DecodeCurrentTasks(raw []byte) (*CurrentTasksResponse, error) {
	var out CurrentTasksResponse
	if err := easyjson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}
