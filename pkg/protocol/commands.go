// ABOUTME: Request payloads and typed "ok" response payloads of the Lean server protocol
// ABOUTME: Each request names its command; seq_num is stamped later by the session

package protocol

import (
	"encoding/json"
	"math"
)

// Command names understood by the Lean server.
const (
	CommandSync            = "sync"
	CommandInfo            = "info"
	CommandComplete        = "complete"
	CommandSearch          = "search"
	CommandRoi             = "roi"
	CommandHoleCommands    = "hole_commands"
	CommandAllHoleCommands = "all_hole_commands"
	CommandHole            = "hole"
	CommandGetWidget       = "get_widget"
	CommandWidgetEvent     = "widget_event"
	CommandSleep           = "sleep"
	CommandLongSleep       = "long_sleep"
)

// Request is implemented by every command payload sent to the server.
type Request interface {
	CommandName() string
}

// SyncRequest replaces the full content of a file.
type SyncRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

func (*SyncRequest) CommandName() string { return CommandSync }

// InfoRequest asks for hover information and goal state at a position.
type InfoRequest struct {
	FileName string `json:"file_name"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func (*InfoRequest) CommandName() string { return CommandInfo }

// CompleteRequest asks for completions of the identifier prefix at a position.
type CompleteRequest struct {
	FileName        string `json:"file_name"`
	Line            int    `json:"line"`
	Column          int    `json:"column"`
	SkipCompletions bool   `json:"skip_completions"`
}

func (*CompleteRequest) CommandName() string { return CommandComplete }

// SearchRequest searches declarations by name. Lean >= 3.1.1.
type SearchRequest struct {
	Query string `json:"query"`
}

func (*SearchRequest) CommandName() string { return CommandSearch }

// CheckingMode selects which parts of the declared files the server checks.
type CheckingMode string

const (
	CheckNothing              CheckingMode = "nothing"
	CheckVisibleLines         CheckingMode = "visible-lines"
	CheckVisibleLinesAndAbove CheckingMode = "visible-lines-and-above"
	CheckVisibleFiles         CheckingMode = "visible-files"
	CheckOpenFiles            CheckingMode = "open-files"
)

// RoiRange is an inclusive line range.
type RoiRange struct {
	BeginLine int `json:"begin_line"`
	EndLine   int `json:"end_line"`
}

// FileRoi is the region of interest within one file.
type FileRoi struct {
	FileName string     `json:"file_name"`
	Ranges   []RoiRange `json:"ranges"`
}

// WholeFile returns a region of interest covering every line of file.
func WholeFile(file string) FileRoi {
	return FileRoi{FileName: file, Ranges: []RoiRange{{BeginLine: 0, EndLine: math.MaxInt32}}}
}

// RoiRequest declares the region of interest.
type RoiRequest struct {
	Mode  CheckingMode `json:"mode"`
	Files []FileRoi    `json:"files"`
}

func (*RoiRequest) CommandName() string { return CommandRoi }

// HoleCommandsRequest lists the hole commands available at a position.
type HoleCommandsRequest struct {
	FileName string `json:"file_name"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func (*HoleCommandsRequest) CommandName() string { return CommandHoleCommands }

// AllHoleCommandsRequest lists every hole of a file with its commands.
type AllHoleCommandsRequest struct {
	FileName string `json:"file_name"`
}

func (*AllHoleCommandsRequest) CommandName() string { return CommandAllHoleCommands }

// HoleRequest runs a hole command.
type HoleRequest struct {
	FileName string `json:"file_name"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Action   string `json:"action"`
}

func (*HoleRequest) CommandName() string { return CommandHole }

// GetWidgetRequest fetches the widget rooted at a component id.
type GetWidgetRequest struct {
	FileName string `json:"file_name"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	ID       int    `json:"id"`
}

func (*GetWidgetRequest) CommandName() string { return CommandGetWidget }

// WidgetEventHandler addresses an event handler inside a widget tree.
type WidgetEventHandler struct {
	H int   `json:"h"`
	R []int `json:"r"`
}

// WidgetEventArgs is {type: "unit"} or {type: "string", value}.
type WidgetEventArgs struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// WidgetEventRequest dispatches a UI event to a widget.
type WidgetEventRequest struct {
	Kind     string             `json:"kind"` // onClick, onMouseEnter, onMouseLeave, onChange
	Handler  WidgetEventHandler `json:"handler"`
	Args     WidgetEventArgs    `json:"args"`
	FileName string             `json:"file_name"`
	Line     int                `json:"line"`
	Column   int                `json:"column"`
	ID       *int               `json:"id,omitempty"`
}

func (*WidgetEventRequest) CommandName() string { return CommandWidgetEvent }

// SleepRequest and LongSleepRequest are used by the demos to let the server settle.
type SleepRequest struct{}

func (*SleepRequest) CommandName() string { return CommandSleep }

type LongSleepRequest struct{}

func (*LongSleepRequest) CommandName() string { return CommandLongSleep }

// --- ok payloads ---

// CommandResponse is the common part of every "ok" response.
type CommandResponse struct {
	Response string `json:"response"`
	SeqNum   int64  `json:"seq_num"`
}

// CompletionCandidate is one completion suggestion.
type CompletionCandidate struct {
	Type         string      `json:"type,omitempty"`
	TacticParams []string    `json:"tactic_params,omitempty"`
	Text         string      `json:"text"`
	Doc          string      `json:"doc,omitempty"`
	Source       *InfoSource `json:"source,omitempty"`
}

// CompleteResponse answers a CompleteRequest.
type CompleteResponse struct {
	CommandResponse
	Prefix      string                `json:"prefix"`
	Completions []CompletionCandidate `json:"completions"`
}

// InfoSource is a declaration location.
type InfoSource struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	File   string `json:"file,omitempty"`
}

// WidgetIdentifier references a widget without necessarily carrying its HTML.
type WidgetIdentifier struct {
	HTML   json.RawMessage `json:"html,omitempty"`
	Line   int             `json:"line"`
	Column int             `json:"column"`
	ID     *int            `json:"id,omitempty"`
}

// InfoRecord is the hover payload.
type InfoRecord struct {
	FullID       string            `json:"full-id,omitempty"`
	Text         string            `json:"text,omitempty"`
	Type         string            `json:"type,omitempty"`
	Doc          string            `json:"doc,omitempty"`
	Source       *InfoSource       `json:"source,omitempty"`
	TacticParams []string          `json:"tactic_params,omitempty"`
	State        string            `json:"state,omitempty"`
	Widget       *WidgetIdentifier `json:"widget,omitempty"`
}

// InfoResponse answers an InfoRequest.
type InfoResponse struct {
	CommandResponse
	Record *InfoRecord `json:"record,omitempty"`
}

// SearchItem is one search hit.
type SearchItem struct {
	Source *InfoSource `json:"source,omitempty"`
	Text   string      `json:"text"`
	Type   string      `json:"type"`
	Doc    string      `json:"doc,omitempty"`
}

// SearchResponse answers a SearchRequest.
type SearchResponse struct {
	CommandResponse
	Results []SearchItem `json:"results"`
}

// Position is a line/column pair.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// HoleCommandAction names a command applicable to a hole.
type HoleCommandAction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HoleCommands describes one hole and its applicable commands.
type HoleCommands struct {
	File    string              `json:"file"`
	Start   Position            `json:"start"`
	End     Position            `json:"end"`
	Results []HoleCommandAction `json:"results"`
}

// HoleCommandsResponse answers a HoleCommandsRequest.
type HoleCommandsResponse struct {
	CommandResponse
	HoleCommands
}

// AllHoleCommandsResponse answers an AllHoleCommandsRequest.
type AllHoleCommandsResponse struct {
	CommandResponse
	Holes []HoleCommands `json:"holes"`
}

// HoleReplacementAlternative is one candidate replacement text.
type HoleReplacementAlternative struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// HoleReplacements is the edit proposed by a hole command.
type HoleReplacements struct {
	File         string                       `json:"file"`
	Start        Position                     `json:"start"`
	End          Position                     `json:"end"`
	Alternatives []HoleReplacementAlternative `json:"alternatives"`
}

// HoleResponse answers a HoleRequest.
type HoleResponse struct {
	CommandResponse
	Replacements *HoleReplacements `json:"replacements,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// WidgetData is a widget together with its rendered HTML tree.
type WidgetData struct {
	WidgetIdentifier
}

// GetWidgetResponse answers a GetWidgetRequest.
type GetWidgetResponse struct {
	CommandResponse
	Widget WidgetData `json:"widget"`
}

// WidgetEffect is a side effect requested by a widget event handler.
// Kind is one of insert_text, reveal_position, highlight_position,
// clear_highlighting, copy_text, custom.
type WidgetEffect struct {
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
}

// WidgetEventRecord is the outcome of a widget event. Status is success,
// edit (Lean 3.15-3.16), invalid_handler or error.
type WidgetEventRecord struct {
	Status  string         `json:"status"`
	Widget  *WidgetData    `json:"widget,omitempty"`
	Effects []WidgetEffect `json:"effects,omitempty"`
	Action  string         `json:"action,omitempty"`
	Message string         `json:"message,omitempty"`
}

// WidgetEventResponse answers a WidgetEventRequest.
type WidgetEventResponse struct {
	CommandResponse
	Record WidgetEventRecord `json:"record"`
}
