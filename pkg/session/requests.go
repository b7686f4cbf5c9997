// ABOUTME: Typed request helpers: one method per server command, decoding the ok payload
// ABOUTME: Each blocks until the response arrives, the session is disposed, or ctx ends

package session

import (
	"context"

	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

// Send issues req and waits for its response.
func (s *Session) Send(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	return s.Go(req).Await(ctx)
}

func call[T any](ctx context.Context, s *Session, req protocol.Request) (*T, error) {
	resp, err := s.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return protocol.Decode[T](resp)
}

// Sync replaces the content of file on the server.
func (s *Session) Sync(ctx context.Context, file, content string) (*protocol.CommandResponse, error) {
	return call[protocol.CommandResponse](ctx, s, &protocol.SyncRequest{FileName: file, Content: content})
}

// Info returns hover information at a position.
func (s *Session) Info(ctx context.Context, file string, line, column int) (*protocol.InfoResponse, error) {
	return call[protocol.InfoResponse](ctx, s, &protocol.InfoRequest{FileName: file, Line: line, Column: column})
}

// Complete returns completions at a position.
func (s *Session) Complete(ctx context.Context, file string, line, column int, skipCompletions bool) (*protocol.CompleteResponse, error) {
	return call[protocol.CompleteResponse](ctx, s, &protocol.CompleteRequest{
		FileName:        file,
		Line:            line,
		Column:          column,
		SkipCompletions: skipCompletions,
	})
}

// Search looks up declarations by name.
func (s *Session) Search(ctx context.Context, query string) (*protocol.SearchResponse, error) {
	return call[protocol.SearchResponse](ctx, s, &protocol.SearchRequest{Query: query})
}

// Roi declares the region of interest.
func (s *Session) Roi(ctx context.Context, mode protocol.CheckingMode, files []protocol.FileRoi) (*protocol.CommandResponse, error) {
	if files == nil {
		files = []protocol.FileRoi{}
	}
	return call[protocol.CommandResponse](ctx, s, &protocol.RoiRequest{Mode: mode, Files: files})
}

// HoleCommands lists the commands applicable to the hole at a position.
func (s *Session) HoleCommands(ctx context.Context, file string, line, column int) (*protocol.HoleCommandsResponse, error) {
	return call[protocol.HoleCommandsResponse](ctx, s, &protocol.HoleCommandsRequest{FileName: file, Line: line, Column: column})
}

// AllHoleCommands lists every hole in file.
func (s *Session) AllHoleCommands(ctx context.Context, file string) (*protocol.AllHoleCommandsResponse, error) {
	return call[protocol.AllHoleCommandsResponse](ctx, s, &protocol.AllHoleCommandsRequest{FileName: file})
}

// Hole runs a hole command.
func (s *Session) Hole(ctx context.Context, file string, line, column int, action string) (*protocol.HoleResponse, error) {
	return call[protocol.HoleResponse](ctx, s, &protocol.HoleRequest{FileName: file, Line: line, Column: column, Action: action})
}

// GetWidget fetches a widget.
func (s *Session) GetWidget(ctx context.Context, file string, line, column, id int) (*protocol.GetWidgetResponse, error) {
	return call[protocol.GetWidgetResponse](ctx, s, &protocol.GetWidgetRequest{FileName: file, Line: line, Column: column, ID: id})
}

// WidgetEvent dispatches a widget event.
func (s *Session) WidgetEvent(ctx context.Context, req *protocol.WidgetEventRequest) (*protocol.WidgetEventResponse, error) {
	return call[protocol.WidgetEventResponse](ctx, s, req)
}

// Sleep asks the server to pause briefly.
func (s *Session) Sleep(ctx context.Context) (*protocol.CommandResponse, error) {
	return call[protocol.CommandResponse](ctx, s, &protocol.SleepRequest{})
}

// LongSleep asks the server to pause for longer.
func (s *Session) LongSleep(ctx context.Context) (*protocol.CommandResponse, error) {
	return call[protocol.CommandResponse](ctx, s, &protocol.LongSleepRequest{})
}
