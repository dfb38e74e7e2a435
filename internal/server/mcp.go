package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dshills/postmortem/internal/debugger"
)

// ListCapturesArgs are the arguments of the list_captures tool.
type ListCapturesArgs struct{}

// CaptureArgs select a capture; an empty id selects the newest one.
type CaptureArgs struct {
	CaptureID string `json:"capture_id,omitempty" jsonschema:"Capture id from list_captures. Defaults to the newest capture."`
}

// InspectFrameArgs are the arguments of the inspect_frame tool.
type InspectFrameArgs struct {
	CaptureID string `json:"capture_id,omitempty" jsonschema:"Capture id from list_captures. Defaults to the newest capture."`
	Index     int    `json:"index" jsonschema:"Frame index, 0 is the innermost frame."`
}

// EvaluateArgs are the arguments of the evaluate tool.
type EvaluateArgs struct {
	CaptureID string `json:"capture_id,omitempty" jsonschema:"Capture id from list_captures. Defaults to the newest capture."`
	Index     int    `json:"index" jsonschema:"Frame index, 0 is the innermost frame."`
	Source    string `json:"source" jsonschema:"Lua source evaluated in the frame's REPL session. Frame locals are globals and 'exception' holds type and message."`
}

// NewMCPServer creates an MCP server whose tools read from s's store.
func (s *Server) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "postmortem",
		Version: s.version,
	}, &mcp.ServerOptions{
		Instructions: `Post-mortem debugger for crashed requests.

1. Call list_captures to see recorded failures, newest first.
2. Call capture_report for the text report of one capture.
3. Call inspect_frame with a frame index to see its source and variables.
4. Call evaluate to run code in a frame. State persists per frame, so
   assignments are visible to later evaluations of the same frame.

Frames report has_binding=false when no locals were captured for them;
evaluating there returns "REPL unavailable in this stack frame".`,
	})

	server.AddReceivingMiddleware(s.mcpLogging())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_captures",
		Description: "List recorded captures, newest first, with their backtraces.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListCapturesArgs) (*mcp.CallToolResult, any, error) {
		regs := s.store.List()
		summaries := make([]debugger.Summary, len(regs))
		for i, reg := range regs {
			summaries[i] = reg.Summary()
		}
		return jsonResult(summaries)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "capture_report",
		Description: "Return the plain-text report of a capture: message, failing source and backtrace.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CaptureArgs) (*mcp.CallToolResult, any, error) {
		reg, err := s.resolve(args.CaptureID)
		if err != nil {
			return nil, nil, err
		}
		return textResult(reg.Text()), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_frame",
		Description: "Show one frame of a capture: location, source window and rendered variables.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args InspectFrameArgs) (*mcp.CallToolResult, any, error) {
		reg, err := s.resolve(args.CaptureID)
		if err != nil {
			return nil, nil, err
		}
		detail, err := reg.Inspect(args.Index)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(detail)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate",
		Description: "Evaluate source in a frame's persistent REPL session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EvaluateArgs) (*mcp.CallToolResult, any, error) {
		reg, err := s.resolve(args.CaptureID)
		if err != nil {
			return nil, nil, err
		}
		result, err := reg.Evaluate(args.Index, args.Source)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(result)
	})

	return server
}

func (s *Server) mcpHandler() http.Handler {
	server := s.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// resolve returns the capture with id, or the newest one for "".
func (s *Server) resolve(id string) (*debugger.Registry, error) {
	if id != "" {
		return s.store.Lookup(id)
	}
	reg, ok := s.store.Latest()
	if !ok {
		return nil, fmt.Errorf("%w: no captures recorded", debugger.ErrCaptureNotFound)
	}
	return reg, nil
}

// mcpLogging logs every MCP method call at debug level.
func (s *Server) mcpLogging() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			l := s.logger.WithField("method", method)
			if err != nil {
				l.WithError(err).Warn("mcp call failed after %s", time.Since(start))
			} else {
				l.Debug("mcp call took %s", time.Since(start))
			}
			return result, err
		}
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
