package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kalimcp/internal/config"
	"kalimcp/internal/logging"
	"kalimcp/internal/tactile"
	"kalimcp/internal/tools"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Info    config.ServerConfig
	Mode    config.ExecutionMode
	Timeout time.Duration
	Limits  OutputLimits
}

// Server reads requests line by line, routes them and writes responses.
// Requests are handled strictly one at a time.
type Server struct {
	registry *tools.Registry
	executor tactile.Executor
	opts     ServerOptions

	routing  *zap.Logger
	protocol *zap.Logger
}

// NewServer creates a server over an already discovered registry.
func NewServer(registry *tools.Registry, executor tactile.Executor, opts ServerOptions, loggers *logging.Loggers) *Server {
	if opts.Limits == (OutputLimits{}) {
		opts.Limits = DefaultOutputLimits()
	}
	return &Server{
		registry: registry,
		executor: executor,
		opts:     opts,
		routing:  loggers.Get(logging.CategoryRouting),
		protocol: loggers.Get(logging.CategoryProtocol),
	}
}

// Serve runs the read-dispatch-write loop until r reaches end of stream
// or ctx is canceled. Both are clean exits. Malformed lines are dropped;
// only read and write failures end the loop with an error.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := NewResponseWriter(w)
	lines, readErr := s.readLines(ctx, r)

	s.routing.Info("Serving stdio", zap.Int("tools", s.registry.Count()))
	for {
		select {
		case <-ctx.Done():
			s.routing.Info("Shutting down", zap.Error(ctx.Err()))
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read request: %w", err)
				}
				s.routing.Info("Input closed")
				return nil
			}
			resp := s.HandleLine(ctx, line)
			if resp == nil {
				continue
			}
			if err := out.Write(resp); err != nil {
				s.protocol.Error("Response write failed", zap.Error(err))
				return err
			}
		}
	}
}

// readLines feeds input lines to the loop. The goroutine exits on end of
// stream, on a read error, or when ctx is done while it holds a line.
// A cancel that lands while ReadBytes is blocked leaves it parked until
// r is closed; for stdin that is process exit.
func (s *Server) readLines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					readErr <- nil
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	return lines, readErr
}

// HandleLine processes one input line and returns the response to emit,
// or nil when nothing should be written.
func (s *Server) HandleLine(ctx context.Context, line []byte) *JSONRPCResponse {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	if !json.Valid(line) {
		s.routing.Debug("Dropping unparseable line", zap.Int("bytes", len(line)))
		return nil
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.routing.Warn("Rejecting malformed request", zap.Error(err))
		return NewError(nil, CodeInternalError, err.Error())
	}

	return s.Dispatch(ctx, &req)
}

// Dispatch routes a parsed request. Faults while routing become
// internal-error responses instead of ending the loop.
func (s *Server) Dispatch(ctx context.Context, req *JSONRPCRequest) (resp *JSONRPCResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.routing.Error("Request handler panicked",
				zap.String("method", req.Method),
				zap.Any("panic", r))
			resp = NewError(req.ID, CodeInternalError, fmt.Sprint(r))
		}
	}()

	log := s.routing.With(zap.String("method", req.Method), zap.ByteString("id", req.ID))

	if req.Method == MethodInitialized {
		log.Debug("Client initialized")
		return nil
	}
	if req.IsNotification() {
		log.Debug("Ignoring notification")
		return nil
	}

	log.Debug("Dispatching request")

	switch req.Method {
	case MethodInitialize:
		return NewResult(req.ID, s.initializeResult())

	case MethodToolsList:
		return NewResult(req.ID, s.toolsListResult())

	case MethodToolsCall:
		return s.handleToolsCall(ctx, req, log)

	default:
		log.Debug("Unrecognized method, sending liveness acknowledgment")
		return NewResult(req.ID, TextResult(fmt.Sprintf("Kali MCP Server with %d tools ready", s.registry.Count())))
	}
}

func (s *Server) initializeResult() InitializeResult {
	return InitializeResult{
		ProtocolVersion: s.opts.Info.ProtocolVersion,
		Capabilities:    Capabilities{Tools: ToolsCapability{ListChanged: true}},
		ServerInfo:      ServerInfo{Name: s.opts.Info.Name, Version: s.opts.Info.Version},
	}
}

func (s *Server) toolsListResult() ToolsListResult {
	descriptors := s.registry.All()
	list := make([]MCPTool, 0, len(descriptors))
	for _, d := range descriptors {
		list = append(list, MCPTool{
			Name:        d.Name,
			Description: d.Description(),
			InputSchema: d.Schema(),
		})
	}
	return ToolsListResult{Tools: list}
}

func (s *Server) handleToolsCall(ctx context.Context, req *JSONRPCRequest, log *zap.Logger) *JSONRPCResponse {
	params, err := decodeToolCallParams(req.Params)
	if err != nil {
		log.Warn("Invalid tools/call params", zap.Error(err))
		return NewError(req.ID, CodeInternalError, err.Error())
	}

	descriptor, err := s.registry.Lookup(params.Name)
	if err != nil {
		log.Info("Tool not found", zap.String("tool", params.Name))
		return NewError(req.ID, CodeMethodNotFound, "Tool not found: "+params.Name)
	}

	inv, err := descriptor.Invocation(params.Arguments)
	if err != nil {
		log.Warn("Cannot build invocation", zap.String("tool", descriptor.Name), zap.Error(err))
		return NewError(req.ID, CodeInternalError, err.Error())
	}

	cmd := tactile.Command{
		ID:      uuid.NewString(),
		Line:    inv.Line,
		Timeout: s.opts.Timeout,
	}
	if s.opts.Mode == config.ModeArgv && !descriptor.IsRaw() {
		cmd.Argv = inv.Argv
	}

	log.Info("Calling tool",
		zap.String("tool", descriptor.Name),
		zap.String("exec_id", cmd.ID))
	outcome := s.executor.Run(ctx, cmd)

	text := RenderOutcome(descriptor.Name, descriptor.Command, inv.Line, outcome, s.opts.Limits)
	return NewResult(req.ID, TextResult(text))
}

func decodeToolCallParams(raw json.RawMessage) (ToolCallParams, error) {
	var params ToolCallParams
	if len(raw) == 0 {
		return params, errors.New("tools/call requires params")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return params, fmt.Errorf("invalid tools/call params: %w", err)
	}
	if params.Name == "" {
		return params, errors.New("tools/call params missing name")
	}
	return params, nil
}
