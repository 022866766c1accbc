package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/internal/presentation/graph"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TaskURI is the resource holding the selected task.
const TaskURI = "autopilot://task"

// Engine defines what the MCP server needs from the autopilot engine.
type Engine interface {
	ListTasks(ctx context.Context) ([]string, error)
	LoadTask(ctx context.Context, name string) (*domain.Task, error)
	Open(ctx context.Context, name string) (*domain.Task, error)
	Task() *domain.Task
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() domain.Status
	Reports() []domain.Report
}

// TaskView is the JSON form of a task returned by the tools.
type TaskView struct {
	Name    string          `json:"name" jsonschema_description:"Task name"`
	Records []schema.Record `json:"records" jsonschema_description:"Node records in insertion order"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("autopilot-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the names of every stored task."),
	), s.handleListTasks)

	s.mcpServer.AddTool(mcp.NewTool("show_task",
		mcp.WithDescription("Show the node records of a stored task."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
	), s.handleShowTask)

	s.mcpServer.AddTool(mcp.NewTool("open_task",
		mcp.WithDescription("Select a stored task for running. Fails while a task is running."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
	), s.handleOpenTask)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get a Mermaid flowchart of the selected task."),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("start",
		mcp.WithDescription("Start the selected task."),
		mcp.WithOutputSchema[domain.Status](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("stop",
		mcp.WithDescription("Stop the running task."),
		mcp.WithOutputSchema[domain.Status](),
	), mcp.NewStructuredToolHandler(s.handleStop))

	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Report whether a task is running, its run id and pending work."),
		mcp.WithOutputSchema[domain.Status](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("reports",
		mcp.WithDescription("List recent failures caught while running, oldest first."),
	), s.handleReports)
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.engine.ListTasks(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(names)
}

func (s *Server) handleShowTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.engine.LoadTask(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	return jsonResult(TaskView{Name: task.Name, Records: schema.TaskRecords(task)})
}

func (s *Server) handleOpenTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.engine.Open(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("opened %s (%d nodes)", task.Name, task.Len())), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overlay := &graph.GraphOverlay{CurrentNode: s.engine.Status().Current}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Task(), overlay)), nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Status, error) {
	// The run outlives the tool call.
	if err := s.engine.Start(context.WithoutCancel(ctx)); err != nil {
		return domain.Status{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("task started over MCP", "task", s.engine.Task().Name)
	return s.engine.Status(), nil
}

func (s *Server) handleStop(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Status, error) {
	if err := s.engine.Stop(context.WithoutCancel(ctx)); err != nil {
		return domain.Status{}, fmt.Errorf("stop failed: %w", err)
	}
	return s.engine.Status(), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.Status, error) {
	return s.engine.Status(), nil
}

func (s *Server) handleReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reports := s.engine.Reports()
	if reports == nil {
		reports = []domain.Report{}
	}
	return jsonResult(reports)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TaskURI, "Selected Task",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		task := s.engine.Task()
		jsonBytes, err := json.Marshal(TaskView{Name: task.Name, Records: schema.TaskRecords(task)})
		if err != nil {
			return nil, fmt.Errorf("failed to encode task: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TaskURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
