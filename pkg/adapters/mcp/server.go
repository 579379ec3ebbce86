// Package mcp exposes the review funnel as Model Context Protocol tools,
// so an agent can walk a customer through a campaign.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/dto"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionsURI lists live sessions.
const SessionsURI = "funnel://sessions"

// FunnelResponse is returned by every session tool.
type FunnelResponse struct {
	SessionID string      `json:"session_id" jsonschema_description:"The session to pass to subsequent calls"`
	View      domain.View `json:"view" jsonschema_description:"The screen the customer is on"`
	Problems  []string    `json:"problems,omitempty" jsonschema_description:"Why the last request could not move the session"`
}

// EndResponse confirms a closed session.
type EndResponse struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

// Engine defines the funnel operations exposed over MCP.
type Engine interface {
	Mount(ctx context.Context, viewer domain.Viewer, campaignID string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	View(ctx context.Context, id string) (domain.View, error)
	Update(ctx context.Context, id string, patch domain.FormPatch) (*domain.Session, error)
	Advance(ctx context.Context, viewer domain.Viewer, id string) (*domain.Session, error)
	Back(ctx context.Context, id string) (*domain.Session, error)
	Navigate(ctx context.Context, id, location string) (*domain.Session, error)
	Share(ctx context.Context, id string) (domain.ShareDecision, error)
	Unmount(ctx context.Context, id string) error
}

// Server wraps the Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("funnel-mcp", strings.TrimSpace(funnel.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_review",
		mcp.WithDescription("Open a review session for a campaign. Use \"demo-campaign\" to try the funnel without recording anything."),
		mcp.WithString("campaign_id", mcp.Required(), mcp.Description("Campaign identifier")),
		mcp.WithString("token", mcp.Description("Customer bearer token (optional)")),
		mcp.WithOutputSchema[FunnelResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("update_form",
		mcp.WithDescription("Set fields on the current step. Fields: "+strings.Join(dto.PatchFields, ", ")+"."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON object of field values")),
		mcp.WithOutputSchema[FunnelResponse](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	s.mcpServer.AddTool(mcp.NewTool("continue",
		mcp.WithDescription("Validate the current step and move to the next one. Leaving the feedback step submits the review."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("token", mcp.Description("Customer bearer token (optional)")),
		mcp.WithOutputSchema[FunnelResponse](),
	), mcp.NewStructuredToolHandler(s.handleContinue))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Go back one step. Entered data is kept."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[FunnelResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Follow a funnel address such as /review/{campaign}/step/{n}."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("location", mcp.Required(), mcp.Description("Funnel address")),
		mcp.WithOutputSchema[FunnelResponse](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("share",
		mcp.WithDescription("Get the marketplace link where the customer can paste their review."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[domain.ShareDecision](),
	), mcp.NewStructuredToolHandler(s.handleShare))

	s.mcpServer.AddTool(mcp.NewTool("end_review",
		mcp.WithDescription("Close the session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[EndResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnd))
}

func viewerFrom(args map[string]any) domain.Viewer {
	if token, _ := args["token"].(string); token != "" {
		return domain.Viewer{Token: token}
	}
	return domain.Anonymous()
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FunnelResponse, error) {
	campaignID, _ := args["campaign_id"].(string)
	sess, err := s.engine.Mount(ctx, viewerFrom(args), campaignID)
	if err != nil {
		return FunnelResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.respond(ctx, sess.ID, nil)
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FunnelResponse, error) {
	id, _ := args["session_id"].(string)
	raw, _ := args["fields"].(string)

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return FunnelResponse{}, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	patch, err := dto.DecodePatch(fields)
	if err != nil {
		return FunnelResponse{}, err
	}
	_, err = s.engine.Update(ctx, id, patch)
	return s.respond(ctx, id, err)
}

func (s *Server) handleContinue(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FunnelResponse, error) {
	id, _ := args["session_id"].(string)
	_, err := s.engine.Advance(ctx, viewerFrom(args), id)
	return s.respond(ctx, id, err)
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FunnelResponse, error) {
	id, _ := args["session_id"].(string)
	_, err := s.engine.Back(ctx, id)
	return s.respond(ctx, id, err)
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FunnelResponse, error) {
	id, _ := args["session_id"].(string)
	location, _ := args["location"].(string)
	_, err := s.engine.Navigate(ctx, id, location)
	return s.respond(ctx, id, err)
}

func (s *Server) handleShare(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.ShareDecision, error) {
	id, _ := args["session_id"].(string)
	return s.engine.Share(ctx, id)
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EndResponse, error) {
	id, _ := args["session_id"].(string)
	if err := s.engine.Unmount(ctx, id); err != nil {
		return EndResponse{}, fmt.Errorf("end failed: %w", err)
	}
	return EndResponse{SessionID: id, Closed: true}, nil
}

// respond renders the session. Errors that leave the session readable
// (validation, submission, in-flight) become problems on the response so
// the agent sees what the customer would see.
func (s *Server) respond(ctx context.Context, id string, opErr error) (FunnelResponse, error) {
	view, err := s.engine.View(ctx, id)
	if err != nil {
		if opErr != nil {
			return FunnelResponse{}, opErr
		}
		return FunnelResponse{}, err
	}

	resp := FunnelResponse{SessionID: id, View: view}
	if opErr != nil {
		s.logger.Debug("MCP operation rejected", "session_id", id, "err", opErr)
		resp.Problems = problems(opErr)
	}
	return resp, nil
}

func problems(err error) []string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		out := make([]string, 0, len(verr.Fields))
		for field, msg := range verr.Fields {
			out = append(out, field+": "+msg)
		}
		sort.Strings(out)
		return out
	}
	return []string{err.Error()}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Live review sessions",
		mcp.WithMIMEType("application/json"),
	), s.readSessions)
}

func (s *Server) readSessions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.engine.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
