package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swimbench/swimbench/internal/tools"
)

// Tool names exposed over MCP.
const (
	ToolQueryStandards  = "queryStandards"
	ToolSearchKnowledge = "searchKnowledge"
)

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Postgres  *tools.Postgres
	Knowledge *tools.Knowledge
	Logger    *slog.Logger
}

// Server wraps the MCP SDK server and the SwimBench toolsets.
type Server struct {
	mcpServer *mcp.Server
	postgres  *tools.Postgres
	knowledge *tools.Knowledge
	logger    *slog.Logger
	name      string
	version   string
}

// NewServer creates an MCP server with both tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres tools is required")
	}
	if cfg.Knowledge == nil {
		return nil, fmt.Errorf("knowledge tools is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		postgres:  cfg.Postgres,
		knowledge: cfg.Knowledge,
		logger:    logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport. This is a blocking call
// that handles all protocol communication until the context is canceled or
// the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("MCP server starting", "name", s.name, "version", s.version)
	return s.mcpServer.Run(ctx, transport)
}

// registerTools registers the benchmark tools with the MCP server.
// Input schemas are inferred from the toolsets' input structs so the MCP
// surface and the Genkit surface stay in sync.
func (s *Server) registerTools() error {
	querySchema, err := jsonschema.For[tools.QueryDatabaseInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolQueryStandards, err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolQueryStandards,
		Description: "Execute a single SQL statement against the swimming benchmark database. " +
			"The benchmark schema holds motivational_standards (event, age_group, gender, " +
			"course, standard, time_seconds). Returns column names and at most 100 rows. " +
			"One statement per call; other schemas are not reachable.",
		InputSchema: querySchema,
	}, s.QueryStandards)

	searchSchema, err := jsonschema.For[tools.KnowledgeSearchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolSearchKnowledge, err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolSearchKnowledge,
		Description: "Search the swimming knowledge base using semantic similarity. " +
			"Finds document chunks (time standards, records, articles) related to the query. " +
			"Optional contentType filter: 'standards', 'records', 'articles'. " +
			"Default topK 5, maximum 10.",
		InputSchema: searchSchema,
	}, s.SearchKnowledge)

	return nil
}

// QueryStandards handles the queryStandards MCP tool call.
func (s *Server) QueryStandards(ctx context.Context, _ *mcp.CallToolRequest, input tools.QueryDatabaseInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.postgres.QueryDatabase(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("queryStandards failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// SearchKnowledge handles the searchKnowledge MCP tool call.
func (s *Server) SearchKnowledge(ctx context.Context, _ *mcp.CallToolRequest, input tools.KnowledgeSearchInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.knowledge.SearchKnowledge(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("searchKnowledge failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}
