package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectClient wires a server and a client over in-memory transports and
// returns the client session, ready for tool calls.
func connectClient(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := srv.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func TestProtocol_ListTools(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	session := connectClient(t, srv)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error: %v", err)
	}

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			t.Errorf("tool %s has no input schema", tool.Name)
		}
	}
	sort.Strings(names)

	want := []string{ToolQueryStandards, ToolSearchKnowledge}
	if len(names) != len(want) {
		t.Fatalf("ListTools() returned %v, want exactly %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListTools()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestProtocol_CallTool_SearchKnowledge(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	session := connectClient(t, srv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolSearchKnowledge,
		Arguments: map[string]any{"query": "motivational standards", "topK": 3},
	})
	if err != nil {
		t.Fatalf("CallTool(%s) error: %v", ToolSearchKnowledge, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned error result: %s", ToolSearchKnowledge, resultText(t, res))
	}

	var payload struct {
		Query       string `json:"query"`
		ResultCount int    `json:"result_count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("unmarshaling result: %v", err)
	}
	if payload.Query != "motivational standards" {
		t.Errorf("payload query = %q, want original query echoed", payload.Query)
	}
	if payload.ResultCount != 2 {
		t.Errorf("result_count = %d, want 2", payload.ResultCount)
	}
}

func TestProtocol_CallTool_InvalidContentType(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	session := connectClient(t, srv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolSearchKnowledge,
		Arguments: map[string]any{"query": "records", "contentType": "secrets"},
	})
	if err != nil {
		t.Fatalf("CallTool(%s) error: %v", ToolSearchKnowledge, err)
	}
	if !res.IsError {
		t.Fatal("invalid contentType should produce an error result, not success")
	}
	if text := resultText(t, res); !strings.Contains(text, "[ValidationError]") {
		t.Errorf("error text = %q, want [ValidationError] prefix", text)
	}
}

func TestProtocol_CallTool_QueryStandards_EmptyQuery(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	session := connectClient(t, srv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolQueryStandards,
		Arguments: map[string]any{"query": ""},
	})
	if err != nil {
		t.Fatalf("CallTool(%s) error: %v", ToolQueryStandards, err)
	}
	if !res.IsError {
		t.Fatal("empty query should produce an error result")
	}
	if text := resultText(t, res); !strings.Contains(text, "query is required") {
		t.Errorf("error text = %q, want mention of the missing query", text)
	}
}

func TestProtocol_CallTool_UnknownTool(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	session := connectClient(t, srv)

	_, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "dropAllTables",
	})
	if err == nil {
		t.Fatal("calling an unregistered tool should fail")
	}
	if !strings.Contains(err.Error(), "dropAllTables") {
		t.Errorf("error = %q, want the unknown tool named", err)
	}
}
