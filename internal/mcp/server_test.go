package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nmelo/mcp-pinecone/internal/docstore"
	"github.com/nmelo/mcp-pinecone/internal/mcp"
	"github.com/nmelo/mcp-pinecone/pkg/testutil"
	"github.com/nmelo/mcp-pinecone/pkg/types"
)

type rpcEnvelope struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  map[string]any `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newHandler(t *testing.T, store *docstore.Store) http.Handler {
	t.Helper()
	return mcp.New(mcp.Config{Store: store}).Handler()
}

// storeWithMocks builds a real document store on top of mock clients.
func storeWithMocks(t *testing.T) (*docstore.Store, *testutil.MockVectorClient, *testutil.MockEmbeddingClient) {
	t.Helper()
	mockEmbedding := &testutil.MockEmbeddingClient{}
	mockVectors := testutil.NewMockVectorClient()
	store, err := docstore.New(docstore.Config{
		Embedding: mockEmbedding,
		Vectors:   mockVectors,
	})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, mockVectors, mockEmbedding
}

func doRPC(t *testing.T, handler http.Handler, body string) (*httptest.ResponseRecorder, rpcEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env rpcEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func toolCallBody(t *testing.T, id int, name string, args map[string]any) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	return string(body)
}

// contentText extracts the text of the first content item in a tool result.
func contentText(t *testing.T, env rpcEnvelope) string {
	t.Helper()
	content, ok := env.Result["content"].([]any)
	if !ok || len(content) == 0 {
		t.Fatalf("Expected content array in result, got %v", env.Result)
	}
	item, ok := content[0].(map[string]any)
	if !ok {
		t.Fatalf("Expected content item object, got %v", content[0])
	}
	if item["type"] != "text" {
		t.Errorf("Expected text content, got %v", item["type"])
	}
	text, _ := item["text"].(string)
	return text
}

// TestRootDescriptor tests the service descriptor served on GET /.
func TestRootDescriptor(t *testing.T) {
	handler := newHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["service"] != "mcp-pinecone-web" {
		t.Errorf("Expected service name, got %v", body["service"])
	}
	if body["version"] != "1.0.0" {
		t.Errorf("Expected version, got %v", body["version"])
	}
}

// TestRootUnknownPath tests that unregistered paths 404.
func TestRootUnknownPath(t *testing.T) {
	handler := newHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// TestHealth tests that health reporting tracks store initialization.
func TestHealth(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		handler := newHandler(t, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 even without a store, got %d", rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["status"] != "healthy" {
			t.Errorf("Expected healthy status, got %v", body["status"])
		}
		if body["pinecone_initialized"] != false {
			t.Errorf("Expected pinecone_initialized false, got %v", body["pinecone_initialized"])
		}
	})

	t.Run("store available", func(t *testing.T) {
		store, _, _ := storeWithMocks(t)
		handler := newHandler(t, store)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["pinecone_initialized"] != true {
			t.Errorf("Expected pinecone_initialized true, got %v", body["pinecone_initialized"])
		}
	})
}

// TestToolNamesEndpoint tests the plain tool name listing on GET /tools.
func TestToolNamesEndpoint(t *testing.T) {
	handler := newHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Tools []string `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}

	want := []string{"semantic-search", "process-document", "list-documents", "read-document", "pinecone-stats"}
	if len(body.Tools) != len(want) {
		t.Fatalf("Expected %d tools, got %d", len(want), len(body.Tools))
	}
	for i, name := range want {
		if body.Tools[i] != name {
			t.Errorf("Expected tool %q at position %d, got %q", name, i, body.Tools[i])
		}
	}
}

// TestInitialize tests the initialize handshake result.
func TestInitialize(t *testing.T) {
	handler := newHandler(t, nil)

	rec, env := doRPC(t, handler, `{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Expected no error, got %+v", env.Error)
	}
	if env.ID != float64(1) {
		t.Errorf("Expected id 1 echoed back, got %v", env.ID)
	}
	if env.Result["protocolVersion"] != "2024-11-05" {
		t.Errorf("Expected protocol version, got %v", env.Result["protocolVersion"])
	}

	capabilities, ok := env.Result["capabilities"].(map[string]any)
	if !ok {
		t.Fatalf("Expected capabilities object, got %v", env.Result["capabilities"])
	}
	if _, ok := capabilities["tools"]; !ok {
		t.Error("Expected tools capability to be declared")
	}

	serverInfo, ok := env.Result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatalf("Expected serverInfo object, got %v", env.Result["serverInfo"])
	}
	if serverInfo["name"] != "mcp-pinecone-web" || serverInfo["version"] != "1.0.0" {
		t.Errorf("Unexpected serverInfo: %v", serverInfo)
	}
}

// TestToolsList tests the full tool descriptors served by tools/list.
func TestToolsList(t *testing.T) {
	handler := newHandler(t, nil)

	_, env := doRPC(t, handler, `{"jsonrpc": "2.0", "id": 2, "method": "tools/list"}`)
	if env.Error != nil {
		t.Fatalf("Expected no error, got %+v", env.Error)
	}

	tools, ok := env.Result["tools"].([]any)
	if !ok {
		t.Fatalf("Expected tools array, got %v", env.Result["tools"])
	}
	if len(tools) != 5 {
		t.Fatalf("Expected 5 tool descriptors, got %d", len(tools))
	}

	required := map[string]string{
		"semantic-search":  "query",
		"process-document": "text",
		"read-document":    "document_id",
	}

	for _, raw := range tools {
		tool, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("Expected tool object, got %v", raw)
		}
		name, _ := tool["name"].(string)
		if name == "" {
			t.Error("Expected every tool to have a name")
		}
		if desc, _ := tool["description"].(string); desc == "" {
			t.Errorf("Expected description for tool %q", name)
		}

		schema, ok := tool["inputSchema"].(map[string]any)
		if !ok {
			t.Fatalf("Expected inputSchema for tool %q", name)
		}
		if schema["type"] != "object" {
			t.Errorf("Expected object schema for tool %q, got %v", name, schema["type"])
		}
		if _, ok := schema["properties"]; !ok {
			t.Errorf("Expected properties for tool %q", name)
		}

		if wantRequired, ok := required[name]; ok {
			reqList, ok := schema["required"].([]any)
			if !ok || len(reqList) == 0 {
				t.Errorf("Expected required fields for tool %q", name)
				continue
			}
			found := false
			for _, field := range reqList {
				if field == wantRequired {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected %q to be required for tool %q, got %v", wantRequired, name, reqList)
			}
		}
	}
}

// TestMethodNotFound tests the -32601 error for unknown methods.
func TestMethodNotFound(t *testing.T) {
	handler := newHandler(t, nil)

	rec, env := doRPC(t, handler, `{"jsonrpc": "2.0", "id": 3, "method": "resources/list"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Error == nil {
		t.Fatal("Expected error, got nil")
	}
	if env.Error.Code != -32601 {
		t.Errorf("Expected code -32601, got %d", env.Error.Code)
	}
	if !strings.Contains(env.Error.Message, "resources/list") {
		t.Errorf("Expected message to name the method, got %q", env.Error.Message)
	}
}

// TestParseError tests that malformed JSON yields -32700 with HTTP 200.
func TestParseError(t *testing.T) {
	handler := newHandler(t, nil)

	rec, env := doRPC(t, handler, `{"jsonrpc": "2.0", "id": `)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for parse error, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != -32700 {
		t.Fatalf("Expected -32700 error, got %+v", env.Error)
	}
	if env.ID != nil {
		t.Errorf("Expected null id for parse error, got %v", env.ID)
	}
}

// TestInvalidJSONRPCVersion tests the -32600 error for a wrong version tag.
func TestInvalidJSONRPCVersion(t *testing.T) {
	handler := newHandler(t, nil)

	rec, env := doRPC(t, handler, `{"jsonrpc": "1.0", "id": 4, "method": "initialize"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != -32600 {
		t.Fatalf("Expected -32600 error, got %+v", env.Error)
	}
	if env.ID != float64(4) {
		t.Errorf("Expected id echoed back, got %v", env.ID)
	}
}

// TestNotificationAccepted tests that id-less requests get 202 and no body.
func TestNotificationAccepted(t *testing.T) {
	handler := newHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc": "2.0", "method": "notifications/initialized"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}
}

// TestToolsCallWithoutStore tests that tool calls degrade to a success-shaped
// text payload while the vector store is unavailable.
func TestToolsCallWithoutStore(t *testing.T) {
	handler := newHandler(t, nil)

	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "pinecone-stats", "arguments": {}}}`
	rec, env := doRPC(t, handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if env.JSONRPC != "2.0" {
		t.Errorf("Expected jsonrpc 2.0, got %q", env.JSONRPC)
	}
	if env.ID != float64(1) {
		t.Errorf("Expected id 1 echoed back, got %v", env.ID)
	}

	text := contentText(t, env)
	if !strings.Contains(text, "not initialized") {
		t.Errorf("Expected unavailability message, got %q", text)
	}

	// Every tool degrades the same way, known or not.
	_, env = doRPC(t, handler, toolCallBody(t, 2, "semantic-search", map[string]any{"query": "q"}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if !strings.Contains(contentText(t, env), "not initialized") {
		t.Error("Expected unavailability message for every tool")
	}
}

// TestToolsCallInvalidParams tests the -32602 error for malformed params.
func TestToolsCallInvalidParams(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, `{"jsonrpc": "2.0", "id": 5, "method": "tools/call", "params": 5}`)
	if env.Error == nil || env.Error.Code != -32602 {
		t.Fatalf("Expected -32602 error, got %+v", env.Error)
	}
}

// TestUnknownTool tests the text payload for an unrecognized tool name.
func TestUnknownTool(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	rec, env := doRPC(t, handler, toolCallBody(t, 6, "does-not-exist", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if text := contentText(t, env); text != "Unknown tool: does-not-exist" {
		t.Errorf("Unexpected text: %q", text)
	}
}

// TestSemanticSearchTool tests the search tool end to end over the façade.
func TestSemanticSearchTool(t *testing.T) {
	store, mockVectors, mockEmbedding := storeWithMocks(t)
	mockVectors.SearchFunc = func(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
		return []types.VectorMatch{
			{
				ID:    "doc-1",
				Score: 0.87,
				Metadata: map[string]any{
					"title": "Design notes",
					"text":  "the long form content",
				},
			},
		}, nil
	}
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 7, "semantic-search", map[string]any{
		"query": "how was it designed",
		"top_k": 5,
	}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}

	if mockEmbedding.LastText != "how was it designed" {
		t.Errorf("Expected query to be embedded, got %q", mockEmbedding.LastText)
	}

	text := contentText(t, env)
	if !strings.Contains(text, "Found 1 documents") {
		t.Errorf("Expected match count in text, got %q", text)
	}
	if !strings.Contains(text, "Design notes") || !strings.Contains(text, "doc-1") {
		t.Errorf("Expected match details in text, got %q", text)
	}
}

// TestSemanticSearchToolError tests that search failures stay success-shaped.
func TestSemanticSearchToolError(t *testing.T) {
	store, mockVectors, _ := storeWithMocks(t)
	mockVectors.SearchFunc = func(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]any) ([]types.VectorMatch, error) {
		return nil, context.DeadlineExceeded
	}
	handler := newHandler(t, store)

	rec, env := doRPC(t, handler, toolCallBody(t, 8, "semantic-search", map[string]any{"query": "q"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 despite tool failure, got %d", rec.Code)
	}
	if env.Error != nil {
		t.Fatalf("Expected no JSON-RPC error, got %+v", env.Error)
	}
	if text := contentText(t, env); !strings.Contains(text, "Error searching documents") {
		t.Errorf("Expected error text, got %q", text)
	}
}

// TestSemanticSearchToolRequiresQuery tests the missing-argument text.
func TestSemanticSearchToolRequiresQuery(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 9, "semantic-search", map[string]any{}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if text := contentText(t, env); !strings.Contains(text, "query is required") {
		t.Errorf("Expected missing-query text, got %q", text)
	}
}

// TestProcessDocumentTool tests storing a document through the façade.
func TestProcessDocumentTool(t *testing.T) {
	store, mockVectors, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 10, "process-document", map[string]any{
		"document_id": "runbook-1",
		"title":       "Runbook",
		"text":        "restart the service",
		"metadata":    map[string]any{"team": "platform"},
		"namespace":   "ops",
	}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if text := contentText(t, env); !strings.Contains(text, "runbook-1") {
		t.Errorf("Expected stored id in text, got %q", text)
	}

	record, ok := mockVectors.Storage["runbook-1"]
	if !ok {
		t.Fatal("Expected document to be upserted")
	}
	if record.Metadata["title"] != "Runbook" || record.Metadata["team"] != "platform" {
		t.Errorf("Unexpected stored metadata: %v", record.Metadata)
	}
	if mockVectors.LastNamespace != "ops" {
		t.Errorf("Expected namespace ops, got %q", mockVectors.LastNamespace)
	}
}

// TestProcessDocumentToolGeneratesID tests id generation when none is given.
func TestProcessDocumentToolGeneratesID(t *testing.T) {
	store, mockVectors, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 11, "process-document", map[string]any{
		"text": "anonymous document",
	}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	text := contentText(t, env)
	if !strings.Contains(text, "Document stored with id:") {
		t.Fatalf("Expected stored confirmation, got %q", text)
	}
	if len(mockVectors.Storage) != 1 {
		t.Errorf("Expected exactly one stored document, got %d", len(mockVectors.Storage))
	}
}

// TestProcessDocumentToolRequiresText tests the missing-argument text.
func TestProcessDocumentToolRequiresText(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 12, "process-document", map[string]any{"title": "no text"}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if text := contentText(t, env); !strings.Contains(text, "text is required") {
		t.Errorf("Expected missing-text message, got %q", text)
	}
}

// TestListDocumentsTool tests the listing tool through the façade.
func TestListDocumentsTool(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	for _, body := range []string{
		toolCallBody(t, 13, "process-document", map[string]any{"document_id": "a", "title": "Alpha", "text": "first"}),
		toolCallBody(t, 14, "process-document", map[string]any{"document_id": "b", "text": "second"}),
	} {
		if _, env := doRPC(t, handler, body); env.Error != nil {
			t.Fatalf("Failed to seed document: %+v", env.Error)
		}
	}

	_, env := doRPC(t, handler, toolCallBody(t, 15, "list-documents", nil))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	text := contentText(t, env)
	if !strings.Contains(text, "Stored documents (2)") {
		t.Errorf("Expected document count, got %q", text)
	}
	if !strings.Contains(text, "a: Alpha") || !strings.Contains(text, "- b") {
		t.Errorf("Expected document lines, got %q", text)
	}
}

// TestReadDocumentTool tests reading a document back through the façade.
func TestReadDocumentTool(t *testing.T) {
	store, _, _ := storeWithMocks(t)
	handler := newHandler(t, store)

	seed := toolCallBody(t, 16, "process-document", map[string]any{
		"document_id": "doc-9",
		"title":       "Postmortem",
		"text":        "what went wrong and why",
		"metadata":    map[string]any{"severity": "low"},
	})
	if _, env := doRPC(t, handler, seed); env.Error != nil {
		t.Fatalf("Failed to seed document: %+v", env.Error)
	}

	_, env := doRPC(t, handler, toolCallBody(t, 17, "read-document", map[string]any{"document_id": "doc-9"}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	text := contentText(t, env)
	if !strings.Contains(text, "Postmortem") || !strings.Contains(text, "what went wrong and why") {
		t.Errorf("Expected document content, got %q", text)
	}
	if !strings.Contains(text, "severity: low") {
		t.Errorf("Expected metadata in text, got %q", text)
	}

	// Missing documents degrade to text as well.
	_, env = doRPC(t, handler, toolCallBody(t, 18, "read-document", map[string]any{"document_id": "ghost"}))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	if text := contentText(t, env); !strings.Contains(text, "Error reading document") {
		t.Errorf("Expected read error text, got %q", text)
	}
}

// TestPineconeStatsTool tests the stats tool through the façade.
func TestPineconeStatsTool(t *testing.T) {
	store, mockVectors, _ := storeWithMocks(t)
	mockVectors.StatsFunc = func(ctx context.Context) (*types.IndexStats, error) {
		return &types.IndexStats{
			Dimension:        1536,
			TotalVectorCount: 42,
			IndexFullness:    0.1,
			Namespaces:       map[string]uint32{"": 40, "ops": 2},
		}, nil
	}
	handler := newHandler(t, store)

	_, env := doRPC(t, handler, toolCallBody(t, 19, "pinecone-stats", nil))
	if env.Error != nil {
		t.Fatalf("Expected result payload, got error %+v", env.Error)
	}
	text := contentText(t, env)
	if !strings.Contains(text, "dimension: 1536") {
		t.Errorf("Expected dimension in text, got %q", text)
	}
	if !strings.Contains(text, "total vectors: 42") {
		t.Errorf("Expected vector count in text, got %q", text)
	}
	if !strings.Contains(text, "(default): 40") || !strings.Contains(text, "ops: 2") {
		t.Errorf("Expected namespace breakdown, got %q", text)
	}
}

// TestRootMethodNotAllowed tests the 405 for unsupported verbs.
func TestRootMethodNotAllowed(t *testing.T) {
	handler := newHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
